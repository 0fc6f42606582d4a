package pipeline

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"grouper/domain/core"
	"grouper/domain/trial"
	"grouper/internal/errors"
)

// rowParser accumulates the first parse error so record builders stay flat.
type rowParser struct {
	row trial.RawRow
	err error
}

func (p *rowParser) fail(column, raw string) {
	if p.err == nil {
		p.err = errors.WithCode(errors.CodeInvalidInput, core.NewInvalidValueError(column, p.row.Index, raw))
	}
}

// integer parses a required integer cell. Spreadsheets often store ids as
// floats ("759.0"), which are accepted when they are whole.
func (p *rowParser) integer(column string) int {
	raw := p.row.Get(column)
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		p.fail(column, raw)
		return 0
	}
	return int(f)
}

// number parses an optional numeric cell; blanks are undefined.
func (p *rowParser) number(column string) core.NullFloat {
	raw := p.row.Get(column)
	if raw == "" {
		return core.Undefined()
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(column, raw)
		return core.Undefined()
	}
	return core.Some(f)
}

func (p *rowParser) text(column string) string {
	return strings.TrimSpace(p.row.Get(column))
}

// blankRow reports a row with no value in any column except the ignored
// ones. Sheets keep such rows so raw indices stay aligned; they carry no trial
// and are skipped.
func blankRow(row trial.RawRow, ignore ...string) bool {
	for column, v := range row.Values {
		if slices.Contains(ignore, column) {
			continue
		}
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseReversalTrials(table *trial.RawTable, spec trial.TaskSpec) ([]trial.ReversalTrial, error) {
	out := make([]trial.ReversalTrial, 0, len(table.Rows))
	for _, row := range table.Rows {
		if blankRow(row) {
			continue
		}
		p := &rowParser{row: row}
		t := trial.ReversalTrial{
			RawIndex:      row.Index,
			SourceFile:    row.Source,
			Subject:       p.integer(trial.ColSubject),
			Session:       p.integer(trial.ColSession),
			WinningOption: p.text(spec.WinningColumn),
			Proba:         p.number(trial.ColProba),
			WinLose:       p.text(trial.ColWinLose),
			Choice:        p.text(spec.ChoiceColumn),
			Condition:     core.Text(p.text(trial.ColCondition)),
			Accuracy:      p.number(trial.ColAccuracy),
			RestCount:     p.number(trial.ColRestCount),
			Score:         p.number(trial.ColScore),
		}
		if p.err != nil {
			return nil, errors.Wrapf(p.err, "parsing %s", row.Source)
		}
		out = append(out, t)
	}
	return out, nil
}

func parseFaceTrials(table *trial.RawTable, spec trial.TaskSpec) ([]trial.FaceTrial, error) {
	task := spec.Task
	var filled []string
	if spec.BlockFromFilename {
		// the loader writes the block on every row, blank or not
		filled = []string{trial.ColBlock}
	}
	out := make([]trial.FaceTrial, 0, len(table.Rows))
	for _, row := range table.Rows {
		if blankRow(row, filled...) {
			continue
		}
		p := &rowParser{row: row}
		t := trial.FaceTrial{
			RawIndex:   row.Index,
			SourceFile: row.Source,
			Subject:    p.integer(trial.ColSubject),
			Block:      p.integer(trial.ColBlock),
			Trial:      p.integer(trial.ColTrial),
		}
		switch task {
		case trial.TaskFaceLearningLearning:
			t.LearningRating = p.number(trial.ColLearningRating)
		case trial.TaskFaceLearningRecall:
			t.CorrectAnswer = p.text(trial.ColCorrectAnswer)
			t.RecallAnswer = p.text(trial.ColRecallAnswer)
			t.RecallRating = p.number(trial.ColRecallRating)
			t.RecogAnswer = p.text(trial.ColRecogAnswer)
			t.RecogRating = p.number(trial.ColRecogRating)
		default:
			// Outputs of the learning and recall runs; any column may be absent.
			t.CorrectAnswer = p.text(trial.ColCorrectAnswer)
			t.LearningConfidence = p.number(trial.ColLearningConfidence)
			t.RecallConfidence = p.number(trial.ColRecallConfidence)
			t.RecogConfidence = p.number(trial.ColRecogConfidence)
			t.RecallAcc = p.number(trial.ColRecallAcc)
			t.RecogAcc = p.number(trial.ColRecogAcc)
			// Recall output rows always carry the correct answer.
			t.RecallTested = t.CorrectAnswer != "" || t.RecallAcc.Valid || t.RecogAcc.Valid
		}
		if p.err != nil {
			return nil, errors.Wrapf(p.err, "parsing %s", row.Source)
		}
		out = append(out, t)
	}
	return out, nil
}
