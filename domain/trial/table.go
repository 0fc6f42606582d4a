package trial

// Table is a named result handed to the output writer. Cells hold int,
// float64, string or nil; nil marks missing or undefined data.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Column returns the cells of the named column, or false if absent.
func (t Table) Column(name string) ([]any, bool) {
	idx := -1
	for i, h := range t.Headers {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, true
}

// Undefined counts nil cells in the named column.
func (t Table) Undefined(name string) int {
	cells, ok := t.Column(name)
	if !ok {
		return 0
	}
	n := 0
	for _, c := range cells {
		if c == nil {
			n++
		}
	}
	return n
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ReversalTrialsTable renders augmented reversal trials.
func ReversalTrialsTable(name string, spec TaskSpec, trials []ReversalTrial) Table {
	t := Table{
		Name: name,
		Headers: []string{ColSubject, ColSession, spec.WinningColumn, ColProba, ColWinLose,
			spec.ChoiceColumn, ColCondition, ColAccuracy, ColRestCount, ColScore,
			ColGroup, ColErrorSwitch, ColReversal, ColNumReversals},
		Rows: make([][]any, 0, len(trials)),
	}
	for _, tr := range trials {
		t.Rows = append(t.Rows, []any{
			tr.Subject, tr.Session, nullableString(tr.WinningOption), tr.Proba.Value(),
			nullableString(tr.WinLose), nullableString(tr.Choice), tr.Condition.Value(),
			tr.Accuracy.Value(), tr.RestCount.Value(), tr.Score.Value(),
			string(tr.Group), tr.ErrorSwitch, tr.Reversal, tr.NumReversals,
		})
	}
	return t
}

// ReversalsTable renders the per-subject/session reversal summary.
func ReversalsTable(rows []ReversalSummary) Table {
	t := Table{
		Name:    "Reversals",
		Headers: []string{ColSubject, ColSession, ColGroup, ColNumReversals, "Scorable Trials"},
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Subject, r.Session, string(r.Group), r.NumReversals, r.ScorableTrials})
	}
	return t
}

// WinshiftsTable renders per-subject/session win-shift proportions.
func WinshiftsTable(rows []WinshiftSummary) Table {
	t := Table{
		Name:    "Winshifts",
		Headers: []string{ColSubject, ColSession, ColGroup, "Win Shifts", "Win Followups", "Proportion"},
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Subject, r.Session, string(r.Group), r.WinShifts, r.WinFollowups, r.Proportion.Value()})
	}
	return t
}

// AvgWinshiftsTable renders pooled per-group/session proportions.
func AvgWinshiftsTable(rows []GroupWinshift) Table {
	t := Table{
		Name:    "Avg Winshifts",
		Headers: []string{ColGroup, ColSession, "Subjects", "Win Shifts", "Win Followups", "Mean Proportion"},
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{string(r.Group), r.Session, r.Subjects, r.WinShifts, r.WinFollowups, r.MeanProportion.Value()})
	}
	return t
}

// FaceTrialsTable renders face-learning trials with whichever derived
// columns the task produces.
func FaceTrialsTable(name string, task Task, trials []FaceTrial) Table {
	headers := []string{ColSubject, ColBlock, ColTrial}
	switch task {
	case TaskFaceLearningLearning:
		headers = append(headers, ColLearningConfidence)
	case TaskFaceLearningRecall:
		headers = append(headers, ColCorrectAnswer, ColRecallAnswer, ColRecogAnswer,
			ColRecallConfidence, ColRecogConfidence, ColRecallAcc, ColRecogAcc)
	default:
		headers = append(headers, ColLearningConfidence, ColRecallConfidence, ColRecogConfidence,
			ColRecallAcc, ColRecogAcc)
	}
	headers = append(headers, ColGroup)

	t := Table{Name: name, Headers: headers, Rows: make([][]any, 0, len(trials))}
	for _, tr := range trials {
		row := []any{tr.Subject, tr.Block, tr.Trial}
		switch task {
		case TaskFaceLearningLearning:
			row = append(row, tr.LearningConfidence.Value())
		case TaskFaceLearningRecall:
			row = append(row, nullableString(tr.CorrectAnswer), nullableString(tr.RecallAnswer),
				nullableString(tr.RecogAnswer), tr.RecallConfidence.Value(), tr.RecogConfidence.Value(),
				tr.RecallAcc.Value(), tr.RecogAcc.Value())
		default:
			row = append(row, tr.LearningConfidence.Value(), tr.RecallConfidence.Value(),
				tr.RecogConfidence.Value(), tr.RecallAcc.Value(), tr.RecogAcc.Value())
		}
		row = append(row, string(tr.Group))
		t.Rows = append(t.Rows, row)
	}
	return t
}

var metacognitionHeaders = []string{"Recall Corr", "Recog Corr", "Mean Learning Confidence", "JOL", "RCJ", "FOK"}

// BlockSummaryTable renders the per-(Subject, Block) face-learning summary.
func BlockSummaryTable(rows []BlockSummary) Table {
	t := Table{
		Name:    "Summary",
		Headers: append([]string{ColSubject, ColBlock, ColGroup, "Trials"}, metacognitionHeaders...),
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Subject, r.Block, string(r.Group), r.Trials,
			r.RecallCorr.Value(), r.RecogCorr.Value(), r.MeanLearningConfidence.Value(),
			r.JOL.Value(), r.RCJ.Value(), r.FOK.Value()})
	}
	return t
}

// GroupMeansTable renders per-group means of the block summary.
func GroupMeansTable(rows []GroupMetacognition) Table {
	t := Table{
		Name:    "Group Means",
		Headers: append([]string{ColGroup, "Blocks"}, metacognitionHeaders...),
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{string(r.Group), r.Blocks,
			r.RecallCorr.Value(), r.RecogCorr.Value(), r.MeanLearningConfidence.Value(),
			r.JOL.Value(), r.RCJ.Value(), r.FOK.Value()})
	}
	return t
}
