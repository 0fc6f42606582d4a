package pipeline

import (
	"context"
	stderrors "errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grouper/domain/core"
	"grouper/domain/trial"
	"grouper/internal"
	"grouper/internal/cohort"
	"grouper/internal/errors"
	"grouper/ports"
)

const testRoster = `
post_treatment_after_block: 5
cohorts:
  control: [701]
  sham: [702]
  treatment: [741]
`

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	r, err := cohort.ParseRoster([]byte(testRoster))
	require.NoError(t, err)
	return New(cohort.NewClassifier(r), internal.NewLogger(internal.LogLevelError))
}

func rawTable(headers []string, rows ...trial.RawRow) *trial.RawTable {
	return &trial.RawTable{Headers: headers, Rows: rows}
}

func rawRow(source string, index int, headers []string, cells ...string) trial.RawRow {
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(cells) {
			values[h] = cells[i]
		}
	}
	return trial.RawRow{Source: source, Index: index, Values: values}
}

var actionValueHeaders = trial.SpecFor(trial.TaskActionValue).Columns

// avRow fills Subject, Session, WinningAction, Proba, WinLose, ActionMade,
// Condition, Accuracy, RestCount and Score.
func avRow(source string, index int, subject, condition, winLose, action, rest string) trial.RawRow {
	return rawRow(source, index, actionValueHeaders,
		subject, "1", "A", "0.8", winLose, action, condition, "1", rest, "10")
}

func reversalInput() *trial.RawTable {
	return rawTable(actionValueHeaders,
		avRow("c.xlsx", 0, "999", "R1", "win", "A", "5"),
		avRow("b.xlsx", 0, "702", "Practice", "win", "A", "3"),
		avRow("b.xlsx", 1, "702", "", "lose", "B", "2"),
		avRow("a.xlsx", 0, "701", "Practice", "win", "A", "10"),
		avRow("a.xlsx", 1, "701", "Practice", "lose", "B", "9"),
		avRow("a.xlsx", 2, "701", "R1", "win", "A", "8"),
		avRow("a.xlsx", 3, "701", "R1", "lose", "B", "7"),
		avRow("a.xlsx", 4, "701", "R2", "win", "B", "6"),
		avRow("a.xlsx", 5, "701", "R2", "win", "B", "-1"),
		avRow("a.xlsx", 6, "701", "IL", "lose", "A", ""),
	)
}

func column(t *testing.T, table trial.Table, name string) []any {
	t.Helper()
	cells, ok := table.Column(name)
	require.True(t, ok, "column %s missing from %s", name, table.Name)
	return cells
}

func TestRun_ReversalTask(t *testing.T) {
	p := newTestPipeline(t)
	res, err := p.Run(context.Background(), trial.TaskActionValue, reversalInput())
	require.NoError(t, err)

	assert.Equal(t, 10, res.InputRows)
	assert.Equal(t, 3, res.Partitions)
	require.Len(t, res.Tables, 4)
	assert.Equal(t, []string{"ActionValue", "Reversals", "Winshifts", "Avg Winshifts"},
		[]string{res.Tables[0].Name, res.Tables[1].Name, res.Tables[2].Name, res.Tables[3].Name})

	trials := res.Tables[0]
	assert.Equal(t, []any{701, 701, 701, 701, 701, 999}, column(t, trials, trial.ColSubject))
	assert.Equal(t, []any{0, 1, 0, 0, 1, 0}, column(t, trials, trial.ColErrorSwitch))
	assert.Equal(t, []any{1, 1, 2, 0, 0, 1}, column(t, trials, trial.ColReversal))
	assert.Equal(t, []any{2, 2, 2, 2, 2, 1}, column(t, trials, trial.ColNumReversals))
	assert.Equal(t, []any{8.0, 7.0, 6.0, -1.0, 100.0, 5.0}, column(t, trials, trial.ColRestCount))
	assert.Equal(t, []any{"control", "control", "control", "control", "control", "NA"}, column(t, trials, trial.ColGroup))

	reversals, ok := res.Table("Reversals")
	require.True(t, ok)
	assert.Equal(t, [][]any{
		{999, 1, "NA", 1, 1},
		{701, 1, "control", 2, 5},
		{702, 1, "sham", 0, 0},
	}, reversals.Rows)

	winshifts, _ := res.Table("Winshifts")
	require.Len(t, winshifts.Rows, 3)
	assert.Equal(t, []any{999, 1, "NA", 0, 0, nil}, winshifts.Rows[0])
	assert.Equal(t, []any{701, 1, "control", 2, 3}, winshifts.Rows[1][:5])
	assert.InDelta(t, 2.0/3.0, winshifts.Rows[1][5], 1e-12)
	assert.Equal(t, []any{702, 1, "sham", 0, 0, nil}, winshifts.Rows[2])

	avg, _ := res.Table("Avg Winshifts")
	assert.Equal(t, []any{"NA", "control", "sham"}, column(t, avg, trial.ColGroup))
	assert.Equal(t, 2, avg.Undefined("Mean Proportion"))
}

func TestRun_ReversalIsDeterministic(t *testing.T) {
	p := newTestPipeline(t)
	first, err := p.Run(context.Background(), trial.TaskActionValue, reversalInput())
	require.NoError(t, err)
	second, err := p.Run(context.Background(), trial.TaskActionValue, reversalInput())
	require.NoError(t, err)
	assert.Equal(t, first.Tables, second.Tables)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_DoesNotModifyInput(t *testing.T) {
	in := reversalInput()
	before := in.Rows[0].Values[trial.ColSubject]
	_, err := newTestPipeline(t).Run(context.Background(), trial.TaskActionValue, in)
	require.NoError(t, err)
	assert.Equal(t, before, in.Rows[0].Values[trial.ColSubject])
	assert.Equal(t, "c.xlsx", in.Rows[0].Source)
}

func TestRun_MissingColumnAborts(t *testing.T) {
	headers := []string{trial.ColSubject, trial.ColSession}
	in := rawTable(headers, rawRow("a.xlsx", 0, headers, "701", "1"))

	res, err := newTestPipeline(t).Run(context.Background(), trial.TaskProbRL, in)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, errors.CodeMissingColumn, errors.GetCode(err))
	assert.True(t, stderrors.Is(err, core.ErrMissingColumn))

	var mc *core.MissingColumnError
	require.True(t, stderrors.As(err, &mc))
	assert.Equal(t, "Prob_RL", mc.Task)
}

func TestRun_InvalidSubject(t *testing.T) {
	in := rawTable(actionValueHeaders, avRow("a.xlsx", 0, "abc", "R1", "win", "A", "1"))
	_, err := newTestPipeline(t).Run(context.Background(), trial.TaskActionValue, in)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.True(t, stderrors.Is(err, core.ErrInvalidValue))
}

func TestRun_BlankSheetRowsAreSkipped(t *testing.T) {
	in := rawTable(actionValueHeaders,
		avRow("a.xlsx", 6, "701", "R1", "win", "A", "5"),
		rawRow("a.xlsx", 7, actionValueHeaders),
		avRow("a.xlsx", 8, "701", "R1", "lose", "B", "4"),
	)
	res, err := newTestPipeline(t).Run(context.Background(), trial.TaskActionValue, in)
	require.NoError(t, err)

	trials := res.Tables[0]
	assert.Equal(t, 2, trials.Len())
	assert.Equal(t, []any{0, 1}, column(t, trials, trial.ColErrorSwitch))
	assert.Equal(t, 3, res.InputRows)
	assert.Equal(t, 1, res.Partitions)
}

func TestRun_BlankRowWithBlockFromFilename(t *testing.T) {
	headers := trial.SpecFor(trial.TaskFaceLearningLearning).Columns
	in := rawTable(headers,
		rawRow("a.csv", 0, headers, "741", "4", "1", "4"),
		rawRow("a.csv", 1, headers, "", "4", "", ""),
	)
	res, err := newTestPipeline(t).Run(context.Background(), trial.TaskFaceLearningLearning, in)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tables[0].Len())
}

func TestRun_PartialRowStillInvalid(t *testing.T) {
	in := rawTable(actionValueHeaders,
		rawRow("a.xlsx", 0, actionValueHeaders, "", "1", "A"),
	)
	_, err := newTestPipeline(t).Run(context.Background(), trial.TaskActionValue, in)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestRun_EmptyInput(t *testing.T) {
	_, err := newTestPipeline(t).Run(context.Background(), trial.TaskActionValue, &trial.RawTable{})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, core.ErrEmptyInput))
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestPipeline(t).Run(ctx, trial.TaskActionValue, reversalInput())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_FaceLearningLearning(t *testing.T) {
	headers := trial.SpecFor(trial.TaskFaceLearningLearning).Columns
	in := rawTable(headers,
		rawRow("b.csv", 0, headers, "741", "6", "1", "2"),
		rawRow("a.csv", 1, headers, "741.0", "4", "2", ""),
		rawRow("a.csv", 0, headers, "741", "4", "1", "4"),
	)
	res, err := newTestPipeline(t).Run(context.Background(), trial.TaskFaceLearningLearning, in)
	require.NoError(t, err)
	require.Len(t, res.Tables, 1)

	table := res.Tables[0]
	assert.Equal(t, "FaceLearning-Learning", table.Name)
	assert.Equal(t, []any{4, 4, 6}, column(t, table, trial.ColBlock))
	assert.Equal(t, []any{1, 2, 1}, column(t, table, trial.ColTrial))
	conf := column(t, table, trial.ColLearningConfidence)
	assert.InDelta(t, 0.8, conf[0], 1e-12)
	assert.Nil(t, conf[1])
	assert.InDelta(t, 0.4, conf[2], 1e-12)
	assert.Equal(t, []any{"pre-treatment", "pre-treatment", "post-treatment"}, column(t, table, trial.ColGroup))
	assert.Equal(t, 2, res.Partitions)
}

func TestRun_FaceLearningRecall(t *testing.T) {
	headers := trial.SpecFor(trial.TaskFaceLearningRecall).Columns
	// Subject, Block, Trial, CorrectAnswer, recall answer/rating, recog answer/rating
	in := rawTable(headers,
		rawRow("a.csv", 0, headers, "701", "1", "1", "Anna", " anna ", "5", "", "3"),
		rawRow("a.csv", 1, headers, "701", "1", "2", "Bert", "Bart", "2", "Bert", "4"),
	)
	res, err := newTestPipeline(t).Run(context.Background(), trial.TaskFaceLearningRecall, in)
	require.NoError(t, err)

	table := res.Tables[0]
	assert.Equal(t, []any{1.0, 0.0}, column(t, table, trial.ColRecallAcc))
	assert.Equal(t, []any{nil, 1.0}, column(t, table, trial.ColRecogAcc))
	assert.Equal(t, []any{1.0, 0.4}, column(t, table, trial.ColRecallConfidence))
	recog := column(t, table, trial.ColRecogConfidence)
	assert.Nil(t, recog[0])
	assert.InDelta(t, 0.8, recog[1], 1e-12)
}

func TestRun_FaceLearningSummary(t *testing.T) {
	headers := []string{trial.ColSubject, trial.ColBlock, trial.ColTrial,
		trial.ColLearningConfidence, trial.ColRecallConfidence, trial.ColRecallAcc}
	acc := []string{"1", "1", "0", "0", "1", "0"}
	conf := []string{"1", "0.8", "0.2", "0.4", "0.6", "0.6"}

	var rows []trial.RawRow
	for i := 0; i < 6; i++ {
		trialNo := strconv.Itoa(i + 1)
		rows = append(rows, rawRow("FaceLearning-Learning.xlsx", i, headers, "701", "1", trialNo, "0.6", "", ""))
	}
	for i := 0; i < 6; i++ {
		trialNo := strconv.Itoa(i + 1)
		rows = append(rows, rawRow("FaceLearning-Recall.xlsx", i, headers, "701", "1", trialNo, "", conf[i], acc[i]))
	}

	res, err := newTestPipeline(t).Run(context.Background(), trial.TaskFaceLearning, rawTable(headers, rows...))
	require.NoError(t, err)
	require.Len(t, res.Tables, 3)
	assert.Equal(t, 6, res.Tables[0].Len())

	summary, ok := res.Table("Summary")
	require.True(t, ok)
	require.Len(t, summary.Rows, 1)
	row := summary.Rows[0]
	assert.Equal(t, []any{701, 1, "control", 6}, row[:4])
	assert.InDelta(t, 0.5, column(t, summary, "Recall Corr")[0], 1e-12)
	assert.InDelta(t, 0.0, column(t, summary, "Recog Corr")[0], 1e-12)
	assert.InDelta(t, 0.6, column(t, summary, "Mean Learning Confidence")[0], 1e-12)
	assert.InDelta(t, -0.1, column(t, summary, "JOL")[0], 1e-12)
	assert.InDelta(t, 1.0, column(t, summary, "RCJ")[0], 1e-12)
	assert.Nil(t, column(t, summary, "FOK")[0])

	means, ok := res.Table("Group Means")
	require.True(t, ok)
	assert.Equal(t, []any{"control"}, column(t, means, trial.ColGroup))
	assert.Equal(t, []any{1}, column(t, means, "Blocks"))
}

func TestRun_FaceLearningWithoutRecallOutput(t *testing.T) {
	headers := []string{trial.ColSubject, trial.ColBlock, trial.ColTrial, trial.ColLearningConfidence}
	var rows []trial.RawRow
	for i := 0; i < 6; i++ {
		rows = append(rows, rawRow("FaceLearning-Learning.xlsx", i, headers, "701", "2", strconv.Itoa(i+1), "0.8"))
	}

	res, err := newTestPipeline(t).Run(context.Background(), trial.TaskFaceLearning, rawTable(headers, rows...))
	require.NoError(t, err)

	summary, ok := res.Table("Summary")
	require.True(t, ok)
	require.Len(t, summary.Rows, 1)
	assert.Nil(t, column(t, summary, "Recall Corr")[0])
	assert.Nil(t, column(t, summary, "Recog Corr")[0])
	assert.Nil(t, column(t, summary, "JOL")[0])
	assert.InDelta(t, 0.8, column(t, summary, "Mean Learning Confidence")[0], 1e-12)
}

type recordingSink struct {
	task   trial.Task
	tables []trial.Table
}

func (s *recordingSink) Write(_ context.Context, _ core.RunID, task trial.Task, tables []trial.Table) (string, error) {
	s.task, s.tables = task, tables
	return "/tmp/out.xlsx", nil
}

func TestExecute(t *testing.T) {
	var requested trial.TaskSpec
	source := ports.TableSourceFunc(func(_ context.Context, spec trial.TaskSpec) (*trial.RawTable, error) {
		requested = spec
		return reversalInput(), nil
	})
	sink := &recordingSink{}

	res, err := newTestPipeline(t).WithSource(source).WithSink(sink).Execute(context.Background(), trial.TaskActionValue)
	require.NoError(t, err)
	assert.Equal(t, trial.TaskActionValue, requested.Task)
	assert.Equal(t, "/tmp/out.xlsx", res.OutputPath)
	assert.Equal(t, trial.TaskActionValue, sink.task)
	assert.Len(t, sink.tables, 4)
}

func TestExecute_SourceMissingColumn(t *testing.T) {
	source := ports.TableSourceFunc(func(_ context.Context, spec trial.TaskSpec) (*trial.RawTable, error) {
		return nil, core.NewMissingColumnError(spec.Task.String(), trial.ColScore, "s1.xlsx")
	})
	_, err := newTestPipeline(t).WithSource(source).WithSink(&recordingSink{}).Execute(context.Background(), trial.TaskProbRL)
	require.Error(t, err)
	assert.Equal(t, errors.CodeMissingColumn, errors.GetCode(err))
	assert.Contains(t, err.Error(), "s1.xlsx")
}

func TestExecute_RequiresSourceAndSink(t *testing.T) {
	_, err := newTestPipeline(t).Execute(context.Background(), trial.TaskProbRL)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
