// Package pipeline runs one task over a loaded trial table: it classifies
// subjects, applies the task's derivations in order and hands back the
// output tables.
package pipeline

import (
	"context"
	"sort"
	"time"

	"grouper/domain/core"
	"grouper/domain/trial"
	"grouper/internal"
	"grouper/internal/cohort"
	"grouper/internal/errors"
	"grouper/internal/scoring"
	"grouper/ports"
)

// Result is the outcome of one run.
type Result struct {
	RunID      core.RunID
	Task       trial.Task
	InputRows  int
	Partitions int
	Tables     []trial.Table
	OutputPath string
	StartedAt  time.Time
	Duration   time.Duration
}

// Table returns the output table with the given name.
func (r *Result) Table(name string) (trial.Table, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return trial.Table{}, false
}

// Pipeline wires a classifier to the scoring stages. Source and sink are only
// needed by Execute.
type Pipeline struct {
	classifier *cohort.Classifier
	source     ports.TableSource
	sink       ports.TableSink
	logger     *internal.Logger
	now        func() time.Time
}

// New creates a pipeline that classifies subjects with classifier.
func New(classifier *cohort.Classifier, logger *internal.Logger) *Pipeline {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &Pipeline{
		classifier: classifier,
		logger:     logger.Named("Pipeline"),
		now:        time.Now,
	}
}

// WithSource sets where Execute loads the raw table from.
func (p *Pipeline) WithSource(source ports.TableSource) *Pipeline {
	p.source = source
	return p
}

// WithSink sets where Execute writes the output tables.
func (p *Pipeline) WithSink(sink ports.TableSink) *Pipeline {
	p.sink = sink
	return p
}

// Execute loads the task's table from the source, runs it and writes the
// result to the sink.
func (p *Pipeline) Execute(ctx context.Context, task trial.Task) (*Result, error) {
	if p.source == nil || p.sink == nil {
		return nil, errors.ConfigInvalid("pipeline needs both a source and a sink")
	}
	raw, err := p.source.Load(ctx, trial.SpecFor(task))
	if err != nil {
		return nil, classify(err, "loading input")
	}
	res, err := p.Run(ctx, task, raw)
	if err != nil {
		return nil, err
	}
	path, err := p.sink.Write(ctx, res.RunID, task, res.Tables)
	if err != nil {
		return nil, errors.Wrap(err, "writing output")
	}
	res.OutputPath = path
	p.logger.Info("run %s wrote %d tables to %s", res.RunID.Short(), len(res.Tables), path)
	return res, nil
}

// Run validates and scores raw for task. raw is not modified.
func (p *Pipeline) Run(ctx context.Context, task trial.Task, raw *trial.RawTable) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if raw == nil || len(raw.Headers) == 0 {
		return nil, errors.WithCode(errors.CodeInvalidInput, core.ErrEmptyInput)
	}
	spec := trial.SpecFor(task)
	if err := raw.Require(task, spec.Columns); err != nil {
		return nil, classify(err, "validating columns")
	}

	res := &Result{
		RunID:     core.NewRunID(),
		Task:      task,
		InputRows: len(raw.Rows),
		StartedAt: p.now(),
	}
	p.logger.Info("run %s: %s over %d rows", res.RunID.Short(), task, len(raw.Rows))

	var err error
	switch {
	case task.IsReversal():
		err = p.runReversal(ctx, spec, raw, res)
	case task.IsFaceLearning():
		err = p.runFaceLearning(ctx, spec, raw, res)
	default:
		err = errors.WithCode(errors.CodeUnknownTask, core.NewUnknownTaskError(task.String()))
	}
	if err != nil {
		return nil, err
	}
	res.Duration = p.now().Sub(res.StartedAt)
	p.logger.Debug("run %s finished in %s", res.RunID.Short(), res.Duration)
	return res, nil
}

func (p *Pipeline) runReversal(ctx context.Context, spec trial.TaskSpec, raw *trial.RawTable, res *Result) error {
	trials, err := parseReversalTrials(raw, spec)
	if err != nil {
		return err
	}
	sortReversalTrials(trials)
	trials = p.classifier.AssignReversal(trials, spec.Task)

	// Partitions are taken before practice rows go so that a subject with
	// nothing but practice still gets a zero row.
	partitions := collectPartitions(trials)
	res.Partitions = len(partitions)

	scorable := make([]trial.ReversalTrial, 0, len(trials))
	for _, t := range trials {
		if t.Scorable() {
			scorable = append(scorable, t)
		}
	}
	p.logger.Debug("%d of %d rows scorable across %d partitions", len(scorable), len(trials), len(partitions))
	if err := ctx.Err(); err != nil {
		return err
	}

	scored := scoring.ScoreErrorSwitches(scorable)
	scored, reversals := scoring.DetermineMaxReversals(scored, spec.Task, partitions)
	winshifts, groups := scoring.DetermineWinshiftProportions(scored, partitions)

	for _, w := range winshifts {
		if !w.Proportion.Valid {
			p.logger.Debug("subject %d session %d has no trial after a win", w.Subject, w.Session)
		}
	}

	res.Tables = []trial.Table{
		trial.ReversalTrialsTable(spec.Task.String(), spec, scored),
		trial.ReversalsTable(reversals),
		trial.WinshiftsTable(winshifts),
		trial.AvgWinshiftsTable(groups),
	}
	return nil
}

func (p *Pipeline) runFaceLearning(ctx context.Context, spec trial.TaskSpec, raw *trial.RawTable, res *Result) error {
	trials, err := parseFaceTrials(raw, spec)
	if err != nil {
		return err
	}
	sortFaceTrials(trials)
	trials = p.classifier.AssignFace(trials, spec.Task)
	if err := ctx.Err(); err != nil {
		return err
	}

	switch spec.Task {
	case trial.TaskFaceLearningLearning:
		trials = scoring.ScaleLearningConfidence(trials)
		res.Tables = []trial.Table{trial.FaceTrialsTable(spec.Task.String(), spec.Task, trials)}
	case trial.TaskFaceLearningRecall:
		trials = scoring.ScoreRecallTrials(trials)
		res.Tables = []trial.Table{trial.FaceTrialsTable(spec.Task.String(), spec.Task, trials)}
	default:
		trials = scoring.MergeFaceTrials(trials)
		blocks := scoring.SummarizeBlocks(trials)
		res.Tables = []trial.Table{
			trial.FaceTrialsTable(spec.Task.String(), spec.Task, trials),
			trial.BlockSummaryTable(blocks),
			trial.GroupMeansTable(scoring.GroupMeans(blocks)),
		}
	}
	res.Partitions = countFacePartitions(trials)
	return nil
}

// classify tags input problems with their application error code.
func classify(err error, message string) error {
	switch {
	case core.IsMissingColumnError(err):
		return errors.Wrap(errors.WithCode(errors.CodeMissingColumn, err), message)
	case core.IsInputError(err):
		return errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), message)
	}
	return errors.Wrap(err, message)
}

func sortReversalTrials(trials []trial.ReversalTrial) {
	sort.SliceStable(trials, func(i, j int) bool {
		if trials[i].Subject != trials[j].Subject {
			return trials[i].Subject < trials[j].Subject
		}
		return trials[i].Session < trials[j].Session
	})
}

func sortFaceTrials(trials []trial.FaceTrial) {
	sort.SliceStable(trials, func(i, j int) bool {
		a, b := trials[i], trials[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		return a.Trial < b.Trial
	})
}

func collectPartitions(trials []trial.ReversalTrial) []trial.Partition {
	seen := make(map[trial.PartitionKey]bool)
	var out []trial.Partition
	for _, t := range trials {
		if k := t.Key(); !seen[k] {
			seen[k] = true
			out = append(out, trial.Partition{PartitionKey: k, Group: t.Group})
		}
	}
	return out
}

func countFacePartitions(trials []trial.FaceTrial) int {
	seen := make(map[trial.PartitionKey]bool)
	for _, t := range trials {
		seen[t.Key()] = true
	}
	return len(seen)
}
