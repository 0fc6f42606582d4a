package trial

import (
	"grouper/domain/core"
)

// Group is a cohort label.
type Group string

const (
	GroupControl       Group = "control"
	GroupSham          Group = "sham"
	GroupTreatment     Group = "treatment"
	GroupPreTreatment  Group = "pre-treatment"
	GroupPostTreatment Group = "post-treatment"
	GroupNA            Group = "NA"
)

// Outcome labels used in WinLose.
const (
	OutcomeWin  = "win"
	OutcomeLose = "lose"
)

// Sentinel condition labels.
const (
	ConditionPractice    = "Practice"
	ConditionInterLeaved = "IL"
)

// PartitionKey identifies one (Subject, Session) or (Subject, Block) sequence.
type PartitionKey struct {
	Subject int
	Unit    int // Session for reversal tasks, Block for face-learning tasks
}

// Partition is a partition key with its cohort. Pipelines collect these before
// dropping practice rows so that empty partitions still get a summary row.
type Partition struct {
	PartitionKey
	Group Group
}

// ReversalTrial is one row of an ActionValue or Prob_RL export.
type ReversalTrial struct {
	// RawIndex is the row position inside its source file. It is never
	// re-indexed after practice rows are dropped.
	RawIndex   int
	SourceFile string

	Subject       int
	Session       int
	WinningOption string
	Proba         core.NullFloat
	WinLose       string
	Choice        string
	Condition     core.NullString
	Accuracy      core.NullFloat
	RestCount     core.NullFloat
	Score         core.NullFloat

	Group Group

	ErrorSwitch  int
	Reversal     int
	NumReversals int
}

// Key returns the (Subject, Session) partition of the trial.
func (t ReversalTrial) Key() PartitionKey {
	return PartitionKey{Subject: t.Subject, Unit: t.Session}
}

// Scorable reports whether the trial takes part in behavioral scoring.
func (t ReversalTrial) Scorable() bool {
	return t.Condition.Valid && t.Condition.String != ConditionPractice
}

// FaceTrial is one row of a face-learning export, or of the merged output of
// the learning and recall tasks.
type FaceTrial struct {
	RawIndex   int
	SourceFile string

	Subject       int
	Block         int
	Trial         int
	CorrectAnswer string

	LearningRating core.NullFloat
	RecallAnswer   string
	RecallRating   core.NullFloat
	RecogAnswer    string
	RecogRating    core.NullFloat

	Group Group

	LearningConfidence core.NullFloat
	RecallConfidence   core.NullFloat
	RecogConfidence    core.NullFloat
	RecallAcc          core.NullFloat
	RecogAcc           core.NullFloat

	// RecallTested is set on trials that went through the recall task, so
	// an unanswered trial counts as a miss rather than missing data.
	RecallTested bool
}

// Key returns the (Subject, Block) partition of the trial.
func (t FaceTrial) Key() PartitionKey {
	return PartitionKey{Subject: t.Subject, Unit: t.Block}
}

// ReversalSummary is one row of the Reversals table.
type ReversalSummary struct {
	Subject        int
	Session        int
	Group          Group
	NumReversals   int
	ScorableTrials int
}

// WinshiftSummary is one row of the Winshifts table.
type WinshiftSummary struct {
	Subject      int
	Session      int
	Group        Group
	WinShifts    int
	WinFollowups int
	Proportion   core.NullFloat
}

// GroupWinshift is one row of the Avg Winshifts table. MeanProportion is the
// pooled ratio of sums over the group's subjects.
type GroupWinshift struct {
	Group          Group
	Session        int
	Subjects       int
	WinShifts      int
	WinFollowups   int
	MeanProportion core.NullFloat
}

// BlockSummary is one (Subject, Block) row of the face-learning summary.
type BlockSummary struct {
	Subject                int
	Block                  int
	Group                  Group
	Trials                 int
	RecallCorr             core.NullFloat
	RecogCorr              core.NullFloat
	MeanLearningConfidence core.NullFloat
	JOL                    core.NullFloat
	RCJ                    core.NullFloat
	FOK                    core.NullFloat
}

// GroupMetacognition is one row of the face-learning group means table.
type GroupMetacognition struct {
	Group                  Group
	Blocks                 int
	RecallCorr             core.NullFloat
	RecogCorr              core.NullFloat
	MeanLearningConfidence core.NullFloat
	JOL                    core.NullFloat
	RCJ                    core.NullFloat
	FOK                    core.NullFloat
}
