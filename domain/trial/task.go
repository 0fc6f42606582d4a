// Package trial holds the task vocabulary and typed trial records shared by
// the scoring engine, the pipeline and the spreadsheet adapters.
package trial

import (
	"strings"

	"grouper/domain/core"
)

// Task selects which derivations run and which constants apply.
type Task string

const (
	TaskActionValue          Task = "ActionValue"
	TaskProbRL               Task = "Prob_RL"
	TaskFaceLearningLearning Task = "FaceLearning-Learning"
	TaskFaceLearningRecall   Task = "FaceLearning-Recall"
	TaskFaceLearning         Task = "FaceLearning"
)

// AllTasks lists the accepted task identifiers in display order.
var AllTasks = []Task{
	TaskActionValue,
	TaskProbRL,
	TaskFaceLearningLearning,
	TaskFaceLearningRecall,
	TaskFaceLearning,
}

// ParseTask accepts exactly one of the known task names.
func ParseTask(s string) (Task, error) {
	name := strings.TrimSpace(s)
	for _, t := range AllTasks {
		if string(t) == name {
			return t, nil
		}
	}
	return "", core.NewUnknownTaskError(s)
}

func (t Task) String() string { return string(t) }

// IsReversal reports whether the task is one of the reversal-learning tasks.
func (t Task) IsReversal() bool {
	return t == TaskActionValue || t == TaskProbRL
}

// IsFaceLearning reports whether the task belongs to the face-learning experiment.
func (t Task) IsFaceLearning() bool {
	return t == TaskFaceLearningLearning || t == TaskFaceLearningRecall || t == TaskFaceLearning
}

// Column names as they appear in the E-Prime exports.
const (
	ColSubject       = "Subject"
	ColSession       = "Session"
	ColBlock         = "Block"
	ColTrial         = "Trial"
	ColProba         = "Proba"
	ColWinLose       = "WinLose"
	ColCondition     = "Condition"
	ColAccuracy      = "Accuracy"
	ColRestCount     = "RestCount"
	ColScore         = "Score[Trial]"
	ColWinningAction = "WinningAction[Trial]"
	ColWinningColor  = "WinningColor[Trial]"
	ColActionMade    = "ActionMade"
	ColColorPicked   = "ColorPicked"
	ColCorrectAnswer = "CorrectAnswer"

	ColLearningRating = "TextDisplay6.RESP"
	ColRecallAnswer   = "TextDisplay35.RESP"
	ColRecallRating   = "TextDisplay36.RESP"
	ColRecogAnswer    = "TextDisplay37.RESP"
	ColRecogRating    = "TextDisplay38.RESP"

	// Derived columns
	ColGroup              = "Group"
	ColErrorSwitch        = "Error Switch"
	ColReversal           = "Reversal"
	ColNumReversals       = "Num Reversals"
	ColLearningConfidence = "Learning Confidence"
	ColRecallConfidence   = "Recall Confidence"
	ColRecogConfidence    = "Recog Confidence"
	ColRecallAcc          = "Recall Acc"
	ColRecogAcc           = "Recog Acc"
)

// TaskSpec carries the per-task constants.
type TaskSpec struct {
	Task     Task
	Columns  []string
	SortKeys []string
	// ChoiceColumn is the categorical choice compared between adjacent trials.
	ChoiceColumn string
	// WinningColumn names the rewarded-option column of reversal tasks.
	WinningColumn string
	// MaxTrials replaces RestCount on "IL" trials.
	MaxTrials int
	// BlockFromFilename is set when the block number only exists in the file name.
	BlockFromFilename bool
	// KeepAllColumns keeps optional columns beyond Columns when loading.
	KeepAllColumns bool
}

// SpecFor returns the constants for a task.
func SpecFor(task Task) TaskSpec {
	switch task {
	case TaskActionValue:
		return TaskSpec{
			Task: task,
			Columns: []string{ColSubject, ColSession, ColWinningAction, ColProba,
				ColWinLose, ColActionMade, ColCondition, ColAccuracy, ColRestCount, ColScore},
			SortKeys:      []string{ColSubject, ColSession},
			ChoiceColumn:  ColActionMade,
			WinningColumn: ColWinningAction,
			MaxTrials:     100,
		}
	case TaskProbRL:
		return TaskSpec{
			Task: task,
			Columns: []string{ColSubject, ColSession, ColWinningColor, ColProba,
				ColWinLose, ColColorPicked, ColCondition, ColAccuracy, ColRestCount, ColScore},
			SortKeys:      []string{ColSubject, ColSession},
			ChoiceColumn:  ColColorPicked,
			WinningColumn: ColWinningColor,
			MaxTrials:     70,
		}
	case TaskFaceLearningLearning:
		return TaskSpec{
			Task:              task,
			Columns:           []string{ColSubject, ColBlock, ColTrial, ColLearningRating},
			SortKeys:          []string{ColSubject, ColBlock, ColTrial},
			BlockFromFilename: true,
		}
	case TaskFaceLearningRecall:
		return TaskSpec{
			Task: task,
			Columns: []string{ColSubject, ColBlock, ColTrial, ColCorrectAnswer,
				ColRecallAnswer, ColRecallRating, ColRecogAnswer, ColRecogRating},
			SortKeys:          []string{ColSubject, ColBlock, ColTrial},
			BlockFromFilename: true,
		}
	default:
		return TaskSpec{
			Task:           task,
			Columns:        []string{ColSubject, ColBlock, ColTrial},
			SortKeys:       []string{ColSubject, ColBlock, ColTrial},
			KeepAllColumns: true,
		}
	}
}
