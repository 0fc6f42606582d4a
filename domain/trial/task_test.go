package trial

import (
	"testing"

	"grouper/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTask(t *testing.T) {
	for _, task := range AllTasks {
		got, err := ParseTask(" " + string(task) + " ")
		require.NoError(t, err)
		assert.Equal(t, task, got)
	}

	_, err := ParseTask("actionvalue")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownTask)
}

func TestSpecFor_Constants(t *testing.T) {
	av := SpecFor(TaskActionValue)
	assert.Equal(t, 100, av.MaxTrials)
	assert.Equal(t, ColActionMade, av.ChoiceColumn)
	assert.Contains(t, av.Columns, ColRestCount)

	rl := SpecFor(TaskProbRL)
	assert.Equal(t, 70, rl.MaxTrials)
	assert.Equal(t, ColColorPicked, rl.ChoiceColumn)
	assert.Equal(t, []string{ColSubject, ColSession}, rl.SortKeys)

	assert.True(t, SpecFor(TaskFaceLearningRecall).BlockFromFilename)
	assert.False(t, SpecFor(TaskFaceLearning).BlockFromFilename)

	assert.True(t, TaskProbRL.IsReversal())
	assert.False(t, TaskProbRL.IsFaceLearning())
	assert.True(t, TaskFaceLearning.IsFaceLearning())
}

func TestWinshiftsTable_UndefinedIsNil(t *testing.T) {
	tbl := WinshiftsTable([]WinshiftSummary{
		{Subject: 1, Session: 1, Group: GroupControl, WinShifts: 1, WinFollowups: 2, Proportion: core.Ratio(1, 2)},
		{Subject: 2, Session: 1, Group: GroupSham, Proportion: core.Ratio(0, 0)},
	})
	require.Equal(t, 2, tbl.Len())

	props, ok := tbl.Column("Proportion")
	require.True(t, ok)
	assert.Equal(t, 0.5, props[0])
	assert.Nil(t, props[1])
	assert.Equal(t, 1, tbl.Undefined("Proportion"))

	_, ok = tbl.Column("nope")
	assert.False(t, ok)
}
