package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grouper/domain/core"
	"grouper/domain/trial"
)

func TestExtractReversal(t *testing.T) {
	tests := []struct {
		condition core.NullString
		want      int
	}{
		{core.Text("Reversal3"), 3},
		{core.Text("R12b4"), 12},
		{core.Text("Practice"), 0},
		{core.Text("IL"), 0},
		{core.NullString{}, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractReversal(tt.condition), "condition %+v", tt.condition)
	}
}

func TestDetermineMaxReversals_NegativeRestCountZeroes(t *testing.T) {
	tr := rt(7, "win", "A", "Reversal3")
	tr.RestCount = core.Some(-5)

	out, _ := DetermineMaxReversals([]trial.ReversalTrial{tr}, trial.TaskProbRL, nil)
	assert.Equal(t, 0, out[0].Reversal)
	assert.Equal(t, 0, out[0].NumReversals)
}

func TestDetermineMaxReversals_NullRestCountKeepsReversal(t *testing.T) {
	tr := rt(7, "win", "A", "Reversal3")

	out, _ := DetermineMaxReversals([]trial.ReversalTrial{tr}, trial.TaskProbRL, nil)
	assert.Equal(t, 3, out[0].Reversal)
	assert.False(t, out[0].RestCount.Valid)
}

func TestDetermineMaxReversals_ILForcesMaxTrials(t *testing.T) {
	tr := rt(7, "win", "A", "IL")
	tr.RestCount = core.Some(-12)

	out, _ := DetermineMaxReversals([]trial.ReversalTrial{tr}, trial.TaskActionValue, nil)
	assert.Equal(t, core.Some(100), out[0].RestCount)

	out, _ = DetermineMaxReversals([]trial.ReversalTrial{tr}, trial.TaskProbRL, nil)
	assert.Equal(t, core.Some(70), out[0].RestCount)
}

func TestDetermineMaxReversals_Summary(t *testing.T) {
	trials := []trial.ReversalTrial{
		withKey(rt(6, "win", "A", "Reversal0"), 2, 1, trial.GroupSham),
		withKey(rt(7, "win", "A", "Reversal2"), 2, 1, trial.GroupSham),
		withKey(rt(8, "win", "A", "Reversal1"), 2, 1, trial.GroupSham),
		withKey(rt(6, "win", "A", "Reversal4"), 1, 1, trial.GroupControl),
		withKey(rt(7, "win", "A", "Reversal5"), 1, 1, trial.GroupControl),
		withKey(rt(6, "win", "A", "Reversal1"), 1, 2, trial.GroupControl),
	}
	trials[4].RestCount = core.Some(-1) // after task completion

	partitions := []trial.Partition{
		{PartitionKey: trial.PartitionKey{Subject: 3, Unit: 1}, Group: trial.GroupNA},
	}

	out, summary := DetermineMaxReversals(trials, trial.TaskProbRL, partitions)
	require.Len(t, out, len(trials))

	// Num Reversals equals the partition max of Reversal on every row.
	maxByKey := map[trial.PartitionKey]int{}
	for _, tr := range out {
		if tr.Reversal > maxByKey[tr.Key()] {
			maxByKey[tr.Key()] = tr.Reversal
		}
	}
	for _, tr := range out {
		assert.Equal(t, maxByKey[tr.Key()], tr.NumReversals)
	}

	// Group labels sort bytewise, so "NA" precedes the lower-case cohorts.
	assert.Equal(t, []trial.ReversalSummary{
		{Subject: 3, Session: 1, Group: trial.GroupNA, NumReversals: 0, ScorableTrials: 0},
		{Subject: 1, Session: 1, Group: trial.GroupControl, NumReversals: 4, ScorableTrials: 2},
		{Subject: 1, Session: 2, Group: trial.GroupControl, NumReversals: 1, ScorableTrials: 1},
		{Subject: 2, Session: 1, Group: trial.GroupSham, NumReversals: 2, ScorableTrials: 3},
	}, summary)

	assert.Equal(t, 2, out[1].NumReversals)
	assert.Equal(t, 0, trials[1].NumReversals, "input must not be modified")
}
