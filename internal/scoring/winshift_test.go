package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grouper/domain/core"
	"grouper/domain/trial"
)

func switched(t trial.ReversalTrial) trial.ReversalTrial {
	t.ErrorSwitch = 1
	return t
}

func TestDetermineWinshiftProportions_PooledRatioOfSums(t *testing.T) {
	trials := []trial.ReversalTrial{
		// subject 1: 2 shifts over 4 followups
		withKey(rt(6, "win", "A", "Reversal0"), 1, 1, trial.GroupControl),
		withKey(switched(rt(7, "win", "B", "Reversal0")), 1, 1, trial.GroupControl),
		withKey(rt(8, "win", "B", "Reversal0"), 1, 1, trial.GroupControl),
		withKey(switched(rt(9, "win", "A", "Reversal0")), 1, 1, trial.GroupControl),
		withKey(rt(10, "lose", "A", "Reversal0"), 1, 1, trial.GroupControl),
		// subject 2: 0 shifts over 2 followups
		withKey(rt(6, "win", "A", "Reversal0"), 2, 1, trial.GroupControl),
		withKey(rt(7, "win", "A", "Reversal0"), 2, 1, trial.GroupControl),
		withKey(rt(8, "lose", "A", "Reversal0"), 2, 1, trial.GroupControl),
	}

	perSubject, pooled := DetermineWinshiftProportions(trials, nil)

	require.Len(t, perSubject, 2)
	assert.Equal(t, 2, perSubject[0].WinShifts)
	assert.Equal(t, 4, perSubject[0].WinFollowups)
	assert.Equal(t, core.Some(0.5), perSubject[0].Proportion)
	assert.Equal(t, 0, perSubject[1].WinShifts)
	assert.Equal(t, 2, perSubject[1].WinFollowups)
	assert.Equal(t, core.Some(0), perSubject[1].Proportion)

	require.Len(t, pooled, 1)
	assert.Equal(t, trial.GroupControl, pooled[0].Group)
	assert.Equal(t, 2, pooled[0].Subjects)
	assert.Equal(t, 2, pooled[0].WinShifts)
	assert.Equal(t, 6, pooled[0].WinFollowups)
	assert.InDelta(t, 2.0/6.0, pooled[0].MeanProportion.Float64, 1e-12)
	assert.NotEqual(t, 0.25, pooled[0].MeanProportion.Float64)
}

func TestDetermineWinshiftProportions_ZeroFollowupsUndefined(t *testing.T) {
	trials := []trial.ReversalTrial{
		withKey(rt(6, "lose", "A", "Reversal0"), 1, 1, trial.GroupSham),
		withKey(rt(7, "lose", "B", "Reversal0"), 1, 1, trial.GroupSham),
	}
	empty := trial.Partition{PartitionKey: trial.PartitionKey{Subject: 5, Unit: 2}, Group: trial.GroupSham}

	perSubject, pooled := DetermineWinshiftProportions(trials, []trial.Partition{empty})

	require.Len(t, perSubject, 2)
	assert.False(t, perSubject[0].Proportion.Valid)
	assert.Equal(t, 5, perSubject[1].Subject)
	assert.Equal(t, 0, perSubject[1].WinFollowups)
	assert.False(t, perSubject[1].Proportion.Valid)

	require.Len(t, pooled, 2)
	for _, p := range pooled {
		assert.False(t, p.MeanProportion.Valid)
	}
}

func TestDetermineWinshiftProportions_LagFollowsTableOrder(t *testing.T) {
	trials := []trial.ReversalTrial{
		withKey(rt(6, "lose", "A", "Reversal0"), 1, 1, trial.GroupControl),
		withKey(rt(7, "win", "A", "Reversal0"), 1, 1, trial.GroupControl),
		withKey(rt(6, "lose", "A", "Reversal0"), 2, 1, trial.GroupControl),
	}

	perSubject, _ := DetermineWinshiftProportions(trials, nil)
	require.Len(t, perSubject, 2)
	assert.Equal(t, 0, perSubject[0].WinFollowups)
	assert.Equal(t, 1, perSubject[1].WinFollowups)
}

func TestDetermineWinshiftProportions_SwitchAcrossSessionsStaysBounded(t *testing.T) {
	// One file holding two sessions of subject 701, so raw indices keep
	// counting and the first row of session 2 is flagged from session 1.
	trials := []trial.ReversalTrial{
		withKey(rt(6, "win", "A", "Reversal1"), 701, 1, trial.GroupControl),
		withKey(rt(7, "win", "A", "Reversal1"), 701, 1, trial.GroupControl),
		withKey(rt(8, "win", "B", "Reversal1"), 701, 2, trial.GroupControl),
		withKey(rt(9, "lose", "A", "Reversal1"), 701, 2, trial.GroupControl),
	}
	trials = ScoreErrorSwitches(trials)
	require.Equal(t, []int{0, 0, 1, 1}, DetermineErrorSwitches(trials))

	perSubject, pooled := DetermineWinshiftProportions(trials, nil)
	require.Len(t, perSubject, 2)
	assert.Equal(t, 2, perSubject[1].Session)
	assert.Equal(t, 2, perSubject[1].WinShifts)
	assert.Equal(t, 2, perSubject[1].WinFollowups)
	assert.Equal(t, core.Some(1), perSubject[1].Proportion)
	for _, p := range perSubject {
		if p.Proportion.Valid {
			assert.LessOrEqual(t, p.Proportion.Float64, 1.0)
		}
	}
	for _, g := range pooled {
		if g.MeanProportion.Valid {
			assert.LessOrEqual(t, g.MeanProportion.Float64, 1.0)
		}
	}
}

func TestDetermineWinshiftProportions_GroupsBySession(t *testing.T) {
	trials := []trial.ReversalTrial{
		withKey(rt(6, "win", "A", "Reversal0"), 1, 1, trial.GroupTreatment),
		withKey(switched(rt(7, "win", "B", "Reversal0")), 1, 1, trial.GroupTreatment),
		withKey(rt(6, "win", "A", "Reversal0"), 1, 2, trial.GroupTreatment),
		withKey(rt(7, "win", "A", "Reversal0"), 1, 2, trial.GroupTreatment),
	}

	_, pooled := DetermineWinshiftProportions(trials, nil)
	require.Len(t, pooled, 2)
	assert.Equal(t, 1, pooled[0].Session)
	assert.Equal(t, core.Some(1), pooled[0].MeanProportion)
	assert.Equal(t, 2, pooled[1].Session)
	assert.Equal(t, core.Some(0), pooled[1].MeanProportion)
}
