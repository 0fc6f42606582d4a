package scoring

import (
	"grouper/domain/trial"
)

// practiceSpliceIndex is the raw row index of the first real trial in each
// export, after a fixed-length practice block. A row at this index whose
// predecessor has a larger raw index sits at the seam between two
// concatenated files, so the pair is not a real transition.
//
// This only holds while raw indices are not reset after practice rows are
// dropped. It breaks silently if the practice block length changes.
const practiceSpliceIndex = 6

// DetermineErrorSwitches flags, for each row, an erroneous switch of choice
// right after a win. The result is aligned with trials; element 0 is always 0.
//
// The table is walked as one sequence, so partitions must be contiguous.
func DetermineErrorSwitches(trials []trial.ReversalTrial) []int {
	flags := make([]int, len(trials))
	for cur := 1; cur < len(trials); cur++ {
		prev, now := trials[cur-1], trials[cur]
		if isErrorSwitch(prev, now) {
			flags[cur] = 1
		}
	}
	return flags
}

func isErrorSwitch(prev, now trial.ReversalTrial) bool {
	if prev.WinLose != trial.OutcomeWin {
		return false
	}
	if now.Choice == prev.Choice {
		return false
	}
	if now.RawIndex == practiceSpliceIndex && prev.RawIndex > practiceSpliceIndex {
		return false
	}
	if now.RawIndex == 0 {
		return false
	}
	return prev.Condition.Valid
}

// ScoreErrorSwitches returns a copy of trials with ErrorSwitch filled in.
func ScoreErrorSwitches(trials []trial.ReversalTrial) []trial.ReversalTrial {
	flags := DetermineErrorSwitches(trials)
	out := make([]trial.ReversalTrial, len(trials))
	for i, t := range trials {
		t.ErrorSwitch = flags[i]
		out[i] = t
	}
	return out
}
