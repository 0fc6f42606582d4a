package scoring

import (
	"regexp"
	"sort"
	"strconv"

	"grouper/domain/core"
	"grouper/domain/trial"
)

var firstInteger = regexp.MustCompile(`\d+`)

// ExtractReversal returns the first integer embedded in a condition label,
// or 0 when there is none.
func ExtractReversal(condition core.NullString) int {
	if !condition.Valid {
		return 0
	}
	digits := firstInteger.FindString(condition.String)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// correctRestCount applies the "IL" sentinel: such trials count as the last
// trial of the task.
func correctRestCount(t trial.ReversalTrial, maxTrials int) core.NullFloat {
	if t.Condition.Valid && t.Condition.String == trial.ConditionInterLeaved {
		return core.Some(float64(maxTrials))
	}
	return t.RestCount
}

// DetermineMaxReversals fills Reversal, RestCount and NumReversals and builds
// the per-(Subject, Session) summary. Partitions listed in partitions but
// without scorable trials are reported with zero counts. The summary is
// sorted by Group, then Subject and Session.
func DetermineMaxReversals(trials []trial.ReversalTrial, task trial.Task, partitions []trial.Partition) ([]trial.ReversalTrial, []trial.ReversalSummary) {
	maxTrials := trial.SpecFor(task).MaxTrials

	out := make([]trial.ReversalTrial, len(trials))
	maxByKey := make(map[trial.PartitionKey]int)
	countByKey := make(map[trial.PartitionKey]int)

	for i, t := range trials {
		t.RestCount = correctRestCount(t, maxTrials)
		t.Reversal = ExtractReversal(t.Condition)

		rest := 0.0
		if t.RestCount.Valid {
			rest = t.RestCount.Float64
		}
		if rest < 0 {
			t.Reversal = 0
		}

		key := t.Key()
		if cur, ok := maxByKey[key]; !ok || t.Reversal > cur {
			maxByKey[key] = t.Reversal
		}
		countByKey[key]++
		out[i] = t
	}

	for i := range out {
		out[i].NumReversals = maxByKey[out[i].Key()]
	}

	parts := mergePartitions(partitions, out)
	summary := make([]trial.ReversalSummary, 0, len(parts))
	for _, p := range parts {
		summary = append(summary, trial.ReversalSummary{
			Subject:        p.Subject,
			Session:        p.Unit,
			Group:          p.Group,
			NumReversals:   maxByKey[p.PartitionKey],
			ScorableTrials: countByKey[p.PartitionKey],
		})
	}
	return out, summary
}

// mergePartitions returns the given partitions plus any found in trials,
// deduplicated and sorted by Group, Subject, Unit.
func mergePartitions(partitions []trial.Partition, trials []trial.ReversalTrial) []trial.Partition {
	seen := make(map[trial.PartitionKey]bool, len(partitions))
	out := make([]trial.Partition, 0, len(partitions))
	add := func(p trial.Partition) {
		if seen[p.PartitionKey] {
			return
		}
		seen[p.PartitionKey] = true
		out = append(out, p)
	}
	for _, p := range partitions {
		add(p)
	}
	for _, t := range trials {
		add(trial.Partition{PartitionKey: t.Key(), Group: t.Group})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].Unit < out[j].Unit
	})
	return out
}
