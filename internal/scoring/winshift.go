package scoring

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"grouper/domain/core"
	"grouper/domain/trial"
)

// DetermineWinshiftProportions needs ErrorSwitch already scored. Per
// (Subject, Session) it counts win-shifts and trials that directly follow a
// win. The lag is taken over the table as a whole, the same walk
// DetermineErrorSwitches makes, so every flagged switch is also a followup and
// a proportion never exceeds 1. The proportion is undefined when nothing
// followed a win. The second result pools both counts per (Group, Session)
// before dividing, so a group's MeanProportion is a ratio of sums, not a mean
// of the subjects' proportions.
func DetermineWinshiftProportions(trials []trial.ReversalTrial, partitions []trial.Partition) ([]trial.WinshiftSummary, []trial.GroupWinshift) {
	shifts := make(map[trial.PartitionKey]int)
	followups := make(map[trial.PartitionKey]int)

	for i, t := range trials {
		key := t.Key()
		shifts[key] += t.ErrorSwitch
		if i > 0 && trials[i-1].WinLose == trial.OutcomeWin {
			followups[key]++
		}
	}

	parts := mergePartitions(partitions, trials)
	perSubject := make([]trial.WinshiftSummary, 0, len(parts))
	for _, p := range parts {
		s, f := shifts[p.PartitionKey], followups[p.PartitionKey]
		perSubject = append(perSubject, trial.WinshiftSummary{
			Subject:      p.Subject,
			Session:      p.Unit,
			Group:        p.Group,
			WinShifts:    s,
			WinFollowups: f,
			Proportion:   core.Ratio(float64(s), float64(f)),
		})
	}

	return perSubject, poolWinshifts(perSubject)
}

type groupSession struct {
	group   trial.Group
	session int
}

func poolWinshifts(rows []trial.WinshiftSummary) []trial.GroupWinshift {
	shifts := make(map[groupSession][]float64)
	followups := make(map[groupSession][]float64)
	var order []groupSession

	for _, r := range rows {
		gs := groupSession{group: r.Group, session: r.Session}
		if _, ok := shifts[gs]; !ok {
			order = append(order, gs)
		}
		shifts[gs] = append(shifts[gs], float64(r.WinShifts))
		followups[gs] = append(followups[gs], float64(r.WinFollowups))
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].group != order[j].group {
			return order[i].group < order[j].group
		}
		return order[i].session < order[j].session
	})

	pooled := make([]trial.GroupWinshift, 0, len(order))
	for _, gs := range order {
		s, f := floats.Sum(shifts[gs]), floats.Sum(followups[gs])
		pooled = append(pooled, trial.GroupWinshift{
			Group:          gs.group,
			Session:        gs.session,
			Subjects:       len(shifts[gs]),
			WinShifts:      int(s),
			WinFollowups:   int(f),
			MeanProportion: core.Ratio(s, f),
		})
	}
	return pooled
}
