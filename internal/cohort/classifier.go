package cohort

import (
	"grouper/domain/trial"
)

// Classifier is the lookup form of a Roster. It is safe for concurrent use
// once built.
type Classifier struct {
	bySubject  map[int]trial.Group
	blockSplit int
}

// NewClassifier indexes a roster.
func NewClassifier(r *Roster) *Classifier {
	c := &Classifier{
		bySubject:  make(map[int]trial.Group, r.Size()),
		blockSplit: r.PostTreatmentAfterBlock,
	}
	for group, subjects := range r.Cohorts {
		for _, s := range subjects {
			c.bySubject[s] = group
		}
	}
	return c
}

// AssignGroup returns the cohort label for a subject. Unknown subjects map to
// NA. In face-learning tasks treatment subjects are split by block into
// pre-treatment and post-treatment; block is ignored otherwise.
func (c *Classifier) AssignGroup(subject, block int, task trial.Task) trial.Group {
	group, ok := c.bySubject[subject]
	if !ok {
		return trial.GroupNA
	}
	if group == trial.GroupTreatment && task.IsFaceLearning() {
		if block <= c.blockSplit {
			return trial.GroupPreTreatment
		}
		return trial.GroupPostTreatment
	}
	return group
}

// AssignReversal returns trials with Group set. The input is not modified.
func (c *Classifier) AssignReversal(trials []trial.ReversalTrial, task trial.Task) []trial.ReversalTrial {
	out := make([]trial.ReversalTrial, len(trials))
	for i, t := range trials {
		t.Group = c.AssignGroup(t.Subject, 0, task)
		out[i] = t
	}
	return out
}

// AssignFace returns face trials with Group set. The input is not modified.
func (c *Classifier) AssignFace(trials []trial.FaceTrial, task trial.Task) []trial.FaceTrial {
	out := make([]trial.FaceTrial, len(trials))
	for i, t := range trials {
		t.Group = c.AssignGroup(t.Subject, t.Block, task)
		out[i] = t
	}
	return out
}
