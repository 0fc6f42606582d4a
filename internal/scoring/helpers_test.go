package scoring

import (
	"grouper/domain/core"
	"grouper/domain/trial"
)

// rt builds a reversal trial for subject 1, session 1.
func rt(raw int, winLose, choice, condition string) trial.ReversalTrial {
	return trial.ReversalTrial{
		RawIndex:  raw,
		Subject:   1,
		Session:   1,
		WinLose:   winLose,
		Choice:    choice,
		Condition: core.Text(condition),
	}
}

func withKey(t trial.ReversalTrial, subject, session int, group trial.Group) trial.ReversalTrial {
	t.Subject, t.Session, t.Group = subject, session, group
	return t
}

func nf(v float64) core.NullFloat { return core.Some(v) }

var na = core.Undefined()
