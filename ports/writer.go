package ports

import (
	"context"

	"grouper/domain/core"
	"grouper/domain/trial"
)

// TableSink persists the result tables of one run and returns where they went.
type TableSink interface {
	Write(ctx context.Context, run core.RunID, task trial.Task, tables []trial.Table) (string, error)
}
