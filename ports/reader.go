package ports

import (
	"context"

	"grouper/domain/trial"
)

// TableSource provides the raw trial rows for a task.
// Implementations trim each file to spec.Columns and fail with a
// core.MissingColumnError when a file lacks one of them.
type TableSource interface {
	Load(ctx context.Context, spec trial.TaskSpec) (*trial.RawTable, error)
}

// TableSourceFunc adapts a function to TableSource.
type TableSourceFunc func(ctx context.Context, spec trial.TaskSpec) (*trial.RawTable, error)

func (f TableSourceFunc) Load(ctx context.Context, spec trial.TaskSpec) (*trial.RawTable, error) {
	return f(ctx, spec)
}
