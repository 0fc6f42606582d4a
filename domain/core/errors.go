package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input shape errors
	ErrMissingColumn = errors.New("required column missing")
	ErrUnknownTask   = errors.New("unknown task")
	ErrEmptyInput    = errors.New("no trial rows found")

	// Value errors
	ErrInvalidValue = errors.New("invalid cell value")
	ErrBlockNumber  = errors.New("cannot determine block number")
)

// MissingColumnError reports a required column absent from an input table.
// It usually means the files were exported for a different task.
type MissingColumnError struct {
	Task   string
	Column string
	Source string
}

func (e *MissingColumnError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%v: %q for task %s in %s", ErrMissingColumn, e.Column, e.Task, e.Source)
	}
	return fmt.Sprintf("%v: %q for task %s", ErrMissingColumn, e.Column, e.Task)
}

// Is lets errors.Is match ErrMissingColumn.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// NewMissingColumnError builds a MissingColumnError
func NewMissingColumnError(task, column, source string) error {
	return &MissingColumnError{Task: task, Column: column, Source: source}
}

func NewUnknownTaskError(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownTask, name)
}

func NewInvalidValueError(column string, row int, raw string) error {
	return fmt.Errorf("%w: column %s row %d: %q", ErrInvalidValue, column, row, raw)
}

// Error checking helpers
func IsMissingColumnError(err error) bool {
	return errors.Is(err, ErrMissingColumn)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrBlockNumber) ||
		errors.Is(err, ErrEmptyInput)
}
