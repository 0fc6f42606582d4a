package core

import (
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// RunID identifies one pipeline run; it tags log lines, the report and workbook properties.
type RunID ID

// NewRunID creates a time-ordered run id.
func NewRunID() RunID {
	return RunID(NewID())
}

func (id RunID) String() string {
	return ID(id).String()
}

// Short returns the first block of the id, enough to tell runs apart in logs.
func (id RunID) Short() string {
	s := id.String()
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}
