package trial

import (
	"grouper/domain/core"
)

// RawRow is one untyped spreadsheet row.
type RawRow struct {
	Source string // file the row came from
	Index  int    // 0-based data row position inside Source
	Values map[string]string
}

// Get returns the trimmed cell for column, "" when absent.
func (r RawRow) Get(column string) string {
	return r.Values[column]
}

// RawTable is the concatenation of the loaded exports, in file order.
type RawTable struct {
	Headers []string
	Rows    []RawRow
}

// HasColumn reports whether column is among the headers.
func (t *RawTable) HasColumn(column string) bool {
	for _, h := range t.Headers {
		if h == column {
			return true
		}
	}
	return false
}

// Require returns a MissingColumnError for the first absent column.
func (t *RawTable) Require(task Task, columns []string) error {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return core.NewMissingColumnError(task.String(), c, "")
		}
	}
	return nil
}

// Append adds rows from another table, extending the header list with any
// new columns.
func (t *RawTable) Append(other *RawTable) {
	for _, h := range other.Headers {
		if !t.HasColumn(h) {
			t.Headers = append(t.Headers, h)
		}
	}
	t.Rows = append(t.Rows, other.Rows...)
}
