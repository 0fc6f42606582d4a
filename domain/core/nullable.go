package core

import (
	"math"
	"strconv"
)

// NullFloat is a float that may be undefined: a 0/0 ratio, a gamma over tied
// pairs, or a rating nobody gave. The zero value is undefined, which keeps a
// computed 0 distinct from missing data.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Some wraps a defined value. Non-finite inputs are treated as undefined.
func Some(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// Undefined returns the undefined value.
func Undefined() NullFloat { return NullFloat{} }

// Ratio returns num/den, undefined when den is zero.
func Ratio(num, den float64) NullFloat {
	if den == 0 {
		return NullFloat{}
	}
	return Some(num / den)
}

// Value returns the float or nil, the shape a spreadsheet writer wants.
func (n NullFloat) Value() any {
	if !n.Valid {
		return nil
	}
	return n.Float64
}

func (n NullFloat) String() string {
	if !n.Valid {
		return "NA"
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64)
}

// NullString is a string cell that may be empty in the source sheet.
type NullString struct {
	String string
	Valid  bool
}

// Text wraps a string, treating "" as null.
func Text(s string) NullString {
	if s == "" {
		return NullString{}
	}
	return NullString{String: s, Valid: true}
}

// Value returns the string or nil.
func (n NullString) Value() any {
	if !n.Valid {
		return nil
	}
	return n.String
}
