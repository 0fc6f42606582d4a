package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name     string
		num, den float64
		want     NullFloat
	}{
		{"regular", 2, 4, NullFloat{Float64: 0.5, Valid: true}},
		{"true zero", 0, 3, NullFloat{Float64: 0, Valid: true}},
		{"zero denominator", 0, 0, NullFloat{}},
		{"nonzero over zero", 3, 0, NullFloat{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ratio(tt.num, tt.den))
		})
	}
}

func TestNullFloat_Values(t *testing.T) {
	assert.Nil(t, Undefined().Value())
	assert.Equal(t, 0.25, Some(0.25).Value())
	assert.False(t, Some(math.NaN()).Valid)
	assert.False(t, Some(math.Inf(1)).Valid)
	assert.Equal(t, "NA", Undefined().String())
	assert.Equal(t, "0.5", Some(0.5).String())
}

func TestText(t *testing.T) {
	assert.False(t, Text("").Valid)
	assert.Nil(t, Text("").Value())
	assert.Equal(t, "Reversal2", Text("Reversal2").Value())
}
