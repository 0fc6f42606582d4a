package scoring

import (
	"grouper/domain/core"
)

// PairCounts tallies the pair classifications behind a gamma value.
type PairCounts struct {
	Concordant int
	Discordant int
	Tied       int
}

// CountPairs classifies every unordered pair (i, j) of observations. Counting
// ordered pairs would double every tally and leave gamma unchanged.
func CountPairs(m, n []float64) PairCounts {
	var pc PairCounts
	if len(m) != len(n) {
		return pc
	}
	for i := 0; i < len(m); i++ {
		for j := i + 1; j < len(m); j++ {
			switch s := (m[i] - m[j]) * (n[i] - n[j]); {
			case s > 0:
				pc.Concordant++
			case s < 0:
				pc.Discordant++
			default:
				pc.Tied++
			}
		}
	}
	return pc
}

// Gamma is (C-D)/(C+D) with tied pairs left out of the denominator.
func (pc PairCounts) Gamma() core.NullFloat {
	return core.Ratio(float64(pc.Concordant-pc.Discordant), float64(pc.Concordant+pc.Discordant))
}

// Gamma returns the Goodman-Kruskal gamma of two paired ordinal variables.
// The result is undefined when the lengths differ, there are fewer than two
// observations, or every pair is tied (for instance a constant input).
func Gamma(m, n []float64) core.NullFloat {
	if len(m) != len(n) || len(m) < 2 {
		return core.Undefined()
	}
	return CountPairs(m, n).Gamma()
}

// GammaComplete computes Gamma over the observations where both values are
// defined.
func GammaComplete(m, n []core.NullFloat) core.NullFloat {
	if len(m) != len(n) {
		return core.Undefined()
	}
	xs := make([]float64, 0, len(m))
	ys := make([]float64, 0, len(n))
	for i := range m {
		if m[i].Valid && n[i].Valid {
			xs = append(xs, m[i].Float64)
			ys = append(ys, n[i].Float64)
		}
	}
	return Gamma(xs, ys)
}
