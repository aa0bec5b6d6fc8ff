package analysis

import (
	"math"

	"immunoscope/domain/expression"
)

// Log2p1 returns a new matrix with log2(x+1) applied to every value.
// The input is left untouched.
func Log2p1(m *expression.Matrix) *expression.Matrix {
	out := m.Clone()
	if out.IsEmpty() {
		return out
	}
	out.Data.Apply(func(_, _ int, v float64) float64 {
		return math.Log2(v + 1)
	}, out.Data)
	return out
}
