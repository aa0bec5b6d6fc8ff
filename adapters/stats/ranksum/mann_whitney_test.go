package ranksum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMannWhitney_ExactMatchesReference(t *testing.T) {
	test := NewMannWhitneyTest()

	tests := []struct {
		name  string
		x, y  []float64
		w     float64
		p     float64
		exact bool
	}{
		{
			name:  "classic depression scores",
			x:     []float64{0.80, 0.83, 1.89, 1.04, 1.45, 1.38, 1.91, 1.64, 0.73, 1.46},
			y:     []float64{1.15, 0.88, 0.90, 0.74, 1.21},
			w:     35,
			p:     0.2544122544122544,
			exact: true,
		},
		{
			name:  "complete separation",
			x:     []float64{1, 2, 3, 4},
			y:     []float64{5, 6, 7, 8},
			w:     0,
			p:     2.0 / 70.0,
			exact: true,
		},
		{
			name:  "complete separation reversed",
			x:     []float64{5, 6, 7, 8},
			y:     []float64{1, 2, 3, 4},
			w:     16,
			p:     2.0 / 70.0,
			exact: true,
		},
		{
			name:  "ties fall back to normal approximation",
			x:     []float64{1, 2, 2, 3, 4},
			y:     []float64{2, 5, 6, 7},
			w:     3,
			p:     0.10536405286983042,
			exact: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := test.Compare(tc.x, tc.y)
			require.NoError(t, err)
			assert.Equal(t, tc.w, res.Statistic)
			assert.InDelta(t, tc.p, res.PValue, 1e-9)
			assert.Equal(t, tc.exact, res.Exact)
			assert.Equal(t, len(tc.x), res.NX)
			assert.Equal(t, len(tc.y), res.NY)
		})
	}
}

func TestMannWhitney_SymmetricPValue(t *testing.T) {
	test := NewMannWhitneyTest()
	x := []float64{3.1, 4.7, 2.2, 5.9, 6.4}
	y := []float64{1.0, 0.4, 2.9, 3.3}

	a, err := test.Compare(x, y)
	require.NoError(t, err)
	b, err := test.Compare(y, x)
	require.NoError(t, err)

	assert.InDelta(t, a.PValue, b.PValue, 1e-12)
	assert.Equal(t, float64(len(x)*len(y)), a.Statistic+b.Statistic)
}

func TestMannWhitney_LargeSamplesUseNormalApproximation(t *testing.T) {
	test := NewMannWhitneyTest()
	x := make([]float64, 60)
	y := make([]float64, 60)
	for i := range x {
		x[i] = float64(i)
		y[i] = float64(i) + 30.5
	}

	res, err := test.Compare(x, y)
	require.NoError(t, err)
	assert.False(t, res.Exact)
	assert.Less(t, res.PValue, 1e-6)
	assert.Less(t, res.Z, 0.0)
}

func TestMannWhitney_AllTied(t *testing.T) {
	res, err := NewMannWhitneyTest().Compare([]float64{2, 2, 2}, []float64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.PValue)
	assert.Equal(t, 3.0, res.Statistic)
}

func TestMannWhitney_RejectsEmptyAndNaN(t *testing.T) {
	test := NewMannWhitneyTest()

	_, err := test.Compare(nil, []float64{1, 2})
	assert.Error(t, err)

	_, err = test.Compare([]float64{1, math.NaN()}, []float64{1, 2})
	assert.Error(t, err)
}

func TestExactDistribution_SumsToBinomial(t *testing.T) {
	freq, total := exactDistribution(4, 4)
	assert.Equal(t, 70.0, total)
	assert.Len(t, freq, 17)
	// symmetric about m*n/2
	for w := range freq {
		assert.Equal(t, freq[w], freq[len(freq)-1-w])
	}
	assert.Equal(t, 1.0, freq[0])
}

func TestAverageRanks_Ties(t *testing.T) {
	ranks, ties := averageRanks([]float64{10, 20, 20, 30})
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, ranks)
	assert.Equal(t, []int{1, 2, 1}, ties)
	assert.True(t, hasTies(ties))
}
