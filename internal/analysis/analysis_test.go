package analysis

import (
	"fmt"
	"math"
	"testing"

	"immunoscope/domain/core"
	"immunoscope/domain/expression"
	"immunoscope/domain/outcome"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patients(n int) []core.PatientID {
	out := make([]core.PatientID, n)
	for i := range out {
		out[i] = core.PatientID(fmt.Sprintf("TCGA-XX-%04d", i+1))
	}
	return out
}

func mustMatrix(t *testing.T, rows []string, cols []core.PatientID, values []float64) *expression.Matrix {
	t.Helper()
	m, err := expression.NewMatrix(rows, cols, values)
	require.NoError(t, err)
	return m
}

func TestMakeUnique(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"TP53", "TP53", "EGFR"}, []string{"TP53", "TP53.1", "EGFR"}},
		{[]string{"A", "A", "A"}, []string{"A", "A.1", "A.2"}},
		{[]string{"A", "A", "A.1"}, []string{"A", "A.2", "A.1"}},
		{[]string{"", ""}, []string{"", ".1"}},
		{nil, []string{}},
	}

	for _, tc := range tests {
		got := MakeUnique(tc.in)
		assert.Equal(t, tc.want, got, "input %v", tc.in)

		seen := map[string]bool{}
		for _, g := range got {
			assert.False(t, seen[g], "duplicate %q in %v", g, got)
			seen[g] = true
		}
	}
}

func TestSymbolLabels_FallsBackToGeneID(t *testing.T) {
	genes := []expression.GeneAnnotation{
		{GeneID: "ENSG00000141510.18", Symbol: "TP53"},
		{GeneID: "ENSG00000999999.1", Symbol: ""},
		{GeneID: "ENSG00000141510.99", Symbol: "TP53"},
		{GeneID: "ENSG00000888888.1", Symbol: "NA"},
	}
	assert.Equal(t,
		[]string{"TP53", "ENSG00000999999.1", "TP53.1", "ENSG00000888888.1"},
		SymbolLabels(genes))
}

func TestAssembleSymbolMatrix(t *testing.T) {
	cols := patients(2)
	counts := mustMatrix(t, []string{"ENSG1", "ENSG2"}, cols, []float64{1, 2, 3, 4})
	c := &expression.Container{
		Counts: counts,
		Genes: []expression.GeneAnnotation{
			{GeneID: "ENSG1", Symbol: "CD8A"},
			{GeneID: "ENSG2", Symbol: "CD8A"},
		},
		Clinical: []expression.ClinicalRecord{{PatientID: cols[0]}, {PatientID: cols[1]}},
	}

	m, err := AssembleSymbolMatrix(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"CD8A", "CD8A.1"}, m.RowLabels)
	assert.Equal(t, cols, m.ColLabels)
	assert.Equal(t, 3.0, m.At(1, 0))
	// the container keeps its technical ids
	assert.Equal(t, []string{"ENSG1", "ENSG2"}, c.Counts.RowLabels)
}

func TestAssembleSymbolMatrix_ShapeMismatch(t *testing.T) {
	cols := patients(2)
	c := &expression.Container{
		Counts:   mustMatrix(t, []string{"ENSG1", "ENSG2"}, cols, []float64{1, 2, 3, 4}),
		Genes:    []expression.GeneAnnotation{{GeneID: "ENSG1", Symbol: "CD8A"}},
		Clinical: []expression.ClinicalRecord{{PatientID: cols[0]}, {PatientID: cols[1]}},
	}

	_, err := AssembleSymbolMatrix(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDataShape)
}

func TestLog2p1_MonotonicAndNotIdempotent(t *testing.T) {
	values := []float64{0, 1, 3, 7, 10, 100, 255, 1e6}
	m := mustMatrix(t, []string{"G1", "G2"}, patients(4), values)

	once := Log2p1(m)
	twice := Log2p1(once)

	assert.Equal(t, 0.0, once.At(0, 0))
	assert.Equal(t, 1.0, once.At(0, 1))
	assert.Equal(t, 3.0, once.At(0, 3))
	assert.Equal(t, 8.0, once.At(1, 2))

	flat := append(once.Row(0), once.Row(1)...)
	for i := 1; i < len(flat); i++ {
		assert.LessOrEqual(t, flat[i-1], flat[i], "log2(x+1) must be monotonic")
	}

	changed := false
	for i := 0; i < 2; i++ {
		for j := 0; j < 4; j++ {
			if once.At(i, j) != twice.At(i, j) {
				changed = true
			}
		}
	}
	assert.True(t, changed, "second application must not be a no-op")

	// input untouched
	assert.Equal(t, 255.0, m.At(1, 2))
}

func TestScoreSignature_PartialPanel(t *testing.T) {
	cols := patients(4)
	m := mustMatrix(t, []string{"CD8A", "EGFR", "GZMB"}, cols, []float64{
		1, 2, 3, 4,
		100, 100, 100, 100,
		3, 4, 5, 10,
	})

	res, err := ScoreSignature(m, []string{"CD8A", "GZMB", "PRF1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"CD8A", "GZMB"}, res.Matched)
	assert.Equal(t, []string{"PRF1"}, res.Missing)
	require.Len(t, res.Scores, 4)
	assert.Equal(t, []float64{2, 3, 4, 7}, res.Scores)

	rows, patientsN := res.Matrix.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 4, patientsN)
}

func TestScoreSignature_EmptyIntersection(t *testing.T) {
	m := mustMatrix(t, []string{"CD8A", "EGFR"}, patients(2), []float64{1, 2, 3, 4})

	res, err := ScoreSignature(m, []string{"FAKE1", "FAKE2"})
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyPanel)
}

func TestScoreSignature_NaNAwareMean(t *testing.T) {
	cols := patients(2)
	m := mustMatrix(t, []string{"CD8A", "GZMB"}, cols, []float64{
		2, math.NaN(),
		4, math.NaN(),
	})

	_, err := ScoreSignature(m, []string{"CD8A", "GZMB"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNonFiniteScore)
	assert.Contains(t, err.Error(), string(cols[1]))

	m = mustMatrix(t, []string{"CD8A", "GZMB"}, cols, []float64{
		2, math.NaN(),
		4, 6,
	})
	res, err := ScoreSignature(m, []string{"CD8A", "GZMB"})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6}, res.Scores)
}

func TestScoreSignature_SkipsInfiniteValues(t *testing.T) {
	cols := patients(3)
	m := mustMatrix(t, []string{"CD8A", "GZMB"}, cols, []float64{
		2, math.Inf(1), math.Inf(-1),
		4, 6, math.NaN(),
	})

	_, err := ScoreSignature(m, []string{"CD8A", "GZMB"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNonFiniteScore)
	assert.Contains(t, err.Error(), string(cols[2]))

	m = mustMatrix(t, []string{"CD8A", "GZMB"}, cols[:2], []float64{
		2, math.Inf(1),
		4, 6,
	})
	res, err := ScoreSignature(m, []string{"CD8A", "GZMB"})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6}, res.Scores)
}

func TestJoinClinical_CountMismatch(t *testing.T) {
	cols := patients(10)
	scores := make([]float64, 10)
	clinical := make([]expression.ClinicalRecord, 9)
	for i := range clinical {
		clinical[i] = expression.ClinicalRecord{PatientID: cols[i], VitalStatus: "Alive"}
	}

	_, err := JoinClinical(cols, scores, clinical)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDataShape)
	assert.Contains(t, err.Error(), "9 clinical rows")
}

func TestJoinClinical_KeyedNotPositional(t *testing.T) {
	cols := patients(3)
	clinical := []expression.ClinicalRecord{
		{PatientID: cols[2], VitalStatus: "Dead"},
		{PatientID: cols[0], VitalStatus: "Alive"},
		{PatientID: cols[1], VitalStatus: "Alive"},
	}

	table, err := JoinClinical(cols, []float64{1, 2, 3}, clinical)
	require.NoError(t, err)
	assert.Equal(t, cols, table.PatientIDs())
	assert.Equal(t, expression.VitalStatus("Dead"), table.Records[2].VitalStatus)
	assert.Equal(t, 3.0, table.Records[2].Score)
}

func TestJoinClinical_UnknownOrDuplicatePatient(t *testing.T) {
	cols := patients(2)

	_, err := JoinClinical(cols, []float64{1, 2}, []expression.ClinicalRecord{
		{PatientID: cols[0]}, {PatientID: "someone-else"},
	})
	assert.ErrorIs(t, err, core.ErrDataShape)

	_, err = JoinClinical(cols, []float64{1, 2}, []expression.ClinicalRecord{
		{PatientID: cols[0]}, {PatientID: cols[0]},
	})
	assert.ErrorIs(t, err, core.ErrDataShape)
}

func TestDropMissing(t *testing.T) {
	cols := patients(8)
	clinical := make([]expression.ClinicalRecord, 8)
	for i := range clinical {
		status := expression.VitalStatus("Alive")
		if i%2 == 1 {
			status = "Dead"
		}
		clinical[i] = expression.ClinicalRecord{PatientID: cols[i], VitalStatus: status}
	}
	clinical[5].VitalStatus = ""

	table, err := JoinClinical(cols, make([]float64, 8), clinical)
	require.NoError(t, err)

	filtered := table.DropMissing()
	assert.Equal(t, 7, filtered.Len())
	assert.False(t, filtered.Contains(cols[5]))
	assert.Equal(t, 8, table.Len(), "original table unchanged")
}

func TestCompareGroups_RequiresExactlyTwoLabels(t *testing.T) {
	three := &outcome.Table{Records: []outcome.Record{
		{PatientID: "a", VitalStatus: "Alive", Score: 1},
		{PatientID: "b", VitalStatus: "Dead", Score: 2},
		{PatientID: "c", VitalStatus: "Lost", Score: 3},
	}}
	_, err := CompareGroups(three)
	assert.ErrorIs(t, err, core.ErrInsufficientGroups)

	one := &outcome.Table{Records: []outcome.Record{
		{PatientID: "a", VitalStatus: "Alive", Score: 1},
		{PatientID: "b", VitalStatus: "Alive", Score: 2},
	}}
	_, err = CompareGroups(one)
	assert.ErrorIs(t, err, core.ErrInsufficientGroups)
}

func TestCompareGroups_OrdersGroupsByLabel(t *testing.T) {
	table := &outcome.Table{Records: []outcome.Record{
		{PatientID: "a", VitalStatus: "Dead", Score: 1},
		{PatientID: "b", VitalStatus: "Alive", Score: 5},
		{PatientID: "c", VitalStatus: "Dead", Score: 2},
		{PatientID: "d", VitalStatus: "Alive", Score: 6},
		{PatientID: "e", VitalStatus: "Dead", Score: 3},
		{PatientID: "f", VitalStatus: "Alive", Score: 7},
		{PatientID: "g", VitalStatus: "Dead", Score: 4},
		{PatientID: "h", VitalStatus: "Alive", Score: 8},
	}}

	res, err := CompareGroups(table)
	require.NoError(t, err)
	assert.Equal(t, "Alive", res.GroupX)
	assert.Equal(t, "Dead", res.GroupY)
	assert.Equal(t, 16.0, res.Statistic)
	assert.InDelta(t, 2.0/70.0, res.PValue, 1e-12)
	assert.True(t, res.Exact)
	assert.Equal(t, "two.sided", res.Alternative)
	assert.Equal(t, outcome.VerdictSignificant, Decide(res.PValue))
}

func TestCompareGroups_LabelsDifferingOnlyInCase(t *testing.T) {
	table := &outcome.Table{Records: []outcome.Record{
		{PatientID: "a", VitalStatus: "alive", Score: 5},
		{PatientID: "b", VitalStatus: "DEAD", Score: 1},
		{PatientID: "c", VitalStatus: "Alive", Score: 6},
		{PatientID: "d", VitalStatus: "Dead", Score: 2},
		{PatientID: "e", VitalStatus: " ALIVE ", Score: 7},
		{PatientID: "f", VitalStatus: "dead", Score: 3},
	}}

	res, err := CompareGroups(table)
	require.NoError(t, err)
	assert.Equal(t, "alive", res.GroupX)
	assert.Equal(t, "DEAD", res.GroupY)
	assert.Equal(t, 3, res.NX)
	assert.Equal(t, 3, res.NY)
	assert.Equal(t, 9.0, res.Statistic)
}

func TestDecide(t *testing.T) {
	assert.Equal(t, outcome.VerdictSignificant, Decide(0.0499))
	assert.Equal(t, outcome.VerdictTrend, Decide(SignificanceThreshold))
	assert.Equal(t, outcome.VerdictTrend, Decide(0.2))
	assert.Equal(t, "trend, recommend larger cohort", string(outcome.VerdictTrend))
}
