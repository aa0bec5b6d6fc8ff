package analysis

import (
	"math"
	"strings"

	"immunoscope/domain/core"
	"immunoscope/domain/expression"

	"github.com/montanaflynn/stats"
)

// DefaultMarkerPanel is the cytotoxic T-cell panel scored per patient
var DefaultMarkerPanel = []string{"CD8A", "CD8B", "GZMA", "GZMB", "PRF1", "IFNG"}

// SignatureScores is the outcome of scoring a marker panel
type SignatureScores struct {
	// Matrix holds only the matched marker rows, in panel order.
	Matrix  *expression.Matrix
	Matched []string
	Missing []string
	// Scores has one value per matrix column.
	Scores []float64
}

// IntersectPanel returns the markers present in the row labels (panel order,
// duplicates removed) and the ones that are not.
func IntersectPanel(m *expression.Matrix, panel []string) (matched []string, idx []int, missing []string) {
	seen := make(map[string]bool, len(panel))
	for _, marker := range panel {
		marker = strings.TrimSpace(marker)
		if marker == "" || seen[marker] {
			continue
		}
		seen[marker] = true

		if i, ok := m.RowIndex(marker); ok {
			matched = append(matched, marker)
			idx = append(idx, i)
		} else {
			missing = append(missing, marker)
		}
	}
	return matched, idx, missing
}

// ScoreSignature restricts the matrix to the panel and averages each patient's
// marker values. NaN and infinite values are left out of a patient's mean; a patient with no
// finite marker value is an error, as is a panel with no marker in the matrix.
func ScoreSignature(m *expression.Matrix, panel []string) (*SignatureScores, error) {
	matched, idx, missing := IntersectPanel(m, panel)
	if len(matched) == 0 {
		genes, _ := m.Dims()
		return nil, core.NewEmptyPanelError(panel, genes)
	}

	sig := m.SelectRows(idx)
	_, patients := sig.Dims()
	scores := make([]float64, patients)
	for j := 0; j < patients; j++ {
		values := finite(sig.Column(j))
		if len(values) == 0 {
			return nil, core.NewNonFiniteScoreError(sig.ColLabels[j])
		}
		mean, err := stats.Mean(values)
		if err != nil {
			return nil, core.NewNonFiniteScoreError(sig.ColLabels[j])
		}
		scores[j] = mean
	}

	return &SignatureScores{
		Matrix:  sig,
		Matched: matched,
		Missing: missing,
		Scores:  scores,
	}, nil
}

// finite drops NaN and ±Inf
func finite(values []float64) []float64 {
	out := values[:0:0]
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
