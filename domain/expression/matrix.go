package expression

import (
	"fmt"

	"immunoscope/domain/core"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense genes x patients table with labelled rows and columns.
// Row labels are gene ids or symbols depending on the stage that produced it.
type Matrix struct {
	Data      *mat.Dense
	RowLabels []string
	ColLabels []core.PatientID
}

// NewMatrix builds a matrix from row-major values. A matrix with zero rows or
// zero columns is allowed and carries an empty Dense.
func NewMatrix(rows []string, cols []core.PatientID, values []float64) (*Matrix, error) {
	if len(values) != len(rows)*len(cols) {
		return nil, core.NewDataShapeError("matrix construction",
			fmt.Sprintf("%d values (%d x %d)", len(rows)*len(cols), len(rows), len(cols)),
			fmt.Sprintf("%d values", len(values)))
	}

	m := &Matrix{
		Data:      &mat.Dense{},
		RowLabels: append([]string(nil), rows...),
		ColLabels: append([]core.PatientID(nil), cols...),
	}
	if len(rows) > 0 && len(cols) > 0 {
		m.Data = mat.NewDense(len(rows), len(cols), append([]float64(nil), values...))
	}
	return m, nil
}

// FromDense wraps an existing Dense with labels, checking dimensions
func FromDense(data *mat.Dense, rows []string, cols []core.PatientID) (*Matrix, error) {
	r, c := 0, 0
	if data != nil && !data.IsEmpty() {
		r, c = data.Dims()
	}
	if r != len(rows) || c != len(cols) {
		return nil, core.NewDataShapeError("matrix construction",
			fmt.Sprintf("%d x %d labels", len(rows), len(cols)),
			fmt.Sprintf("%d x %d data", r, c))
	}
	if data == nil {
		data = &mat.Dense{}
	}
	return &Matrix{
		Data:      data,
		RowLabels: append([]string(nil), rows...),
		ColLabels: append([]core.PatientID(nil), cols...),
	}, nil
}

// Dims returns (genes, patients)
func (m *Matrix) Dims() (int, int) {
	return len(m.RowLabels), len(m.ColLabels)
}

// IsEmpty reports whether the matrix has no genes or no patients
func (m *Matrix) IsEmpty() bool {
	r, c := m.Dims()
	return r == 0 || c == 0
}

// At returns the value at gene row i, patient column j
func (m *Matrix) At(i, j int) float64 {
	return m.Data.At(i, j)
}

// RowIndex returns the position of a row label
func (m *Matrix) RowIndex(label string) (int, bool) {
	for i, l := range m.RowLabels {
		if l == label {
			return i, true
		}
	}
	return -1, false
}

// Row copies one gene's values across all patients
func (m *Matrix) Row(i int) []float64 {
	_, c := m.Dims()
	return mat.Row(make([]float64, c), i, m.Data)
}

// Column copies one patient's values across all genes
func (m *Matrix) Column(j int) []float64 {
	r, _ := m.Dims()
	return mat.Col(make([]float64, r), j, m.Data)
}

// Clone returns a deep copy so callers can transform without aliasing
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{
		Data:      &mat.Dense{},
		RowLabels: append([]string(nil), m.RowLabels...),
		ColLabels: append([]core.PatientID(nil), m.ColLabels...),
	}
	if !m.IsEmpty() {
		out.Data = mat.DenseCopyOf(m.Data)
	}
	return out
}

// WithRowLabels returns a matrix sharing the data but with new row labels
func (m *Matrix) WithRowLabels(labels []string) (*Matrix, error) {
	if len(labels) != len(m.RowLabels) {
		return nil, core.NewDataShapeError("relabel",
			fmt.Sprintf("%d row labels", len(m.RowLabels)),
			fmt.Sprintf("%d", len(labels)))
	}
	return &Matrix{
		Data:      m.Data,
		RowLabels: append([]string(nil), labels...),
		ColLabels: m.ColLabels,
	}, nil
}

// SelectRows builds a new matrix from the given row positions, in that order
func (m *Matrix) SelectRows(idx []int) *Matrix {
	_, c := m.Dims()
	labels := make([]string, len(idx))
	values := make([]float64, 0, len(idx)*c)
	for k, i := range idx {
		labels[k] = m.RowLabels[i]
		values = append(values, m.Row(i)...)
	}
	out, _ := NewMatrix(labels, m.ColLabels, values)
	return out
}
