package expression

import (
	"fmt"
	"strings"

	"immunoscope/domain/core"
)

// GeneAnnotation maps a technical gene id to its symbol
type GeneAnnotation struct {
	GeneID   core.GeneID `json:"gene_id"`
	Symbol   string      `json:"gene_name"`
	GeneType string      `json:"gene_type,omitempty"`
}

// VitalStatus is the raw clinical outcome label
type VitalStatus string

var missingVitalStatus = map[string]bool{
	"":             true,
	"na":           true,
	"n/a":          true,
	"nan":          true,
	"not reported": true,
	"unknown":      true,
}

// Missing reports whether the label carries no outcome
func (v VitalStatus) Missing() bool {
	return missingVitalStatus[strings.ToLower(strings.TrimSpace(string(v)))]
}

// String returns the trimmed label
func (v VitalStatus) String() string {
	return strings.TrimSpace(string(v))
}

// Key is the grouping key: trimmed and lower-cased
func (v VitalStatus) Key() string {
	return strings.ToLower(v.String())
}

// ClinicalRecord is one row of patient metadata
type ClinicalRecord struct {
	PatientID   core.PatientID `json:"patient_id"`
	CaseID      string         `json:"case_id,omitempty"`
	VitalStatus VitalStatus    `json:"vital_status"`
}

// Container bundles raw counts with gene and patient metadata.
// Counts rows align with Genes, Counts columns with Clinical.
type Container struct {
	Query       CohortQuery
	Counts      *Matrix
	Genes       []GeneAnnotation
	Clinical    []ClinicalRecord
	RetrievedAt core.Timestamp
}

// Validate checks the shape invariants between the matrix and both metadata tables
func (c *Container) Validate() error {
	if c.Counts == nil || c.Counts.IsEmpty() {
		r, p := 0, 0
		if c.Counts != nil {
			r, p = c.Counts.Dims()
		}
		return core.NewDataShapeError("expression container",
			"at least one gene and one patient",
			fmt.Sprintf("%d genes x %d patients", r, p))
	}

	genes, patients := c.Counts.Dims()
	if genes != len(c.Genes) {
		return core.NewDataShapeError("expression container",
			fmt.Sprintf("%d gene annotation rows", genes),
			fmt.Sprintf("%d", len(c.Genes)))
	}
	if patients != len(c.Clinical) {
		return core.NewDataShapeError("expression container",
			fmt.Sprintf("%d clinical rows", patients),
			fmt.Sprintf("%d", len(c.Clinical)))
	}

	for i, g := range c.Genes {
		if string(g.GeneID) != c.Counts.RowLabels[i] {
			return core.NewDataShapeError("expression container",
				fmt.Sprintf("gene %q at row %d", c.Counts.RowLabels[i], i),
				fmt.Sprintf("annotation for %q", g.GeneID))
		}
	}
	return nil
}

// Symbols returns the symbol column in gene-row order
func (c *Container) Symbols() []string {
	out := make([]string, len(c.Genes))
	for i, g := range c.Genes {
		out[i] = g.Symbol
	}
	return out
}
