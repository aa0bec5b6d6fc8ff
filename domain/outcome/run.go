package outcome

import (
	"immunoscope/domain/core"
	"immunoscope/domain/expression"
)

// GroupSummary describes the score distribution of one outcome group
type GroupSummary struct {
	Label  string  `json:"label"`
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Run is the complete result of one pipeline execution
type Run struct {
	ID         core.RunID             `json:"id"`
	Source     string                 `json:"source"`
	Query      expression.CohortQuery `json:"query"`
	CohortHash core.CohortHash        `json:"cohort_hash"`

	Genes    int `json:"genes"`
	Patients int `json:"patients"`

	Panel   []string `json:"panel"`
	Matched []string `json:"matched"`
	Missing []string `json:"missing"`

	// Signature is the matched-marker matrix (heatmap input).
	Signature *expression.Matrix `json:"-"`
	// Outcome is the filtered table (boxplot input).
	Outcome *Table           `json:"outcome"`
	Dropped []core.PatientID `json:"dropped"`

	Groups  []GroupSummary `json:"groups"`
	Test    TestResult     `json:"test"`
	Verdict Verdict        `json:"verdict"`

	CreatedAt core.Timestamp `json:"created_at"`
}
