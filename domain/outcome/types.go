package outcome

import (
	"sort"

	"immunoscope/domain/core"
	"immunoscope/domain/expression"
)

// Record pairs a patient's outcome label with their immune score
type Record struct {
	PatientID   core.PatientID         `json:"patient_id" db:"patient_id"`
	VitalStatus expression.VitalStatus `json:"vital_status" db:"vital_status"`
	Score       float64                `json:"score" db:"score"`
}

// Table is the per-patient outcome table in matrix column order
type Table struct {
	Records []Record `json:"records"`
}

// Len returns the number of patients
func (t *Table) Len() int {
	return len(t.Records)
}

// DropMissing returns a new table without records whose vital status is missing
func (t *Table) DropMissing() *Table {
	kept := make([]Record, 0, len(t.Records))
	for _, r := range t.Records {
		if !r.VitalStatus.Missing() {
			kept = append(kept, r)
		}
	}
	return &Table{Records: kept}
}

// Contains reports whether a patient appears in the table
func (t *Table) Contains(id core.PatientID) bool {
	for _, r := range t.Records {
		if r.PatientID == id {
			return true
		}
	}
	return false
}

// Labels returns the distinct non-missing labels ordered case-insensitively.
// Labels differing only in case form one group, shown with the first spelling seen.
func (t *Table) Labels() []string {
	display := make(map[string]string)
	var keys []string
	for _, r := range t.Records {
		if r.VitalStatus.Missing() {
			continue
		}
		k := r.VitalStatus.Key()
		if _, ok := display[k]; !ok {
			display[k] = r.VitalStatus.String()
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = display[k]
	}
	return labels
}

// Scores returns the scores for one label, matched case-insensitively, in table order
func (t *Table) Scores(label string) []float64 {
	key := expression.VitalStatus(label).Key()
	var out []float64
	for _, r := range t.Records {
		if r.VitalStatus.Key() == key {
			out = append(out, r.Score)
		}
	}
	return out
}

// PatientIDs returns the patient ids in table order
func (t *Table) PatientIDs() []core.PatientID {
	out := make([]core.PatientID, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.PatientID
	}
	return out
}

// TestResult is the output of the two-group rank comparison
type TestResult struct {
	Method      string  `json:"method"`
	Alternative string  `json:"alternative"`
	Statistic   float64 `json:"statistic"`
	PValue      float64 `json:"p_value"`
	Exact       bool    `json:"exact"`
	GroupX      string  `json:"group_x"`
	GroupY      string  `json:"group_y"`
	NX          int     `json:"n_x"`
	NY          int     `json:"n_y"`
}

// Verdict is the human-readable significance decision
type Verdict string

const (
	VerdictSignificant Verdict = "significant"
	VerdictTrend       Verdict = "trend, recommend larger cohort"
)
