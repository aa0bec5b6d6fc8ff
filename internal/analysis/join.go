package analysis

import (
	"fmt"

	"immunoscope/domain/core"
	"immunoscope/domain/expression"
	"immunoscope/domain/outcome"
)

// JoinClinical pairs every scored patient with exactly one clinical record by
// patient id. The result follows the score (matrix column) order.
func JoinClinical(patients []core.PatientID, scores []float64, clinical []expression.ClinicalRecord) (*outcome.Table, error) {
	const stage = "clinical join"

	if len(scores) != len(patients) {
		return nil, core.NewDataShapeError(stage,
			fmt.Sprintf("%d scores", len(patients)), fmt.Sprintf("%d", len(scores)))
	}
	if len(clinical) != len(patients) {
		return nil, core.NewDataShapeError(stage,
			fmt.Sprintf("%d clinical rows for %d matrix patients", len(patients), len(patients)),
			fmt.Sprintf("%d clinical rows", len(clinical)))
	}

	byID := make(map[core.PatientID]expression.ClinicalRecord, len(clinical))
	for _, rec := range clinical {
		if _, dup := byID[rec.PatientID]; dup {
			return nil, core.NewDataShapeError(stage, "unique clinical patient ids",
				fmt.Sprintf("duplicate %q", rec.PatientID))
		}
		byID[rec.PatientID] = rec
	}

	seen := make(map[core.PatientID]bool, len(patients))
	records := make([]outcome.Record, len(patients))
	for j, id := range patients {
		if seen[id] {
			return nil, core.NewDataShapeError(stage, "unique matrix patient ids",
				fmt.Sprintf("duplicate %q", id))
		}
		seen[id] = true

		rec, ok := byID[id]
		if !ok {
			return nil, core.NewDataShapeError(stage,
				fmt.Sprintf("clinical record for patient %q", id), "none")
		}
		records[j] = outcome.Record{
			PatientID:   id,
			VitalStatus: rec.VitalStatus,
			Score:       scores[j],
		}
	}

	return &outcome.Table{Records: records}, nil
}
