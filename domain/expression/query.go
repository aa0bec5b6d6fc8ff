package expression

import (
	"strings"

	"immunoscope/domain/core"
)

// Defaults for the STAR-Counts transcriptome workflow
const (
	DefaultProject      = "TCGA-LUAD"
	DefaultDataCategory = "Transcriptome Profiling"
	DefaultDataType     = "Gene Expression Quantification"
	DefaultWorkflowType = "STAR - Counts"
	DefaultRowLimit     = 20
)

// CohortQuery describes which files to retrieve for a cohort
type CohortQuery struct {
	ProjectID    string `json:"project_id"`
	DataCategory string `json:"data_category"`
	DataType     string `json:"data_type"`
	WorkflowType string `json:"workflow_type"`

	// RowLimit keeps only the first N query results; 0 means no limit.
	RowLimit int `json:"row_limit"`
}

// DefaultCohortQuery returns the transcriptome counts query for a project
func DefaultCohortQuery(project string) CohortQuery {
	return CohortQuery{
		ProjectID:    project,
		DataCategory: DefaultDataCategory,
		DataType:     DefaultDataType,
		WorkflowType: DefaultWorkflowType,
		RowLimit:     DefaultRowLimit,
	}
}

// Limited reports whether results are truncated
func (q CohortQuery) Limited() bool {
	return q.RowLimit > 0
}

// Validate checks the descriptor is usable before any network call
func (q CohortQuery) Validate() error {
	switch {
	case strings.TrimSpace(q.ProjectID) == "":
		return core.NewValidationError(core.ErrInvalidQuery, "project_id", "must not be empty")
	case q.RowLimit < 0:
		return core.NewValidationError(core.ErrInvalidQuery, "row_limit", "must be >= 0")
	}
	return nil
}
