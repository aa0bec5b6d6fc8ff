package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Retrieval errors
	ErrRetrieval    = errors.New("cohort retrieval failed")
	ErrInvalidQuery = errors.New("invalid cohort query")

	// Shape and alignment errors
	ErrDataShape = errors.New("data shape mismatch")

	// Analysis errors
	ErrEmptyPanel         = errors.New("empty marker panel after intersection")
	ErrInsufficientGroups = errors.New("outcome must have exactly two groups")
	ErrNonFiniteScore     = errors.New("immune score is not finite")
)

// NewRetrievalError wraps a failure talking to the remote repository
func NewRetrievalError(target string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrRetrieval, target, err)
}

// NewValidationError ties a field-level problem to one of the sentinels above
func NewValidationError(kind error, field string, reason string) error {
	return fmt.Errorf("%w: %s %s", kind, field, reason)
}

// NewDataShapeError reports which stage found a mismatch and the expected vs found sizes or keys
func NewDataShapeError(stage, expected, found string) error {
	return fmt.Errorf("%w in %s: expected %s, found %s", ErrDataShape, stage, expected, found)
}

// NewEmptyPanelError lists the panel that had no overlap with the matrix row labels
func NewEmptyPanelError(panel []string, rows int) error {
	return fmt.Errorf("%w: none of %v present among %d gene symbols", ErrEmptyPanel, panel, rows)
}

// NewInsufficientGroupsError reports the distinct labels actually found
func NewInsufficientGroupsError(labels []string) error {
	return fmt.Errorf("%w: found %d distinct labels %v", ErrInsufficientGroups, len(labels), labels)
}

// NewNonFiniteScoreError names the patient whose signature values were all missing
func NewNonFiniteScoreError(patient PatientID) error {
	return fmt.Errorf("%w for patient %s: no finite marker values", ErrNonFiniteScore, patient)
}

// Error checking helpers
func IsRetrievalError(err error) bool {
	return errors.Is(err, ErrRetrieval) || errors.Is(err, ErrInvalidQuery)
}

func IsDataShapeError(err error) bool {
	return errors.Is(err, ErrDataShape)
}

func IsAnalysisError(err error) bool {
	return errors.Is(err, ErrEmptyPanel) ||
		errors.Is(err, ErrInsufficientGroups) ||
		errors.Is(err, ErrNonFiniteScore)
}
