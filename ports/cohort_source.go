package ports

import (
	"context"

	"immunoscope/domain/expression"
)

// CohortSource retrieves an expression container for a cohort descriptor
type CohortSource interface {
	// Retrieve returns raw counts with their gene and clinical metadata
	Retrieve(ctx context.Context, query expression.CohortQuery) (*expression.Container, error)
	// Name identifies the source in logs and stored runs
	Name() string
}
