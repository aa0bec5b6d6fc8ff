package ports

import (
	"context"

	"immunoscope/domain/outcome"
)

// RunRepository stores completed analysis runs
type RunRepository interface {
	Save(ctx context.Context, run *outcome.Run) error
	GetByID(ctx context.Context, id string) (*outcome.Run, error)
	ListRecent(ctx context.Context, limit int) ([]*outcome.Run, error)
}
