package migration

import (
	"context"

	"immunoscope/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAnalysisRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analysis_runs table")
	}

	if err := r.createPatientScoresTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create patient_scores table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createAnalysisRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id UUID PRIMARY KEY,
			source VARCHAR(50) NOT NULL,
			project_id VARCHAR(100) NOT NULL,
			query JSONB NOT NULL,
			cohort_hash VARCHAR(64) NOT NULL,
			genes INTEGER NOT NULL,
			patients INTEGER NOT NULL,
			panel JSONB NOT NULL,
			matched JSONB NOT NULL,
			missing JSONB NOT NULL,
			dropped JSONB NOT NULL,
			groups JSONB NOT NULL,
			method VARCHAR(100) NOT NULL,
			alternative VARCHAR(20) NOT NULL,
			statistic DOUBLE PRECISION NOT NULL,
			p_value DOUBLE PRECISION NOT NULL,
			exact BOOLEAN NOT NULL,
			group_x VARCHAR(100) NOT NULL,
			group_y VARCHAR(100) NOT NULL,
			n_x INTEGER NOT NULL,
			n_y INTEGER NOT NULL,
			verdict VARCHAR(100) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createPatientScoresTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS patient_scores (
			run_id UUID NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			patient_id VARCHAR(100) NOT NULL,
			vital_status VARCHAR(50) NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, patient_id)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at ON analysis_runs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_project ON analysis_runs(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_cohort_hash ON analysis_runs(cohort_hash)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
