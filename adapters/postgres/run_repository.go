package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"immunoscope/domain/core"
	"immunoscope/domain/expression"
	"immunoscope/domain/outcome"
	"immunoscope/ports"

	"github.com/jmoiron/sqlx"
)

// ErrRunNotFound is returned by GetByID for an unknown run id
var ErrRunNotFound = stderrors.New("run not found")

// runRepository implements the RunRepository interface
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &runRepository{db: db}
}

type runRow struct {
	ID          string    `db:"id"`
	Source      string    `db:"source"`
	ProjectID   string    `db:"project_id"`
	Query       string    `db:"query"`
	CohortHash  string    `db:"cohort_hash"`
	Genes       int       `db:"genes"`
	Patients    int       `db:"patients"`
	Panel       string    `db:"panel"`
	Matched     string    `db:"matched"`
	Missing     string    `db:"missing"`
	Dropped     string    `db:"dropped"`
	Groups      string    `db:"groups"`
	Method      string    `db:"method"`
	Alternative string    `db:"alternative"`
	Statistic   float64   `db:"statistic"`
	PValue      float64   `db:"p_value"`
	Exact       bool      `db:"exact"`
	GroupX      string    `db:"group_x"`
	GroupY      string    `db:"group_y"`
	NX          int       `db:"n_x"`
	NY          int       `db:"n_y"`
	Verdict     string    `db:"verdict"`
	CreatedAt   time.Time `db:"created_at"`
}

const runColumns = `id, source, project_id, query, cohort_hash, genes, patients,
	panel, matched, missing, dropped, groups, method, alternative, statistic, p_value,
	exact, group_x, group_y, n_x, n_y, verdict, created_at`

// Save inserts the run and its per-patient scores in one transaction
func (r *runRepository) Save(ctx context.Context, run *outcome.Run) error {
	row, err := toRow(run)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO analysis_runs (` + runColumns + `) VALUES (
		:id, :source, :project_id, :query, :cohort_hash, :genes, :patients,
		:panel, :matched, :missing, :dropped, :groups, :method, :alternative, :statistic, :p_value,
		:exact, :group_x, :group_y, :n_x, :n_y, :verdict, :created_at
	)`
	if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if run.Outcome != nil {
		for i, rec := range run.Outcome.Records {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO patient_scores (run_id, position, patient_id, vital_status, score) VALUES ($1, $2, $3, $4, $5)`,
				row.ID, i, string(rec.PatientID), rec.VitalStatus.String(), rec.Score)
			if err != nil {
				return fmt.Errorf("failed to insert score for %s: %w", rec.PatientID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetByID retrieves a run with its outcome table
func (r *runRepository) GetByID(ctx context.Context, id string) (*outcome.Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `SELECT `+runColumns+` FROM analysis_runs WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run, err := fromRow(row)
	if err != nil {
		return nil, err
	}

	var records []outcome.Record
	err = r.db.SelectContext(ctx, &records,
		`SELECT patient_id, vital_status, score FROM patient_scores WHERE run_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient scores: %w", err)
	}
	run.Outcome = &outcome.Table{Records: records}
	return run, nil
}

// ListRecent returns run summaries newest first, without patient scores
func (r *runRepository) ListRecent(ctx context.Context, limit int) ([]*outcome.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []runRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+runColumns+` FROM analysis_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*outcome.Run, 0, len(rows))
	for _, row := range rows {
		run, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func toRow(run *outcome.Run) (*runRow, error) {
	row := &runRow{
		ID:          run.ID.String(),
		Source:      run.Source,
		ProjectID:   run.Query.ProjectID,
		CohortHash:  run.CohortHash.String(),
		Genes:       run.Genes,
		Patients:    run.Patients,
		Method:      run.Test.Method,
		Alternative: run.Test.Alternative,
		Statistic:   run.Test.Statistic,
		PValue:      run.Test.PValue,
		Exact:       run.Test.Exact,
		GroupX:      run.Test.GroupX,
		GroupY:      run.Test.GroupY,
		NX:          run.Test.NX,
		NY:          run.Test.NY,
		Verdict:     string(run.Verdict),
		CreatedAt:   run.CreatedAt.Time(),
	}

	fields := []struct {
		dst  *string
		src  interface{}
		name string
	}{
		{&row.Query, run.Query, "query"},
		{&row.Panel, nonNil(run.Panel), "panel"},
		{&row.Matched, nonNil(run.Matched), "matched"},
		{&row.Missing, nonNil(run.Missing), "missing"},
		{&row.Dropped, nonNilIDs(run.Dropped), "dropped"},
		{&row.Groups, run.Groups, "groups"},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.src)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", f.name, err)
		}
		*f.dst = string(b)
	}
	return row, nil
}

func fromRow(row runRow) (*outcome.Run, error) {
	run := &outcome.Run{
		ID:         core.RunID(row.ID),
		Source:     row.Source,
		CohortHash: core.CohortHash(row.CohortHash),
		Genes:      row.Genes,
		Patients:   row.Patients,
		Test: outcome.TestResult{
			Method:      row.Method,
			Alternative: row.Alternative,
			Statistic:   row.Statistic,
			PValue:      row.PValue,
			Exact:       row.Exact,
			GroupX:      row.GroupX,
			GroupY:      row.GroupY,
			NX:          row.NX,
			NY:          row.NY,
		},
		Verdict:   outcome.Verdict(row.Verdict),
		CreatedAt: core.NewTimestamp(row.CreatedAt),
	}

	var query expression.CohortQuery
	fields := []struct {
		src  string
		dst  interface{}
		name string
	}{
		{row.Query, &query, "query"},
		{row.Panel, &run.Panel, "panel"},
		{row.Matched, &run.Matched, "matched"},
		{row.Missing, &run.Missing, "missing"},
		{row.Dropped, &run.Dropped, "dropped"},
		{row.Groups, &run.Groups, "groups"},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", f.name, err)
		}
	}
	run.Query = query
	return run, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilIDs(s []core.PatientID) []core.PatientID {
	if s == nil {
		return []core.PatientID{}
	}
	return s
}
