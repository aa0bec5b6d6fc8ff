package app

import (
	"context"
	"fmt"

	"immunoscope/domain/core"
	"immunoscope/domain/expression"
	"immunoscope/domain/outcome"
	"immunoscope/internal"
	"immunoscope/internal/analysis"
	"immunoscope/internal/errors"
	"immunoscope/ports"

	"github.com/montanaflynn/stats"
)

// Pipeline stage names, used to attribute failures
const (
	StageRetrieval     = "retrieval"
	StageAssembly      = "assembly"
	StageNormalization = "normalization"
	StageScoring       = "scoring"
	StageJoin          = "join"
	StageComparison    = "comparison"
	StageExport        = "export"
	StagePersist       = "persist"
)

// PipelineOptions controls one run
type PipelineOptions struct {
	Panel      []string
	ExportFile string
}

// PipelineService runs retrieval, normalization, scoring and the group comparison
// in order, stopping at the first failing stage.
type PipelineService struct {
	source   ports.CohortSource
	exporter ports.RunExporter
	runs     ports.RunRepository
	logger   *internal.Logger
}

// NewPipelineService creates a pipeline over a cohort source. Exporter and
// repository are optional.
func NewPipelineService(source ports.CohortSource, exporter ports.RunExporter, runs ports.RunRepository, logger *internal.Logger) *PipelineService {
	if logger == nil {
		logger = internal.Discard
	}
	return &PipelineService{
		source:   source,
		exporter: exporter,
		runs:     runs,
		logger:   logger,
	}
}

// Run executes the pipeline for one cohort query. When the analysis succeeds but
// export or persistence fails, the completed run is returned with the error.
func (s *PipelineService) Run(ctx context.Context, query expression.CohortQuery, opts PipelineOptions) (*outcome.Run, error) {
	panel := opts.Panel
	if len(panel) == 0 {
		panel = analysis.DefaultMarkerPanel
	}

	// 1. Retrieval
	s.logger.Info("[%s] querying %s for project %s (limit %d)", StageRetrieval, s.source.Name(), query.ProjectID, query.RowLimit)
	if err := query.Validate(); err != nil {
		return nil, errors.Stage(StageRetrieval, err)
	}
	container, err := s.source.Retrieve(ctx, query)
	if err != nil {
		return nil, errors.Stage(StageRetrieval, err)
	}

	// 2. Symbol matrix
	symbols, err := analysis.AssembleSymbolMatrix(container)
	if err != nil {
		return nil, errors.Stage(StageAssembly, err)
	}
	genes, patients := symbols.Dims()
	s.logger.Info("[%s] %d genes x %d patients", StageAssembly, genes, patients)

	// 3. log2(x+1)
	logged := analysis.Log2p1(symbols)
	s.logger.Info("[%s] log2(x+1) applied", StageNormalization)

	// 4. Signature score
	scored, err := analysis.ScoreSignature(logged, panel)
	if err != nil {
		return nil, errors.Stage(StageScoring, err)
	}
	if len(scored.Missing) > 0 {
		s.logger.Warn("[%s] markers not in cohort: %v", StageScoring, scored.Missing)
	}
	s.logger.Info("[%s] %d of %d markers matched", StageScoring, len(scored.Matched), len(scored.Matched)+len(scored.Missing))

	// 5. Clinical join and missing-outcome filter
	joined, err := analysis.JoinClinical(scored.Matrix.ColLabels, scored.Scores, container.Clinical)
	if err != nil {
		return nil, errors.Stage(StageJoin, err)
	}
	filtered := joined.DropMissing()
	dropped := droppedPatients(joined, filtered)
	s.logger.Info("[%s] %d patients kept, %d without vital status dropped", StageJoin, filtered.Len(), len(dropped))

	// 6. Rank-sum test and verdict
	result, err := analysis.CompareGroups(filtered)
	if err != nil {
		return nil, errors.Stage(StageComparison, err)
	}
	groups, err := summarizeGroups(filtered)
	if err != nil {
		return nil, errors.Stage(StageComparison, err)
	}
	verdict := analysis.Decide(result.PValue)
	s.logger.Info("[%s] W = %g, p = %.4g: %s", StageComparison, result.Statistic, result.PValue, verdict)

	run := &outcome.Run{
		ID:         core.NewRunID(),
		Source:     s.source.Name(),
		Query:      query,
		CohortHash: core.NewCohortHash(query.ProjectID, filtered.PatientIDs()),
		Genes:      genes,
		Patients:   patients,
		Panel:      append([]string(nil), panel...),
		Matched:    scored.Matched,
		Missing:    scored.Missing,
		Signature:  scored.Matrix,
		Outcome:    filtered,
		Dropped:    dropped,
		Groups:     groups,
		Test:       result,
		Verdict:    verdict,
		CreatedAt:  core.Now(),
	}

	if opts.ExportFile != "" && s.exporter != nil {
		if err := s.exporter.Export(opts.ExportFile, run); err != nil {
			return run, errors.Stage(StageExport, errors.ExportError("failed to export run", err))
		}
		s.logger.Info("[%s] wrote %s", StageExport, opts.ExportFile)
	}

	if s.runs != nil {
		if err := s.runs.Save(ctx, run); err != nil {
			return run, errors.Stage(StagePersist, errors.DatabaseError("failed to save run", err))
		}
		s.logger.Info("[%s] saved run %s", StagePersist, run.ID)
	}

	return run, nil
}

// History lists recently persisted runs
func (s *PipelineService) History(ctx context.Context, limit int) ([]*outcome.Run, error) {
	if s.runs == nil {
		return nil, errors.New(errors.CodeDatabaseError, "no run repository configured")
	}
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}
	return runs, nil
}

// GetRun loads one persisted run by id
func (s *PipelineService) GetRun(ctx context.Context, id string) (*outcome.Run, error) {
	if s.runs == nil {
		return nil, errors.New(errors.CodeDatabaseError, "no run repository configured")
	}
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to load run %s", id), err)
	}
	return run, nil
}

func droppedPatients(all, kept *outcome.Table) []core.PatientID {
	var out []core.PatientID
	for _, r := range all.Records {
		if !kept.Contains(r.PatientID) {
			out = append(out, r.PatientID)
		}
	}
	return out
}

func summarizeGroups(t *outcome.Table) ([]outcome.GroupSummary, error) {
	labels := t.Labels()
	out := make([]outcome.GroupSummary, 0, len(labels))
	for _, label := range labels {
		scores := t.Scores(label)
		mean, err := stats.Mean(scores)
		if err != nil {
			return nil, fmt.Errorf("mean of %s: %w", label, err)
		}
		median, err := stats.Median(scores)
		if err != nil {
			return nil, fmt.Errorf("median of %s: %w", label, err)
		}
		out = append(out, outcome.GroupSummary{Label: label, N: len(scores), Mean: mean, Median: median})
	}
	return out, nil
}
