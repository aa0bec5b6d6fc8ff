package gdc

import (
	"context"
	"fmt"
	"os"

	"immunoscope/domain/core"
	"immunoscope/domain/expression"
	"immunoscope/internal"

	"golang.org/x/sync/errgroup"
)

// Source retrieves a cohort from the GDC: query, download to the local cache,
// then assemble one count matrix with gene and clinical metadata.
type Source struct {
	client  *Client
	workers int
	logger  *internal.Logger
}

// NewSource creates a GDC-backed cohort source
func NewSource(config Config, logger *internal.Logger) *Source {
	if logger == nil {
		logger = internal.Discard
	}
	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	return &Source{
		client:  NewClient(config, logger),
		workers: workers,
		logger:  logger,
	}
}

// Name identifies the source
func (s *Source) Name() string {
	return "gdc"
}

// Retrieve implements ports.CohortSource
func (s *Source) Retrieve(ctx context.Context, query expression.CohortQuery) (*expression.Container, error) {
	hits, err := s.client.SearchFiles(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, core.NewRetrievalError(query.ProjectID, fmt.Errorf("query matched no files"))
	}

	parsed := make([]*StarCounts, len(hits))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, hit := range hits {
		i, hit := i, hit
		g.Go(func() error {
			path, err := s.client.Download(gctx, query.ProjectID, hit)
			if err != nil {
				return err
			}
			counts, err := parseFile(path)
			if err != nil {
				return core.NewRetrievalError(path, err)
			}
			parsed[i] = counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids, renamed := columnIDs(hits)
	for _, r := range renamed {
		s.logger.Warn("[gdc] %s shares barcode %s with another file, column renamed %s", r.hit.FileName, r.hit.PatientID(), r.id)
	}
	return assemble(query, hits, ids, parsed)
}

type renamedColumn struct {
	hit FileHit
	id  core.PatientID
}

// columnIDs labels each file's column with its barcode. Files that still share a
// barcode (no aliquot listed) get .1, .2, ... appended to the later ones.
func columnIDs(hits []FileHit) ([]core.PatientID, []renamedColumn) {
	used := make(map[core.PatientID]bool, len(hits))
	for _, h := range hits {
		used[h.PatientID()] = true
	}

	seen := make(map[core.PatientID]bool, len(hits))
	ids := make([]core.PatientID, len(hits))
	var renamed []renamedColumn
	for i, h := range hits {
		id := h.PatientID()
		if !seen[id] {
			seen[id] = true
			ids[i] = id
			continue
		}
		candidate := id
		for n := 1; used[candidate]; n++ {
			candidate = core.PatientID(fmt.Sprintf("%s.%d", id, n))
		}
		used[candidate] = true
		ids[i] = candidate
		renamed = append(renamed, renamedColumn{hit: h, id: candidate})
	}
	return ids, renamed
}

func parseFile(path string) (*StarCounts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseStarCounts(f)
}

// assemble stacks per-sample count vectors into a genes x patients matrix.
// Every file must list the same genes in the same order.
func assemble(query expression.CohortQuery, hits []FileHit, ids []core.PatientID, parsed []*StarCounts) (*expression.Container, error) {
	genes := parsed[0].Genes
	nGenes, nPatients := len(genes), len(hits)

	rows := make([]string, nGenes)
	for i, g := range genes {
		rows[i] = string(g.GeneID)
	}

	cols := make([]core.PatientID, nPatients)
	clinical := make([]expression.ClinicalRecord, nPatients)
	values := make([]float64, nGenes*nPatients)
	for j, hit := range hits {
		sc := parsed[j]
		if len(sc.Genes) != nGenes {
			return nil, core.NewDataShapeError("matrix assembly",
				fmt.Sprintf("%d genes in every file", nGenes),
				fmt.Sprintf("%d genes in %s", len(sc.Genes), hit.FileName))
		}
		for i, g := range sc.Genes {
			if g.GeneID != genes[i].GeneID {
				return nil, core.NewDataShapeError("matrix assembly",
					fmt.Sprintf("gene %s at row %d", genes[i].GeneID, i),
					fmt.Sprintf("%s in %s", g.GeneID, hit.FileName))
			}
			values[i*nPatients+j] = sc.Counts[i]
		}

		cols[j] = ids[j]
		clinical[j] = expression.ClinicalRecord{
			PatientID:   ids[j],
			CaseID:      hit.CaseID,
			VitalStatus: hit.VitalStatus,
		}
	}

	counts, err := expression.NewMatrix(rows, cols, values)
	if err != nil {
		return nil, err
	}
	return &expression.Container{
		Query:       query,
		Counts:      counts,
		Genes:       append([]expression.GeneAnnotation(nil), genes...),
		Clinical:    clinical,
		RetrievedAt: core.Now(),
	}, nil
}
