package testkit

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"immunoscope/domain/core"
	"immunoscope/domain/expression"
	"immunoscope/internal/analysis"

	"gonum.org/v1/gonum/stat/distuv"
)

// CohortGeneratorConfig configures the synthetic cohort generator
type CohortGeneratorConfig struct {
	Genes    int      `json:"genes"`
	Patients int      `json:"patients"`
	Panel    []string `json:"panel"`
	// Effect is the log2 fold change of panel genes in the first group.
	Effect float64 `json:"effect"`
	// MissingEvery marks every Nth patient's vital status as not reported; 0 disables.
	MissingEvery int   `json:"missing_every"`
	Seed         int64 `json:"seed"`
}

// DefaultCohortConfig returns a cohort with a clear planted signal
func DefaultCohortConfig() CohortGeneratorConfig {
	return CohortGeneratorConfig{
		Genes:        200,
		Patients:     40,
		Panel:        analysis.DefaultMarkerPanel,
		Effect:       2,
		MissingEvery: 7,
		Seed:         42,
	}
}

// CohortGenerator produces reproducible count cohorts. Patients alternate
// between Alive and Dead; panel genes are over-expressed in Alive patients.
type CohortGenerator struct {
	config CohortGeneratorConfig
}

// NewCohortGenerator creates a generator; the panel is always part of the gene set
func NewCohortGenerator(config CohortGeneratorConfig) *CohortGenerator {
	if len(config.Panel) == 0 {
		config.Panel = analysis.DefaultMarkerPanel
	}
	if config.Genes < len(config.Panel)+1 {
		config.Genes = len(config.Panel) + 1
	}
	return &CohortGenerator{config: config}
}

// Name identifies the source
func (g *CohortGenerator) Name() string {
	return "synthetic"
}

// Retrieve implements ports.CohortSource. RowLimit keeps the first N patients.
func (g *CohortGenerator) Retrieve(ctx context.Context, query expression.CohortQuery) (*expression.Container, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, core.NewRetrievalError(query.ProjectID, err)
	}

	patients := g.config.Patients
	if query.Limited() && query.RowLimit < patients {
		patients = query.RowLimit
	}
	if patients < 1 {
		return nil, core.NewRetrievalError(query.ProjectID, fmt.Errorf("synthetic cohort has no patients"))
	}

	c := g.Generate(patients)
	c.Query = query
	return c, nil
}

// Generate builds a cohort of the given size. The same seed always yields the same counts.
func (g *CohortGenerator) Generate(patients int) *expression.Container {
	rng := rand.New(rand.NewSource(g.config.Seed))
	baseline := distuv.Normal{Mu: 6, Sigma: 1.5}
	noise := distuv.Normal{Mu: 0, Sigma: 0.5}

	genes := g.genes()
	rows := make([]string, len(genes))
	for i, gene := range genes {
		rows[i] = string(gene.GeneID)
	}

	cols := make([]core.PatientID, patients)
	clinical := make([]expression.ClinicalRecord, patients)
	for j := range cols {
		cols[j] = core.PatientID(fmt.Sprintf("SYN-%04d-01A", j+1))
		clinical[j] = expression.ClinicalRecord{
			PatientID:   cols[j],
			CaseID:      fmt.Sprintf("case-%04d", j+1),
			VitalStatus: g.vitalStatus(j),
		}
	}

	values := make([]float64, len(genes)*patients)
	for i := range genes {
		level := baseline.Quantile(uniform(rng))
		for j := 0; j < patients; j++ {
			mean := level + noise.Quantile(uniform(rng))
			if i < len(g.config.Panel) && j%2 == 0 {
				mean += g.config.Effect
			}
			values[i*patients+j] = math.Round(math.Exp2(mean))
		}
	}

	counts, _ := expression.NewMatrix(rows, cols, values)
	return &expression.Container{
		Counts:      counts,
		Genes:       genes,
		Clinical:    clinical,
		RetrievedAt: core.Now(),
	}
}

// genes lists the panel first, then filler genes. One filler symbol is
// repeated so symbol assembly has a collision to resolve.
func (g *CohortGenerator) genes() []expression.GeneAnnotation {
	out := make([]expression.GeneAnnotation, g.config.Genes)
	for i := range out {
		id := core.GeneID(fmt.Sprintf("ENSG%011d.1", i+1))
		symbol := fmt.Sprintf("GENE%d", i+1)
		if i < len(g.config.Panel) {
			symbol = g.config.Panel[i]
		} else if i == g.config.Genes-1 && i > len(g.config.Panel) {
			symbol = out[len(g.config.Panel)].Symbol
		}
		out[i] = expression.GeneAnnotation{GeneID: id, Symbol: symbol, GeneType: "protein_coding"}
	}
	return out
}

// uniform draws from the open interval (0, 1) so quantiles stay finite
func uniform(rng *rand.Rand) float64 {
	for {
		if u := rng.Float64(); u > 0 {
			return u
		}
	}
}

func (g *CohortGenerator) vitalStatus(j int) expression.VitalStatus {
	if g.config.MissingEvery > 0 && (j+1)%g.config.MissingEvery == 0 {
		return "Not Reported"
	}
	if j%2 == 0 {
		return "Alive"
	}
	return "Dead"
}
