package excel

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"immunoscope/domain/core"
	"immunoscope/domain/expression"
	"immunoscope/internal"
)

var (
	geneIDHeaders   = []string{"gene_id", "gene", "id", "ensembl_id"}
	symbolHeaders   = []string{"gene_name", "symbol", "gene_symbol", "hgnc_symbol"}
	geneTypeHeaders = []string{"gene_type", "biotype", "type"}
	patientHeaders  = []string{"patient_id", "barcode", "sample", "sample_id", "submitter_id"}
	caseHeaders     = []string{"case_id"}
	vitalHeaders    = []string{"vital_status", "vital", "status"}
)

// FileSource loads a cohort from three local tables: a genes x patients count
// matrix, gene annotations and clinical records.
type FileSource struct {
	config FileSourceConfig
	logger *internal.Logger
}

// NewFileSource creates a file-backed cohort source
func NewFileSource(config FileSourceConfig, logger *internal.Logger) *FileSource {
	if logger == nil {
		logger = internal.Discard
	}
	if config.Sheet == "" {
		config.Sheet = DefaultSheet
	}
	return &FileSource{config: config, logger: logger}
}

// Name identifies the source
func (s *FileSource) Name() string {
	return "file"
}

// Retrieve implements ports.CohortSource. RowLimit keeps the first N patient columns.
func (s *FileSource) Retrieve(ctx context.Context, query expression.CohortQuery) (*expression.Container, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	countsTable, err := s.read(s.config.CountsFile)
	if err != nil {
		return nil, err
	}
	genesTable, err := s.read(s.config.GenesFile)
	if err != nil {
		return nil, err
	}
	clinicalTable, err := s.read(s.config.ClinicalFile)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, core.NewRetrievalError(query.ProjectID, err)
	}

	counts, err := parseCounts(countsTable, query)
	if err != nil {
		return nil, err
	}
	genes, err := parseGenes(genesTable, counts.RowLabels)
	if err != nil {
		return nil, err
	}
	clinical, err := parseClinical(clinicalTable, counts.ColLabels, query.Limited())
	if err != nil {
		return nil, err
	}

	s.logger.Info("[FileSource] Loaded %d genes x %d patients from %s", len(counts.RowLabels), len(counts.ColLabels), s.config.CountsFile)
	return &expression.Container{
		Query:       query,
		Counts:      counts,
		Genes:       genes,
		Clinical:    clinical,
		RetrievedAt: core.Now(),
	}, nil
}

func (s *FileSource) read(path string) (*TableData, error) {
	if path == "" {
		return nil, core.NewRetrievalError("file source", fmt.Errorf("table path not configured"))
	}
	data, err := NewDataReader(path, s.logger).WithSheet(s.config.Sheet).ReadData()
	if err != nil {
		return nil, core.NewRetrievalError(path, err)
	}
	return data, nil
}

// parseCounts reads the first column as gene ids and every other header as a patient id.
// Blank and NA cells become NaN.
func parseCounts(t *TableData, query expression.CohortQuery) (*expression.Matrix, error) {
	if len(t.Headers) < 2 {
		return nil, core.NewDataShapeError("counts table", "a gene id column and at least one patient column",
			fmt.Sprintf("%d columns", len(t.Headers)))
	}

	patients := t.Headers[1:]
	if query.Limited() && len(patients) > query.RowLimit {
		patients = patients[:query.RowLimit]
	}
	cols := make([]core.PatientID, len(patients))
	for j, p := range patients {
		id, err := core.ParsePatientID(p)
		if err != nil {
			return nil, core.NewDataShapeError("counts table", "a patient id in every header cell",
				fmt.Sprintf("blank header at column %d", j+2))
		}
		cols[j] = id
	}

	rows := make([]string, len(t.Rows))
	values := make([]float64, 0, len(t.Rows)*len(cols))
	for i, row := range t.Rows {
		rows[i] = row[0]
		for j := range cols {
			v, err := parseValue(row[j+1])
			if err != nil {
				return nil, core.NewDataShapeError("counts table", "numeric counts",
					fmt.Sprintf("%q at gene %s, patient %s", row[j+1], row[0], cols[j]))
			}
			values = append(values, v)
		}
	}
	return expression.NewMatrix(rows, cols, values)
}

func parseValue(cell string) (float64, error) {
	switch strings.ToLower(cell) {
	case "", "na", "nan", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

// parseGenes returns annotations in count-matrix row order
func parseGenes(t *TableData, order []string) ([]expression.GeneAnnotation, error) {
	idCol, ok := t.Column(geneIDHeaders...)
	if !ok {
		return nil, core.NewDataShapeError("gene table", "a gene_id column", strings.Join(t.Headers, ","))
	}
	symCol, ok := t.Column(symbolHeaders...)
	if !ok {
		return nil, core.NewDataShapeError("gene table", "a gene_name column", strings.Join(t.Headers, ","))
	}
	typeCol, hasType := t.Column(geneTypeHeaders...)

	byID := make(map[string]expression.GeneAnnotation, len(t.Rows))
	for _, row := range t.Rows {
		g := expression.GeneAnnotation{GeneID: core.GeneID(row[idCol]), Symbol: row[symCol]}
		if hasType {
			g.GeneType = row[typeCol]
		}
		if _, dup := byID[row[idCol]]; dup {
			return nil, core.NewDataShapeError("gene table", "unique gene ids",
				fmt.Sprintf("duplicate %s", row[idCol]))
		}
		byID[row[idCol]] = g
	}

	genes := make([]expression.GeneAnnotation, len(order))
	for i, id := range order {
		g, ok := byID[id]
		if !ok {
			return nil, core.NewDataShapeError("gene table", fmt.Sprintf("an annotation for %s", id), "none")
		}
		genes[i] = g
	}
	return genes, nil
}

// parseClinical keeps file order. When the counts were truncated, records for
// patients outside the retained columns are dropped.
func parseClinical(t *TableData, cols []core.PatientID, limited bool) ([]expression.ClinicalRecord, error) {
	idCol, ok := t.Column(patientHeaders...)
	if !ok {
		return nil, core.NewDataShapeError("clinical table", "a patient_id column", strings.Join(t.Headers, ","))
	}
	vitalCol, ok := t.Column(vitalHeaders...)
	if !ok {
		return nil, core.NewDataShapeError("clinical table", "a vital_status column", strings.Join(t.Headers, ","))
	}
	caseCol, hasCase := t.Column(caseHeaders...)

	keep := make(map[core.PatientID]bool, len(cols))
	for _, c := range cols {
		keep[c] = true
	}

	records := make([]expression.ClinicalRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		id, err := core.ParsePatientID(row[idCol])
		if err != nil {
			return nil, core.NewDataShapeError("clinical table", "a patient id on every row", "blank id")
		}
		if limited && !keep[id] {
			continue
		}
		rec := expression.ClinicalRecord{PatientID: id, VitalStatus: expression.VitalStatus(row[vitalCol])}
		if hasCase {
			rec.CaseID = row[caseCol]
		}
		records = append(records, rec)
	}
	return records, nil
}
