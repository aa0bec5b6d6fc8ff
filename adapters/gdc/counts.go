package gdc

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"immunoscope/domain/core"
	"immunoscope/domain/expression"
)

// CountColumn is the STAR-Counts column used as the raw count
const CountColumn = "unstranded"

// StarCounts is one parsed STAR-Counts augmented gene counts file
type StarCounts struct {
	Genes  []expression.GeneAnnotation
	Counts []float64
}

// ParseStarCounts reads a GDC STAR-Counts TSV. Comment lines and the N_*
// summary rows are skipped.
func ParseStarCounts(r io.Reader) (*StarCounts, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read STAR counts header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	idCol, ok := col["gene_id"]
	if !ok {
		return nil, fmt.Errorf("STAR counts header has no gene_id column: %v", header)
	}
	countCol, ok := col[CountColumn]
	if !ok {
		return nil, fmt.Errorf("STAR counts header has no %s column: %v", CountColumn, header)
	}
	nameCol, hasName := col["gene_name"]
	typeCol, hasType := col["gene_type"]

	out := &StarCounts{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read STAR counts row: %w", err)
		}
		line++

		if len(record) <= countCol || len(record) <= idCol {
			return nil, fmt.Errorf("STAR counts row %d has %d fields", line, len(record))
		}
		geneID := strings.TrimSpace(record[idCol])
		if geneID == "" || strings.HasPrefix(geneID, "N_") {
			continue
		}

		count, err := strconv.ParseFloat(strings.TrimSpace(record[countCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("STAR counts row %d: invalid count %q: %w", line, record[countCol], err)
		}

		gene := expression.GeneAnnotation{GeneID: core.GeneID(geneID)}
		if hasName && nameCol < len(record) {
			gene.Symbol = strings.TrimSpace(record[nameCol])
		}
		if hasType && typeCol < len(record) {
			gene.GeneType = strings.TrimSpace(record[typeCol])
		}
		out.Genes = append(out.Genes, gene)
		out.Counts = append(out.Counts, count)
	}

	return out, nil
}
