package excel

import (
	"fmt"
	"math"
	"strings"

	"immunoscope/domain/outcome"

	"github.com/xuri/excelize/v2"
)

// Sheet names written by Exporter
const (
	SignatureSheet = "signature"
	OutcomeSheet   = "outcome"
	TestSheet      = "test"
)

// Exporter writes a finished run to an xlsx workbook
type Exporter struct{}

// NewExporter creates a workbook exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export implements ports.RunExporter
func (e *Exporter) Export(path string, run *outcome.Run) error {
	if run == nil {
		return fmt.Errorf("nothing to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SignatureSheet); err != nil {
		return fmt.Errorf("failed to name signature sheet: %w", err)
	}
	if err := writeSignature(f, run); err != nil {
		return err
	}
	if _, err := f.NewSheet(OutcomeSheet); err != nil {
		return fmt.Errorf("failed to create outcome sheet: %w", err)
	}
	if err := writeOutcome(f, run); err != nil {
		return err
	}
	if _, err := f.NewSheet(TestSheet); err != nil {
		return fmt.Errorf("failed to create test sheet: %w", err)
	}
	if err := writeTest(f, run); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// writeSignature lays out matched markers as rows and patients as columns
func writeSignature(f *excelize.File, run *outcome.Run) error {
	if run.Signature == nil {
		return nil
	}
	m := run.Signature
	header := make([]interface{}, 0, len(m.ColLabels)+1)
	header = append(header, "marker")
	for _, p := range m.ColLabels {
		header = append(header, string(p))
	}
	if err := setRow(f, SignatureSheet, 1, header); err != nil {
		return err
	}

	for i, label := range m.RowLabels {
		row := make([]interface{}, 0, len(m.ColLabels)+1)
		row = append(row, label)
		row = append(row, toCells(m.Row(i))...)
		if err := setRow(f, SignatureSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeOutcome(f *excelize.File, run *outcome.Run) error {
	if err := setRow(f, OutcomeSheet, 1, []interface{}{"patient_id", "vital_status", "score"}); err != nil {
		return err
	}
	if run.Outcome == nil {
		return nil
	}
	for i, r := range run.Outcome.Records {
		row := []interface{}{string(r.PatientID), r.VitalStatus.String(), r.Score}
		if err := setRow(f, OutcomeSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeTest(f *excelize.File, run *outcome.Run) error {
	t := run.Test
	rows := [][]interface{}{
		{"run_id", run.ID.String()},
		{"source", run.Source},
		{"project", run.Query.ProjectID},
		{"method", t.Method},
		{"alternative", t.Alternative},
		{"group_x", t.GroupX},
		{"group_y", t.GroupY},
		{"n_x", t.NX},
		{"n_y", t.NY},
		{"statistic", t.Statistic},
		{"p_value", t.PValue},
		{"exact", t.Exact},
		{"verdict", string(run.Verdict)},
		{"matched_markers", strings.Join(run.Matched, ",")},
		{"missing_markers", strings.Join(run.Missing, ",")},
	}
	for i, row := range rows {
		if err := setRow(f, TestSheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// toCells leaves NaN cells blank; excelize cannot store NaN
func toCells(values []float64) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = ""
			continue
		}
		out[i] = v
	}
	return out
}
