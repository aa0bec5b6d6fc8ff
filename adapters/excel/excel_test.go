package excel

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"immunoscope/domain/core"
	"immunoscope/domain/expression"
	"immunoscope/domain/outcome"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixture(t *testing.T) FileSourceConfig {
	dir := t.TempDir()
	return FileSourceConfig{
		CountsFile: writeFile(t, dir, "counts.tsv",
			"gene_id\tP1\tP2\tP3\n"+
				"ENSG2\t3\t0\t1\n"+
				"ENSG1\t7\tNA\t15\n"),
		GenesFile: writeFile(t, dir, "genes.csv",
			"gene_id,gene_name,gene_type\n"+
				"ENSG1,CD8A,protein_coding\n"+
				"ENSG2,GZMB,protein_coding\n"),
		ClinicalFile: writeFile(t, dir, "clinical.csv",
			"patient_id,case_id,vital_status\n"+
				"P3,c3,Dead\n"+
				"P1,c1,Alive\n"+
				"P2,c2,Not Reported\n"),
	}
}

func TestDataReader_DetectsFormat(t *testing.T) {
	assert.Equal(t, "csv", NewDataReader("a.CSV", nil).fileType)
	assert.Equal(t, "tsv", NewDataReader("a.tsv", nil).fileType)
	assert.Equal(t, "xlsx", NewDataReader("a.xlsx", nil).fileType)
}

func TestDataReader_MissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.csv"), nil).ReadData()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDataReader_PadsShortRows(t *testing.T) {
	path := writeFile(t, t.TempDir(), "t.csv", "a,b,c\n1,2\n")
	data, err := NewDataReader(path, nil).ReadData()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, data.Headers)
	assert.Equal(t, [][]string{{"1", "2", ""}}, data.Rows)
}

func TestFileSource_Retrieve(t *testing.T) {
	src := NewFileSource(fixture(t), nil)
	assert.Equal(t, "file", src.Name())

	c, err := src.Retrieve(context.Background(), expression.DefaultCohortQuery("LOCAL"))
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, []string{"ENSG2", "ENSG1"}, c.Counts.RowLabels)
	assert.Equal(t, []core.PatientID{"P1", "P2", "P3"}, c.Counts.ColLabels)
	assert.Equal(t, []string{"GZMB", "CD8A"}, c.Symbols())
	assert.Equal(t, 7.0, c.Counts.At(1, 0))
	assert.True(t, math.IsNaN(c.Counts.At(1, 1)))

	require.Len(t, c.Clinical, 3)
	assert.Equal(t, core.PatientID("P3"), c.Clinical[0].PatientID)
	assert.True(t, c.Clinical[2].VitalStatus.Missing())
}

func TestFileSource_RowLimitTruncatesPatients(t *testing.T) {
	q := expression.DefaultCohortQuery("LOCAL")
	q.RowLimit = 2

	c, err := NewFileSource(fixture(t), nil).Retrieve(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []core.PatientID{"P1", "P2"}, c.Counts.ColLabels)
	require.Len(t, c.Clinical, 2)
	require.NoError(t, c.Validate())
}

func TestFileSource_MissingAnnotation(t *testing.T) {
	cfg := fixture(t)
	cfg.GenesFile = writeFile(t, t.TempDir(), "genes.csv", "gene_id,gene_name\nENSG1,CD8A\n")

	_, err := NewFileSource(cfg, nil).Retrieve(context.Background(), expression.DefaultCohortQuery("LOCAL"))
	require.Error(t, err)
	assert.True(t, core.IsDataShapeError(err))
}

func TestFileSource_NonNumericCount(t *testing.T) {
	cfg := fixture(t)
	cfg.CountsFile = writeFile(t, t.TempDir(), "counts.csv", "gene_id,P1\nENSG1,abc\nENSG2,1\n")

	_, err := NewFileSource(cfg, nil).Retrieve(context.Background(), expression.DefaultCohortQuery("LOCAL"))
	require.Error(t, err)
	assert.True(t, core.IsDataShapeError(err))
}

func TestFileSource_UnreadableTable(t *testing.T) {
	cfg := fixture(t)
	cfg.ClinicalFile = filepath.Join(t.TempDir(), "missing.csv")

	_, err := NewFileSource(cfg, nil).Retrieve(context.Background(), expression.DefaultCohortQuery("LOCAL"))
	require.Error(t, err)
	assert.True(t, core.IsRetrievalError(err))
}

func TestFileSource_ReadsWorkbook(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	rows := [][]interface{}{{"gene_id", "P1", "P2"}, {"ENSG1", 1, 2}}
	for i, row := range rows {
		require.NoError(t, setRow(f, "Sheet1", i+1, row))
	}
	counts := filepath.Join(dir, "counts.xlsx")
	require.NoError(t, f.SaveAs(counts))
	require.NoError(t, f.Close())

	cfg := FileSourceConfig{
		CountsFile:   counts,
		GenesFile:    writeFile(t, dir, "genes.csv", "gene_id,gene_name\nENSG1,CD8A\n"),
		ClinicalFile: writeFile(t, dir, "clinical.csv", "patient_id,vital_status\nP1,Alive\nP2,Dead\n"),
	}
	c, err := NewFileSource(cfg, nil).Retrieve(context.Background(), expression.DefaultCohortQuery("LOCAL"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.Counts.At(0, 1))
}

func TestExporter_WritesThreeSheets(t *testing.T) {
	sig, err := expression.NewMatrix([]string{"CD8A", "GZMB"}, []core.PatientID{"P1", "P2"},
		[]float64{1, 2, math.NaN(), 4})
	require.NoError(t, err)

	run := &outcome.Run{
		ID:        core.NewRunID(),
		Source:    "file",
		Query:     expression.DefaultCohortQuery("LOCAL"),
		Matched:   []string{"CD8A", "GZMB"},
		Signature: sig,
		Outcome: &outcome.Table{Records: []outcome.Record{
			{PatientID: "P1", VitalStatus: "Alive", Score: 1},
			{PatientID: "P2", VitalStatus: "Dead", Score: 3},
		}},
		Test:    outcome.TestResult{Method: "Wilcoxon rank sum test", PValue: 0.5, GroupX: "Alive", GroupY: "Dead"},
		Verdict: outcome.VerdictTrend,
	}

	path := filepath.Join(t.TempDir(), "run.xlsx")
	require.NoError(t, NewExporter().Export(path, run))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SignatureSheet, OutcomeSheet, TestSheet}, f.GetSheetList())

	v, err := f.GetCellValue(SignatureSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "P1", v)
	v, err = f.GetCellValue(SignatureSheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "GZMB", v)
	v, err = f.GetCellValue(SignatureSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	v, err = f.GetCellValue(OutcomeSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Dead", v)

	v, err = f.GetCellValue(TestSheet, "B13")
	require.NoError(t, err)
	assert.Equal(t, string(outcome.VerdictTrend), v)
}

func TestExporter_NilRun(t *testing.T) {
	assert.Error(t, NewExporter().Export(filepath.Join(t.TempDir(), "x.xlsx"), nil))
}
