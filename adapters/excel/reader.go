package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"immunoscope/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel, CSV and TSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx", "csv" or "tsv"
	sheet    string
	logger   *internal.Logger
}

// NewDataReader creates a reader, choosing the format from the file extension
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.Discard
	}
	fileType := "xlsx"
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		fileType = "csv"
	case ".tsv", ".txt", ".tab":
		fileType = "tsv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, sheet: DefaultSheet, logger: logger}
}

// WithSheet selects the worksheet read from xlsx files
func (r *DataReader) WithSheet(sheet string) *DataReader {
	if sheet != "" {
		r.sheet = sheet
	}
	return r
}

// ReadData reads the whole table
func (r *DataReader) ReadData() (*TableData, error) {
	r.logger.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readDelimited(',')
	case "tsv":
		return r.readDelimited('\t')
	default:
		return r.readExcelData()
	}
}

func (r *DataReader) readExcelData() (*TableData, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.sheet, err)
	}
	r.logger.Debug("[DataReader] %s read in %v (%d rows)", r.sheet, time.Since(start), len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel file must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

func (r *DataReader) readDelimited(comma rune) (*TableData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", r.fileType, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = comma
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	start := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file: %w", r.fileType, err)
	}
	r.logger.Debug("[DataReader] %s file read in %v (%d rows)", r.fileType, time.Since(start), len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}
	return r.processRows(rows)
}

// processRows trims cells and pads short rows; excelize drops trailing empty cells
func (r *DataReader) processRows(rows [][]string) (*TableData, error) {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	data := make([][]string, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) > len(headers) {
			return nil, fmt.Errorf("%s row %d has %d cells, header has %d", r.filePath, i+1, len(rows[i]), len(headers))
		}
		row := make([]string, len(headers))
		for j, cell := range rows[i] {
			row[j] = strings.TrimSpace(cell)
		}
		data = append(data, row)
	}

	r.logger.Debug("[DataReader] %s processed (%d columns, %d rows)", r.filePath, len(headers), len(data))
	return &TableData{Headers: headers, Rows: data}, nil
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
