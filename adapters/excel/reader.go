package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"grouper/domain/core"
	"grouper/domain/trial"
	"grouper/internal"
)

// DataReader handles reading one Excel or CSV export
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string // empty means the first sheet
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		logger:   internal.DefaultLogger.Named("DataReader"),
	}
}

// WithSheet selects a sheet by name instead of the first one.
func (r *DataReader) WithSheet(sheet string) *DataReader {
	r.sheet = sheet
	return r
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.logger.Debug("Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads the selected sheet into structured format
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file %s: %w", r.filePath, err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("Excel file %s has no sheets", r.filePath)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s of %s: %w", sheet, r.filePath, err)
	}
	r.logger.Debug("%s sheet %s read in %.2fms (%d rows)", filepath.Base(r.filePath), sheet,
		float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("Excel file %s has no header row", r.filePath)
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file %s: %w", r.filePath, err)
	}

	if len(rows) < 1 {
		return nil, fmt.Errorf("CSV file %s has no header row", r.filePath)
	}

	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData format. Rows that are
// entirely blank are kept so raw row positions stay aligned with the sheet.
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData, len(headers))
		for j, cell := range rows[i] {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Debug("%s processed (%d columns, %d rows)", filepath.Base(r.filePath), len(headers), len(dataRows))

	return &ExcelData{
		Source:  r.filePath,
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

// Trim keeps only the given columns, the way the exports are narrowed to a
// task's columns. A missing column is reported with the file it is missing from.
func (d *ExcelData) Trim(task trial.Task, columns []string) (*trial.RawTable, error) {
	present := make(map[string]bool, len(d.Headers))
	for _, h := range d.Headers {
		present[h] = true
	}
	for _, c := range columns {
		if !present[c] {
			return nil, core.NewMissingColumnError(task.String(), c, filepath.Base(d.Source))
		}
	}

	table := &trial.RawTable{
		Headers: append([]string(nil), columns...),
		Rows:    make([]trial.RawRow, len(d.Rows)),
	}
	for i, row := range d.Rows {
		values := make(map[string]string, len(columns))
		for _, c := range columns {
			values[c] = row[c]
		}
		table.Rows[i] = trial.RawRow{Source: d.Source, Index: i, Values: values}
	}
	return table, nil
}

// Whole converts every column, for tasks whose inputs carry optional columns.
func (d *ExcelData) Whole() *trial.RawTable {
	table := &trial.RawTable{
		Headers: append([]string(nil), d.Headers...),
		Rows:    make([]trial.RawRow, len(d.Rows)),
	}
	for i, row := range d.Rows {
		table.Rows[i] = trial.RawRow{Source: d.Source, Index: i, Values: row}
	}
	return table
}
