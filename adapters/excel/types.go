package excel

// RawRowData represents a row of raw Excel data as string key-value pairs
type RawRowData map[string]string

// ExcelData represents one loaded export
type ExcelData struct {
	Source  string       // file path
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows, in sheet order
}
