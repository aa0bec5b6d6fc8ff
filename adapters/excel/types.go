package excel

// TableData is a sheet or delimited file read as a header plus string rows
type TableData struct {
	Headers []string   // Column headers
	Rows    [][]string // Data rows, padded to len(Headers)
}

// Column returns the index of the first header matching any of the names (case-insensitive)
func (t *TableData) Column(names ...string) (int, bool) {
	for _, name := range names {
		for i, h := range t.Headers {
			if equalFold(h, name) {
				return i, true
			}
		}
	}
	return -1, false
}
