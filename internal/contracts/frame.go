package contracts

// Frame is a raw table returned by a market-data provider
// Records hold string cells in Columns order.
type Frame struct {
	Columns []string
	Records [][]string
}

// Len returns the number of records
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Records)
}

// Index returns the position of col, or -1
func (f *Frame) Index(col string) int {
	if f == nil {
		return -1
	}
	for i, c := range f.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// HasColumns reports whether every col is present
func (f *Frame) HasColumns(cols ...string) bool {
	for _, col := range cols {
		if f.Index(col) < 0 {
			return false
		}
	}
	return true
}

// Value returns the cell at (row, col), or "" when either is out of range
func (f *Frame) Value(row int, col string) string {
	idx := f.Index(col)
	if idx < 0 || row < 0 || row >= f.Len() {
		return ""
	}
	record := f.Records[row]
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}
