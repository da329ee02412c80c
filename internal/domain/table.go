package domain

// ResultTable is a tabular query result: ordered named columns and ordered
// rows, each row holding one value per column.
// Values are normalised by the repo layer to int64, float64, string, bool or nil
// so the table can be encoded to JSON or rendered as text without further work.
type ResultTable struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t ResultTable) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1 when absent.
func (t ResultTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
