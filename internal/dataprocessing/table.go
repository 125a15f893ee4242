package dataprocessing

// Canonical column names produced by Normalize.
const (
	ColCode      = "code"
	ColName      = "name"
	ColPctChange = "pct_change"
)

// Table is a raw tabular dataset: a header plus string rows. Rows may be
// shorter than the header; Cell treats missing trailing cells as empty.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable creates a table with the given header and no rows.
func NewTable(columns []string) *Table {
	return &Table{Columns: columns}
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), or "" when the row is shorter than
// the header.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Column returns all values of the named column, one per row.
func (t *Table) Column(name string) []string {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = t.Cell(row, idx)
	}
	return values
}

// AppendRow adds a row to the table.
func (t *Table) AppendRow(row []string) {
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}
