package debt

import (
	"strings"
)

// Table is the in-memory tabular structure the pipeline works on. Columns are
// canonical (uppercase, trimmed) names; cells hold string, float64, time.Time,
// decimal.Decimal or nil. Stages add columns in place; only the closed-order
// filter removes rows.
type Table struct {
	Columns []string
	Rows    [][]interface{}
}

func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = NormalizeHeader(c)
	}
	return &Table{Columns: cols, Rows: make([][]interface{}, 0)}
}

// NormalizeHeader uppercases and trims a column name or cell used as one.
func NormalizeHeader(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ColIndex returns the position of a canonical column name, or -1.
func (t *Table) ColIndex(name string) int {
	name = NormalizeHeader(name)
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the canonical column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColIndex(name) >= 0
}

// AddRow appends a row, padding or truncating to the column count.
func (t *Table) AddRow(cells []interface{}) {
	row := make([]interface{}, len(t.Columns))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	t.Rows = append(t.Rows, row)
}

// AddColumn appends a derived column. values must be row-aligned; a short
// slice leaves the remaining cells nil.
func (t *Table) AddColumn(name string, values []interface{}) {
	t.Columns = append(t.Columns, NormalizeHeader(name))
	for i := range t.Rows {
		var v interface{}
		if i < len(values) {
			v = values[i]
		}
		t.Rows[i] = append(t.Rows[i], v)
	}
}

// Cell returns the value at (row, column index); nil when out of range.
func (t *Table) Cell(row, col int) interface{} {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return t.Rows[row][col]
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}
