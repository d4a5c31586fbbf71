// Package table holds the in-memory tabular data model shared by the
// loader, the screening engine, and the writer.
package table

// Row maps column names to cell values. Rows are shared by reference
// between a table and tables derived from it by filtering.
type Row map[string]Value

// Table is an ordered collection of uniformly-shaped rows. The column
// set is fixed once the table is built; filtering produces new tables
// with fewer rows, never fewer columns.
type Table struct {
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given column order.
func New(columns []string) *Table {
	return &Table{Columns: columns}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AppendRow adds a row. The row is expected to cover the table's
// column set; missing columns read as null.
func (t *Table) AppendRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// Clone returns a table with the same columns and an independent row
// slice. Row maps are shared, so the clone must be narrowed, never
// written through.
func (t *Table) Clone() *Table {
	rows := make([]Row, len(t.Rows))
	copy(rows, t.Rows)
	return &Table{Columns: t.Columns, Rows: rows}
}
