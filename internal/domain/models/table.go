package models

// ColumnType is the logical type of a Table column.
type ColumnType string

const (
	ColString   ColumnType = "String"
	ColFloat    ColumnType = "Float64"
	ColInt      ColumnType = "Int64"
	ColBool     ColumnType = "Bool"
	ColDate     ColumnType = "Date"
	ColDateTime ColumnType = "DateTime"
)

// Column describes one Table column.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Table is a typed, sink-agnostic batch of rows handed to loaders.
// Row values are string, float64, *float64, int64, bool or time.Time.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
