package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumns is returned when a file lacks columns a stage depends on.
var ErrMissingColumns = errors.New("missing required columns")

// SchemaError reports which required columns were absent from a source.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Source, ErrMissingColumns, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrMissingColumns }

// Frame is an untyped, header-addressed CSV table.
type Frame struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewFrame builds a Frame and indexes its header.
func NewFrame(header []string, rows [][]string) *Frame {
	f := &Frame{Header: header, Rows: rows}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.Header))
	for i, h := range f.Header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := f.index[name]; !dup {
			f.index[name] = i
		}
	}
}

// Index returns the position of column name, or -1.
func (f *Frame) Index(name string) int {
	if f.index == nil {
		f.reindex()
	}
	if i, ok := f.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether column name is present.
func (f *Frame) Has(name string) bool { return f.Index(name) >= 0 }

// Require fails with a *SchemaError naming every absent column.
func (f *Frame) Require(source string, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !f.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Source: source, Missing: missing}
	}
	return nil
}

// Cell returns row[col], or "" when the column is absent or the row is short.
func (f *Frame) Cell(row []string, col string) string {
	i := f.Index(col)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Len returns the number of data rows.
func (f *Frame) Len() int { return len(f.Rows) }
