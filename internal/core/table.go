package core

import (
	"fmt"
	"strings"
)

// Table is a named, ordered set of columns and rows.
// Every row has exactly len(Columns) cells.
type Table struct {
	Name    string
	Columns []Column
	Rows    []Row

	index map[string]int
}

// NewTable builds a table from header names and rows.
// Duplicate header names are made unique by appending ".1", ".2", ...
// Returns an error if any row length differs from the header length.
func NewTable(name string, header []string, rows []Row) (*Table, error) {
	t := &Table{
		Name:    name,
		Columns: make([]Column, len(header)),
		Rows:    rows,
		index:   make(map[string]int, len(header)),
	}

	// next suffix to try per duplicated header name
	suffix := make(map[string]int)
	for i, h := range header {
		colName := h
		if _, taken := t.index[colName]; taken {
			n := suffix[h]
			if n == 0 {
				n = 1
			}
			for {
				colName = fmt.Sprintf("%s.%d", h, n)
				n++
				if _, taken := t.index[colName]; !taken {
					break
				}
			}
			suffix[h] = n
		}
		t.Columns[i] = Column{Name: colName, Index: i}
		t.index[colName] = i
	}

	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), len(header))
		}
	}

	return t, nil
}

// EmptyTable returns a table with no columns and no rows.
func EmptyTable(name string) *Table {
	return &Table{Name: name, index: map[string]int{}}
}

// Empty reports whether the table has nothing to show.
func (t *Table) Empty() bool {
	return t == nil || len(t.Columns) == 0 || len(t.Rows) == 0
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[name]
	return i, ok
}

// RequireColumn is ColumnIndex with a typed error for diagnostics.
func (t *Table) RequireColumn(name string) (int, error) {
	i, ok := t.ColumnIndex(name)
	if !ok {
		tableName := ""
		if t != nil {
			tableName = t.Name
		}
		return 0, &MissingColumnError{Table: tableName, Column: name}
	}
	return i, nil
}

// ColumnNames returns the header names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// rowText joins a row into one searchable line.
func rowText(r Row) string {
	var b strings.Builder
	for i, c := range r {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(c))
	}
	return b.String()
}
