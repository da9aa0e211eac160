package core

import "time"

// DefaultMaxRows is the display cap applied when no positive cap is given.
const DefaultMaxRows = 500

// Cell is a single raw value as it appeared in the source.
// Whether it is numeric is derived on demand via Number.
type Cell string

// Text returns the raw cell text.
func (c Cell) Text() string { return string(c) }

// Number returns the numeric interpretation of the cell, if any.
func (c Cell) Number() (float64, bool) { return ParseNumber(string(c)) }

// Column is a named position in a table.
type Column struct {
	Name  string // Header name, unique within the table
	Index int    // Zero-based position; defines rendering order
}

// Row holds one cell per column, in column order.
type Row []Cell

// LoadError records a dataset that could not be loaded.
type LoadError struct {
	Dataset string `json:"dataset"`
	Message string `json:"message"`
}

// Snapshot pairs every loaded table with the errors of the same reload.
// A published Snapshot is never modified.
type Snapshot struct {
	Generation string            // Unique per reload
	LoadedAt   time.Time         // When the reload finished (zero for the initial placeholder)
	Names      []string          // Dataset names in configured order
	Tables     map[string]*Table // One entry per name, empty table on failure
	Errors     []LoadError       // In configured order
}

// Table returns the table for name and whether the snapshot knows it.
func (s *Snapshot) Table(name string) (*Table, bool) {
	t, ok := s.Tables[name]
	return t, ok
}

// TableAt returns the table at the given tab position.
func (s *Snapshot) TableAt(index int) (*Table, bool) {
	if index < 0 || index >= len(s.Names) {
		return nil, false
	}
	return s.Table(s.Names[index])
}

// FilteredRow is a row plus whether it matches the current query.
type FilteredRow struct {
	Row     Row
	Visible bool
}

// FilterResult is the filtered view of a capped table.
type FilterResult struct {
	Table     *Table
	Query     string
	Rows      []FilteredRow
	Totals    []*float64 // One per column; nil means no total to show
	Visible   int        // Number of visible rows
	Truncated bool       // The table had more rows than the display cap
}

// ValueCount is one entry of a frequency breakdown.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoryFrequency is the value breakdown of one categorical column.
type CategoryFrequency struct {
	Column  string         `json:"column"`
	Present bool           `json:"present"` // false when the column is not in the table
	Counts  map[string]int `json:"counts"`
	order   []string       // first-seen order of Counts keys
}

// BinarySplit holds the two chart buckets.
type BinarySplit struct {
	Affirmative int `json:"affirmative"`
	Negative    int `json:"negative"`
}

// SummaryResult is the statistics panel for the designated dataset.
type SummaryResult struct {
	Dataset        string              `json:"dataset"`
	RowCount       int                 `json:"rowCount"`
	Categories     []CategoryFrequency `json:"categories"`
	SumColumn      string              `json:"sumColumn,omitempty"`
	Sum            float64             `json:"sum"`
	DistinctColumn string              `json:"distinctColumn,omitempty"`
	Distinct       []string            `json:"distinct"`
	BinaryColumn   string              `json:"binaryColumn,omitempty"`
	Affirmative    string              `json:"affirmative,omitempty"` // Marker of the first bucket
	Negative       string              `json:"negative,omitempty"`    // Marker of the second bucket
	Binary         BinarySplit         `json:"binary"`
}
