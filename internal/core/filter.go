package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter computes the visible rows of a capped table and their totals.
//
// At most maxRows rows are taken in source order before matching
// (DefaultMaxRows when maxRows <= 0). A row is visible when its cells,
// joined and normalized, contain the normalized query; an empty query matches
// every row. Normalizing folds case and collapses whitespace.
//
// Each column total is the sum of the numeric cells of visible rows. A total
// that sums to exactly zero is reported as nil, the same as a column with no
// numeric cells at all. So is a total that overflows float64.
func Filter(t *Table, query string, maxRows int) FilterResult {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	res := FilterResult{Table: t, Query: query}
	if t == nil {
		return res
	}

	rows := t.Rows
	if len(rows) > maxRows {
		rows = rows[:maxRows]
		res.Truncated = true
	}

	folder := cases.Fold()
	needle := normalizeText(folder, query)

	sums := make([]float64, len(t.Columns))
	res.Rows = make([]FilteredRow, len(rows))
	for i, row := range rows {
		visible := needle == "" || strings.Contains(normalizeText(folder, rowText(row)), needle)
		res.Rows[i] = FilteredRow{Row: row, Visible: visible}
		if !visible {
			continue
		}
		res.Visible++
		for col, cell := range row {
			if v, ok := cell.Number(); ok {
				sums[col] += v
			}
		}
	}

	res.Totals = make([]*float64, len(t.Columns))
	for col, sum := range sums {
		if sum == 0 || !finite(sum) {
			continue
		}
		v := sum
		res.Totals[col] = &v
	}

	return res
}

// normalizeText folds case and collapses every whitespace run to one space.
func normalizeText(folder cases.Caser, s string) string {
	return strings.Join(strings.Fields(folder.String(s)), " ")
}
