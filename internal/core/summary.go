package core

import (
	"math"
	"sort"
	"strings"
)

// SummarySpec names the columns the summary panel is built from.
type SummarySpec struct {
	CategoryColumns []string // Frequency breakdowns, in display order
	SumColumn       string   // Numeric column to total
	DistinctColumn  string   // Column listing participating values
	BinaryColumn    string   // Column split into the two chart buckets
	Affirmative     string   // Marker counted in the first bucket
	Negative        string   // Marker counted in the second bucket
}

// IsDesignated reports whether name is the designated summary dataset.
func IsDesignated(name, designated string) bool {
	return designated != "" && strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(designated))
}

// Summarize computes the statistics panel for a table. Columns the table does
// not have contribute nothing: empty breakdowns, a zero sum, no distinct
// values, an empty split.
//
// A binary cell counts toward a bucket when it equals the marker after
// trimming, ignoring case, so " si " falls in the "SI" bucket. A sum that
// overflows float64 is clamped to the largest finite value of its sign.
func Summarize(t *Table, spec SummarySpec) SummaryResult {
	res := SummaryResult{
		SumColumn:      spec.SumColumn,
		DistinctColumn: spec.DistinctColumn,
		BinaryColumn:   spec.BinaryColumn,
		Affirmative:    spec.Affirmative,
		Negative:       spec.Negative,
		Distinct:       []string{},
	}
	if t == nil {
		t = EmptyTable("")
	}
	res.Dataset = t.Name
	res.RowCount = len(t.Rows)

	res.Categories = make([]CategoryFrequency, 0, len(spec.CategoryColumns))
	for _, col := range spec.CategoryColumns {
		res.Categories = append(res.Categories, frequencies(t, col))
	}

	if col, ok := t.ColumnIndex(spec.SumColumn); ok {
		for _, row := range t.Rows {
			if v, ok := row[col].Number(); ok {
				res.Sum += v
			}
		}
		if !finite(res.Sum) {
			res.Sum = math.Copysign(math.MaxFloat64, res.Sum)
		}
	}

	if col, ok := t.ColumnIndex(spec.DistinctColumn); ok {
		seen := make(map[string]bool)
		for _, row := range t.Rows {
			v := row[col].Text()
			if strings.TrimSpace(v) == "" || seen[v] {
				continue
			}
			seen[v] = true
			res.Distinct = append(res.Distinct, v)
		}
	}

	if col, ok := t.ColumnIndex(spec.BinaryColumn); ok {
		res.Binary = binarySplit(t, col, spec.Affirmative, spec.Negative)
	}

	return res
}

// frequencies counts every value of a column, empty cells included.
func frequencies(t *Table, column string) CategoryFrequency {
	cf := CategoryFrequency{Column: column, Counts: map[string]int{}}

	col, ok := t.ColumnIndex(column)
	if !ok {
		return cf
	}
	cf.Present = true

	for _, row := range t.Rows {
		v := row[col].Text()
		if _, seen := cf.Counts[v]; !seen {
			cf.order = append(cf.order, v)
		}
		cf.Counts[v]++
	}
	return cf
}

// binarySplit counts cells equal to either marker, ignoring case and
// surrounding whitespace. Other values fall in neither bucket.
func binarySplit(t *Table, col int, affirmative, negative string) BinarySplit {
	var split BinarySplit
	affirmative = strings.TrimSpace(affirmative)
	negative = strings.TrimSpace(negative)

	for _, row := range t.Rows {
		v := strings.TrimSpace(row[col].Text())
		switch {
		case affirmative != "" && strings.EqualFold(v, affirmative):
			split.Affirmative++
		case negative != "" && strings.EqualFold(v, negative):
			split.Negative++
		}
	}
	return split
}

// Sorted returns the breakdown by descending count; ties keep first-seen order.
func (cf CategoryFrequency) Sorted() []ValueCount {
	order := cf.order
	if len(order) != len(cf.Counts) {
		// Built outside frequencies (e.g. decoded); fall back to key order.
		order = make([]string, 0, len(cf.Counts))
		for v := range cf.Counts {
			order = append(order, v)
		}
		sort.Strings(order)
	}

	out := make([]ValueCount, len(order))
	for i, v := range order {
		out[i] = ValueCount{Value: v, Count: cf.Counts[v]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Total is the sum of both buckets.
func (b BinarySplit) Total() int {
	return b.Affirmative + b.Negative
}
