// Package views renders dashboard pages from plain core values.
//
// Components are written in the .templ files next to this one and compiled
// with `templ generate`. The helpers here keep formatting out of the markup.
package views

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/JonMunkholm/sheetboard/internal/core"
)

// Tab is one entry of the tab bar.
type Tab struct {
	Index  int
	Name   string
	Rows   int
	Failed bool
}

// Warning is a load error prepared for display.
type Warning struct {
	Dataset string
	Message string
	Action  string
	Code    string
}

// Dashboard is everything the page shows for one render.
type Dashboard struct {
	Title      string
	Generation string
	LoadedAt   time.Time
	Tabs       []Tab
	Selected   int
	Warnings   []Warning
	Result     core.FilterResult
	MaxRows    int
	Summary    *core.SummaryResult // nil unless the selected tab is the designated dataset
}

// TabURL links to a tab, keeping the query when there is one.
func TabURL(index int, query string) string {
	return "/?" + tabValues(index, query).Encode()
}

func reloadURL(selected int, query string) string {
	return "/reload?" + tabValues(selected, query).Encode()
}

func tabValues(index int, query string) url.Values {
	v := url.Values{}
	v.Set("tab", strconv.Itoa(index))
	if query != "" {
		v.Set("q", query)
	}
	return v
}

func warningText(w Warning) string {
	if w.Action == "" {
		return w.Message
	}
	return w.Message + ". " + w.Action
}

func loadedAt(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func searchPlaceholder(t *core.Table) string {
	name := ""
	if t != nil {
		name = t.Name
	}
	return "Buscar en " + name + "..."
}

// totalText is empty for columns without a total.
func totalText(total *float64) string {
	if total == nil {
		return ""
	}
	return core.FormatNumber(*total)
}

func truncationNote(truncated bool, maxRows int) string {
	if !truncated {
		return ""
	}
	return fmt.Sprintf(" · se muestran las primeras %d filas", maxRows)
}

func valueLabel(v string) string {
	if v == "" {
		return "(vacío)"
	}
	return v
}

// affirmativePercent is the share of the first bucket, 0 for an empty split.
func affirmativePercent(split core.BinarySplit) int {
	total := split.Total()
	if total == 0 {
		return 0
	}
	return split.Affirmative * 100 / total
}
