package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetboard/internal/config"
	"github.com/JonMunkholm/sheetboard/internal/core"
	"github.com/JonMunkholm/sheetboard/internal/logging"
	"github.com/JonMunkholm/sheetboard/internal/web/views"
)

const pageTitle = "Panel de datos"

// handleDashboard renders the selected tab, its filter and, for the
// designated dataset, the summary panel.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()

	selected := parseIntParam(r, "tab", 0)
	if selected < 0 || selected >= len(snap.Names) {
		selected = 0
	}
	query := r.URL.Query().Get("q")

	table, _ := snap.TableAt(selected)
	result := core.Filter(table, query, s.cfg.Display.MaxRows)

	d := views.Dashboard{
		Title:      pageTitle,
		Generation: snap.Generation,
		LoadedAt:   snap.LoadedAt,
		Tabs:       buildTabs(snap),
		Selected:   selected,
		Warnings:   buildWarnings(snap.Errors),
		Result:     result,
		MaxRows:    s.cfg.Display.MaxRows,
	}

	if table != nil && core.IsDesignated(table.Name, s.cfg.Summary.Dataset) {
		summary := core.Summarize(table, summarySpec(s.cfg.Summary))
		d.Summary = &summary
	}

	logging.WithFields(r.Context(), "tab", selected, "generation", snap.Generation).
		Debug("dashboard rendered", "visible", result.Visible, "warnings", len(d.Warnings))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Page(d).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render dashboard", "error", err)
	}
}

// handleReload reloads every dataset, then sends the browser back to the
// tab it came from. API clients get the new snapshot description instead.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.store.Reload(r.Context())

	snap := s.store.Current()
	logging.FromContext(r.Context()).Info("reload requested",
		"generation", snap.Generation,
		"failed", len(snap.Errors),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if wantsJSON(r) {
		writeJSON(w, r, describeSnapshot(snap))
		return
	}

	target := views.TabURL(parseIntParam(r, "tab", 0), r.URL.Query().Get("q"))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// SnapshotResponse describes the published snapshot.
type SnapshotResponse struct {
	Generation string           `json:"generation"`
	LoadedAt   *time.Time       `json:"loadedAt,omitempty"`
	Datasets   []DatasetInfo    `json:"datasets"`
	Errors     []core.LoadError `json:"errors"`
}

// DatasetInfo is one dataset of a SnapshotResponse.
type DatasetInfo struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Columns int    `json:"columns"`
	Rows    int    `json:"rows"`
	Failed  bool   `json:"failed"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, describeSnapshot(s.store.Current()))
}

// TableResponse is a filtered table with visible rows only.
type TableResponse struct {
	Dataset   string     `json:"dataset"`
	Query     string     `json:"query"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Totals    []*float64 `json:"totals"`
	Visible   int        `json:"visible"`
	Scanned   int        `json:"scanned"`
	Truncated bool       `json:"truncated"`
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, r, core.ErrTableNotFound, http.StatusNotFound)
		return
	}

	snap := s.store.Current()
	table, ok := snap.TableAt(index)
	if !ok {
		respondError(w, r, core.ErrTableNotFound, http.StatusNotFound)
		return
	}

	res := core.Filter(table, r.URL.Query().Get("q"), s.cfg.Display.MaxRows)

	resp := TableResponse{
		Dataset:   table.Name,
		Query:     res.Query,
		Columns:   table.ColumnNames(),
		Rows:      make([][]string, 0, res.Visible),
		Totals:    res.Totals,
		Visible:   res.Visible,
		Scanned:   len(res.Rows),
		Truncated: res.Truncated,
	}
	for _, fr := range res.Rows {
		if !fr.Visible {
			continue
		}
		cells := make([]string, len(fr.Row))
		for i, c := range fr.Row {
			cells[i] = c.Text()
		}
		resp.Rows = append(resp.Rows, cells)
	}

	writeJSON(w, r, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()

	for _, name := range snap.Names {
		if !core.IsDesignated(name, s.cfg.Summary.Dataset) {
			continue
		}
		table, _ := snap.Table(name)
		writeJSON(w, r, core.Summarize(table, summarySpec(s.cfg.Summary)))
		return
	}

	respondError(w, r, core.ErrTableNotFound, http.StatusNotFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	writeJSON(w, r, map[string]any{
		"status":     "ok",
		"generation": snap.Generation,
		"failed":     len(snap.Errors),
	})
}

func describeSnapshot(snap *core.Snapshot) SnapshotResponse {
	failed := failedSet(snap.Errors)

	resp := SnapshotResponse{
		Generation: snap.Generation,
		Datasets:   make([]DatasetInfo, 0, len(snap.Names)),
		Errors:     snap.Errors,
	}
	if resp.Errors == nil {
		resp.Errors = []core.LoadError{}
	}
	if !snap.LoadedAt.IsZero() {
		t := snap.LoadedAt
		resp.LoadedAt = &t
	}

	for i, name := range snap.Names {
		info := DatasetInfo{Index: i, Name: name, Failed: failed[name]}
		if t, ok := snap.Table(name); ok {
			info.Columns = len(t.Columns)
			info.Rows = len(t.Rows)
		}
		resp.Datasets = append(resp.Datasets, info)
	}
	return resp
}

func buildTabs(snap *core.Snapshot) []views.Tab {
	failed := failedSet(snap.Errors)
	tabs := make([]views.Tab, 0, len(snap.Names))
	for i, name := range snap.Names {
		tab := views.Tab{Index: i, Name: name, Failed: failed[name]}
		if t, ok := snap.Table(name); ok {
			tab.Rows = len(t.Rows)
		}
		tabs = append(tabs, tab)
	}
	return tabs
}

// buildWarnings maps each load error to its user message; the raw message
// stays available through the JSON API and the logs.
func buildWarnings(errs []core.LoadError) []views.Warning {
	warnings := make([]views.Warning, 0, len(errs))
	for _, le := range errs {
		msg := core.MapMessage(le.Message)
		warnings = append(warnings, views.Warning{
			Dataset: le.Dataset,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
	}
	return warnings
}

func failedSet(errs []core.LoadError) map[string]bool {
	failed := make(map[string]bool, len(errs))
	for _, le := range errs {
		failed[le.Dataset] = true
	}
	return failed
}

func summarySpec(c config.SummaryConfig) core.SummarySpec {
	return core.SummarySpec{
		CategoryColumns: c.CategoryColumns,
		SumColumn:       c.SumColumn,
		DistinctColumn:  c.DistinctColumn,
		BinaryColumn:    c.BinaryColumn,
		Affirmative:     c.Affirmative,
		Negative:        c.Negative,
	}
}

// parseIntParam reads an integer query parameter, falling back to defaultVal.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
