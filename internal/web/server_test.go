package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/JonMunkholm/sheetboard/internal/config"
	"github.com/JonMunkholm/sheetboard/internal/core"
)

// stubStore serves a fixed snapshot and counts reloads.
type stubStore struct {
	snap    atomic.Pointer[core.Snapshot]
	reloads atomic.Int32
	next    *core.Snapshot
}

func (s *stubStore) Current() *core.Snapshot { return s.snap.Load() }

func (s *stubStore) Reload(ctx context.Context) {
	s.reloads.Add(1)
	if s.next != nil {
		s.snap.Store(s.next)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{RequestTimeout: 5 * time.Second},
		Source:  config.SourceConfig{DatasetNames: []string{"DOCENCIA", "PTC", "VACIA"}},
		Display: config.DisplayConfig{MaxRows: 500},
		Summary: config.SummaryConfig{
			Dataset:         "PTC",
			CategoryColumns: []string{"CATEGORIA", "SNI"},
			DistinctColumn:  "INSTITUCION",
			BinaryColumn:    "SNI",
			Affirmative:     "SI",
			Negative:        "NO",
		},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func table(t *testing.T, name string, header []string, rows ...[]string) *core.Table {
	t.Helper()
	rs := make([]core.Row, len(rows))
	for i, r := range rows {
		row := make(core.Row, len(r))
		for j, v := range r {
			row[j] = core.Cell(v)
		}
		rs[i] = row
	}
	tbl, err := core.NewTable(name, header, rs)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func testSnapshot(t *testing.T) *core.Snapshot {
	return &core.Snapshot{
		Generation: "gen-1",
		LoadedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Names:      []string{"DOCENCIA", "PTC", "VACIA"},
		Tables: map[string]*core.Table{
			"DOCENCIA": table(t, "DOCENCIA", []string{"MATERIA", "HORAS"},
				[]string{"Álgebra", "4"},
				[]string{"<script>alert(1)</script>", "1,200"},
				[]string{"Física", "x"},
			),
			"PTC": table(t, "PTC", []string{"NOMBRE", "CATEGORIA", "SNI", "INSTITUCION"},
				[]string{"Ana", "A", "SI", "UABC"},
				[]string{"Luis", "B", "NO", "UNAM"},
				[]string{"Eva", "A", "SI", "UABC"},
			),
			"VACIA": core.EmptyTable("VACIA"),
		},
		Errors: []core.LoadError{{Dataset: "VACIA", Message: `fetch "VACIA": timeout`}},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *stubStore) {
	t.Helper()
	store := &stubStore{}
	store.snap.Store(testSnapshot(t))
	return NewServer(store, cfg), store
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestDashboard_DefaultTab(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := get(t, s, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()

	// Tabs in configured order.
	nav := body[strings.Index(body, `<nav class="tabs">`):]
	iDoc, iPTC, iVacia := strings.Index(nav, ">DOCENCIA"), strings.Index(nav, ">PTC"), strings.Index(nav, ">VACIA")
	if iDoc < 0 || iPTC < 0 || iVacia < 0 || !(iDoc < iPTC && iPTC < iVacia) {
		t.Errorf("tabs missing or out of order: %d %d %d", iDoc, iPTC, iVacia)
	}

	for _, want := range []string{"Álgebra", "Física", "1204", "SRC001", "The data source did not answer in time"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("cell content was not escaped")
	}
	if strings.Contains(body, "Resumen de variables") {
		t.Error("summary panel shown for a non-designated dataset")
	}
}

func TestDashboard_FilterAndSummary(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := get(t, s, "/?tab=1&q=uabc")

	body := rec.Body.String()
	if !strings.Contains(body, "Ana") || !strings.Contains(body, "Eva") {
		t.Error("matching rows missing")
	}
	if strings.Contains(body, "<td>Luis</td>") {
		t.Error("non-matching row rendered")
	}
	for _, want := range []string{"Resumen de variables", "Total de registros: <strong>3</strong>", "SI: 2 · NO: 1", "INSTITUCION:", "UNAM"} {
		if !strings.Contains(body, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestDashboard_SummaryUsesConfiguredLabels(t *testing.T) {
	cfg := testConfig()
	cfg.Summary.DistinctColumn = "NOMBRE"
	cfg.Summary.Affirmative = "si"
	cfg.Summary.Negative = "no"
	s, _ := newTestServer(t, cfg)

	body := get(t, s, "/?tab=1").Body.String()
	for _, want := range []string{"<strong>NOMBRE:</strong>", "si: 2 · no: 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("summary missing %q", want)
		}
	}
	for _, stale := range []string{"Instituciones participantes", "Sí:"} {
		if strings.Contains(body, stale) {
			t.Errorf("summary still renders fixed label %q", stale)
		}
	}
}

func TestDashboard_OutOfRangeTabFallsBack(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := get(t, s, "/?tab=42")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Álgebra") {
		t.Error("expected first tab content")
	}
}

func TestDashboard_EmptyTab(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := get(t, s, "/?tab=2")

	if !strings.Contains(rec.Body.String(), "No hay datos") {
		t.Error("empty table should render the empty notice")
	}
}

func TestReload_RedirectsToTab(t *testing.T) {
	s, store := newTestServer(t, testConfig())
	rec := get(t, s, "/reload?tab=2")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/?tab=2" {
		t.Errorf("Location = %q, want /?tab=2", loc)
	}
	if n := store.reloads.Load(); n != 1 {
		t.Errorf("reloads = %d, want 1", n)
	}
}

func TestReload_KeepsQuery(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := get(t, s, "/reload?tab=1&q=uabc+sni")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/?q=uabc+sni&tab=1" {
		t.Errorf("Location = %q, want /?q=uabc+sni&tab=1", loc)
	}

	body := get(t, s, "/?tab=1&q=uabc").Body.String()
	if !strings.Contains(body, `href="/reload?q=uabc&amp;tab=1"`) {
		t.Error("reload link should carry the active query")
	}
}

func TestReload_JSON(t *testing.T) {
	s, store := newTestServer(t, testConfig())
	next := testSnapshot(t)
	next.Generation = "gen-2"
	next.Errors = nil
	store.next = next

	req := httptest.NewRequest(http.MethodPost, "/reload", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var resp SnapshotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Generation != "gen-2" || len(resp.Errors) != 0 {
		t.Errorf("response = %+v, want gen-2 with no errors", resp)
	}
}

func TestAPISnapshot(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := get(t, s, "/api/snapshot")

	var resp SnapshotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Generation != "gen-1" || len(resp.Datasets) != 3 {
		t.Fatalf("response = %+v", resp)
	}
	if d := resp.Datasets[0]; d.Name != "DOCENCIA" || d.Rows != 3 || d.Columns != 2 || d.Failed {
		t.Errorf("DOCENCIA = %+v", d)
	}
	if d := resp.Datasets[2]; !d.Failed {
		t.Errorf("VACIA should be marked failed: %+v", d)
	}
	if len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0].Message, "timeout") {
		t.Errorf("errors = %+v", resp.Errors)
	}
}

func TestAPITable(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	tests := []struct {
		name        string
		target      string
		wantVisible int
		wantTotal   *float64
	}{
		{"all rows", "/api/tables/0", 3, ptr(1204)},
		{"filtered", "/api/tables/0?q=%C3%A1lgebra", 1, ptr(4)},
		{"no match", "/api/tables/0?q=zzz", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}

			var resp TableResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Visible != tt.wantVisible || len(resp.Rows) != tt.wantVisible {
				t.Errorf("visible = %d, rows = %d; want %d", resp.Visible, len(resp.Rows), tt.wantVisible)
			}
			got := resp.Totals[1]
			switch {
			case tt.wantTotal == nil && got != nil:
				t.Errorf("HORAS total = %v, want absent", *got)
			case tt.wantTotal != nil && (got == nil || *got != *tt.wantTotal):
				t.Errorf("HORAS total = %v, want %v", got, *tt.wantTotal)
			}
			if resp.Totals[0] != nil {
				t.Error("text column total should be absent")
			}
		})
	}
}

func TestOverflowingTotals(t *testing.T) {
	cfg := testConfig()
	cfg.Source.DatasetNames = []string{"PTC"}
	cfg.Summary.CategoryColumns = nil
	cfg.Summary.SumColumn = "HORAS"

	store := &stubStore{}
	store.snap.Store(&core.Snapshot{
		Generation: "gen-big",
		Names:      []string{"PTC"},
		Tables: map[string]*core.Table{
			"PTC": table(t, "PTC", []string{"HORAS"}, []string{"1e308"}, []string{"1e308"}),
		},
	})
	s := NewServer(store, cfg)

	rec := get(t, s, "/api/tables/0")
	if rec.Code != http.StatusOK {
		t.Fatalf("table status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp TableResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Totals[0] != nil {
		t.Errorf("overflowing total = %v, want absent", *resp.Totals[0])
	}

	rec = get(t, s, "/api/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var sum core.SummaryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body := get(t, s, "/?tab=0").Body.String(); strings.Contains(body, "Inf") {
		t.Error("page should not render an infinite total")
	}
}

func TestAPITable_NotFound(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	for _, target := range []string{"/api/tables/9", "/api/tables/-1", "/api/tables/abc"} {
		rec := get(t, s, target)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, rec.Code)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: invalid JSON: %v", target, err)
		}
		if resp.Code != "TBL001" {
			t.Errorf("%s: code = %q, want TBL001", target, resp.Code)
		}
	}
}

func TestAPISummary(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := get(t, s, "/api/summary")

	var resp core.SummaryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Dataset != "PTC" || resp.RowCount != 3 {
		t.Errorf("summary = %+v", resp)
	}
	if resp.Binary != (core.BinarySplit{Affirmative: 2, Negative: 1}) {
		t.Errorf("binary = %+v", resp.Binary)
	}

	cfg := testConfig()
	cfg.Summary.Dataset = "OTRO"
	s, _ = newTestServer(t, cfg)
	if rec := get(t, s, "/api/summary"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without a designated dataset", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	if rec := get(t, s, "/healthz"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}

	get(t, s, "/api/snapshot")
	rec := get(t, s, "/metrics")
	if !strings.Contains(rec.Body.String(), "sheetboard_http_requests_total") {
		t.Error("metrics output missing request counter")
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := get(t, s, "/healthz")

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing CSP")
	}

	cfg := testConfig()
	cfg.Security.EnableCSP = false
	s, _ = newTestServer(t, cfg)
	if get(t, s, "/healthz").Header().Get("Content-Security-Policy") != "" {
		t.Error("CSP should be off when disabled")
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ReloadLimit: 2}
	s, store := newTestServer(t, cfg)

	var last *httptest.ResponseRecorder
	for range 3 {
		last = get(t, s, "/reload")
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if !strings.Contains(last.Body.String(), "RATE001") {
		t.Error("rate limit response should carry RATE001")
	}
	if n := store.reloads.Load(); n != 2 {
		t.Errorf("reloads = %d, want 2", n)
	}

	// Other routes keep their own budget.
	if rec := get(t, s, "/"); rec.Code != http.StatusOK {
		t.Errorf("dashboard status = %d, want 200", rec.Code)
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	now := time.Unix(0, 0)
	rl := &rateLimiter{visitors: map[string]*visitor{}, rate: 1, window: time.Minute, now: func() time.Time { return now }}

	if !rl.allow("1.2.3.4") {
		t.Fatal("first request should pass")
	}
	if rl.allow("1.2.3.4") {
		t.Fatal("second request in the window should fail")
	}
	if !rl.allow("5.6.7.8") {
		t.Fatal("other clients have their own budget")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("1.2.3.4") {
		t.Error("budget should reset after the window")
	}
}

func TestEndToEnd_PartialFailure(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sheet") == "B" {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		io.WriteString(w, "h\n1\n")
	}))
	defer src.Close()

	cfg := testConfig()
	cfg.Source.DatasetNames = []string{"A", "B"}

	source := core.NewHTTPSource(core.HTTPSourceConfig{Root: src.URL, SheetID: "s", Timeout: 100 * time.Millisecond})
	store := core.NewStore(core.NewLoader(source, 2), cfg.Source.DatasetNames)
	store.Reload(context.Background())

	snap := store.Current()
	if a, _ := snap.Table("A"); len(a.Rows) != 1 {
		t.Errorf("A rows = %d, want 1", len(a.Rows))
	}
	if b, _ := snap.Table("B"); !b.Empty() {
		t.Error("B should be empty")
	}
	if len(snap.Errors) != 1 || snap.Errors[0].Dataset != "B" || !strings.Contains(snap.Errors[0].Message, "timeout") {
		t.Fatalf("errors = %+v", snap.Errors)
	}

	rec := get(t, NewServer(store, cfg), "/?tab=0")
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "<td>1</td>") {
		t.Errorf("tab A did not render: %d", rec.Code)
	}
	if !strings.Contains(body, "SRC001") {
		t.Error("warning for B missing")
	}
}

func ptr(f float64) *float64 { return &f }
