package core

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeSource serves bodies from memory and records concurrency.
type fakeSource struct {
	mu          sync.Mutex
	bodies      map[string]string
	errs        map[string]error
	delays      map[string]time.Duration
	calls       map[string]int
	inflight    int
	maxInflight int
}

func newFakeSource(bodies map[string]string) *fakeSource {
	return &fakeSource{
		bodies: bodies,
		errs:   map[string]error{},
		delays: map[string]time.Duration{},
		calls:  map[string]int{},
	}
}

func (f *fakeSource) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.calls[name]++
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	delay := f.delays[name]
	err := f.errs[name]
	body, ok := f.bodies[name]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, newFetchError(name, "", ctx.Err())
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &FetchError{Dataset: name, StatusCode: http.StatusNotFound}
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeSource) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func TestEncodeDatasetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"PTC", "PTC"},
		{"UNIDAD DE EDUCACION INCLUYENTE", "UNIDAD+DE+EDUCACION+INCLUYENTE"},
		{"A&B C", "A&B+C"},
		{"  ", "++"},
	}
	for _, tt := range tests {
		if got := EncodeDatasetName(tt.in); got != tt.want {
			t.Errorf("EncodeDatasetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTTPSource_URL(t *testing.T) {
	src := NewHTTPSource(HTTPSourceConfig{Root: "https://example.com/d/", SheetID: "abc"})
	want := "https://example.com/d/abc/export?format=csv&sheet=UNIDAD+DE+EDUCACION"
	if got := src.URL("UNIDAD DE EDUCACION"); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestHTTPSource_Fetch(t *testing.T) {
	var gotPath, gotSheet, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSheet = r.URL.Query().Get("sheet")
		gotFormat = r.URL.Query().Get("format")
		io.WriteString(w, "A,B\n1,2\n")
	}))
	defer srv.Close()

	loader := NewLoader(NewHTTPSource(HTTPSourceConfig{Root: srv.URL, SheetID: "sheet1"}), 0)
	table, err := loader.Load(context.Background(), "UNIDAD DE EDUCACION")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if gotPath != "/sheet1/export" || gotFormat != "csv" || gotSheet != "UNIDAD DE EDUCACION" {
		t.Errorf("request = %s format=%s sheet=%s", gotPath, gotFormat, gotSheet)
	}
	if table.Name != "UNIDAD DE EDUCACION" || len(table.Rows) != 1 {
		t.Errorf("table = %s with %d rows", table.Name, len(table.Rows))
	}
}

func TestHTTPSource_Status(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode string
	}{
		{"not found", http.StatusNotFound, "SRC002"},
		{"unauthorized", http.StatusUnauthorized, "SRC003"},
		{"forbidden", http.StatusForbidden, "SRC003"},
		{"server error", http.StatusInternalServerError, "SRC004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			src := NewHTTPSource(HTTPSourceConfig{Root: srv.URL, SheetID: "s"})
			_, err := src.Fetch(context.Background(), "X")

			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %v, want *FetchError", err)
			}
			if fe.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", fe.StatusCode, tt.status)
			}
			if got := MapError(err).Code; got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}

func TestHTTPSource_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPSourceConfig{Root: srv.URL, SheetID: "s", Timeout: 50 * time.Millisecond})
	_, err := src.Fetch(context.Background(), "B")

	var fe *FetchError
	if !errors.As(err, &fe) || !fe.Timeout {
		t.Fatalf("error = %v, want timeout FetchError", err)
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error %q should mention timeout", err)
	}
}

func TestHTTPSource_TLSVerification(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "A\n1\n")
	}))
	defer srv.Close()

	strict := NewHTTPSource(HTTPSourceConfig{Root: srv.URL, SheetID: "s"})
	if _, err := strict.Fetch(context.Background(), "X"); err == nil {
		t.Fatal("self-signed certificate should be rejected by default")
	} else if code := MapError(err).Code; code != "SRC006" {
		t.Errorf("code = %s, want SRC006 (%v)", code, err)
	}

	insecure := NewHTTPSource(HTTPSourceConfig{Root: srv.URL, SheetID: "s", AllowInsecure: true})
	body, err := insecure.Fetch(context.Background(), "X")
	if err != nil {
		t.Fatalf("insecure Fetch() error = %v", err)
	}
	body.Close()
}

func TestLoader_LoadParseError(t *testing.T) {
	src := newFakeSource(map[string]string{"X": "A,B\n1\n"})
	_, err := NewLoader(src, 1).Load(context.Background(), "X")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
}

func TestLoadAll_PartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sheet") == "B" {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		io.WriteString(w, "h\n1\n")
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPSourceConfig{Root: srv.URL, SheetID: "s", Timeout: 100 * time.Millisecond})
	tables, errs := NewLoader(src, 2).LoadAll(context.Background(), []string{"A", "B"})

	if len(tables) != 2 {
		t.Fatalf("len(tables) = %d, want 2", len(tables))
	}
	if got := len(tables["A"].Rows); got != 1 {
		t.Errorf("A rows = %d, want 1", got)
	}
	if !tables["B"].Empty() || tables["B"].Name != "B" {
		t.Errorf("B = %+v, want empty table named B", tables["B"])
	}
	if len(errs) != 1 || errs[0].Dataset != "B" || !strings.Contains(errs[0].Message, "timeout") {
		t.Errorf("errors = %+v, want one timeout for B", errs)
	}
}

func TestLoadAll_UniversalFailure(t *testing.T) {
	src := newFakeSource(nil)
	names := []string{"A", "B", "C"}

	tables, errs := NewLoader(src, 2).LoadAll(context.Background(), names)

	if len(tables) != len(names) {
		t.Errorf("len(tables) = %d, want %d", len(tables), len(names))
	}
	for _, name := range names {
		if tbl, ok := tables[name]; !ok || !tbl.Empty() {
			t.Errorf("tables[%q] = %v, want empty table", name, tbl)
		}
	}
	if len(errs) != len(names) {
		t.Errorf("len(errs) = %d, want %d", len(errs), len(names))
	}
}

func TestLoadAll_ErrorsInConfiguredOrder(t *testing.T) {
	src := newFakeSource(map[string]string{"OK": "A\n1\n"})
	// Later names fail sooner, so completion order is the reverse of names.
	src.errs["C1"] = errors.New("boom 1")
	src.errs["C2"] = errors.New("boom 2")
	src.errs["C3"] = errors.New("boom 3")
	src.delays["C1"] = 60 * time.Millisecond
	src.delays["C2"] = 30 * time.Millisecond

	_, errs := NewLoader(src, 4).LoadAll(context.Background(), []string{"C1", "OK", "C2", "C3"})

	var got []string
	for _, e := range errs {
		got = append(got, e.Dataset)
	}
	if strings.Join(got, ",") != "C1,C2,C3" {
		t.Errorf("error order = %v, want C1,C2,C3", got)
	}
}

func TestLoadAll_ExactlyOneErrorAndCallPerName(t *testing.T) {
	src := newFakeSource(map[string]string{"A": "x\n1\n", "BAD": "x,y\n1\n"})
	names := []string{"A", "BAD", "MISSING"}

	_, errs := NewLoader(src, 2).LoadAll(context.Background(), names)

	if len(errs) != 2 {
		t.Fatalf("errors = %+v, want 2", errs)
	}
	for _, name := range names {
		if n := src.callCount(name); n != 1 {
			t.Errorf("%s fetched %d times, want 1", name, n)
		}
	}
}

func TestLoadAll_ConcurrencyLimit(t *testing.T) {
	bodies := map[string]string{}
	names := []string{"A", "B", "C", "D", "E", "F"}
	src := newFakeSource(bodies)
	for _, n := range names {
		bodies[n] = "h\n1\n"
		src.delays[n] = 20 * time.Millisecond
	}

	tables, errs := NewLoader(src, 2).LoadAll(context.Background(), names)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if len(tables) != len(names) {
		t.Errorf("len(tables) = %d, want %d", len(tables), len(names))
	}
	if src.maxInflight > 2 {
		t.Errorf("max concurrent fetches = %d, want <= 2", src.maxInflight)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(dir, "PTC.csv", "A\n1\n"); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(DirSource{Dir: dir}, 1)
	tables, errs := loader.LoadAll(context.Background(), []string{"PTC", "NOPE"})

	if len(tables["PTC"].Rows) != 1 {
		t.Errorf("PTC rows = %d, want 1", len(tables["PTC"].Rows))
	}
	if len(errs) != 1 || errs[0].Dataset != "NOPE" {
		t.Fatalf("errors = %+v, want one for NOPE", errs)
	}
	if code := MapMessage(errs[0].Message).Code; code != "SRC002" {
		t.Errorf("code = %s, want SRC002", code)
	}
}
