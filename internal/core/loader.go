package core

// loader.go fetches named datasets and turns them into tables.
//
// Every dataset is loaded independently: a fetch or parse failure for one
// name becomes a LoadError plus an empty table, and never stops the others.
// There are no retries; the next reload is the retry.

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/sheetboard/internal/metrics"
)

// DefaultFetchTimeout bounds a single dataset request.
const DefaultFetchTimeout = 25 * time.Second

// DefaultFetchConcurrency is how many datasets are fetched at once.
const DefaultFetchConcurrency = 4

// DefaultSourceRoot is the spreadsheet export host.
const DefaultSourceRoot = "https://docs.google.com/spreadsheets/d"

// Source retrieves the raw delimited text of a dataset by name.
// The caller closes the returned body.
type Source interface {
	Fetch(ctx context.Context, name string) (io.ReadCloser, error)
}

// HTTPSourceConfig configures an HTTPSource.
type HTTPSourceConfig struct {
	Root          string        // e.g. https://docs.google.com/spreadsheets/d
	SheetID       string        // Spreadsheet identifier
	Timeout       time.Duration // Per request; DefaultFetchTimeout when zero
	AllowInsecure bool          // Skip TLS verification; local diagnostics only
}

// HTTPSource fetches sheet exports over HTTP(S).
type HTTPSource struct {
	root    string
	sheetID string
	client  *http.Client
}

// NewHTTPSource creates an HTTPSource.
func NewHTTPSource(cfg HTTPSourceConfig) *HTTPSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	root := cfg.Root
	if root == "" {
		root = DefaultSourceRoot
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.AllowInsecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in diagnostics flag
	}

	return &HTTPSource{
		root:    strings.TrimRight(root, "/"),
		sheetID: cfg.SheetID,
		client:  &http.Client{Timeout: timeout, Transport: transport},
	}
}

// EncodeDatasetName replaces each space with '+'. Nothing else is escaped.
func EncodeDatasetName(name string) string {
	return strings.ReplaceAll(name, " ", "+")
}

// URL returns the export address for a dataset.
func (s *HTTPSource) URL(name string) string {
	return fmt.Sprintf("%s/%s/export?format=csv&sheet=%s", s.root, s.sheetID, EncodeDatasetName(name))
}

// Fetch performs one GET. Non-2xx answers are reported as FetchError.
func (s *HTTPSource) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	target := s.URL(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Dataset: name, URL: target, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, newFetchError(name, target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &FetchError{Dataset: name, URL: target, StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}

// Loader fetches and parses datasets.
type Loader struct {
	source      Source
	concurrency int
}

// NewLoader creates a Loader. concurrency <= 0 uses DefaultFetchConcurrency.
func NewLoader(source Source, concurrency int) *Loader {
	if concurrency <= 0 {
		concurrency = DefaultFetchConcurrency
	}
	return &Loader{source: source, concurrency: concurrency}
}

// Load fetches one dataset and parses it.
func (l *Loader) Load(ctx context.Context, name string) (*Table, error) {
	body, err := l.source.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	t, err := ParseTable(name, body)
	if err != nil {
		// A deadline or transport failure mid-body is still a fetch problem.
		var netErr net.Error
		if ctx.Err() != nil {
			return nil, newFetchError(name, "", ctx.Err())
		}
		if errors.As(err, &netErr) {
			return nil, newFetchError(name, "", netErr)
		}
		return nil, err
	}
	return t, nil
}

// LoadAll loads every name. The result has an entry for every name; failed
// names map to an empty table and contribute exactly one LoadError. Errors
// are ordered like names, whatever order the loads finish in.
func (l *Loader) LoadAll(ctx context.Context, names []string) (map[string]*Table, []LoadError) {
	type result struct {
		table *Table
		err   error
	}
	results := make([]result, len(names))

	var g errgroup.Group
	g.SetLimit(l.concurrency)

	for i, name := range names {
		g.Go(func() error {
			start := time.Now()
			t, err := l.Load(ctx, name)
			elapsed := time.Since(start)
			metrics.ObserveDatasetLoad(name, elapsed, err)

			if err != nil {
				slog.Warn("dataset load failed",
					"dataset", name,
					"error", err,
					"duration_ms", elapsed.Milliseconds(),
				)
			} else {
				slog.Debug("dataset loaded",
					"dataset", name,
					"columns", len(t.Columns),
					"rows", len(t.Rows),
					"duration_ms", elapsed.Milliseconds(),
				)
			}

			results[i] = result{table: t, err: err}
			// Failures are recorded, never propagated: siblings must keep going.
			return nil
		})
	}
	g.Wait()

	tables := make(map[string]*Table, len(names))
	var loadErrs []LoadError
	for i, name := range names {
		r := results[i]
		if r.err != nil {
			tables[name] = EmptyTable(name)
			loadErrs = append(loadErrs, LoadError{Dataset: name, Message: r.err.Error()})
			continue
		}
		tables[name] = r.table
	}

	return tables, loadErrs
}
