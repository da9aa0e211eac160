package core

// store.go owns the process-wide snapshot of all datasets.
//
// Readers call Current and keep the returned *Snapshot for the whole render.
// Reload does all network and parsing work first, then publishes the new
// snapshot with a single atomic pointer swap, so a reader sees either the old
// tables with the old errors or the new tables with the new errors.

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/JonMunkholm/sheetboard/internal/metrics"
)

// BatchLoader loads a list of datasets, never failing as a whole.
// Satisfied by *Loader.
type BatchLoader interface {
	LoadAll(ctx context.Context, names []string) (map[string]*Table, []LoadError)
}

// Store holds the current Snapshot.
type Store struct {
	loader  BatchLoader
	names   []string
	current atomic.Pointer[Snapshot]
	flight  singleflight.Group

	// beforeSwap runs after loading and before publishing; tests use it to
	// widen the window between the two.
	beforeSwap func()
}

// NewStore creates a Store for the given dataset names and publishes a
// placeholder snapshot with an empty table per name.
func NewStore(loader BatchLoader, names []string) *Store {
	s := &Store{
		loader: loader,
		names:  append([]string(nil), names...),
	}

	tables := make(map[string]*Table, len(names))
	for _, name := range names {
		tables[name] = EmptyTable(name)
	}
	s.current.Store(&Snapshot{
		Generation: uuid.NewString(),
		Names:      s.names,
		Tables:     tables,
	})

	return s
}

// Names returns the configured dataset names in order.
func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

// Current returns the published snapshot. It never blocks.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload loads every dataset and replaces the snapshot.
// Calls that overlap an in-flight reload wait for it instead of starting
// another one. Cancelling ctx does not abort a reload other callers share;
// each fetch is bounded by the source's own timeout.
func (s *Store) Reload(ctx context.Context) {
	s.flight.Do("reload", func() (any, error) {
		s.reload(context.WithoutCancel(ctx))
		return nil, nil
	})
}

func (s *Store) reload(ctx context.Context) {
	start := time.Now()
	tables, loadErrs := s.loader.LoadAll(ctx, s.names)

	// Guarantee one entry per name whatever the loader returned.
	for _, name := range s.names {
		if tables[name] == nil {
			tables[name] = EmptyTable(name)
		}
	}

	snap := &Snapshot{
		Generation: uuid.NewString(),
		LoadedAt:   time.Now(),
		Names:      s.names,
		Tables:     tables,
		Errors:     loadErrs,
	}

	if s.beforeSwap != nil {
		s.beforeSwap()
	}
	s.current.Store(snap)

	elapsed := time.Since(start)
	rows := make(map[string]int, len(tables))
	for name, t := range tables {
		rows[name] = len(t.Rows)
	}
	metrics.ObserveSnapshot(elapsed, rows, len(loadErrs))

	slog.Info("snapshot published",
		"generation", snap.Generation,
		"datasets", len(s.names),
		"failed", len(loadErrs),
		"duration_ms", elapsed.Milliseconds(),
	)
}
