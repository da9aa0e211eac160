package core

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// genLoader returns tables and errors stamped with a per-call generation,
// so a reader can check that both halves of a snapshot came from one load.
type genLoader struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (l *genLoader) LoadAll(ctx context.Context, names []string) (map[string]*Table, []LoadError) {
	gen := l.calls.Add(1)
	if l.started != nil {
		l.started <- struct{}{}
	}
	if l.release != nil {
		<-l.release
	}

	stamp := fmt.Sprintf("gen-%d", gen)
	a, _ := NewTable("A", []string{"G"}, []Row{{Cell(stamp)}})
	return map[string]*Table{"A": a}, []LoadError{{Dataset: "B", Message: stamp}}
}

func TestStore_InitialSnapshot(t *testing.T) {
	s := NewStore(&genLoader{}, []string{"A", "B"})
	snap := s.Current()

	if snap == nil {
		t.Fatal("Current() = nil before first reload")
	}
	if !reflect.DeepEqual(snap.Names, []string{"A", "B"}) {
		t.Errorf("Names = %v", snap.Names)
	}
	for _, name := range snap.Names {
		if tbl, ok := snap.Table(name); !ok || !tbl.Empty() {
			t.Errorf("initial %s = %v, want empty table", name, tbl)
		}
	}
	if len(snap.Errors) != 0 || snap.Generation == "" || !snap.LoadedAt.IsZero() {
		t.Errorf("unexpected initial snapshot: %+v", snap)
	}
}

func TestStore_ReloadFillsMissingTables(t *testing.T) {
	s := NewStore(&genLoader{}, []string{"A", "B"})
	s.Reload(context.Background())

	snap := s.Current()
	if len(snap.Tables) != 2 {
		t.Fatalf("len(Tables) = %d, want 2", len(snap.Tables))
	}
	if b, _ := snap.Table("B"); !b.Empty() || b.Name != "B" {
		t.Errorf("B = %+v, want empty table", b)
	}
	if snap.LoadedAt.IsZero() {
		t.Error("LoadedAt not set")
	}
}

func TestStore_ReloadIdempotent(t *testing.T) {
	src := newFakeSource(map[string]string{"A": "X,Y\n1,2\n3,4\n"})
	s := NewStore(NewLoader(src, 2), []string{"A", "B"})

	s.Reload(context.Background())
	first := s.Current()
	s.Reload(context.Background())
	second := s.Current()

	if first.Generation == second.Generation {
		t.Error("each reload should publish a new generation")
	}
	if !reflect.DeepEqual(first.Tables, second.Tables) {
		t.Error("tables differ between reloads of an unchanged source")
	}
	if !reflect.DeepEqual(first.Errors, second.Errors) {
		t.Errorf("errors differ: %v vs %v", first.Errors, second.Errors)
	}
}

func TestStore_UniversalFailure(t *testing.T) {
	s := NewStore(NewLoader(newFakeSource(nil), 2), []string{"A", "B", "C"})
	s.Reload(context.Background())

	snap := s.Current()
	if len(snap.Tables) != 3 || len(snap.Errors) != 3 {
		t.Errorf("tables = %d, errors = %d; want 3 and 3", len(snap.Tables), len(snap.Errors))
	}
}

func TestStore_ReadersSeeConsistentSnapshots(t *testing.T) {
	s := NewStore(&genLoader{}, []string{"A", "B"})
	s.beforeSwap = func() { time.Sleep(2 * time.Millisecond) }
	s.Reload(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var mismatches atomic.Int32

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				snap := s.Current()
				a, _ := snap.Table("A")
				if len(a.Rows) != 1 || len(snap.Errors) != 1 {
					mismatches.Add(1)
					continue
				}
				if a.Rows[0][0].Text() != snap.Errors[0].Message {
					mismatches.Add(1)
				}
			}
		}()
	}

	for range 20 {
		s.Reload(context.Background())
	}
	cancel()
	wg.Wait()

	if n := mismatches.Load(); n != 0 {
		t.Errorf("%d reads saw tables and errors from different reloads", n)
	}
}

func TestStore_CurrentDoesNotBlockDuringReload(t *testing.T) {
	l := &genLoader{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewStore(l, []string{"A"})
	before := s.Current()

	done := make(chan struct{})
	go func() {
		s.Reload(context.Background())
		close(done)
	}()
	<-l.started

	if got := s.Current(); got != before {
		t.Error("snapshot changed before the reload finished")
	}

	close(l.release)
	<-done
	if s.Current() == before {
		t.Error("snapshot not replaced after reload")
	}
}

func TestStore_ConcurrentReloadsShareOneLoad(t *testing.T) {
	l := &genLoader{started: make(chan struct{}, 2), release: make(chan struct{})}
	s := NewStore(l, []string{"A"})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Reload(context.Background())
	}()
	<-l.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Reload(context.Background())
	}()
	// Give the second caller time to join the in-flight reload.
	time.Sleep(20 * time.Millisecond)
	close(l.release)
	wg.Wait()

	if n := l.calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
}

func TestStore_ReloadSurvivesCallerCancel(t *testing.T) {
	src := newFakeSource(map[string]string{"A": "X\n1\n"})
	src.delays["A"] = 20 * time.Millisecond
	s := NewStore(NewLoader(src, 1), []string{"A"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Reload(ctx)

	if errs := s.Current().Errors; len(errs) != 0 {
		t.Errorf("errors = %+v, want none", errs)
	}
}

func TestStore_NamesIsACopy(t *testing.T) {
	s := NewStore(&genLoader{}, []string{"A", "B"})
	names := s.Names()
	names[0] = "Z"
	if s.Names()[0] != "A" {
		t.Error("Names() exposed internal slice")
	}
}
