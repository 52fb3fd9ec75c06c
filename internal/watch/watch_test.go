package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatchDirectoryDebounced(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32

	w, err := New([]string{dir}, 50*time.Millisecond, nil, func(Event) { calls.Add(1) })
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(dir, "jawa.txt"), []byte("kitab\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return calls.Load() >= 1 })

	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("OnChange ran %d times, want 1 for one burst", n)
	}
}

func TestWatchSingleFile(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "pegon.yaml")
	if err := os.WriteFile(catalog, []byte("name: x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var last atomic.Value
	w, err := New([]string{catalog, filepath.Join(dir, "missing")}, 20*time.Millisecond, nil, func(ev Event) {
		last.Store(ev.Name)
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := w.Paths(); len(got) != 1 || got[0] != catalog {
		t.Errorf("Paths() = %v, want only the catalog", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// A sibling must not trigger a reload.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if last.Load() != nil {
		t.Fatalf("sibling change triggered OnChange for %v", last.Load())
	}

	if err := os.WriteFile(catalog, []byte("name: y\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return last.Load() != nil })
	if got := last.Load().(string); filepath.Clean(got) != catalog {
		t.Errorf("event for %q, want %q", got, catalog)
	}
}
