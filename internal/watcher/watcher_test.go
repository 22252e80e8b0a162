package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event on %s", want)
		}
	}
}

func TestWatcher_IngestOnWrite(t *testing.T) {
	dir := t.TempDir()
	ingested := make(chan string, 8)
	w := NewWatcher(dir, []string{".txt"},
		func(path string) { ingested <- path },
		nil,
		zap.NewNop(),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "prices.txt")
	if err := os.WriteFile(path, []byte("supplier: A\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, ingested, path)
}

func TestWatcher_RemoveOnDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.txt")
	if err := os.WriteFile(path, []byte("supplier: A\n"), 0644); err != nil {
		t.Fatal(err)
	}

	removed := make(chan string, 8)
	w := NewWatcher(dir, []string{".txt"},
		nil,
		func(path string) { removed <- path },
		zap.NewNop(),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, removed, path)
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	ingested := make(chan string, 8)
	w := NewWatcher(dir, []string{".txt"},
		func(path string) { ingested <- path },
		nil,
		zap.NewNop(),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case path := <-ingested:
		t.Errorf("unexpected ingest for %s", path)
	case <-time.After(700 * time.Millisecond):
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.txt")
	if err := os.WriteFile(path, []byte("supplier: A\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skip.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	ingested := make(chan string, 8)
	w := NewWatcher(dir, []string{".txt"},
		func(path string) { ingested <- path },
		nil,
		zap.NewNop(),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	w.SyncExistingFiles()
	waitFor(t, ingested, path)
}

func TestWatcher_StopDuringEventBurst(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, []string{".txt"},
		func(path string) {},
		func(path string) {},
		zap.NewNop(),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	writes := make(chan struct{})
	go func() {
		defer close(writes)
		for i := 0; i < 50; i++ {
			path := filepath.Join(dir, fmt.Sprintf("prices-%d.txt", i))
			if err := os.WriteFile(path, []byte("supplier: A\n"), 0644); err != nil {
				return
			}
		}
	}()

	// Stop while events are still arriving.
	time.Sleep(5 * time.Millisecond)
	w.Stop()
	<-writes
	w.Stop()
}

func TestWatcher_StartCreatesMissingRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "catalog")
	w := NewWatcher(dir, nil, nil, nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("root not created: %v", err)
	}
}
