package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestStartWatcherEmitsInitialAndNewFiles(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "old.png")
	writeFile(t, existing)
	writeFile(t, filepath.Join(root, "skip.txt"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, SkipHidden: true})
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}

	next := func() string {
		t.Helper()
		select {
		case p := <-events:
			return p
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watch event")
			return ""
		}
	}

	if got := next(); got != existing {
		t.Fatalf("initial event = %q, want %q", got, existing)
	}

	fresh := filepath.Join(root, "new.png")
	writeFile(t, fresh)
	if got := next(); got != fresh {
		t.Fatalf("event = %q, want %q", got, fresh)
	}

	cancel()
	for range events {
	}
}

func TestStartWatcherNoRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}); err == nil {
		t.Fatal("expected error without roots")
	}
}
