package history

import (
	"context"
	"path/filepath"
	"testing"

	"solnav/internal/core/ports"
)

func TestOpenRejectsEmptyAndDirPaths(t *testing.T) {
	t.Parallel()

	if _, err := Open("   "); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("expected error for directory path")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	last, err := store.LastSnapshot(ctx, "myproject")
	if err != nil {
		t.Fatalf("load on empty store failed: %v", err)
	}
	if last != nil {
		t.Fatalf("expected no snapshot, got %+v", last)
	}

	snap := ports.LintSnapshot{ProjectKey: "myproject", Files: 12, Errors: 3, Warnings: 7}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	last, err = store.LastSnapshot(ctx, "myproject")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if last == nil {
		t.Fatal("expected a snapshot")
	}
	if last.Files != 12 || last.Errors != 3 || last.Warnings != 7 {
		t.Fatalf("unexpected snapshot: %+v", last)
	}
}

func TestProjectKeyDefaultsAndIsolation(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.SaveSnapshot(ctx, ports.LintSnapshot{Files: 1, Errors: 1}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.SaveSnapshot(ctx, ports.LintSnapshot{ProjectKey: "other", Files: 5}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Empty key reads the "default" bucket.
	last, err := store.LastSnapshot(ctx, "")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if last == nil || last.Files != 1 {
		t.Fatalf("unexpected default snapshot: %+v", last)
	}

	last, err = store.LastSnapshot(ctx, "other")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if last == nil || last.Files != 5 {
		t.Fatalf("unexpected snapshot for other project: %+v", last)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	ctx := context.Background()
	if err := store.SaveSnapshot(ctx, ports.LintSnapshot{ProjectKey: "p", Files: 2}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	last, err := store.LastSnapshot(ctx, "p")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if last == nil || last.Files != 2 {
		t.Fatalf("unexpected snapshot after reopen: %+v", last)
	}
}
