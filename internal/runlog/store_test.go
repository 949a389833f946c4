package runlog

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history", "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBeginFinishRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Begin(ctx, "run-1", "fetch"); err != nil {
		t.Fatal(err)
	}
	if err := store.Begin(ctx, "run-2", "translate"); err != nil {
		t.Fatal(err)
	}
	if err := store.Finish(ctx, "run-1", 10, 2, 1, "ok"); err != nil {
		t.Fatal(err)
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %+v", runs)
	}

	byID := map[string]Run{}
	for _, run := range runs {
		byID[run.ID] = run
	}

	finished := byID["run-1"]
	if finished.Stage != "fetch" || finished.Completed != 10 || finished.Failed != 2 || finished.Synced != 1 {
		t.Fatalf("run-1 = %+v", finished)
	}
	if finished.Outcome != "ok" || finished.FinishedAt == nil {
		t.Fatalf("run-1 = %+v", finished)
	}

	open := byID["run-2"]
	if open.FinishedAt != nil || open.Outcome != "" {
		t.Fatalf("run-2 = %+v", open)
	}
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Begin(ctx, id, "fetch"); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %+v", runs)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Begin(context.Background(), "run-1", "fetch"); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	runs, err := reopened.Recent(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Fatalf("runs = %+v", runs)
	}
}
