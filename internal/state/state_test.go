package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMarkCompletedClearsFailure(t *testing.T) {
	snap := NewSnapshot()
	snap.MarkFailed("library/os.html", "HTTP 503", "")
	if snap.LastError == nil || snap.LastError.Item != "library/os.html" {
		t.Fatalf("last error not recorded: %+v", snap.LastError)
	}

	snap.MarkCompleted("library/os.html")

	if _, ok := snap.Failed["library/os.html"]; ok {
		t.Fatal("key still present in failed map after completion")
	}
	if !snap.IsCompleted("library/os.html") {
		t.Fatal("key not recorded as completed")
	}
	if snap.LastError != nil {
		t.Fatalf("last error not cleared: %+v", snap.LastError)
	}
	if snap.LastTouched != "library/os.html" {
		t.Fatalf("last touched = %q", snap.LastTouched)
	}
}

func TestMarkCompletedDeduplicates(t *testing.T) {
	snap := NewSnapshot()
	snap.MarkCompleted("a")
	snap.MarkCompleted("a")
	if len(snap.Completed) != 1 {
		t.Fatalf("completed = %v, want single entry", snap.Completed)
	}
}

func TestMarkFailedLeavesCompletedAlone(t *testing.T) {
	snap := NewSnapshot()
	snap.MarkCompleted("a")
	snap.MarkFailed("b", "timeout", "trace")

	if !snap.IsCompleted("a") {
		t.Fatal("completion lost")
	}
	if snap.Failed["b"] != "timeout" {
		t.Fatalf("failed map = %v", snap.Failed)
	}
	if snap.LastError == nil || snap.LastError.Trace != "trace" {
		t.Fatalf("last error = %+v", snap.LastError)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), ".fetch_state.json"))

	snap := NewSnapshot()
	snap.MarkCompleted("tutorial/index.html")
	snap.MarkFailed("library/os.html", "HTTP 503", "stack detail")
	snap.TotalPlanned = 12

	if err := store.Save(snap); err != nil {
		t.Fatal(err)
	}

	loaded := store.Load()
	if !loaded.IsCompleted("tutorial/index.html") {
		t.Fatal("completed set lost")
	}
	if loaded.Failed["library/os.html"] != "HTTP 503" {
		t.Fatalf("failed map lost: %v", loaded.Failed)
	}
	if loaded.LastError == nil || loaded.LastError.Message != "HTTP 503" {
		t.Fatalf("last error lost: %+v", loaded.LastError)
	}
	if loaded.TotalPlanned != 12 {
		t.Fatalf("total planned = %d", loaded.TotalPlanned)
	}
	if loaded.LastTouched != "library/os.html" {
		t.Fatalf("last touched = %q", loaded.LastTouched)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.json"))
	snap := store.Load()
	if len(snap.Completed) != 0 || len(snap.Failed) != 0 || snap.TotalPlanned != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	snap.MarkCompleted("x")
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	cases := map[string]string{
		"truncated json": `{"completed": ["a", "b"`,
		"wrong types":    `{"completed": "not-a-list", "failed": []}`,
		"plain garbage":  "\x00\x01\x02",
	}
	store := NewStore(path)
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			snap := store.Load()
			if len(snap.Completed) != 0 || len(snap.Failed) != 0 {
				t.Fatalf("expected empty snapshot, got %+v", snap)
			}
		})
	}
}

func TestLoadRestoresExclusivity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	content := `{
  "completed": ["a", "a", "b"],
  "failed": {"a": "old error", "c": "still failing"},
  "total_planned": 3
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	snap := NewStore(path).Load()
	if len(snap.Completed) != 2 {
		t.Fatalf("completed = %v", snap.Completed)
	}
	if _, ok := snap.Failed["a"]; ok {
		t.Fatal("completed key kept its failure entry")
	}
	if snap.Failed["c"] != "still failing" {
		t.Fatalf("unrelated failure dropped: %v", snap.Failed)
	}
}

func TestSaveLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "state.json"))
	if err := store.Save(NewSnapshot()); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}
