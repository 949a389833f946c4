package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.md")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "first" {
		t.Fatalf("content mismatch: got %q", got)
	}

	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("replacement mismatch: got %q", got)
	}

	if _, err := os.Stat(TempPath(path)); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestWriteFileAtomicCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "out.md")

	if err := WriteFileAtomic(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}

func TestSweepTemp(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "02_LIBRARY")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	keep := filepath.Join(sub, "os.md")
	orphans := []string{
		filepath.Join(dir, "index.md.tmp"),
		filepath.Join(sub, "os.md.tmp"),
		filepath.Join(dir, ".fetch_state.json.tmp"),
	}
	if err := os.WriteFile(keep, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, p := range orphans {
		if err := os.WriteFile(p, []byte("partial"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if got := SweepTemp(dir); got != len(orphans) {
		t.Fatalf("removed %d orphans, want %d", got, len(orphans))
	}
	for _, p := range orphans {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("orphan still present: %s", p)
		}
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("regular file removed: %v", err)
	}
}

func TestSweepTempEmptyTree(t *testing.T) {
	if got := SweepTemp(t.TempDir()); got != 0 {
		t.Fatalf("expected 0 removals, got %d", got)
	}
}

func TestSweepTempMissingRoot(t *testing.T) {
	if got := SweepTemp(filepath.Join(t.TempDir(), "nope")); got != 0 {
		t.Fatalf("expected 0 removals, got %d", got)
	}
}
