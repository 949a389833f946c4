package render

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func newTestStage(t *testing.T) *Stage {
	t.Helper()
	return NewStage(Config{DocsDir: t.TempDir()}, nil)
}

func writeDoc(t *testing.T, stage *Stage, key, content string) {
	t.Helper()
	path := filepath.Join(stage.cfg.DocsDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestUniverseSkipsReadmeAndNonMarkdown(t *testing.T) {
	stage := newTestStage(t)
	writeDoc(t, stage, "02_LIBRARY/os.md", "# os")
	writeDoc(t, stage, "README.md", "tree notes")
	writeDoc(t, stage, "02_LIBRARY/os.html", "<html></html>")

	universe, err := stage.Universe(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(universe, []string{"02_LIBRARY/os.md"}) {
		t.Fatalf("universe = %v", universe)
	}
}

func TestProcessRendersDocument(t *testing.T) {
	stage := newTestStage(t)
	writeDoc(t, stage, "02_LIBRARY/os.md", "# Модуль os\n\nОписание модуля.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")

	key := "02_LIBRARY/os.md"
	if stage.ArtifactExists(key) {
		t.Fatal("artifact reported before render")
	}
	if err := stage.Process(context.Background(), key); err != nil {
		t.Fatal(err)
	}
	if !stage.ArtifactExists(key) {
		t.Fatal("artifact not reported after render")
	}

	data, err := os.ReadFile(stage.OutputPath(key))
	if err != nil {
		t.Fatal(err)
	}
	page := string(data)
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>os</title>",
		"<h1>Модуль os</h1>",
		"Описание модуля.",
		"<table>",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q:\n%s", want, page)
		}
	}
}

func TestProcessMissingSource(t *testing.T) {
	stage := newTestStage(t)
	if err := stage.Process(context.Background(), "absent.md"); err == nil {
		t.Fatal("expected error")
	}
}

func TestOutputPath(t *testing.T) {
	stage := NewStage(Config{DocsDir: "/docs"}, nil)
	got := stage.OutputPath("02_LIBRARY/os.md")
	if got != filepath.FromSlash("/docs/02_LIBRARY/os.html") {
		t.Fatalf("OutputPath = %q", got)
	}
}
