package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"pagemill/internal/services"
)

func newTestStage(t *testing.T, handler http.Handler) *Stage {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStage(Config{
		BaseURL:   srv.URL,
		IndexPath: "contents.html",
		DocsDir:   t.TempDir(),
		Timeout:   5 * time.Second,
	}, nil)
}

func TestUniverse(t *testing.T) {
	stage := newTestStage(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contents.html" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body>
<a href="tutorial/index.html">Tutorial</a>
<a href="library/os.html">os</a>
<a href="genindex.html">Index</a>
</body></html>`))
	}))

	universe, err := stage.Universe(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"library/os.html", "tutorial/index.html"}
	if !reflect.DeepEqual(universe, want) {
		t.Fatalf("universe = %v, want %v", universe, want)
	}
}

func TestUniverseServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	stage := NewStage(Config{BaseURL: srv.URL, IndexPath: "contents.html", DocsDir: t.TempDir(), Timeout: time.Second}, nil)

	_, err := stage.Universe(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if services.Classify(err) != services.ClassRetryable {
		t.Fatalf("connection failure should classify retryable: %v", err)
	}
}

func TestProcessWritesArtifact(t *testing.T) {
	stage := newTestStage(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><main><h1>os module</h1><p>Portable OS interfaces.</p></main></body></html>`))
	}))

	key := "library/os.html"
	if stage.ArtifactExists(key) {
		t.Fatal("artifact reported before processing")
	}
	if err := stage.Process(context.Background(), key); err != nil {
		t.Fatal(err)
	}
	if !stage.ArtifactExists(key) {
		t.Fatal("artifact not reported after processing")
	}

	data, err := os.ReadFile(stage.OutputPath(key))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# os\n") {
		t.Fatalf("missing title header:\n%s", content)
	}
	if !strings.Contains(content, "Portable OS interfaces.") {
		t.Fatalf("missing body:\n%s", content)
	}
	if !strings.Contains(content, "*Source: ") {
		t.Fatalf("missing source note:\n%s", content)
	}
}

func TestProcessStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		want   services.Classification
	}{
		{http.StatusInternalServerError, services.ClassRetryable},
		{http.StatusTooManyRequests, services.ClassRetryable},
		{http.StatusRequestTimeout, services.ClassRetryable},
		{http.StatusNotFound, services.ClassFatal},
		{http.StatusForbidden, services.ClassFatal},
	}
	for _, tc := range cases {
		stage := newTestStage(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		err := stage.Process(context.Background(), "library/os.html")
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := services.Classify(err); got != tc.want {
			t.Fatalf("status %d classified %v, want %v (%v)", tc.status, got, tc.want, err)
		}
	}
}

func TestProcessRetryableErrorMentionsStatus(t *testing.T) {
	stage := newTestStage(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	err := stage.Process(context.Background(), "library/os.html")
	if err == nil || !strings.Contains(err.Error(), "HTTP 503") {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	stage := NewStage(Config{DocsDir: "/docs"}, nil)
	cases := map[string]string{
		"tutorial/index.html":          "/docs/01_TUTORIAL/index.md",
		"library/os.html":              "/docs/02_LIBRARY/os.md",
		"library/asyncio/streams.html": "/docs/02_LIBRARY/asyncio_streams.md",
		"c-api/abstract.html":          "/docs/10_CAPI/abstract.md",
		"contents.html":                "/docs/99_OTHER/contents.md",
	}
	for key, want := range cases {
		if got := stage.OutputPath(key); got != filepath.FromSlash(want) {
			t.Fatalf("OutputPath(%q) = %q, want %q", key, got, want)
		}
	}
}
