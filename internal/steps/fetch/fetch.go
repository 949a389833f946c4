// Package fetch downloads documentation pages and stores them as Markdown.
// It provides both the universe (the index page's link set) and the per-item
// step for the fetch stage.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pagemill/internal/fileutil"
	"pagemill/internal/htmldoc"
	"pagemill/internal/logging"
	"pagemill/internal/services"
)

// sectionDirs maps the leading path segment of a page to its local directory.
var sectionDirs = map[string]string{
	"tutorial":     "01_TUTORIAL",
	"library":      "02_LIBRARY",
	"reference":    "03_LANGUAGE_REFERENCE",
	"whatsnew":     "04_WHATSNEW",
	"using":        "05_USING",
	"howto":        "06_HOWTO",
	"installing":   "07_INSTALLING",
	"distributing": "08_DISTRIBUTING",
	"extending":    "09_EXTENDING",
	"c-api":        "10_CAPI",
	"faq":          "11_FAQ",
	"license":      "12_MISC",
	"copyright":    "12_MISC",
}

const fallbackSectionDir = "99_OTHER"

// Config holds the fetch stage settings.
type Config struct {
	BaseURL   string
	IndexPath string
	DocsDir   string
	Timeout   time.Duration
}

// Stage implements pipeline.Stage for page fetching.
type Stage struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewStage constructs the fetch stage.
func NewStage(cfg Config, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (s *Stage) Name() string { return "fetch" }

// Universe downloads the index page and extracts the documentation paths.
func (s *Stage) Universe(ctx context.Context) ([]string, error) {
	raw, err := s.get(ctx, s.cfg.IndexPath)
	if err != nil {
		return nil, err
	}
	paths, err := htmldoc.ExtractDocPaths(raw, s.cfg.BaseURL)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, s.Name(), "index", s.cfg.IndexPath, err)
	}
	s.logger.Info("index fetched",
		logging.String("index", s.cfg.IndexPath),
		logging.Int("pages", len(paths)))
	return paths, nil
}

// ArtifactExists reports whether the Markdown artifact for key is on disk.
func (s *Stage) ArtifactExists(key string) bool {
	_, err := os.Stat(s.OutputPath(key))
	return err == nil
}

// Process downloads one page, converts it to Markdown, and writes the
// artifact atomically.
func (s *Stage) Process(ctx context.Context, key string) error {
	raw, err := s.get(ctx, key)
	if err != nil {
		return err
	}
	md, err := htmldoc.FromHTML(raw)
	if err != nil {
		return services.Wrap(services.ErrValidation, s.Name(), "convert", key, err)
	}

	out := s.OutputPath(key)
	stem := strings.TrimSuffix(filepath.Base(out), ".md")
	header := fmt.Sprintf("# %s\n\n*Source: %s*\n\n---\n\n", stem, s.pageURL(key))

	if err := fileutil.WriteFileAtomic(out, []byte(header+md), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, s.Name(), "write", key, err)
	}
	return nil
}

// OutputPath maps a page path to its local Markdown artifact.
func (s *Stage) OutputPath(key string) string {
	trimmed := strings.TrimSuffix(key, ".html")
	parts := strings.Split(trimmed, "/")

	section := parts[0]
	name := section
	if len(parts) > 1 {
		name = strings.Join(parts[1:], "_")
	}

	dir, ok := sectionDirs[section]
	if !ok {
		dir = fallbackSectionDir
	}
	return filepath.Join(s.cfg.DocsDir, dir, name+".md")
}

func (s *Stage) pageURL(key string) string {
	if strings.Contains(key, "://") {
		return key
	}
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + key
}

func (s *Stage) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL(path), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, s.Name(), "request", path, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, s.Name(), "get", path, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, services.Wrap(err, s.Name(), "get", fmt.Sprintf("%s: HTTP %d", path, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, s.Name(), "read body", path, err)
	}
	return body, nil
}

// classifyStatus returns the sentinel for a non-success status, or nil.
// Server-side trouble and throttling are retryable; other client errors mean
// the page itself is bad and retrying cannot help.
func classifyStatus(code int) error {
	switch {
	case code < 300:
		return nil
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return services.ErrTransient
	default:
		return services.ErrValidation
	}
}
