// Package render converts translated Markdown into standalone HTML documents
// placed next to their sources.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"pagemill/internal/fileutil"
	"pagemill/internal/logging"
	"pagemill/internal/services"
)

// Config holds the render stage settings.
type Config struct {
	DocsDir string
}

// Stage implements pipeline.Stage for Markdown rendering.
type Stage struct {
	cfg    Config
	md     goldmark.Markdown
	logger *slog.Logger
}

// NewStage constructs the render stage. GFM tables are enabled because the
// fetch conversion emits pipe tables.
func NewStage(cfg Config, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{
		cfg: cfg,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(ghtml.WithHardWraps()),
		),
		logger: logger,
	}
}

func (s *Stage) Name() string { return "render" }

// Universe lists the Markdown files under the docs tree.
func (s *Stage) Universe(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.cfg.DocsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") || d.Name() == "README.md" {
			return nil
		}
		rel, err := filepath.Rel(s.cfg.DocsDir, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, s.Name(), "scan docs dir", s.cfg.DocsDir, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// ArtifactExists reports whether the rendered HTML sibling is on disk.
func (s *Stage) ArtifactExists(key string) bool {
	_, err := os.Stat(s.OutputPath(key))
	return err == nil
}

// Process renders one Markdown file to a standalone HTML document.
func (s *Stage) Process(_ context.Context, key string) error {
	source, err := os.ReadFile(filepath.Join(s.cfg.DocsDir, filepath.FromSlash(key)))
	if err != nil {
		return services.Wrap(services.ErrTransient, s.Name(), "read", key, err)
	}

	var body bytes.Buffer
	if err := s.md.Convert(source, &body); err != nil {
		return services.Wrap(services.ErrValidation, s.Name(), "convert", key, err)
	}

	title := strings.TrimSuffix(filepath.Base(key), ".md")
	page := buildDocument(title, body.Bytes())

	if err := fileutil.WriteFileAtomic(s.OutputPath(key), page, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, s.Name(), "write", key, err)
	}
	return nil
}

// OutputPath maps a Markdown key to its HTML artifact.
func (s *Stage) OutputPath(key string) string {
	rel := strings.TrimSuffix(filepath.FromSlash(key), ".md") + ".html"
	return filepath.Join(s.cfg.DocsDir, rel)
}

const documentStyle = `body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font-family: sans-serif; line-height: 1.6; }
pre { background: #f4f4f4; padding: 1rem; overflow-x: auto; }
code { font-family: monospace; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.3rem 0.6rem; }`

func buildDocument(title string, body []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
%s
</style>
</head>
<body>
`, html.EscapeString(title), documentStyle)
	b.Write(body)
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}
