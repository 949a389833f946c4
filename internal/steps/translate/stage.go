package translate

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"pagemill/internal/fileutil"
	"pagemill/internal/logging"
	"pagemill/internal/segment"
	"pagemill/internal/services"
)

// minTranslateLen is the shortest chunk worth a round trip to the backend.
// Anything shorter is punctuation, numbers, or markup that survives as-is.
const minTranslateLen = 10

// Translator is the backend contract used by the stage.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Config holds the translate stage settings.
type Config struct {
	DocsDir string
	// MaxChunkLen caps the size of a single translation request.
	MaxChunkLen int
	// Threshold is the target-script letter ratio above which a file counts
	// as already translated.
	Threshold float64
	// Script identifies letters of the target language for the threshold
	// heuristic.
	Script *unicode.RangeTable
	// Pace is the delay between successive backend requests.
	Pace time.Duration
}

// Stage implements pipeline.Stage for Markdown translation. The artifact
// check is content-based: a file counts as done once it reads in the target
// script, so sync-from-disk and the in-step skip use the same predicate.
type Stage struct {
	cfg    Config
	tr     Translator
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewStage constructs the translate stage.
func NewStage(cfg Config, tr Translator, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{cfg: cfg, tr: tr, logger: logger, sleep: sleepContext}
}

func (s *Stage) Name() string { return "translate" }

// Universe lists the Markdown files under the docs tree, sorted by relative
// path. READMEs describe the tree itself and stay in the source language.
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

// ArtifactExists reports whether the file already reads in the target script.
func (s *Stage) ArtifactExists(key string) bool {
	content, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	return s.likelyTranslated(string(content))
}

// Process translates one Markdown file in place, atomically.
func (s *Stage) Process(ctx context.Context, key string) error {
	path := s.path(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		return services.Wrap(services.ErrTransient, s.Name(), "read", key, err)
	}
	content := string(raw)

	if strings.TrimSpace(content) == "" {
		return nil // nothing to translate
	}
	if s.likelyTranslated(content) {
		s.logger.Debug("already translated, skipping", logging.String("item", key))
		return nil
	}

	spans := segment.Split(content)
	for i, span := range spans {
		if span.Kind != segment.Text {
			continue
		}
		translated, err := s.translateText(ctx, span.Body)
		if err != nil {
			return err
		}
		spans[i].Body = translated
	}

	if err := fileutil.WriteFileAtomic(path, []byte(segment.Join(spans)), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, s.Name(), "write", key, err)
	}
	return nil
}

// translateText translates one text span paragraph by paragraph, packing
// paragraphs into requests up to the configured chunk limit.
func (s *Stage) translateText(ctx context.Context, text string) (string, error) {
	pieces := splitParagraphs(text)
	var out strings.Builder

	var buf strings.Builder
	flush := func() error {
		chunk := buf.String()
		buf.Reset()

		// Backends trim whitespace, so send only the core and restore the
		// chunk's own margins afterwards. Paragraph breaks survive either way.
		start := 0
		for start < len(chunk) && isSpace(chunk[start]) {
			start++
		}
		end := len(chunk)
		for end > start && isSpace(chunk[end-1]) {
			end--
		}
		if end-start < minTranslateLen {
			out.WriteString(chunk)
			return nil
		}
		translated, err := s.tr.Translate(ctx, chunk[start:end])
		if err != nil {
			return err
		}
		out.WriteString(chunk[:start])
		out.WriteString(translated)
		out.WriteString(chunk[end:])
		return s.sleep(ctx, s.cfg.Pace)
	}

	for _, piece := range pieces {
		if s.cfg.MaxChunkLen > 0 && buf.Len() > 0 && buf.Len()+len(piece) > s.cfg.MaxChunkLen {
			if err := flush(); err != nil {
				return "", err
			}
		}
		buf.WriteString(piece)
	}
	if err := flush(); err != nil {
		return "", err
	}
	return out.String(), nil
}

func (s *Stage) path(key string) string {
	return filepath.Join(s.cfg.DocsDir, filepath.FromSlash(key))
}

// splitParagraphs cuts text at blank-line boundaries, keeping the separators
// as their own pieces so concatenation reproduces the input.
func splitParagraphs(text string) []string {
	var pieces []string
	start := 0
	i := 0
	for i < len(text) {
		if text[i] == '\n' && i+1 < len(text) && text[i+1] == '\n' {
			if start < i {
				pieces = append(pieces, text[start:i])
			}
			sepEnd := i
			for sepEnd < len(text) && text[sepEnd] == '\n' {
				sepEnd++
			}
			pieces = append(pieces, text[i:sepEnd])
			start, i = sepEnd, sepEnd
			continue
		}
		i++
	}
	if start < len(text) {
		pieces = append(pieces, text[start:])
	}
	return pieces
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
