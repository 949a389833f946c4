// Package config loads and validates pagemill's TOML configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"pagemill/internal/language"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DocsDir string `toml:"docs_dir"`
	LogDir  string `toml:"log_dir"`
}

// Fetch configures the page-download stage.
type Fetch struct {
	BaseURL        string `toml:"base_url"`
	IndexPath      string `toml:"index_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Translate configures the translation stage.
type Translate struct {
	Endpoint            string  `toml:"endpoint"`
	SourceLang          string  `toml:"source_lang"`
	TargetLang          string  `toml:"target_lang"`
	MaxChunkLen         int     `toml:"max_chunk_len"`
	TranslatedThreshold float64 `toml:"translated_threshold"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
}

// Workflow configures the shared run engine.
type Workflow struct {
	MaxAttempts           int   `toml:"max_attempts"`
	AttemptTimeoutSeconds int   `toml:"attempt_timeout_seconds"`
	BackoffMillis         int   `toml:"backoff_ms"`
	PaceMillis            int   `toml:"pace_ms"`
	MinFreeMB             int64 `toml:"min_free_mb"`
}

// Config is the root configuration document.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Fetch     Fetch     `toml:"fetch"`
	Translate Translate `toml:"translate"`
	Workflow  Workflow  `toml:"workflow"`
	LogLevel  string    `toml:"log_level"`
	LogFormat string    `toml:"log_format"`
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return filepath.Join("~", ".config", "pagemill", "config.toml")
}

// Load reads the configuration at path, applying defaults for absent fields.
// A missing file yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := cfg.normalize(); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the configured directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DocsDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FetchTimeout returns the per-request fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// TranslateTimeout returns the per-request translation timeout.
func (c *Config) TranslateTimeout() time.Duration {
	return time.Duration(c.Translate.TimeoutSeconds) * time.Second
}

// AttemptTimeout returns the per-attempt deadline for the retry executor.
func (c *Config) AttemptTimeout() time.Duration {
	return time.Duration(c.Workflow.AttemptTimeoutSeconds) * time.Second
}

// Backoff returns the base inter-attempt delay.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.Workflow.BackoffMillis) * time.Millisecond
}

// Pace returns the delay between successive items and backend requests.
func (c *Config) Pace() time.Duration {
	return time.Duration(c.Workflow.PaceMillis) * time.Millisecond
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DocsDir, err = ExpandPath(c.Paths.DocsDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return err
	}
	return c.Validate()
}

// Validate checks field values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DocsDir) == "" {
		problems = append(problems, "paths.docs_dir must be set")
	}
	if strings.TrimSpace(c.Fetch.BaseURL) == "" {
		problems = append(problems, "fetch.base_url must be set")
	}
	if strings.TrimSpace(c.Fetch.IndexPath) == "" {
		problems = append(problems, "fetch.index_path must be set")
	}
	if strings.TrimSpace(c.Translate.Endpoint) == "" {
		problems = append(problems, "translate.endpoint must be set")
	}
	if err := language.Validate(c.Translate.SourceLang); err != nil {
		problems = append(problems, fmt.Sprintf("translate.source_lang: %v", err))
	}
	if err := language.Validate(c.Translate.TargetLang); err != nil {
		problems = append(problems, fmt.Sprintf("translate.target_lang: %v", err))
	}
	if c.Translate.TranslatedThreshold < 0 || c.Translate.TranslatedThreshold > 1 {
		problems = append(problems, "translate.translated_threshold must be between 0 and 1")
	}
	if c.Workflow.MaxAttempts < 1 {
		problems = append(problems, "workflow.max_attempts must be at least 1")
	}
	if c.Workflow.AttemptTimeoutSeconds < 1 {
		problems = append(problems, "workflow.attempt_timeout_seconds must be at least 1")
	}
	if c.Workflow.BackoffMillis < 0 || c.Workflow.PaceMillis < 0 {
		problems = append(problems, "workflow backoff_ms and pace_ms must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ExpandPath resolves a leading ~ to the current user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
