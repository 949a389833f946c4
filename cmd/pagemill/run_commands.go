package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"pagemill/internal/config"
	"pagemill/internal/language"
	"pagemill/internal/pipeline"
	"pagemill/internal/retry"
	"pagemill/internal/runlog"
	"pagemill/internal/state"
	"pagemill/internal/steps/fetch"
	"pagemill/internal/steps/render"
	"pagemill/internal/steps/translate"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download documentation pages and convert them to Markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeStages(ctx, "fetch")
		},
	}
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "translate",
		Short: "Translate fetched Markdown files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeStages(ctx, "translate")
		},
	}
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Render translated Markdown to HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeStages(ctx, "render")
		},
	}
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run fetch, translate, and render in sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeStages(ctx, "fetch", "translate", "render")
		},
	}
}

func executeStages(cmdCtx *commandContext, stageNames ...string) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cmdCtx.ensureLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lock, err := pipeline.AcquireLock(cfg.Paths.DocsDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	history := openHistory(cfg, logger)
	if history != nil {
		defer history.Close()
	}

	for _, name := range stageNames {
		stage, err := buildStage(cfg, logger, name)
		if err != nil {
			return err
		}
		summary, err := runStage(ctx, cfg, logger, history, stage)
		if err != nil {
			return err
		}
		reportSummary(summary)
	}
	return nil
}

func runStage(ctx context.Context, cfg *config.Config, logger *slog.Logger, history *runlog.Store, stage pipeline.Stage) (*pipeline.Summary, error) {
	runner := &pipeline.Runner{
		Root:  cfg.Paths.DocsDir,
		Stage: stage,
		Store: state.NewStore(stateFilePath(cfg, stage.Name())),
		Executor: retry.Executor{
			MaxAttempts: cfg.Workflow.MaxAttempts,
			Timeout:     cfg.AttemptTimeout(),
			Backoff:     cfg.Backoff(),
		},
		MinFreeMB: cfg.Workflow.MinFreeMB,
		Pace:      cfg.Pace(),
		Logger:    logger,
	}
	if history != nil {
		runner.History = history
	}
	return runner.Run(ctx)
}

func buildStage(cfg *config.Config, logger *slog.Logger, name string) (pipeline.Stage, error) {
	switch name {
	case "fetch":
		return fetch.NewStage(fetch.Config{
			BaseURL:   cfg.Fetch.BaseURL,
			IndexPath: cfg.Fetch.IndexPath,
			DocsDir:   cfg.Paths.DocsDir,
			Timeout:   cfg.FetchTimeout(),
		}, logger), nil
	case "translate":
		script, err := language.ScriptFor(cfg.Translate.TargetLang)
		if err != nil {
			return nil, fmt.Errorf("resolve target script: %w", err)
		}
		client := translate.NewClient(translate.ClientConfig{
			Endpoint: cfg.Translate.Endpoint,
			Source:   cfg.Translate.SourceLang,
			Target:   cfg.Translate.TargetLang,
			Timeout:  cfg.TranslateTimeout(),
		})
		return translate.NewStage(translate.Config{
			DocsDir:     cfg.Paths.DocsDir,
			MaxChunkLen: cfg.Translate.MaxChunkLen,
			Threshold:   cfg.Translate.TranslatedThreshold,
			Script:      script,
			Pace:        cfg.Pace(),
		}, client, logger), nil
	case "render":
		return render.NewStage(render.Config{DocsDir: cfg.Paths.DocsDir}, logger), nil
	default:
		return nil, fmt.Errorf("unknown stage %q", name)
	}
}

// openHistory connects to the run history database. History is reporting
// infrastructure, so a failure here downgrades to a warning instead of
// blocking the run.
func openHistory(cfg *config.Config, logger *slog.Logger) *runlog.Store {
	if cfg.Paths.LogDir == "" {
		return nil
	}
	store, err := runlog.Open(historyPath(cfg))
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
		return nil
	}
	return store
}

func historyPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "runs.db")
}

func stateFilePath(cfg *config.Config, stageName string) string {
	return filepath.Join(cfg.Paths.DocsDir, fmt.Sprintf(".%s_state.json", stageName))
}

func reportSummary(summary *pipeline.Summary) {
	fmt.Printf("%s: %d completed, %d failed, %d synced from disk\n",
		summary.Stage, summary.Completed, len(summary.Failed), summary.Synced)
	for _, key := range summary.Failed {
		fmt.Printf("  failed: %s\n", key)
	}
}
