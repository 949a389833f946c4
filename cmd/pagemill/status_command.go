package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pagemill/internal/config"
	"pagemill/internal/runlog"
	"pagemill/internal/state"
)

var stageNames = []string{"fetch", "translate", "render"}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var historyLimit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-stage progress and recent run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			fmt.Println(renderStageTable(cfg))
			printLastError(cfg)

			if history := openHistoryQuiet(cfg); history != nil {
				defer history.Close()
				runs, err := history.Recent(cmd.Context(), historyLimit)
				if err != nil {
					return fmt.Errorf("read run history: %w", err)
				}
				if len(runs) > 0 {
					fmt.Println()
					fmt.Println(renderRunTable(runs))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&historyLimit, "history", 10, "Number of recent runs to show")
	return cmd
}

func renderStageTable(cfg *config.Config) string {
	headers := []string{"Stage", "Completed", "Failed", "Planned", "Last touched"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(stageNames))
	for _, name := range stageNames {
		snap := state.NewStore(stateFilePath(cfg, name)).Load()
		rows = append(rows, []string{
			name,
			strconv.Itoa(len(snap.Completed)),
			strconv.Itoa(len(snap.Failed)),
			strconv.Itoa(snap.TotalPlanned),
			snap.LastTouched,
		})
	}
	return renderTable(headers, rows, aligns)
}

func printLastError(cfg *config.Config) {
	for _, name := range stageNames {
		snap := state.NewStore(stateFilePath(cfg, name)).Load()
		if snap.LastError == nil {
			continue
		}
		fmt.Printf("\n%s last error (%s): %s\n", name, snap.LastError.Item, snap.LastError.Message)
	}
}

// openHistoryQuiet is openHistory without the logger dependency; status is a
// read-only view, so a missing database just means nothing to show.
func openHistoryQuiet(cfg *config.Config) *runlog.Store {
	if cfg.Paths.LogDir == "" {
		return nil
	}
	store, err := runlog.Open(historyPath(cfg))
	if err != nil {
		return nil
	}
	return store
}

func renderRunTable(runs []runlog.Run) string {
	headers := []string{"Started", "Stage", "Outcome", "Completed", "Failed", "Synced", "Duration"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		outcome := run.Outcome
		duration := ""
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		} else if outcome == "" {
			outcome = "running"
		}
		rows = append(rows, []string{
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Stage,
			outcome,
			strconv.Itoa(run.Completed),
			strconv.Itoa(run.Failed),
			strconv.Itoa(run.Synced),
			duration,
		})
	}
	return renderTable(headers, rows, aligns)
}
