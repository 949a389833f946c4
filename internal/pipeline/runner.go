package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pagemill/internal/fileutil"
	"pagemill/internal/logging"
	"pagemill/internal/plan"
	"pagemill/internal/preflight"
	"pagemill/internal/retry"
	"pagemill/internal/state"
)

var (
	// ErrInterrupted reports that the run stopped at an item boundary because
	// the context was canceled. Progress up to that point is persisted.
	ErrInterrupted = errors.New("run interrupted")
	// ErrUniverse reports that the stage could not enumerate its work. Nothing
	// was processed; the failure is recorded in the snapshot.
	ErrUniverse = errors.New("universe enumeration failed")
)

// History records run begin/finish events. runlog.Store satisfies it; a nil
// history disables recording.
type History interface {
	Begin(ctx context.Context, id, stage string) error
	Finish(ctx context.Context, id string, completed, failed, synced int, outcome string) error
}

// Summary reports what one run accomplished.
type Summary struct {
	RunID     string
	Stage     string
	Planned   int
	Completed int
	Failed    []string
	Synced    int
	Swept     int
}

// Runner drives one stage through a complete run.
type Runner struct {
	// Root is the artifact tree swept for orphaned temp files and gated on
	// free space. Usually the docs directory.
	Root      string
	Stage     Stage
	Store     *state.Store
	Executor  retry.Executor
	MinFreeMB int64
	// Pace is the delay between successive items. Zero disables pacing.
	Pace    time.Duration
	Logger  *slog.Logger
	History History
	// Sleep overrides the inter-item wait, for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run executes the stage until its universe is done, an item fails fatally,
// or ctx is canceled. Item-level failures do not abort the run; they are
// recorded and reported in the summary. The returned error is non-nil only
// when the run itself could not proceed or finish.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	log := r.Logger
	if log == nil {
		log = logging.NewNop()
	}

	summary := &Summary{RunID: uuid.NewString(), Stage: r.Stage.Name()}
	log = log.With(logging.String("run_id", summary.RunID), logging.String("stage", summary.Stage))

	summary.Swept = fileutil.SweepTemp(r.Root)
	if summary.Swept > 0 {
		log.Info("removed orphaned temp files", logging.Int("count", summary.Swept))
	}

	disk := preflight.CheckDiskSpace(r.Root, r.MinFreeMB)
	if !disk.Passed {
		return summary, fmt.Errorf("insufficient disk space: %s", disk.Detail)
	}
	if disk.Warning {
		log.Warn("disk space low", logging.String("detail", disk.Detail))
	}

	r.recordBegin(ctx, log, summary)

	snap := r.Store.Load()
	if snap.LastError != nil {
		log.Info("previous run ended with an error",
			logging.String("item", snap.LastError.Item),
			logging.String("error", snap.LastError.Message))
	}

	universe, err := r.Stage.Universe(ctx)
	if err != nil {
		snap.LastError = &state.ErrorDetail{Message: err.Error()}
		if saveErr := r.Store.Save(snap); saveErr != nil {
			log.Error("failed to persist state", logging.Error(saveErr))
		}
		r.recordFinish(ctx, log, summary, "universe_failed")
		return summary, fmt.Errorf("%w: %w", ErrUniverse, err)
	}

	built := plan.Build(universe, snap, r.Stage.ArtifactExists)
	summary.Planned = len(built.Work)
	summary.Synced = built.Synced
	if err := r.Store.Save(snap); err != nil {
		log.Error("failed to persist state", logging.Error(err))
	}
	log.Info("plan ready",
		logging.Int("universe", len(universe)),
		logging.Int("pending", len(built.Work)),
		logging.Int("synced", built.Synced),
		logging.Int("already_completed", len(snap.Completed)-built.Synced))

	for i, key := range built.Work {
		if ctx.Err() != nil {
			r.recordFinish(ctx, log, summary, "interrupted")
			return summary, ErrInterrupted
		}
		if i > 0 && r.Pace > 0 {
			if err := r.sleep(ctx, r.Pace); err != nil {
				r.recordFinish(ctx, log, summary, "interrupted")
				return summary, ErrInterrupted
			}
		}

		log.Info("processing item", logging.String("item", key), logging.Int("position", i+1), logging.Int("of", len(built.Work)))
		outcome := r.Executor.Run(ctx, func(attemptCtx context.Context) error {
			return r.Stage.Process(attemptCtx, key)
		})

		switch outcome.Status {
		case retry.StatusSucceeded:
			snap.MarkCompleted(key)
			summary.Completed++
		case retry.StatusExhausted:
			snap.MarkFailed(key, outcome.Err.Error(), "")
			summary.Failed = append(summary.Failed, key)
			log.Warn("item failed", logging.String("item", key), logging.Int("attempts", outcome.Attempts), logging.Error(outcome.Err))
		case retry.StatusFatal:
			snap.MarkFailed(key, outcome.Err.Error(), panicTrace(outcome.Err))
			summary.Failed = append(summary.Failed, key)
			if err := r.Store.Save(snap); err != nil {
				log.Error("failed to persist state", logging.Error(err))
			}
			r.recordFinish(ctx, log, summary, "fatal")
			return summary, fmt.Errorf("fatal error on %s: %w", key, outcome.Err)
		case retry.StatusCanceled:
			if err := r.Store.Save(snap); err != nil {
				log.Error("failed to persist state", logging.Error(err))
			}
			r.recordFinish(ctx, log, summary, "interrupted")
			return summary, ErrInterrupted
		}

		if err := r.Store.Save(snap); err != nil {
			log.Error("failed to persist state", logging.Error(err))
		}
	}

	r.recordFinish(ctx, log, summary, "ok")
	log.Info("run complete",
		logging.Int("completed", summary.Completed),
		logging.Int("failed", len(summary.Failed)),
		logging.Int("synced", summary.Synced))
	return summary, nil
}

func (r *Runner) recordBegin(ctx context.Context, log *slog.Logger, summary *Summary) {
	if r.History == nil {
		return
	}
	if err := r.History.Begin(ctx, summary.RunID, summary.Stage); err != nil {
		log.Warn("failed to record run start", logging.Error(err))
	}
}

// recordFinish writes the terminal history row. It uses a fresh context so an
// interrupted run still gets its outcome recorded.
func (r *Runner) recordFinish(ctx context.Context, log *slog.Logger, summary *Summary, outcome string) {
	if r.History == nil {
		return
	}
	finishCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		finishCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	err := r.History.Finish(finishCtx, summary.RunID, summary.Completed, len(summary.Failed), summary.Synced, outcome)
	if err != nil {
		log.Warn("failed to record run finish", logging.Error(err))
	}
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
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

func panicTrace(err error) string {
	var panicErr *retry.PanicError
	if errors.As(err, &panicErr) {
		return string(panicErr.Stack)
	}
	return ""
}
