// Package retry executes one fallible step for one item under a bounded
// number of attempts, a per-attempt deadline, and backoff between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"pagemill/internal/services"
)

// Status classifies how an execution concluded.
type Status int

const (
	// StatusSucceeded means an attempt returned without error.
	StatusSucceeded Status = iota
	// StatusExhausted means every attempt failed with a retryable error.
	// The run continues; the item is recorded as failed.
	StatusExhausted
	// StatusFatal means an attempt failed outside the retryable taxonomy.
	// Remaining attempts are not consumed; the run must stop.
	StatusFatal
	// StatusCanceled means the run context was canceled during execution.
	StatusCanceled
)

// String returns the lowercase label used in logs and run history.
func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusExhausted:
		return "exhausted"
	case StatusFatal:
		return "fatal"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Outcome reports the result of executing a step through the executor.
type Outcome struct {
	Status   Status
	Attempts int
	Err      error
}

// PanicError converts a panicking step into a fatal outcome so the engine can
// persist state before terminating instead of crashing mid-write.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("step panicked: %v", e.Value)
}

// Executor retries an operation with linearly increasing backoff. The zero
// value runs the operation once with no deadline.
type Executor struct {
	// MaxAttempts bounds the number of invocations. Values below 1 mean one
	// attempt.
	MaxAttempts int
	// Timeout is the per-attempt deadline. Zero disables it.
	Timeout time.Duration
	// Backoff is the base delay between attempts; attempt n sleeps n*Backoff.
	Backoff time.Duration
	// Sleep overrides the inter-attempt wait, for tests. Nil uses a real
	// context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run executes op until it succeeds, the attempt budget is exhausted, a fatal
// error occurs, or ctx is canceled. Each attempt runs on its own goroutine so
// a call that outlives its deadline is abandoned rather than joined; the
// executor never blocks past the deadline regardless of op's behavior.
func (e Executor) Run(ctx context.Context, op func(context.Context) error) Outcome {
	attempts := e.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := e.runOnce(ctx, op)
		if err == nil {
			return Outcome{Status: StatusSucceeded, Attempts: attempt}
		}
		if ctx.Err() != nil {
			return Outcome{Status: StatusCanceled, Attempts: attempt, Err: ctx.Err()}
		}
		if services.Classify(err) == services.ClassFatal {
			return Outcome{Status: StatusFatal, Attempts: attempt, Err: err}
		}
		lastErr = err
		if attempt < attempts {
			if sleepErr := e.sleep(ctx, e.Backoff*time.Duration(attempt)); sleepErr != nil {
				return Outcome{Status: StatusCanceled, Attempts: attempt, Err: sleepErr}
			}
		}
	}
	return Outcome{
		Status:   StatusExhausted,
		Attempts: attempts,
		Err:      fmt.Errorf("failed after %d attempts: %w", attempts, lastErr),
	}
}

func (e Executor) runOnce(ctx context.Context, op func(context.Context) error) error {
	attemptCtx := ctx
	cancel := context.CancelFunc(func() {})
	if e.Timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, e.Timeout)
	}
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		done <- op(attemptCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return services.Wrap(services.ErrTimeout, "", "attempt",
				fmt.Sprintf("deadline %s elapsed", e.Timeout), nil)
		}
		return attemptCtx.Err()
	}
}

func (e Executor) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep != nil {
		return e.Sleep(ctx, d)
	}
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
