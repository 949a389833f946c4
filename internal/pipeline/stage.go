// Package pipeline runs one stage of work to completion: it sweeps crash
// debris, gates on disk space, reconciles the stage's universe against
// persisted state, and processes the remaining items sequentially with
// retries, persisting progress after every item.
package pipeline

import "context"

// Stage is one unit of the docs pipeline (fetch, translate, render). The
// engine is oblivious to what a stage does; it only needs the stage to
// enumerate its work and process one item at a time.
type Stage interface {
	// Name identifies the stage in logs, state files, and run history.
	Name() string
	// Universe enumerates every item the stage is responsible for, in
	// processing order. A failure here aborts the run before any item work.
	Universe(ctx context.Context) ([]string, error)
	// ArtifactExists reports whether the output for key is already on disk,
	// letting the planner fold externally produced artifacts into the
	// completed set.
	ArtifactExists(key string) bool
	// Process produces the artifact for key. Errors are classified through
	// the services taxonomy: retryable ones consume the attempt budget,
	// anything else stops the run.
	Process(ctx context.Context, key string) error
}
