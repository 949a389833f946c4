// Package plan reconciles the declared universe of work against persisted
// state and on-disk artifacts to produce the ordered work list for one run.
package plan

import "pagemill/internal/state"

// Plan is the result of reconciliation.
type Plan struct {
	// Work lists the items to process this run: previously failed items
	// first, then untouched ones, each group in universe order. Failed items
	// lead so a chronic failure shows up early instead of after everything
	// else has been attempted.
	Work []string
	// Synced counts items marked completed because their artifact already
	// existed on disk. When nonzero the caller must persist the snapshot.
	Synced int
}

// Build computes the work list for universe given the current snapshot and an
// artifact-existence predicate. Items whose artifact already exists are folded
// into the completed set without re-running the step. Keys recorded in the
// snapshot but absent from the universe are left as-is; they are dead state,
// not candidates. TotalPlanned is updated to the universe size.
func Build(universe []string, snap *state.Snapshot, exists func(string) bool) Plan {
	selected := make(map[string]struct{}, len(universe))
	var work []string

	for _, key := range universe {
		if _, failed := snap.Failed[key]; failed {
			work = append(work, key)
			selected[key] = struct{}{}
		}
	}

	synced := 0
	for _, key := range universe {
		if _, ok := selected[key]; ok {
			continue
		}
		if snap.IsCompleted(key) {
			continue
		}
		if exists != nil && exists(key) {
			snap.MarkCompleted(key)
			synced++
			continue
		}
		work = append(work, key)
	}

	snap.TotalPlanned = len(universe)
	return Plan{Work: work, Synced: synced}
}
