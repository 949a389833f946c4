package state

import (
	"encoding/json"
	"fmt"

	"os"

	"pagemill/internal/fileutil"
)

// Store persists snapshots at a fixed path.
type Store struct {
	path string
}

// NewStore returns a store bound to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (st *Store) Path() string {
	return st.path
}

// Load reads the snapshot from disk. A missing, unreadable, or structurally
// invalid file yields an empty snapshot rather than an error: restarting
// progress tracking from scratch is preferred over a stuck run. The caller is
// expected to log that tradeoff when it happens.
func (st *Store) Load() *Snapshot {
	data, err := os.ReadFile(st.path)
	if err != nil {
		return NewSnapshot()
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return NewSnapshot()
	}
	snap.normalize()
	return &snap
}

// Save serializes the snapshot and writes it atomically. Persistence errors
// are surfaced: silently losing the snapshot would defeat resumability.
func (st *Store) Save(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := fileutil.WriteFileAtomic(st.path, data, 0o644); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}
