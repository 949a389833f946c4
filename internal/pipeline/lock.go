package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".pagemill.lock"

// Lock is an exclusive advisory lock preventing concurrent runs against the
// same docs tree.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the per-tree lock under root without blocking. It fails
// immediately when another process holds it; two engines writing the same
// state file would corrupt progress tracking.
func AcquireLock(root string) (*Lock, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	fl := flock.New(filepath.Join(root, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another pagemill process is already running against %s", root)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. Safe to call on a nil lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
