package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// TempSuffix is appended to a destination path to form the sibling file an
// in-progress atomic write targets. Crash recovery sweeps files carrying it.
const TempSuffix = ".tmp"

// TempPath returns the in-progress sibling path for an atomic write to path.
func TempPath(path string) string {
	return path + TempSuffix
}

// WriteFileAtomic writes data to path via a temporary sibling followed by an
// atomic rename. A reader never observes a partially written file: on any
// failure the temporary file is removed and the previous content of path, if
// any, is left untouched.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tmp := TempPath(path)
	if err := os.WriteFile(tmp, data, mode); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
