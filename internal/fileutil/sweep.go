package fileutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SweepTemp removes orphaned temporary files under root left behind by a
// process killed mid-write. It returns the number of files removed. The
// sweep is diagnostic, not load-bearing: unreadable directories and files
// that cannot be removed are skipped silently.
func SweepTemp(root string) int {
	removed := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), TempSuffix) {
			if os.Remove(path) == nil {
				removed++
			}
		}
		return nil
	})
	return removed
}
