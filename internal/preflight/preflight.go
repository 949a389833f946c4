// Package preflight runs admission checks before a pipeline run starts.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Result captures a single check outcome.
type Result struct {
	Name    string
	Passed  bool
	Warning bool
	Detail  string
}

// CheckDiskSpace gates a run on available disk space under path. Free space
// below minFreeMB fails the check; below twice the minimum it passes with a
// warning. An unreadable filesystem passes: the check is an admission gate,
// not a guarantee, and refusing to run because statfs failed would be worse
// than proceeding.
func CheckDiskSpace(path string, minFreeMB int64) Result {
	const name = "Disk space"
	if minFreeMB <= 0 {
		return Result{Name: name, Passed: true, Detail: "check disabled"}
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Passed: true, Warning: true, Detail: fmt.Sprintf("unable to check free space: %v", err)}
	}

	freeMB := int64(stat.Bavail) * stat.Bsize / (1 << 20)
	switch {
	case freeMB < minFreeMB:
		return Result{Name: name, Detail: fmt.Sprintf("%d MB free, need at least %d MB", freeMB, minFreeMB)}
	case freeMB < 2*minFreeMB:
		return Result{Name: name, Passed: true, Warning: true, Detail: fmt.Sprintf("%d MB free, recommended at least %d MB", freeMB, 2*minFreeMB)}
	default:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d MB free", freeMB)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable and
// writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
