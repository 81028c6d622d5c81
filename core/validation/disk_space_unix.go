//go:build !windows

package validation

import (
	"syscall"
)

// getDiskSpace returns total and free bytes via statfs.
func getDiskSpace(path string) (total int64, free int64, err error) {
	var stat syscall.Statfs_t
	err = syscall.Statfs(path, &stat)
	if err != nil {
		return 0, 0, err
	}

	// Bavail rather than Bfree: space available to unprivileged users.
	return int64(stat.Blocks) * int64(stat.Bsize), int64(stat.Bavail) * int64(stat.Bsize), nil
}
