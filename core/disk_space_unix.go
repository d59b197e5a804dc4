//go:build !windows

package core

import "syscall"

// freeDiskSpace returns available bytes for the filesystem containing path.
// Unix implementation using syscall.Statfs. Bavail is used instead of Bfree
// to report space available to unprivileged users.
func freeDiskSpace(path string) (int64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
