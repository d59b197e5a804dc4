package core

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiskSpaceError indicates insufficient disk space for an operation.
type DiskSpaceError struct {
	// Path that was checked
	Path string
	// Required space in bytes
	Required int64
	// Available space in bytes
	Available int64
}

func (e *DiskSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space at %s: need %s, have %s free",
		e.Path, FormatBytes(e.Required), FormatBytes(e.Available))
}

// FreeDiskSpace returns the number of bytes available to unprivileged users
// on the filesystem containing path. If the path does not exist, the nearest
// existing parent directory is checked instead.
func FreeDiskSpace(path string) (int64, error) {
	for {
		if _, err := os.Stat(path); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return 0, fmt.Errorf("cannot access path %s: %w", path, err)
		}
		parent := filepath.Dir(path)
		if parent == path {
			return 0, fmt.Errorf("cannot access path %s: no existing parent", path)
		}
		path = parent
	}

	free, err := freeDiskSpace(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get disk space for %s: %w", path, err)
	}
	return free, nil
}

// CheckDiskSpace verifies there is sufficient free space at the given path,
// with bufferPercent extra headroom (e.g. 10 for a 10% buffer).
// Returns nil if there is enough space, or a *DiskSpaceError if not.
func CheckDiskSpace(path string, requiredBytes int64, bufferPercent int) error {
	if requiredBytes <= 0 {
		return nil
	}
	if bufferPercent < 0 {
		bufferPercent = 0
	}

	free, err := FreeDiskSpace(path)
	if err != nil {
		return err
	}

	needed := requiredBytes + requiredBytes*int64(bufferPercent)/100
	if free < needed {
		return &DiskSpaceError{
			Path:      path,
			Required:  needed,
			Available: free,
		}
	}
	return nil
}
