package validation

import (
	"fmt"
	"os"
	"path/filepath"

	"colorizer/core"
)

// DiskSpaceInfo contains information about disk space.
type DiskSpaceInfo struct {
	// Path that was checked
	Path string
	// Total disk space in bytes
	Total int64
	// Free disk space in bytes
	Free int64
}

// DiskSpaceError indicates a disk space problem.
type DiskSpaceError struct {
	Path      string
	Required  int64
	Available int64
}

func (e *DiskSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space at %s: need %s, have %s free",
		e.Path, core.FormatBytes(e.Required), core.FormatBytes(e.Available))
}

// GetDiskSpace returns disk space information for the filesystem holding
// path. A path that does not exist yet is resolved through its parents.
func GetDiskSpace(path string) (*DiskSpaceInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		parent := filepath.Dir(path)
		if os.IsNotExist(err) && parent != path {
			return GetDiskSpace(parent)
		}
		return nil, fmt.Errorf("cannot access path %s: %w", path, err)
	}
	if !info.IsDir() {
		path = filepath.Dir(path)
	}

	total, free, err := getDiskSpace(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk space for %s: %w", path, err)
	}
	return &DiskSpaceInfo{Path: path, Total: total, Free: free}, nil
}

// CheckDiskSpace verifies there is at least requiredBytes free at path.
func CheckDiskSpace(path string, requiredBytes int64) (*DiskSpaceInfo, error) {
	info, err := GetDiskSpace(path)
	if err != nil {
		return nil, err
	}
	if info.Free < requiredBytes {
		return info, &DiskSpaceError{Path: path, Required: requiredBytes, Available: info.Free}
	}
	return info, nil
}
