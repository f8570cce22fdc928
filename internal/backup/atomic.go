package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic writes r to a temporary file in dst's directory and renames it
// over dst, so dst holds either its old content or all of the new content.
// The temporary file lives beside dst because rename is only atomic within
// one filesystem.
func WriteAtomic(dst string, r io.Reader, perm os.FileMode) (_ int64, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return 0, fmt.Errorf("failed to copy content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	// CreateTemp uses 0600; chmod explicitly so umask does not interfere.
	if err := os.Chmod(tmpPath, perm); err != nil {
		return 0, fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return 0, fmt.Errorf("failed to move into place: %w", err)
	}
	renamed = true

	return n, nil
}
