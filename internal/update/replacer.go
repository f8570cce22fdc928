package update

import (
	"fmt"
	"os"

	"github.com/adamancini/sus/internal/backup"
)

// AtomicReplacer installs a candidate by writing it beside the installed file
// and renaming it into place.
type AtomicReplacer struct{}

// NewAtomicReplacer creates a new replacer.
func NewAtomicReplacer() *AtomicReplacer {
	return &AtomicReplacer{}
}

// Replace copies candidatePath over installedPath. The installed file keeps
// its permission bits and stays executable. The candidate is left in place.
func (r *AtomicReplacer) Replace(candidatePath, installedPath string) error {
	info, err := os.Stat(installedPath)
	if err != nil {
		return fmt.Errorf("failed to stat installed file: %w", err)
	}
	perm := info.Mode().Perm()
	if perm&0111 == 0 {
		perm = 0755
	}

	src, err := os.Open(candidatePath)
	if err != nil {
		return fmt.Errorf("failed to open candidate: %w", err)
	}
	defer func() { _ = src.Close() }()

	if _, err := backup.WriteAtomic(installedPath, src, perm); err != nil {
		return fmt.Errorf("failed to replace installed file: %w", err)
	}
	return nil
}
