// Package backup keeps a single-slot copy of an installed file next to it.
package backup

import (
	"fmt"
	"os"
	"time"
)

// DefaultSuffix is appended to the installed path to name the backup slot.
const DefaultSuffix = ".backup"

// Slot describes a backup that was just written.
type Slot struct {
	Path      string      `json:"path"`
	Source    string      `json:"source"`
	Size      int64       `json:"size"`
	Mode      os.FileMode `json:"mode"`
	CreatedAt time.Time   `json:"created_at"`
}

// SlotInfo provides summary information about the backup slot.
type SlotInfo struct {
	Path    string    `json:"path" yaml:"path"`
	Exists  bool      `json:"exists" yaml:"exists"`
	Size    int64     `json:"size,omitempty" yaml:"size,omitempty"`
	ModTime time.Time `json:"mod_time,omitempty" yaml:"mod_time,omitempty"`
}

func (i SlotInfo) String() string {
	if !i.Exists {
		return fmt.Sprintf("no backup at %s", i.Path)
	}
	return fmt.Sprintf("%s (%d bytes, %s)", i.Path, i.Size, i.ModTime.Format(time.RFC3339))
}

// Manager handles backup operations.
type Manager struct {
	suffix string
}

// NewManager creates a backup manager using DefaultSuffix.
func NewManager() *Manager {
	return &Manager{suffix: DefaultSuffix}
}

// SlotPath returns the backup path for installedPath.
func (m *Manager) SlotPath(installedPath string) string {
	return installedPath + m.suffix
}

// Create copies installedPath into its backup slot, replacing any prior
// backup. The copy is byte-exact and keeps the permission bits.
func (m *Manager) Create(installedPath string) (*Slot, error) {
	src, err := os.Open(installedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open installed file: %w", err)
	}
	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat installed file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("installed path is not a regular file: %s", installedPath)
	}

	slotPath := m.SlotPath(installedPath)
	n, err := WriteAtomic(slotPath, src, info.Mode().Perm())
	if err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	return &Slot{
		Path:      slotPath,
		Source:    installedPath,
		Size:      n,
		Mode:      info.Mode().Perm(),
		CreatedAt: time.Now(),
	}, nil
}

// Restore copies the backup slot back over installedPath. The slot is left
// in place.
func (m *Manager) Restore(installedPath string) error {
	slotPath := m.SlotPath(installedPath)

	src, err := os.Open(slotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup not found: %s", slotPath)
		}
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat backup: %w", err)
	}

	if _, err := WriteAtomic(installedPath, src, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to restore from backup: %w", err)
	}
	return nil
}

// Stat reports the state of the backup slot for installedPath.
func (m *Manager) Stat(installedPath string) (*SlotInfo, error) {
	slotPath := m.SlotPath(installedPath)
	info, err := os.Stat(slotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &SlotInfo{Path: slotPath}, nil
		}
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}
	return &SlotInfo{
		Path:    slotPath,
		Exists:  true,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
