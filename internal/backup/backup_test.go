package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_SlotPath(t *testing.T) {
	manager := NewManager()

	got := manager.SlotPath("/usr/local/bin/tool")
	if got != "/usr/local/bin/tool.backup" {
		t.Errorf("SlotPath() = %s, want /usr/local/bin/tool.backup", got)
	}

	custom := &Manager{suffix: ".bak"}
	if got := custom.SlotPath("/x/tool"); got != "/x/tool.bak" {
		t.Errorf("SlotPath() = %s, want /x/tool.bak", got)
	}
}

func TestManager_Create(t *testing.T) {
	tmpDir := t.TempDir()
	installed := filepath.Join(tmpDir, "tool")
	content := []byte("#!/bin/sh\necho 1.0.0\n")

	if err := os.WriteFile(installed, content, 0755); err != nil {
		t.Fatalf("Failed to create installed file: %v", err)
	}

	manager := NewManager()
	slot, err := manager.Create(installed)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if slot.Path != installed+".backup" {
		t.Errorf("Create() Path = %s, want %s", slot.Path, installed+".backup")
	}
	if slot.Size != int64(len(content)) {
		t.Errorf("Create() Size = %d, want %d", slot.Size, len(content))
	}

	backupContent, err := os.ReadFile(slot.Path)
	if err != nil {
		t.Fatalf("Failed to read backup: %v", err)
	}
	if string(backupContent) != string(content) {
		t.Errorf("Backup content mismatch: got %s, want %s", backupContent, content)
	}

	info, err := os.Stat(slot.Path)
	if err != nil {
		t.Fatalf("Failed to stat backup: %v", err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("Backup permissions = %o, want 0755", info.Mode().Perm())
	}
}

func TestManager_CreateOverwritesPriorBackup(t *testing.T) {
	tmpDir := t.TempDir()
	installed := filepath.Join(tmpDir, "tool")

	if err := os.WriteFile(installed, []byte("first"), 0755); err != nil {
		t.Fatalf("Failed to create installed file: %v", err)
	}
	manager := NewManager()
	if _, err := manager.Create(installed); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := os.WriteFile(installed, []byte("second"), 0755); err != nil {
		t.Fatalf("Failed to update installed file: %v", err)
	}
	slot, err := manager.Create(installed)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := os.ReadFile(slot.Path)
	if err != nil {
		t.Fatalf("Failed to read backup: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Backup content = %s, want second", got)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 2 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir entries = %v, want installed file and one backup", names)
	}
}

func TestManager_Create_FileNotFound(t *testing.T) {
	manager := NewManager()
	_, err := manager.Create(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestManager_Create_Directory(t *testing.T) {
	manager := NewManager()
	_, err := manager.Create(t.TempDir())
	if err == nil {
		t.Error("Expected error for directory")
	}
}

func TestManager_Restore(t *testing.T) {
	tmpDir := t.TempDir()
	installed := filepath.Join(tmpDir, "tool")
	original := []byte("#!/bin/sh\necho 1.0.0\n")

	if err := os.WriteFile(installed, original, 0750); err != nil {
		t.Fatalf("Failed to create installed file: %v", err)
	}

	manager := NewManager()
	if _, err := manager.Create(installed); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Simulate a broken update
	if err := os.WriteFile(installed, []byte("#!/bin/sh\nexit 1\n"), 0644); err != nil {
		t.Fatalf("Failed to write broken file: %v", err)
	}

	if err := manager.Restore(installed); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	restored, err := os.ReadFile(installed)
	if err != nil {
		t.Fatalf("Failed to read restored file: %v", err)
	}
	if string(restored) != string(original) {
		t.Errorf("Restored content = %s, want %s", restored, original)
	}

	info, err := os.Stat(installed)
	if err != nil {
		t.Fatalf("Failed to stat restored file: %v", err)
	}
	if info.Mode().Perm() != 0750 {
		t.Errorf("Restored permissions = %o, want 0750", info.Mode().Perm())
	}

	// The slot survives a restore.
	if _, err := os.Stat(manager.SlotPath(installed)); err != nil {
		t.Errorf("Backup should remain after restore: %v", err)
	}
}

func TestManager_Restore_NoBackup(t *testing.T) {
	manager := NewManager()
	err := manager.Restore(filepath.Join(t.TempDir(), "tool"))
	if err == nil {
		t.Fatal("Expected error when backup doesn't exist")
	}
	if !strings.Contains(err.Error(), "backup not found") {
		t.Errorf("error = %v, want backup not found", err)
	}
}

func TestManager_Stat(t *testing.T) {
	tmpDir := t.TempDir()
	installed := filepath.Join(tmpDir, "tool")
	manager := NewManager()

	info, err := manager.Stat(installed)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Exists {
		t.Error("Stat() Exists = true before any backup")
	}

	if err := os.WriteFile(installed, []byte("abc"), 0755); err != nil {
		t.Fatalf("Failed to create installed file: %v", err)
	}
	if _, err := manager.Create(installed); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	info, err = manager.Stat(installed)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.Exists {
		t.Error("Stat() Exists = false after backup")
	}
	if info.Size != 3 {
		t.Errorf("Stat() Size = %d, want 3", info.Size)
	}
}

func TestWriteAtomic_NoLeftovers(t *testing.T) {
	tmpDir := t.TempDir()
	dst := filepath.Join(tmpDir, "out")

	if _, err := WriteAtomic(dst, strings.NewReader("content"), 0755); err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "out" {
		t.Errorf("dir holds %d entries, want only the destination", len(entries))
	}
}

func TestWriteAtomic_MissingDir(t *testing.T) {
	_, err := WriteAtomic("/path/that/does/not/exist/out", strings.NewReader("x"), 0644)
	if err == nil {
		t.Error("Expected error for missing directory")
	}
}
