package cmd

import (
	"fmt"
	"io"

	"github.com/adamancini/sus/internal/backup"
	"github.com/adamancini/sus/internal/update"
)

// Exit codes of `sus-update`.
const (
	ExitOK            = 0 // succeeded, dry run completed, or declined
	ExitFailed        = 1 // failed before or without touching the installed file
	ExitRolledBack    = 2 // installed file replaced, rejected, and restored
	ExitUnrecoverable = 3 // restore failed; installed file may be broken
)

// ExitCode maps the terminal state of an update run to a process exit code.
func ExitCode(res *update.Result) int {
	if res == nil {
		return ExitFailed
	}
	switch res.State {
	case update.StateSucceeded, update.StateCanceled:
		return ExitOK
	case update.StateRolledBack:
		return ExitRolledBack
	case update.StateFailed:
		if res.Unrecoverable {
			return ExitUnrecoverable
		}
		return ExitFailed
	default:
		return ExitFailed
	}
}

// printRestoreBanner tells the user how to recover by hand after a failed
// restore.
func printRestoreBanner(w io.Writer, res *update.Result) {
	backupPath := res.BackupPath
	if backupPath == "" {
		backupPath = backup.NewManager().SlotPath(res.InstalledPath)
	}

	_, _ = fmt.Fprintln(w, "!!!!!!!!!!  UPDATE FAILED AND THE PREVIOUS VERSION COULD NOT BE RESTORED  !!!!!!!!!!")
	_, _ = fmt.Fprintf(w, "The installed file may be broken: %s\n", res.InstalledPath)
	_, _ = fmt.Fprintf(w, "The previous version is kept in:  %s\n", backupPath)
	_, _ = fmt.Fprintln(w, "Restore it manually with:")
	_, _ = fmt.Fprintf(w, "    cp -p '%s' '%s'\n", backupPath, res.InstalledPath)
}
