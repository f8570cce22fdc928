package update

import (
	"fmt"
	"strings"
)

// State is a step of the update state machine.
type State int

const (
	StateStart State = iota
	StateDownloading
	StateValidatingCandidate
	StateConfirming
	StateBackingUp
	StateReplacing
	StateValidatingInstalled
	StateCleaningUp
	StateSucceeded
	StateRolledBack
	StateFailed
	StateCanceled
)

var stateNames = map[State]string{
	StateStart:               "start",
	StateDownloading:         "downloading",
	StateValidatingCandidate: "validating-candidate",
	StateConfirming:          "confirming",
	StateBackingUp:           "backing-up",
	StateReplacing:           "replacing",
	StateValidatingInstalled: "validating-installed",
	StateCleaningUp:          "cleaning-up",
	StateSucceeded:           "succeeded",
	StateRolledBack:          "rolled-back",
	StateFailed:              "failed",
	StateCanceled:            "canceled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText lets json and yaml print the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateRolledBack, StateFailed, StateCanceled:
		return true
	}
	return false
}

// Result is the outcome of one update run.
type Result struct {
	State            State  `json:"state" yaml:"state"`
	DryRun           bool   `json:"dry_run" yaml:"dry_run"`
	UpdateURL        string `json:"update_url" yaml:"update_url"`
	InstalledPath    string `json:"installed_path" yaml:"installed_path"`
	CurrentVersion   string `json:"current_version" yaml:"current_version"`
	CandidateVersion string `json:"candidate_version,omitempty" yaml:"candidate_version,omitempty"`
	InstalledVersion string `json:"installed_version,omitempty" yaml:"installed_version,omitempty"`
	Relation         string `json:"relation,omitempty" yaml:"relation,omitempty"`
	BackupPath       string `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
	Error            string `json:"error,omitempty" yaml:"error,omitempty"`
	Unrecoverable    bool   `json:"unrecoverable,omitempty" yaml:"unrecoverable,omitempty"`
}

func (r *Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "state: %s", r.State)
	if r.DryRun {
		b.WriteString(" (dry run)")
	}
	fmt.Fprintf(&b, "\ninstalled: %s (%s)", r.InstalledPath, r.CurrentVersion)
	if r.CandidateVersion != "" {
		fmt.Fprintf(&b, "\ncandidate: %s (%s)", r.CandidateVersion, r.Relation)
	}
	if r.BackupPath != "" {
		fmt.Fprintf(&b, "\nbackup: %s", r.BackupPath)
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "\nerror: %s", r.Error)
	}
	return b.String()
}
