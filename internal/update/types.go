package update

import (
	"context"

	"github.com/adamancini/sus/internal/backup"
)

// Artifact is a downloaded candidate waiting to be validated.
type Artifact struct {
	Path string // temporary file holding the candidate
	URL  string // where it was fetched from
	Size int64
}

// Downloader fetches a candidate into a temporary file.
type Downloader interface {
	Fetch(ctx context.Context, url string) (*Artifact, error)
}

// Validator runs a file with the version probe and returns what it reports.
type Validator interface {
	Probe(ctx context.Context, path string) (string, error)
}

// BackupManager keeps the single backup slot of the installed file.
type BackupManager interface {
	Create(installedPath string) (*backup.Slot, error)
	Restore(installedPath string) error
}

// Replacer swaps the installed file for a validated candidate.
type Replacer interface {
	Replace(candidatePath, installedPath string) error
}

// Confirmer asks for approval before the installed file is touched.
type Confirmer interface {
	Confirm(ctx context.Context, plan Plan) (bool, error)
}

// Plan describes a validated update that is about to be applied.
type Plan struct {
	InstalledPath    string
	CurrentVersion   string
	CandidateVersion string
	Relation         Relation
}
