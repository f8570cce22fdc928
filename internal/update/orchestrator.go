package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/adamancini/sus/internal/backup"
	"github.com/adamancini/sus/internal/logging"
)

// Orchestrator runs one self-update of an installed file:
// download, validate candidate, back up, replace, validate installed, clean up.
type Orchestrator struct {
	cfg        Config
	downloader Downloader
	validator  Validator
	backups    BackupManager
	replacer   Replacer
	confirmer  Confirmer
	out        io.Writer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDownloader replaces the HTTP downloader.
func WithDownloader(d Downloader) Option {
	return func(o *Orchestrator) { o.downloader = d }
}

// WithValidator replaces the exec-based validator.
func WithValidator(v Validator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

// WithBackupManager replaces the default single-slot backup manager.
func WithBackupManager(b BackupManager) Option {
	return func(o *Orchestrator) { o.backups = b }
}

// WithReplacer replaces the atomic replacer.
func WithReplacer(r Replacer) Option {
	return func(o *Orchestrator) { o.replacer = r }
}

// WithConfirmer asks c before the installed file is touched. It is never
// consulted in dry-run or force mode.
func WithConfirmer(c Confirmer) Option {
	return func(o *Orchestrator) { o.confirmer = c }
}

// WithOutput sets where step announcements are written.
func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) { o.out = w }
}

// NewOrchestrator creates an orchestrator for cfg.
func NewOrchestrator(cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		downloader: NewHTTPDownloader(cfg.TempDir),
		validator:  NewExecValidator(cfg.ProbeArgs, cfg.ProbeTimeout),
		backups:    backup.NewManager(),
		replacer:   NewAtomicReplacer(),
		out:        io.Discard,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the update and always returns a Result in a terminal state.
// The error is nil only for StateSucceeded and StateCanceled.
//
// Cancelling ctx aborts the download and the candidate probe. Once the
// backup step starts, the run ignores cancellation and finishes.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		State:          StateStart,
		DryRun:         o.cfg.DryRun,
		UpdateURL:      o.cfg.UpdateURL,
		InstalledPath:  o.cfg.InstalledPath,
		CurrentVersion: o.cfg.CurrentVersion,
	}

	o.say("**********  Automatic update of %s starting  **********", o.cfg.InstalledPath)
	if o.cfg.DryRun {
		o.say("Dry run: every step is rehearsed, nothing on disk is modified")
	}

	o.enter(ctx, res, StateDownloading)
	o.say("Download from: %s", o.cfg.UpdateURL)
	art, err := o.downloader.Fetch(ctx, o.cfg.UpdateURL)
	if err != nil {
		if KindOf(err) == KindUnknown {
			err = newError(KindFetch, "download", o.cfg.UpdateURL, err)
		}
		return o.finish(ctx, res, StateFailed, err)
	}
	o.say("New script downloaded: %s", art.Path)

	final, err := o.apply(ctx, res, art)

	o.enter(ctx, res, StateCleaningUp)
	o.cleanup(ctx, art)

	return o.finish(ctx, res, final, err)
}

// apply runs every step between download and cleanup and returns the
// terminal state to report.
func (o *Orchestrator) apply(ctx context.Context, res *Result, art *Artifact) (State, error) {
	log := logging.FromContext(ctx)
	probeCmd := strings.Join(o.cfg.ProbeArgs, " ")

	o.enter(ctx, res, StateValidatingCandidate)
	o.say("Validate downloaded script: %s %s", art.Path, probeCmd)
	candidateVersion, err := o.validator.Probe(ctx, art.Path)
	if err != nil {
		return StateFailed, withOp(err, "validate candidate")
	}
	res.CandidateVersion = candidateVersion
	relation := CompareVersions(o.cfg.CurrentVersion, candidateVersion)
	res.Relation = relation.String()
	o.say("%s", candidateVersion)
	o.say("Candidate is a %s: %s -> %s", relation, displayVersion(o.cfg.CurrentVersion), candidateVersion)

	if !o.cfg.DryRun && !o.cfg.Force && o.confirmer != nil {
		o.enter(ctx, res, StateConfirming)
		ok, err := o.confirmer.Confirm(ctx, Plan{
			InstalledPath:    o.cfg.InstalledPath,
			CurrentVersion:   o.cfg.CurrentVersion,
			CandidateVersion: candidateVersion,
			Relation:         relation,
		})
		if err != nil {
			if KindOf(err) == KindUnknown {
				err = newError(KindInvalidInput, "confirm", "", err)
			}
			return StateFailed, err
		}
		if !ok {
			o.say("Update canceled, installed file left untouched")
			return StateCanceled, nil
		}
	}

	// From here on the run must reach a terminal state.
	ctx = context.WithoutCancel(ctx)

	o.enter(ctx, res, StateBackingUp)
	if o.cfg.DryRun {
		o.say("Create backup of %s (skipped: dry run)", o.cfg.InstalledPath)
	} else {
		slot, err := o.backups.Create(o.cfg.InstalledPath)
		if err != nil {
			return StateFailed, newError(KindBackup, "create backup of", o.cfg.InstalledPath, err)
		}
		res.BackupPath = slot.Path
		o.say("Create backup into %s", slot.Path)
	}

	o.enter(ctx, res, StateReplacing)
	if o.cfg.DryRun {
		o.say("Overwrite current file by downloaded script (skipped: dry run)")
	} else {
		o.say("Overwrite current file by downloaded script")
		if err := o.replacer.Replace(art.Path, o.cfg.InstalledPath); err != nil {
			log.Error("replace failed", "path", o.cfg.InstalledPath, "err", err)
			return o.rollback(ctx, newError(KindReplace, "replace", o.cfg.InstalledPath, err))
		}
	}

	o.enter(ctx, res, StateValidatingInstalled)
	o.say("Validate installed script: %s %s", o.cfg.InstalledPath, probeCmd)
	installedVersion, err := o.validator.Probe(ctx, o.cfg.InstalledPath)
	if err != nil {
		err = withOp(err, "validate installed")
		if o.cfg.DryRun {
			return StateFailed, err
		}
		return o.rollback(ctx, err)
	}
	res.InstalledVersion = installedVersion
	o.say("%s", installedVersion)

	return StateSucceeded, nil
}

// rollback restores the backup after a failed post-commit step.
func (o *Orchestrator) rollback(ctx context.Context, cause error) (State, error) {
	log := logging.FromContext(ctx)

	o.say("Installed script is not valid, restoring backup")
	if err := o.backups.Restore(o.cfg.InstalledPath); err != nil {
		log.Error("restore failed", "path", o.cfg.InstalledPath, "err", err)
		return StateFailed, newError(KindRestore, "restore", o.cfg.InstalledPath, errors.Join(err, cause))
	}
	o.say("Previous version restored")

	if v, err := o.validator.Probe(ctx, o.cfg.InstalledPath); err != nil {
		log.Warn("restored file does not answer the version probe", "path", o.cfg.InstalledPath, "err", err)
	} else {
		log.Debug("restored file answers the version probe", "version", v)
	}

	return StateRolledBack, cause
}

func (o *Orchestrator) cleanup(ctx context.Context, art *Artifact) {
	err := os.Remove(art.Path)
	if err != nil && !os.IsNotExist(err) {
		logging.FromContext(ctx).Warn("failed to remove downloaded candidate", "path", art.Path, "err", err)
		o.say("Clean up before exit: %v", err)
		return
	}
	o.say("Clean up before exit: %s removed", art.Path)
}

func (o *Orchestrator) finish(ctx context.Context, res *Result, final State, err error) (*Result, error) {
	o.enter(ctx, res, final)
	if err != nil {
		res.Error = err.Error()
		res.Unrecoverable = IsUnrecoverable(err)
	}

	switch final {
	case StateSucceeded:
		if o.cfg.DryRun {
			o.say("Script update succeed (dry run)")
		} else {
			o.say("Script update succeed")
		}
	case StateRolledBack:
		o.say("Script update failed and was rolled back")
	case StateFailed:
		o.say("Script update failed")
	}
	return res, err
}

func (o *Orchestrator) enter(ctx context.Context, res *Result, s State) {
	logging.FromContext(ctx).Debug("update state", "from", res.State, "to", s)
	res.State = s
}

func (o *Orchestrator) say(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(o.out, format+"\n", args...)
}

// withOp relabels the step of an *Error without changing its kind.
func withOp(err error, op string) error {
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Op: op, Path: e.Path, Err: e.Err}
	}
	return newError(KindValidation, op, "", err)
}

func displayVersion(v string) string {
	if v == "" {
		return "(unknown)"
	}
	return v
}
