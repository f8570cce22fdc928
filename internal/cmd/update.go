package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamancini/sus/internal/backup"
	"github.com/adamancini/sus/internal/config"
	"github.com/adamancini/sus/internal/interactive"
	"github.com/adamancini/sus/internal/logging"
	"github.com/adamancini/sus/internal/output"
	"github.com/adamancini/sus/internal/update"
)

type updateFlags struct {
	showVersion  bool
	getURL       bool
	backupInfo   bool
	updateURL    string
	dryRun       bool
	force        bool
	outputFormat string
	configPath   string
	verbose      bool
	quiet        bool
}

func newUpdateCmd(opts WrapperOptions, code *int) *cobra.Command {
	var f updateFlags
	name := filepath.Base(opts.ExePath)

	cmd := &cobra.Command{
		Use:   update.UpdateCommand,
		Short: "Update this script from its update URL",
		Long: fmt.Sprintf(`Replace %[1]s with the version published at its update URL.

The new version is downloaded to a temporary file and asked for its version
with '%[2]s --version'. Only if that works is the installed file backed up
to %[1]s.backup and replaced. The replaced file is asked again; if it does
not answer, the backup is restored.

Any arguments not starting with '%[2]s' are passed to the embedded script.

Exit codes:
  0  updated, dry run completed, or declined
  1  failed, installed file untouched
  2  failed after replacing, previous version restored
  3  failed and the previous version could not be restored`, name, update.UpdateCommand),
		Example: fmt.Sprintf(`  %[1]s %[2]s --dry-run
  %[1]s %[2]s --update-url https://example.com/%[1]s --force
  %[1]s %[2]s --get-url`, name, update.UpdateCommand),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*code = runUpdate(cmd.Context(), opts, f)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&f.showVersion, "version", "v", false, "Print the embedded version and exit")
	cmd.Flags().BoolVar(&f.getURL, "get-url", false, "Print the embedded update URL and exit")
	cmd.Flags().BoolVar(&f.backupInfo, "backup-info", false, "Show the backup slot of this script and exit")
	cmd.Flags().StringVar(&f.updateURL, "update-url", "", "Download from this URL instead of the embedded one")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Download and validate, but do not modify anything")
	cmd.Flags().BoolVar(&f.force, "force", false, "Update without asking for confirmation")
	cmd.Flags().StringVarP(&f.outputFormat, "output", "o", "text", "Result format: text, json, yaml")
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to settings file")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "Verbose diagnostics on stderr")
	cmd.Flags().BoolVar(&f.quiet, "quiet", false, "Only report errors on stderr")

	_ = cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return output.Formats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runUpdateCommand parses args for the update command and runs it.
func runUpdateCommand(ctx context.Context, opts WrapperOptions, args []string) int {
	code := ExitOK
	cmd := newUpdateCmd(opts, &code)
	cmd.SetArgs(args)
	cmd.SetIn(opts.Stdin)
	cmd.SetOut(opts.Stdout)
	cmd.SetErr(opts.Stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "Error: %v\n", err)
		_, _ = fmt.Fprintf(opts.Stderr, "Run '%s %s --help' for usage.\n", filepath.Base(opts.ExePath), update.UpdateCommand)
		return ExitFailed
	}
	return code
}

func runUpdate(ctx context.Context, opts WrapperOptions, f updateFlags) int {
	l := logging.NewLogger(opts.Stderr)
	logging.Configure(l, logging.Flags{
		Verbose: f.verbose,
		Quiet:   f.quiet,
		NoColor: os.Getenv("NO_COLOR") != "",
	})
	ctx = logging.WithLogger(ctx, l)
	meta := opts.File.Metadata

	switch {
	case f.showVersion:
		_, _ = fmt.Fprintln(opts.Stdout, meta.Version)
		return ExitOK
	case f.getURL:
		_, _ = fmt.Fprintln(opts.Stdout, meta.UpdateURL)
		return ExitOK
	}

	format, err := output.ParseFormat(f.outputFormat)
	if err != nil {
		return fail(opts.Stderr, err)
	}
	w := output.NewWriter(opts.Stdout, format)

	if f.backupInfo {
		info, err := backup.NewManager().Stat(opts.ExePath)
		if err != nil {
			return fail(opts.Stderr, err)
		}
		if err := w.Write(info); err != nil {
			return fail(opts.Stderr, err)
		}
		return ExitOK
	}

	s, path, err := config.FindAndLoad(f.configPath)
	if err != nil {
		return fail(opts.Stderr, err)
	}
	if path != "" {
		l.Debug("loaded settings", "path", path)
	}

	cfg, err := update.ResolveConfig(meta, update.Overrides{
		UpdateURL:     f.updateURL,
		InstalledPath: opts.ExePath,
		DryRun:        f.dryRun,
		Force:         f.force,
		TempDir:       s.Update.TempDir,
		ProbeTimeout:  time.Duration(s.Update.ProbeTimeout),
	})
	if err != nil {
		return fail(opts.Stderr, err)
	}
	if w.Structured() && !cfg.DryRun && !cfg.Force {
		return fail(opts.Stderr, fmt.Errorf("--output %s requires --force or --dry-run to avoid interactive prompts", format))
	}

	// Keep stdout parseable when a structured report is requested.
	announce := opts.Stdout
	if w.Structured() {
		announce = opts.Stderr
	}

	downloader := update.NewHTTPDownloader(cfg.TempDir).WithUserAgent("sus/" + opts.Version)
	if s.Update.HTTPTimeout > 0 {
		downloader = downloader.WithClient(&http.Client{Timeout: time.Duration(s.Update.HTTPTimeout)})
	}

	confirmer := opts.Confirmer
	if confirmer == nil {
		confirmer = interactive.NewTerminalPrompter(opts.Stdin, opts.Stdout)
	}

	orch := update.NewOrchestrator(cfg,
		update.WithDownloader(downloader),
		update.WithConfirmer(confirmer),
		update.WithOutput(announce),
	)
	res, runErr := orch.Run(ctx)

	if update.IsUnrecoverable(runErr) {
		printRestoreBanner(opts.Stderr, res)
	}
	if runErr != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "Error: %v\n", runErr)
	}
	if w.Structured() {
		if err := w.Write(res); err != nil {
			l.Error("failed to write result", "err", err)
		}
	}

	return ExitCode(res)
}

func fail(w io.Writer, err error) int {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return ExitFailed
}
