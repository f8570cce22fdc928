package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adamancini/sus/internal/invoker"
	"github.com/adamancini/sus/internal/layout"
	"github.com/adamancini/sus/internal/logging"
	"github.com/adamancini/sus/internal/payload"
	"github.com/adamancini/sus/internal/update"
)

// WrapperOptions describes the installed wrapper being run.
type WrapperOptions struct {
	ExePath   string       // resolved path of the installed file
	File      *layout.File // its parsed trailer
	Version   string       // sus build version, sent as User-Agent
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Confirmer update.Confirmer // asks before replacing; a terminal prompt when nil
}

func (o *WrapperOptions) setDefaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// SelfPath returns the path of the running executable with symlinks
// resolved, so updates replace the real file.
func SelfPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}
	return resolved, nil
}

// ExecuteWrapper runs an installed wrapper with args (without argv[0]) and
// returns the process exit code.
func ExecuteWrapper(ctx context.Context, opts WrapperOptions, args []string) int {
	opts.setDefaults()

	d := invoker.Dispatcher{
		Update: func(ctx context.Context, args []string) int {
			return runUpdateCommand(ctx, opts, args)
		},
		Payload: func(ctx context.Context, args []string) int {
			return runPayload(ctx, opts, args)
		},
	}
	return d.Dispatch(ctx, args)
}

func runPayload(ctx context.Context, opts WrapperOptions, args []string) int {
	l := logging.NewLogger(opts.Stderr)
	if os.Getenv("SUS_DEBUG") != "" {
		logging.Configure(l, logging.Flags{Verbose: true})
	}
	ctx = logging.WithLogger(ctx, l)

	r := payload.NewRunner(opts.ExePath)
	r.Stdin, r.Stdout, r.Stderr = opts.Stdin, opts.Stdout, opts.Stderr

	code, err := r.Run(ctx, opts.File.Payload, args)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "%s: %v\n", filepath.Base(opts.ExePath), err)
	}
	return code
}
