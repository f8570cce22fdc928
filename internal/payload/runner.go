package payload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/adamancini/sus/internal/logging"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Runner executes a payload with the wrapper's arguments and stdio.
type Runner struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Name    string // script name used in parse errors, usually the installed path
	TempDir string // where non-shell payloads are written; os.TempDir() if empty
}

// NewRunner creates a runner wired to the process stdio.
func NewRunner(name string) *Runner {
	return &Runner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Name:   name,
	}
}

// Run executes script with args and returns its exit status. The error is
// non-nil only when the payload could not be started at all.
func (r *Runner) Run(ctx context.Context, script []byte, args []string) (int, error) {
	shebang := ParseShebang(script)
	if lang, ok := shebang.Dialect(); ok {
		if opts, ok := shebang.ShellOptions(); ok {
			logging.FromContext(ctx).Debug("running payload in-process", "interpreter", shebang.Interpreter, "options", opts, "args", len(args))
			return r.runShell(ctx, script, lang, opts, args)
		}
	}
	logging.FromContext(ctx).Debug("running payload as executable", "interpreter", shebang.Interpreter, "args", len(args))
	return r.runExecutable(ctx, script, args)
}

func (r *Runner) runShell(ctx context.Context, script []byte, lang syntax.LangVariant, opts, args []string) (int, error) {
	prog, err := syntax.NewParser(syntax.Variant(lang)).Parse(bytes.NewReader(script), r.name())
	if err != nil {
		return 1, fmt.Errorf("failed to parse payload: %w", err)
	}

	dir, err := os.Getwd()
	if err != nil {
		return 1, fmt.Errorf("failed to get working directory: %w", err)
	}

	// Interpreter options from the shebang come first; "--" stops args such
	// as "-v" from being taken as shell options.
	params := make([]string, 0, len(opts)+1+len(args))
	params = append(params, opts...)
	params = append(params, "--")
	params = append(params, args...)
	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(r.Stdin, r.Stdout, r.Stderr),
		interp.Params(params...),
	)
	if err != nil {
		return 1, fmt.Errorf("failed to create interpreter: %w", err)
	}

	err = runner.Run(ctx, prog)
	if err == nil {
		return 0, nil
	}
	var status interp.ExitStatus
	if errors.As(err, &status) {
		return int(status), nil
	}
	return 1, fmt.Errorf("payload execution failed: %w", err)
}

func (r *Runner) runExecutable(ctx context.Context, script []byte, args []string) (int, error) {
	tmp, err := os.CreateTemp(r.TempDir, "sus-payload-*")
	if err != nil {
		return 1, fmt.Errorf("failed to create temp payload file: %w", err)
	}
	path := tmp.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := tmp.Write(script); err != nil {
		_ = tmp.Close()
		return 1, fmt.Errorf("failed to write temp payload: %w", err)
	}
	if err := tmp.Chmod(0700); err != nil {
		_ = tmp.Close()
		return 1, fmt.Errorf("failed to chmod temp payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 1, fmt.Errorf("failed to close temp payload: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	err = cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		return 1, nil // killed by a signal
	}
	return 1, fmt.Errorf("failed to run payload: %w", err)
}

func (r *Runner) name() string {
	if r.Name == "" {
		return "payload"
	}
	return r.Name
}
