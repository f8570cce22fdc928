package update

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExecValidator probes a file by executing it with the version arguments.
type ExecValidator struct {
	args    []string
	timeout time.Duration
}

// NewExecValidator creates a validator running `path args...`.
func NewExecValidator(args []string, timeout time.Duration) *ExecValidator {
	if len(args) == 0 {
		args = DefaultProbeArgs
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &ExecValidator{args: args, timeout: timeout}
}

// Probe runs path and returns the first non-empty line it prints. A launch
// failure, non-zero exit, timeout or empty output is a KindValidation error.
func (v *ExecValidator) Probe(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, v.args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("no answer within %s", v.timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, summarizeBody(stderr.Bytes()))
		}
		return "", newError(KindValidation, "probe", path, err)
	}

	version := firstLine(stdout.String())
	if version == "" {
		return "", newError(KindValidation, "probe", path, errors.New("no version reported"))
	}
	return version, nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
