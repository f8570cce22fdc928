// Package interactive provides interactive prompts for user confirmation.
package interactive

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/adamancini/sus/internal/update"
)

// ErrNotTerminal is returned when confirmation is needed but stdin is not
// a terminal.
var ErrNotTerminal = errors.New("stdin is not a terminal; rerun with --force to update without confirmation")

// Response represents the user's response to a prompt.
type Response int

const (
	ResponseYes  Response = iota // proceed
	ResponseNo                   // decline
	ResponseQuit                 // no answer, input closed
)

// Prompter asks yes/no questions over a reader and writer.
type Prompter struct {
	out         io.Writer
	scanner     *bufio.Scanner
	interactive func() bool
}

// NewPrompter creates a prompter with stdin/stdout.
func NewPrompter() *Prompter {
	return NewTerminalPrompter(os.Stdin, os.Stdout)
}

// NewTerminalPrompter creates a prompter over in and out that refuses to
// ask unless in is a terminal.
func NewTerminalPrompter(in io.Reader, out io.Writer) *Prompter {
	p := NewPrompterWithIO(in, out)
	p.interactive = func() bool { return isTerminal(in) }
	return p
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
// It never refuses for lack of a terminal.
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		out:         out,
		scanner:     bufio.NewScanner(in),
		interactive: func() bool { return true },
	}
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return isTerminal(os.Stdin)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// prompt displays a question and reads the response. Anything but an
// explicit yes is a no.
func (p *Prompter) prompt(format string, args ...interface{}) Response {
	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/N] ")

	if !p.scanner.Scan() {
		_, _ = fmt.Fprintln(p.out)
		return ResponseQuit
	}

	switch strings.ToLower(strings.TrimSpace(p.scanner.Text())) {
	case "y", "yes":
		return ResponseYes
	default:
		return ResponseNo
	}
}

// Confirm asks whether the validated candidate in plan may replace the
// installed file. Downgrades and unordered versions get an extra warning.
func (p *Prompter) Confirm(ctx context.Context, plan update.Plan) (bool, error) {
	if !p.interactive() {
		return false, ErrNotTerminal
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	current := plan.CurrentVersion
	if current == "" {
		current = "unknown version"
	}

	switch plan.Relation {
	case update.RelationDowngrade:
		_, _ = fmt.Fprintf(p.out, "Warning: %s is older than the installed %s\n", plan.CandidateVersion, current)
	case update.RelationUnordered:
		_, _ = fmt.Fprintf(p.out, "Warning: cannot tell whether %s is newer than %s\n", plan.CandidateVersion, current)
	}

	resp := p.prompt("Replace %s (%s) with %s (%s)?", plan.InstalledPath, current, plan.CandidateVersion, plan.Relation)
	return resp == ResponseYes, nil
}
