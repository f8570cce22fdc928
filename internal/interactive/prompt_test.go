package interactive

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/adamancini/sus/internal/update"
)

func TestPrompterResponses(t *testing.T) {
	tests := []struct {
		input string
		want  Response
	}{
		{"y\n", ResponseYes},
		{"YES\n", ResponseYes},
		{"n\n", ResponseNo},
		{"\n", ResponseNo},
		{"maybe\n", ResponseNo},
		{"", ResponseQuit},
	}

	for _, tt := range tests {
		output := &bytes.Buffer{}
		p := NewPrompterWithIO(strings.NewReader(tt.input), output)
		if got := p.prompt("Test prompt?"); got != tt.want {
			t.Errorf("prompt() with input %q = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(output.String(), "Test prompt? [y/N]") {
			t.Errorf("prompt output = %q", output.String())
		}
	}
}

func testPlan(relation update.Relation) update.Plan {
	return update.Plan{
		InstalledPath:    "/usr/local/bin/tool",
		CurrentVersion:   "1.0.0",
		CandidateVersion: "1.1.0",
		Relation:         relation,
	}
}

func TestConfirm(t *testing.T) {
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(strings.NewReader("y\n"), output)

	ok, err := p.Confirm(context.Background(), testPlan(update.RelationUpgrade))
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if !ok {
		t.Error("Confirm() = false, want true")
	}
	if !strings.Contains(output.String(), "Replace /usr/local/bin/tool (1.0.0) with 1.1.0 (upgrade)?") {
		t.Errorf("output = %q", output.String())
	}
	if strings.Contains(output.String(), "Warning") {
		t.Error("upgrade should not warn")
	}
}

func TestConfirmDeclined(t *testing.T) {
	p := NewPrompterWithIO(strings.NewReader("n\n"), &bytes.Buffer{})
	ok, err := p.Confirm(context.Background(), testPlan(update.RelationUpgrade))
	if err != nil || ok {
		t.Errorf("Confirm() = %v, %v, want false, nil", ok, err)
	}
}

func TestConfirmWarnings(t *testing.T) {
	tests := []struct {
		relation update.Relation
		want     string
	}{
		{update.RelationDowngrade, "older than"},
		{update.RelationUnordered, "cannot tell"},
	}
	for _, tt := range tests {
		output := &bytes.Buffer{}
		p := NewPrompterWithIO(strings.NewReader("n\n"), output)
		if _, err := p.Confirm(context.Background(), testPlan(tt.relation)); err != nil {
			t.Fatalf("Confirm() error = %v", err)
		}
		if !strings.Contains(output.String(), tt.want) {
			t.Errorf("%v: output = %q, want warning %q", tt.relation, output.String(), tt.want)
		}
	}
}

func TestConfirmNotTerminal(t *testing.T) {
	p := NewPrompterWithIO(strings.NewReader("y\n"), &bytes.Buffer{})
	p.interactive = func() bool { return false }

	ok, err := p.Confirm(context.Background(), testPlan(update.RelationUpgrade))
	if !errors.Is(err, ErrNotTerminal) {
		t.Errorf("Confirm() error = %v, want ErrNotTerminal", err)
	}
	if ok {
		t.Error("Confirm() should not approve without a terminal")
	}
}

func TestTerminalPrompterRefusesReader(t *testing.T) {
	output := &bytes.Buffer{}
	p := NewTerminalPrompter(strings.NewReader("y\n"), output)

	ok, err := p.Confirm(context.Background(), testPlan(update.RelationUpgrade))
	if !errors.Is(err, ErrNotTerminal) {
		t.Errorf("Confirm() error = %v, want ErrNotTerminal", err)
	}
	if ok {
		t.Error("Confirm() should not approve from a plain reader")
	}
	if output.Len() != 0 {
		t.Errorf("output = %q, want no prompt", output.String())
	}
}

func TestConfirmCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPrompterWithIO(strings.NewReader("y\n"), &bytes.Buffer{})
	if _, err := p.Confirm(ctx, testPlan(update.RelationUpgrade)); !errors.Is(err, context.Canceled) {
		t.Errorf("Confirm() error = %v, want context.Canceled", err)
	}
}

var _ update.Confirmer = (*Prompter)(nil)
