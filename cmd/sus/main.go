package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/adamancini/sus/internal/cmd"
	"github.com/adamancini/sus/internal/layout"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

// run acts as an installed wrapper when this executable carries embedded
// content, and as the builder CLI otherwise.
func run(ctx context.Context) int {
	if exe, err := cmd.SelfPath(); err == nil {
		file, err := layout.ReadFile(exe)
		switch {
		case err == nil:
			return cmd.ExecuteWrapper(ctx, cmd.WrapperOptions{
				ExePath: exe,
				File:    file,
				Version: version,
			}, os.Args[1:])
		case errors.Is(err, layout.ErrMalformed):
			fmt.Fprintf(os.Stderr, "%s: %v\n", exe, err)
			return cmd.ExitFailed
		}
	}

	if err := cmd.Execute(ctx, version, commit, date); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
