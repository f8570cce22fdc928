// Package invoker routes the arguments of an installed wrapper either to the
// update command or to the embedded payload.
package invoker

import (
	"context"

	"github.com/adamancini/sus/internal/update"
)

// Handler runs with the routed arguments and returns the process exit code.
type Handler func(ctx context.Context, args []string) int

// Dispatcher holds the two destinations of a wrapper invocation.
type Dispatcher struct {
	Update  Handler
	Payload Handler
}

// Dispatch sends args to Update when the first one is the update command,
// with that token removed. Anything else goes to Payload unchanged.
func (d Dispatcher) Dispatch(ctx context.Context, args []string) int {
	if len(args) > 0 && args[0] == update.UpdateCommand {
		return d.Update(ctx, args[1:])
	}
	return d.Payload(ctx, args)
}
