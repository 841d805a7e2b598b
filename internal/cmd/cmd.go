package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// DefaultTimeout bounds external tool calls (sc, powercfg) when the caller's
// context carries no deadline of its own.
const DefaultTimeout = 60 * time.Second

// Runner executes an external program and returns its combined output.
// Packages that shell out accept a Runner so tests can substitute canned output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Hidden creates an exec.Cmd that does not flash a console window when
// started from a windowless process.
func Hidden(name string, args ...string) *exec.Cmd {
	c := exec.Command(name, args...)
	hideWindow(c)
	return c
}

// HiddenContext is Hidden bound to ctx; the process is killed when ctx is done.
func HiddenContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	c := exec.CommandContext(ctx, name, args...)
	hideWindow(c)
	return c
}

// Output runs name with args and returns combined stdout and stderr.
// A non-zero exit status is returned as an error that still carries the output.
func Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	out, err := HiddenContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return out, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return out, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}
