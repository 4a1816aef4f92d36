package command

import (
	"context"
	"os/exec"
)

// Executor is the seam between the SafeBuilder and os/exec. Tests inject
// their own implementation to redirect built commands at fixtures.
type Executor interface {
	// CommandContext creates a context-aware exec.Cmd for name and args.
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor backs production builds with the standard os/exec package.
type RealExecutor struct{}

func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
