package probe

import (
	"context"
	"os/exec"
)

// commandRunner executes external commands and returns their combined output.
type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

// Compile-time interface verification.
var _ commandRunner = osCommandRunner{}

// osCommandRunner implements commandRunner using exec.CommandContext.
type osCommandRunner struct{}

func (osCommandRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- binary is resolved internally, args are built by this package
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}
