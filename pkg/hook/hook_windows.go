//go:build windows

package hook

import (
	"context"
	"os/exec"
)

// createCommand creates an exec.Cmd for a hook on Windows.
func (e *HookExecutor) createCommand(ctx context.Context, command string) *exec.Cmd {
	return e.commandContext(ctx, "cmd", "/C", command)
}
