// Package hook runs user-configured shell commands around the backup.
// Pre-backup hooks can quiesce applications before the mirror is taken;
// post-backup hooks run even when the sync failed.
package hook

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/paulschiretz/pgl-mirror/pkg/hints"
	"github.com/paulschiretz/pgl-mirror/pkg/plog"
)

var ErrNothingToExecute = hints.New("nothing to execute")
var ErrDisabled = hints.New("hook execution is disabled")

type HookExecutor struct {
	// commandContext allows mocking os/exec for testing hooks.
	commandContext func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// NewHookExecutor creates a new HookExecutor. Pass exec.CommandContext
// outside of tests.
func NewHookExecutor(commandContext func(ctx context.Context, name string, arg ...string) *exec.Cmd) *HookExecutor {
	return &HookExecutor{
		commandContext: commandContext,
	}
}

// RunPreBackup executes the pre-backup commands of a plan.
func (e *HookExecutor) RunPreBackup(ctx context.Context, p *Plan) error {
	return e.run(ctx, "pre-backup", p.PreBackupCommands, p)
}

// RunPostBackup executes the post-backup commands of a plan.
func (e *HookExecutor) RunPostBackup(ctx context.Context, p *Plan) error {
	return e.run(ctx, "post-backup", p.PostBackupCommands, p)
}

func (e *HookExecutor) run(ctx context.Context, stage string, commands []string, p *Plan) error {
	if !p.Enabled {
		return ErrDisabled
	}
	if len(commands) == 0 {
		return ErrNothingToExecute
	}

	plog.Info(fmt.Sprintf("Running %s hook commands", stage))

	for _, command := range commands {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if p.DryRun {
			plog.Info("[DRY RUN] Executing command", "command", command)
			continue
		}
		plog.Info("Executing command", "command", command)

		cmd := e.createCommand(ctx, command)

		// Pipe output to our logger for visibility
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			// Check if the context was canceled, which can cause cmd.Wait()
			// to return an error. If so, return the context's error to be
			// more specific.
			if ctx.Err() == context.Canceled {
				return context.Canceled
			}
			if p.FailFast {
				return fmt.Errorf("command '%s' failed: %w", command, err)
			}
			plog.Warn("Hook command failed", "command", command, "error", err)
		}
	}
	return nil
}
