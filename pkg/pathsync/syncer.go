// Package pathsync assembles the copy-engine configuration for a backup run
// and invokes the external engine (rsync). The byte-level copy work is
// entirely delegated: this package only decides the argument list and
// surfaces the engine's exit status.
package pathsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/paulschiretz/pgl-mirror/pkg/exitcode"
	"github.com/paulschiretz/pgl-mirror/pkg/plog"
)

// Syncer runs the external copy engine for a plan.
type Syncer struct {
	// commandContext allows mocking os/exec for testing.
	commandContext func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// NewSyncer creates a Syncer. Pass exec.CommandContext outside of tests.
func NewSyncer(commandContext func(ctx context.Context, name string, arg ...string) *exec.Cmd) *Syncer {
	return &Syncer{commandContext: commandContext}
}

// Sync executes the copy engine with the assembled configuration. There is
// no retry; the exit status is the sole outcome signal and is propagated
// unmodified as the process exit code. A failed or interrupted run leaves
// the partially-synced destination in place for the next invocation to
// resume against.
func (s *Syncer) Sync(ctx context.Context, p *Plan) error {
	plog.Info("Starting sync", "engine", p.RsyncPath, "destination", p.Destination, "mode", p.Mode().String())
	plog.Debug("Copy engine invocation", "command", CommandLine(p))

	cmd := s.commandContext(ctx, p.RsyncPath, Args(p)...)

	// Pipe the engine's stdout and stderr directly to ours for real-time
	// visibility; the engine additionally writes its own log file.
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	// cmd.Wait can fail because the context was canceled; report the
	// cancellation rather than the opaque kill error.
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitcode.New(exitErr.ExitCode(),
			fmt.Errorf("copy engine %s exited with code %d", p.RsyncPath, exitErr.ExitCode()))
	}
	return fmt.Errorf("copy engine %s failed to run: %w", p.RsyncPath, err)
}
