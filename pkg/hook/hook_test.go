package hook_test

import (
	"context"
	"os/exec"
	"testing"

	"github.com/paulschiretz/pgl-mirror/pkg/hints"
	"github.com/paulschiretz/pgl-mirror/pkg/hook"
)

// fakeCommand records every invocation and substitutes a fixed shell command.
type fakeCommand struct {
	invocations [][]string
	script      string
}

func (f *fakeCommand) commandContext(ctx context.Context, name string, arg ...string) *exec.Cmd {
	f.invocations = append(f.invocations, append([]string{name}, arg...))
	return exec.CommandContext(ctx, "sh", "-c", f.script)
}

func TestRunPreBackupExecutesAllCommands(t *testing.T) {
	fake := &fakeCommand{script: "exit 0"}
	executor := hook.NewHookExecutor(fake.commandContext)

	p := &hook.Plan{
		Enabled:           true,
		PreBackupCommands: []string{"echo one", "echo two"},
	}
	if err := executor.RunPreBackup(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.invocations) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(fake.invocations))
	}
}

func TestRunPreBackupDryRunExecutesNothing(t *testing.T) {
	fake := &fakeCommand{script: "exit 0"}
	executor := hook.NewHookExecutor(fake.commandContext)

	p := &hook.Plan{
		Enabled:           true,
		DryRun:            true,
		PreBackupCommands: []string{"rm -rf /"},
	}
	if err := executor.RunPreBackup(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.invocations) != 0 {
		t.Errorf("dry run executed %d commands", len(fake.invocations))
	}
}

func TestRunPreBackupHints(t *testing.T) {
	fake := &fakeCommand{script: "exit 0"}
	executor := hook.NewHookExecutor(fake.commandContext)

	err := executor.RunPreBackup(context.Background(), &hook.Plan{Enabled: true})
	if !hints.IsHint(err) {
		t.Errorf("empty command list should yield a hint, got %v", err)
	}

	err = executor.RunPreBackup(context.Background(), &hook.Plan{PreBackupCommands: []string{"x"}})
	if !hints.IsHint(err) {
		t.Errorf("disabled executor should yield a hint, got %v", err)
	}
}

func TestRunPostBackupFailFast(t *testing.T) {
	fake := &fakeCommand{script: "exit 1"}
	executor := hook.NewHookExecutor(fake.commandContext)

	p := &hook.Plan{
		Enabled:            true,
		FailFast:           true,
		PostBackupCommands: []string{"failing-command"},
	}
	if err := executor.RunPostBackup(context.Background(), p); err == nil {
		t.Error("expected an error with FailFast")
	}
}

func TestRunPostBackupContinuesWithoutFailFast(t *testing.T) {
	fake := &fakeCommand{script: "exit 1"}
	executor := hook.NewHookExecutor(fake.commandContext)

	p := &hook.Plan{
		Enabled:            true,
		PostBackupCommands: []string{"first", "second"},
	}
	if err := executor.RunPostBackup(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.invocations) != 2 {
		t.Errorf("expected both commands to run, got %d invocations", len(fake.invocations))
	}
}
