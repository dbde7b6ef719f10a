package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/paulschiretz/pgl-mirror/pkg/buildinfo"
	"github.com/paulschiretz/pgl-mirror/pkg/config"
	"github.com/paulschiretz/pgl-mirror/pkg/engine"
	"github.com/paulschiretz/pgl-mirror/pkg/hook"
	"github.com/paulschiretz/pgl-mirror/pkg/logpack"
	"github.com/paulschiretz/pgl-mirror/pkg/pathsync"
	"github.com/paulschiretz/pgl-mirror/pkg/plog"
)

// RunBackup handles the logic for the backup command.
func RunBackup(ctx context.Context, flagMap map[string]interface{}) error {
	// For backup, the target is mandatory.
	targetPath, ok := flagMap["target"].(string)
	if !ok || targetPath == "" {
		return fmt.Errorf("the destination is required to run a backup (-target flag or positional argument)")
	}

	// Load config from the target directory, or use defaults if not found.
	loadedConfig, err := config.Load(targetPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration from target: %w", err)
	}

	// Merge the flag values over the loaded config to get the final run config.
	runConfig := config.MergeConfigWithFlags(loadedConfig, flagMap)

	// CRITICAL: Validate the config for the run
	if err := runConfig.Validate(true); err != nil {
		return err
	}

	// Set the global log level based on the final configuration.
	plog.SetLevel(plog.LevelFromString(runConfig.LogLevel))

	// Log the Summary
	runConfig.LogSummary()

	// Validate guaranteed the format parses when packing is enabled.
	packFormat := logpack.None
	if runConfig.LogPack.Enabled {
		packFormat, err = logpack.ParseFormat(runConfig.LogPack.Format)
		if err != nil {
			return err
		}
	}

	// Create the runner and feed it with our leaf workers
	runner := engine.NewRunner(
		pathsync.NewSyncer(exec.CommandContext),
		hook.NewHookExecutor(exec.CommandContext),
		logpack.NewPacker(packFormat, runConfig.LogPack.Workers),
	)
	runner.Confirm = confirmPlan

	// Execute the run
	startTime := time.Now()
	err = runner.ExecuteBackup(ctx, runConfig)
	duration := time.Since(startTime).Round(time.Millisecond)
	if err != nil {
		return err // The error will be logged with full details by main()
	}
	plog.Info(buildinfo.Name+" finished successfully.", "duration", duration)
	return nil
}

// confirmPlan prints the resolved plan and asks on stdin whether to proceed.
// Anything that does not start with 'n' counts as a yes, so a plain Enter
// proceeds.
func confirmPlan(p *pathsync.Plan) bool {
	fmt.Printf("\nAbout to run a %s backup:\n", p.Mode())
	fmt.Printf("  source:      %s\n", p.Source)
	fmt.Printf("  destination: %s\n", p.Destination)
	if p.LinkDestPath != "" {
		fmt.Printf("  link-dest:   %s\n", p.LinkDestPath)
	}
	fmt.Printf("  command:     %s\n", pathsync.CommandLine(p))
	fmt.Print("\nProceed? [Y/n] ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return !strings.HasPrefix(answer, "n")
}
