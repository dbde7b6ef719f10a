package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulschiretz/pgl-mirror/pkg/buildinfo"
	"github.com/paulschiretz/pgl-mirror/pkg/config"
	"github.com/paulschiretz/pgl-mirror/pkg/plog"
	"github.com/paulschiretz/pgl-mirror/pkg/util"
)

// RunInit handles the logic for the init command. It writes a config file
// into the target base directory so subsequent backup runs only need the
// destination on the command line.
func RunInit(ctx context.Context, flagMap map[string]interface{}) error {
	targetPath, ok := flagMap["target"].(string)
	if !ok || targetPath == "" {
		return fmt.Errorf("the destination is required for the init operation (-target flag or positional argument)")
	}
	if source, ok := flagMap["source"].(string); !ok || source == "" {
		return fmt.Errorf("the -source flag is required for the init operation")
	}

	// Start from defaults; init never reads an existing config file.
	runConfig := config.MergeConfigWithFlags(config.NewDefault(), flagMap)

	// The source doesn't have to exist yet when initializing a destination.
	if err := runConfig.Validate(false); err != nil {
		return err
	}

	plog.SetLevel(plog.LevelFromString(runConfig.LogLevel))

	configPath := filepath.Join(runConfig.TargetBase, config.ConfigFileName)
	force, _ := flagMap["force"].(bool)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use -force to overwrite)", configPath)
	}

	if runConfig.Runtime.DryRun {
		plog.Info("[DRY RUN] Would write config file", "path", configPath)
		return nil
	}

	if err := os.MkdirAll(runConfig.TargetBase, util.UserWritableDirPerms); err != nil {
		return fmt.Errorf("could not create target base %s: %w", runConfig.TargetBase, err)
	}
	if err := config.Generate(runConfig); err != nil {
		return err
	}
	plog.Info(buildinfo.Name + " destination successfully initialized.")
	return nil
}
