package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/paulschiretz/pgl-mirror/pkg/config"
	"github.com/paulschiretz/pgl-mirror/pkg/planner"
	"github.com/paulschiretz/pgl-mirror/pkg/plog"
)

var listQuarterPattern = regexp.MustCompile(`^\d{4}q[1-4]$`)

// RunList handles the logic for the list command. It prints the backups of
// one quarter (default: the current one), newest first.
func RunList(ctx context.Context, flagMap map[string]interface{}) error {
	targetPath, ok := flagMap["target"].(string)
	if !ok || targetPath == "" {
		return fmt.Errorf("the destination is required to run list (-target flag or positional argument)")
	}

	// Load config from the target directory, or use defaults if not found.
	loadedConfig, err := config.Load(targetPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration from target: %w", err)
	}

	runConfig := config.MergeConfigWithFlags(loadedConfig, flagMap)

	// List runs don't need a source.
	if err := runConfig.Validate(false); err != nil {
		return err
	}

	plog.SetLevel(plog.LevelFromString(runConfig.LogLevel))

	// The target base needs to exist for a list run.
	if _, err := os.Stat(runConfig.TargetBase); os.IsNotExist(err) {
		return fmt.Errorf("target path '%s' does not exist", runConfig.TargetBase)
	}

	host := runConfig.HostIdentity
	if host == "" {
		host, err = os.Hostname()
		if err != nil {
			return fmt.Errorf("could not determine hostname: %w", err)
		}
	}
	hostRoot := filepath.Join(runConfig.TargetBase, "backup", host)

	quarter, _ := flagMap["quarter"].(string)
	var quarterNames []string
	switch quarter {
	case "all":
		quarterNames, err = listQuarterNames(hostRoot)
		if err != nil {
			return err
		}
	case "":
		paths := planner.Plan(time.Now(), host, runConfig.TargetBase)
		quarterNames = []string{filepath.Base(paths.QuarterPath)}
	default:
		if !listQuarterPattern.MatchString(quarter) {
			return fmt.Errorf("invalid quarter %q: expected the form <year>q<1-4>, e.g. 2026q3", quarter)
		}
		quarterNames = []string{quarter}
	}

	if len(quarterNames) == 0 {
		fmt.Printf("No backups for host %s in %s\n", host, hostRoot)
		return nil
	}

	for _, quarterName := range quarterNames {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		catalog, err := planner.ReadCatalog(filepath.Join(hostRoot, quarterName))
		if err != nil {
			return err
		}
		fmt.Printf("%s (%d backups)\n", quarterName, len(catalog))
		for _, entry := range catalog {
			fmt.Printf("  %s  last run %s\n", entry.Name, entry.ModTime.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

// listQuarterNames returns all quarter directory names under hostRoot in
// chronological order. Fixed-width names sort lexicographically.
func listQuarterNames(hostRoot string) ([]string, error) {
	entries, err := os.ReadDir(hostRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read host root %s: %w", hostRoot, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && listQuarterPattern.MatchString(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
