package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulschiretz/pgl-mirror/pkg/buildinfo"
	"github.com/paulschiretz/pgl-mirror/pkg/logpack"
	"github.com/paulschiretz/pgl-mirror/pkg/plog"
	"github.com/paulschiretz/pgl-mirror/pkg/util"
)

// ConfigFileName is the name of the configuration file, stored in the
// target base directory.
const ConfigFileName = "pgl-mirror.config.json"

// systemExcludeDirPatterns is a slice of directory patterns that is always
// excluded from synchronization regardless of mode. Cache and thumbnail
// trees are regenerated by their applications and only bloat the mirror.
var systemExcludeDirPatterns = []string{".cache", ".thumbnails"}

// systemExcludeFilePatterns is a slice of file patterns that is always
// excluded so the tool's own state never ends up inside a mirror.
var systemExcludeFilePatterns = []string{ConfigFileName}

type SyncConfig struct {
	// RsyncPath is the copy-engine binary to invoke.
	RsyncPath string `json:"rsyncPath"`

	DefaultExcludeFiles []string `json:"defaultExcludeFiles,omitempty"`
	DefaultExcludeDirs  []string `json:"defaultExcludeDirs,omitempty"`
	// Note: omitempty is intentionally not used for user-configurable slices
	// so that they appear in the generated config file for better discoverability.
	UserExcludeFiles []string `json:"userExcludeFiles"`
	UserExcludeDirs  []string `json:"userExcludeDirs"`
}

type PreflightConfig struct {
	// RequireRoot refuses to run without an effective UID of 0.
	RequireRoot bool `json:"requireRoot"`
	// RequireMountPoint refuses to run unless the target base is a mount point.
	RequireMountPoint bool `json:"requireMountPoint"`
}

type LogPackConfig struct {
	Enabled bool   `json:"enabled"`
	Format  string `json:"format"`
	Workers int    `json:"workers"`
}

type HooksConfig struct {
	// Note: omitempty is intentionally not used so that the hook fields
	// appear in the generated config file for better discoverability.
	// PreBackup is a list of shell commands to execute before the sync begins.
	// SECURITY: These commands are executed as provided. Ensure they are from a trusted source.
	PreBackup []string `json:"preBackup"`
	// PostBackup is a list of shell commands to execute after the sync, even on failure.
	// SECURITY: These commands are executed as provided. Ensure they are from a trusted source.
	PostBackup []string `json:"postBackup"`
}

type RuntimeConfig struct {
	DryRun  bool
	Confirm bool
}

type Config struct {
	Version    string        `json:"version"`
	Source     string        `json:"source"`
	TargetBase string        `json:"-"` // Never added to config file
	Runtime    RuntimeConfig `json:"-"` // Never added to config file
	// HostIdentity overrides the hostname used in the destination layout.
	// Empty means the real hostname.
	HostIdentity string          `json:"hostIdentity"`
	LogLevel     string          `json:"logLevel"`
	Sync         SyncConfig      `json:"sync"`
	Preflight    PreflightConfig `json:"preflight"`
	LogPack      LogPackConfig   `json:"logPack"`
	Hooks        HooksConfig     `json:"hooks"`
	FailFast     bool            `json:"failFast"`
}

// NewDefault creates and returns a Config struct with sensible default values.
func NewDefault() Config {
	return Config{
		Version:      buildinfo.Version,
		Source:       "", // Intentionally empty to force user configuration.
		TargetBase:   "", // Intentionally empty to force user configuration.
		HostIdentity: "", // Empty means the real hostname.
		LogLevel:     "info",
		Runtime: RuntimeConfig{
			DryRun:  false,
			Confirm: false,
		},
		Sync: SyncConfig{
			RsyncPath:        "rsync",
			UserExcludeFiles: []string{}, // User-defined list of files to exclude.
			UserExcludeDirs:  []string{}, // User-defined list of directories to exclude.
			DefaultExcludeFiles: []string{
				// Common temporary and system files across platforms.
				"*.tmp",
				"*.swp",
				".DS_Store",
				"Thumbs.db",
			},
			DefaultExcludeDirs: []string{
				// Common trash and runtime directories.
				".Trash-*",
				"$Recycle.Bin",
				"lost+found",
			},
		},
		Preflight: PreflightConfig{
			RequireRoot:       true, // Mirrors preserve ownership, which needs elevation.
			RequireMountPoint: false,
		},
		LogPack: LogPackConfig{
			Enabled: true,
			Format:  "gzip",
			Workers: 2,
		},
		Hooks: HooksConfig{
			PreBackup:  []string{},
			PostBackup: []string{},
		},
		FailFast: false,
	}
}

// Load attempts to load a configuration from the target base directory.
// If the file doesn't exist, it returns the defaults without an error.
// If the file exists but fails to parse, it returns an error and a zero-value config.
func Load(targetBase string) (Config, error) {
	absTargetBasePath, err := util.ExpandedAbsPath(targetBase)
	if err != nil {
		return Config{}, fmt.Errorf("could not determine absolute path for load directory %s: %w", targetBase, err)
	}

	configPath := filepath.Join(absTargetBasePath, ConfigFileName)

	file, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := NewDefault()
			cfg.TargetBase = absTargetBasePath
			return cfg, nil // Config file doesn't exist, which is a normal case.
		}
		return Config{}, fmt.Errorf("error opening config file %s: %w", configPath, err)
	}
	defer file.Close()

	plog.Info("Loading configuration", "path", configPath)
	// Start with default values, then overwrite with the file's content.
	// This makes the config loading resilient to missing fields in the JSON file.
	config := NewDefault()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("error parsing config file %s: %w", configPath, err)
	}

	config.TargetBase = absTargetBasePath

	// At this point our config has been migrated if needed so override the version in the struct
	if config.Version != buildinfo.Version {
		config.Version = buildinfo.Version
	}
	return config, nil
}

// Generate creates or overwrites the config file in the target base directory.
func Generate(configToGenerate Config) error {
	configPath := filepath.Join(configToGenerate.TargetBase, ConfigFileName)
	jsonData, err := json.MarshalIndent(configToGenerate, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config to JSON: %w", err)
	}

	if err := os.WriteFile(configPath, jsonData, util.UserWritableFilePerms); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	plog.Info("Successfully saved config file", "path", configPath)
	return nil
}

// Validate checks the configuration for logical errors and inconsistencies.
// checkSource additionally requires the source path to be set and existing
// (list and init runs don't need one).
func (c *Config) Validate(checkSource bool) error {
	if checkSource && c.Source == "" {
		return fmt.Errorf("source path cannot be empty")
	}
	if c.TargetBase == "" {
		return fmt.Errorf("target path cannot be empty")
	}

	var err error

	if c.Source != "" {
		c.Source, err = util.ExpandedAbsPath(c.Source)
		if err != nil {
			return fmt.Errorf("could not expand source path: %w", err)
		}
		if checkSource {
			if _, err := os.Stat(c.Source); os.IsNotExist(err) {
				return fmt.Errorf("source path '%s' does not exist", c.Source)
			}
		}
	}

	c.TargetBase, err = util.ExpandedAbsPath(c.TargetBase)
	if err != nil {
		return fmt.Errorf("could not expand target path: %w", err)
	}

	if c.Sync.RsyncPath == "" {
		return fmt.Errorf("sync.rsyncPath cannot be empty")
	}

	// The host identity becomes a single path element of the layout.
	if strings.ContainsAny(c.HostIdentity, `\/`) {
		return fmt.Errorf("hostIdentity cannot contain path separators ('/' or '\\')")
	}

	if c.LogPack.Enabled {
		if _, err := logpack.ParseFormat(c.LogPack.Format); err != nil {
			return err
		}
		if c.LogPack.Workers < 1 {
			return fmt.Errorf("logPack.workers must be at least 1")
		}
	}

	if err := validateGlobPatterns("defaultExcludeFiles", c.Sync.DefaultExcludeFiles); err != nil {
		return err
	}
	if err := validateGlobPatterns("userExcludeFiles", c.Sync.UserExcludeFiles); err != nil {
		return err
	}
	if err := validateGlobPatterns("defaultExcludeDirs", c.Sync.DefaultExcludeDirs); err != nil {
		return err
	}
	if err := validateGlobPatterns("userExcludeDirs", c.Sync.UserExcludeDirs); err != nil {
		return err
	}
	return nil
}

// LogSummary prints a user-friendly summary of the configuration.
func (c *Config) LogSummary() {
	logArgs := []interface{}{
		"log_level", c.LogLevel,
		"source", c.Source,
		"target", c.TargetBase,
		"dry_run", c.Runtime.DryRun,
		"confirm", c.Runtime.Confirm,
		"rsync", c.Sync.RsyncPath,
		"require_root", c.Preflight.RequireRoot,
		"require_mount_point", c.Preflight.RequireMountPoint,
	}
	if c.HostIdentity != "" {
		logArgs = append(logArgs, "host_identity", c.HostIdentity)
	}
	if c.LogPack.Enabled {
		logArgs = append(logArgs, "log_pack", fmt.Sprintf("enabled (f:%s w:%d)", c.LogPack.Format, c.LogPack.Workers))
	}
	if excludes := c.ExcludePatterns(); len(excludes) > 0 {
		logArgs = append(logArgs, "excludes", strings.Join(excludes, ", "))
	}
	if len(c.Hooks.PreBackup) > 0 {
		logArgs = append(logArgs, "pre_backup_hooks", strings.Join(c.Hooks.PreBackup, "; "))
	}
	if len(c.Hooks.PostBackup) > 0 {
		logArgs = append(logArgs, "post_backup_hooks", strings.Join(c.Hooks.PostBackup, "; "))
	}
	plog.Info("Configuration loaded", logArgs...)
}

// ExcludePatterns returns the final, combined slice of exclusion patterns
// handed to the copy engine: non-overridable system patterns, default
// patterns, and user-configured patterns, deduplicated.
func (c *Config) ExcludePatterns() []string {
	return util.MergeAndDeduplicate(
		systemExcludeDirPatterns,
		systemExcludeFilePatterns,
		c.Sync.DefaultExcludeDirs,
		c.Sync.DefaultExcludeFiles,
		c.Sync.UserExcludeDirs,
		c.Sync.UserExcludeFiles,
	)
}

// validateGlobPatterns checks if a list of strings are valid glob patterns.
func validateGlobPatterns(fieldName string, patterns []string) error {
	for _, pattern := range patterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid glob pattern for %s: %q - %w", fieldName, pattern, err)
		}
	}
	return nil
}

// MergeConfigWithFlags overlays the configuration values from flags on top
// of a base configuration. It iterates over the setFlags map, which contains
// only the flags explicitly provided by the user on the command line.
func MergeConfigWithFlags(base Config, setFlags map[string]any) Config {
	merged := base

	for name, value := range setFlags {
		switch name {
		case "source":
			merged.Source = value.(string)
		case "target":
			merged.TargetBase = value.(string)
		case "host":
			merged.HostIdentity = value.(string)
		case "log-level":
			merged.LogLevel = value.(string)
		case "fail-fast":
			merged.FailFast = value.(bool)
		case "dry-run":
			merged.Runtime.DryRun = value.(bool)
		case "confirm":
			merged.Runtime.Confirm = value.(bool)
		case "rsync-path":
			merged.Sync.RsyncPath = value.(string)
		case "require-root":
			merged.Preflight.RequireRoot = value.(bool)
		case "require-mount-point":
			merged.Preflight.RequireMountPoint = value.(bool)
		case "log-pack":
			merged.LogPack.Enabled = value.(bool)
		case "log-pack-format":
			merged.LogPack.Format = value.(string)
		case "log-pack-workers":
			merged.LogPack.Workers = value.(int)
		case "user-exclude-files":
			merged.Sync.UserExcludeFiles = value.([]string)
		case "user-exclude-dirs":
			merged.Sync.UserExcludeDirs = value.([]string)
		case "pre-backup-hooks":
			merged.Hooks.PreBackup = value.([]string)
		case "post-backup-hooks":
			merged.Hooks.PostBackup = value.([]string)
		case "quarter", "force":
			// Consumed by the list and init commands directly, not part of
			// the config.
		default:
			plog.Debug("unhandled flag in MergeConfigWithFlags", "flag", name)
		}
	}
	return merged
}
