package config_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/paulschiretz/pgl-mirror/pkg/config"
)

func TestNewDefault(t *testing.T) {
	cfg := config.NewDefault()

	if !cfg.Preflight.RequireRoot {
		t.Error("RequireRoot should default to true")
	}
	if cfg.Sync.RsyncPath != "rsync" {
		t.Errorf("RsyncPath = %s, want rsync", cfg.Sync.RsyncPath)
	}
	if !cfg.LogPack.Enabled || cfg.LogPack.Format != "gzip" {
		t.Errorf("LogPack defaults = %+v, want enabled gzip", cfg.LogPack)
	}
	if cfg.Runtime.DryRun || cfg.Runtime.Confirm {
		t.Error("runtime flags should default to false")
	}
}

func TestExcludePatternsAlwaysContainSystemPatterns(t *testing.T) {
	cfg := config.NewDefault()
	cfg.Sync.UserExcludeDirs = []string{"node_modules", ".cache"} // .cache duplicates a system pattern

	patterns := cfg.ExcludePatterns()
	for _, want := range []string{".cache", ".thumbnails", config.ConfigFileName, "node_modules"} {
		if !slices.Contains(patterns, want) {
			t.Errorf("ExcludePatterns() is missing %q: %v", want, patterns)
		}
	}

	seen := map[string]int{}
	for _, p := range patterns {
		seen[p]++
	}
	if seen[".cache"] != 1 {
		t.Errorf(".cache appears %d times, want deduplicated", seen[".cache"])
	}
}

func TestMergeConfigWithFlags(t *testing.T) {
	base := config.NewDefault()
	base.Source = "/from/config"

	merged := config.MergeConfigWithFlags(base, map[string]any{
		"source":              "/from/flag",
		"target":              "/mnt/usb",
		"host":                "atlas",
		"dry-run":             true,
		"confirm":             true,
		"require-root":        false,
		"log-pack-format":     "zstd",
		"user-exclude-dirs":   []string{"node_modules"},
		"pre-backup-hooks":    []string{"echo hi"},
		"rsync-path":          "/opt/bin/rsync",
		"log-pack-workers":    4,
		"require-mount-point": true,
	})

	if merged.Source != "/from/flag" {
		t.Errorf("Source = %s, want /from/flag", merged.Source)
	}
	if merged.TargetBase != "/mnt/usb" {
		t.Errorf("TargetBase = %s", merged.TargetBase)
	}
	if merged.HostIdentity != "atlas" {
		t.Errorf("HostIdentity = %s", merged.HostIdentity)
	}
	if !merged.Runtime.DryRun || !merged.Runtime.Confirm {
		t.Error("runtime flags not merged")
	}
	if merged.Preflight.RequireRoot {
		t.Error("require-root flag not merged")
	}
	if !merged.Preflight.RequireMountPoint {
		t.Error("require-mount-point flag not merged")
	}
	if merged.LogPack.Format != "zstd" || merged.LogPack.Workers != 4 {
		t.Errorf("LogPack = %+v", merged.LogPack)
	}
	if merged.Sync.RsyncPath != "/opt/bin/rsync" {
		t.Errorf("RsyncPath = %s", merged.Sync.RsyncPath)
	}
	if !slices.Equal(merged.Sync.UserExcludeDirs, []string{"node_modules"}) {
		t.Errorf("UserExcludeDirs = %v", merged.Sync.UserExcludeDirs)
	}
	if !slices.Equal(merged.Hooks.PreBackup, []string{"echo hi"}) {
		t.Errorf("PreBackup = %v", merged.Hooks.PreBackup)
	}

	// Untouched fields keep their base values.
	if merged.LogLevel != base.LogLevel {
		t.Error("unset flags must not change base values")
	}
}

func TestValidate(t *testing.T) {
	sourceDir := t.TempDir()

	valid := func() config.Config {
		cfg := config.NewDefault()
		cfg.Source = sourceDir
		cfg.TargetBase = "/mnt/usb"
		return cfg
	}

	tests := []struct {
		name        string
		mod         func(*config.Config)
		checkSource bool
		wantErr     bool
	}{
		{"valid", func(c *config.Config) {}, true, false},
		{"empty source checked", func(c *config.Config) { c.Source = "" }, true, true},
		{"empty source unchecked", func(c *config.Config) { c.Source = "" }, false, false},
		{"missing source dir", func(c *config.Config) { c.Source = filepath.Join(sourceDir, "missing") }, true, true},
		{"empty target", func(c *config.Config) { c.TargetBase = "" }, true, true},
		{"empty rsync path", func(c *config.Config) { c.Sync.RsyncPath = "" }, true, true},
		{"host with path separator", func(c *config.Config) { c.HostIdentity = "a/b" }, true, true},
		{"bad log pack format", func(c *config.Config) { c.LogPack.Format = "brotli" }, true, true},
		{"log pack format ignored when disabled", func(c *config.Config) {
			c.LogPack.Enabled = false
			c.LogPack.Format = "brotli"
		}, true, false},
		{"zero log pack workers", func(c *config.Config) { c.LogPack.Workers = 0 }, true, true},
		{"invalid glob", func(c *config.Config) { c.Sync.UserExcludeFiles = []string{"[unclosed"} }, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mod(&cfg)
			err := cfg.Validate(tt.checkSource)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	targetBase := t.TempDir()
	cfg, err := config.Load(targetBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TargetBase != targetBase {
		t.Errorf("TargetBase = %s, want %s", cfg.TargetBase, targetBase)
	}
	if cfg.Sync.RsyncPath != "rsync" {
		t.Error("defaults not applied for missing config file")
	}
}

func TestGenerateAndLoadRoundTrip(t *testing.T) {
	targetBase := t.TempDir()

	cfg := config.NewDefault()
	cfg.Source = "/home/data"
	cfg.TargetBase = targetBase
	cfg.HostIdentity = "atlas"
	cfg.Sync.UserExcludeDirs = []string{"node_modules"}
	cfg.LogPack.Format = "zstd"

	if err := config.Generate(cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(targetBase, config.ConfigFileName)); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := config.Load(targetBase)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Source != "/home/data" || loaded.HostIdentity != "atlas" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.LogPack.Format != "zstd" {
		t.Errorf("LogPack.Format = %s", loaded.LogPack.Format)
	}
	if !slices.Equal(loaded.Sync.UserExcludeDirs, []string{"node_modules"}) {
		t.Errorf("UserExcludeDirs = %v", loaded.Sync.UserExcludeDirs)
	}
	// Runtime fields never round-trip through the file.
	if loaded.Runtime.DryRun || loaded.Runtime.Confirm {
		t.Error("runtime fields must not be persisted")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	targetBase := t.TempDir()
	if err := os.WriteFile(filepath.Join(targetBase, config.ConfigFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(targetBase); err == nil {
		t.Error("expected an error for a corrupt config file")
	}
}
