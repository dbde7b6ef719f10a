package pathsync

import (
	"github.com/paulschiretz/pgl-mirror/pkg/planner"
)

// Plan is the immutable copy-engine configuration for one run. It is
// assembled once by BuildPlan and never mutated afterwards.
type Plan struct {
	Source      string
	Destination string

	// ExcludePatterns are rsync exclude globs. Cache and thumbnail
	// directories are always present regardless of mode.
	ExcludePatterns []string

	// DeleteExtraneous removes destination files absent from the source so
	// the destination mirrors the source exactly at this snapshot. Always
	// true for backups.
	DeleteExtraneous bool

	// LinkDestPath is the previous backup whose unchanged files are
	// hard-linked instead of copied. Empty means full backup.
	LinkDestPath string

	// LogFilePath is the copy engine's own log target.
	LogFilePath string

	// SuppressPerFileLogging drops per-file lines from the engine log. Set
	// for full backups, where logging every copied file would produce an
	// unusably large log; incremental deltas are small enough to log fully.
	SuppressPerFileLogging bool

	// RsyncPath is the copy-engine binary, usually just "rsync".
	RsyncPath string

	DryRun bool
}

// BuildPlan assembles the copy-engine configuration from the located
// previous backup (previous may be empty for the first backup of a quarter).
func BuildPlan(previous, backupPath, logFilePath, source string, excludes []string) *Plan {
	return &Plan{
		Source:                 source,
		Destination:            backupPath,
		ExcludePatterns:        excludes,
		DeleteExtraneous:       true,
		LinkDestPath:           previous,
		LogFilePath:            logFilePath,
		SuppressPerFileLogging: previous == "",
		RsyncPath:              "rsync",
	}
}

// Mode reports whether this plan performs a full or an incremental backup.
func (p *Plan) Mode() planner.Mode {
	if p.LinkDestPath == "" {
		return planner.Full
	}
	return planner.Incremental
}
