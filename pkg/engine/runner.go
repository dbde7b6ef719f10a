// Package engine orchestrates a backup run: preflight validation, path
// planning, previous-backup location, the rsync invocation, run logging and
// the packing of completed quarters' logs.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paulschiretz/pgl-mirror/pkg/config"
	"github.com/paulschiretz/pgl-mirror/pkg/exitcode"
	"github.com/paulschiretz/pgl-mirror/pkg/hints"
	"github.com/paulschiretz/pgl-mirror/pkg/hook"
	"github.com/paulschiretz/pgl-mirror/pkg/pathsync"
	"github.com/paulschiretz/pgl-mirror/pkg/planner"
	"github.com/paulschiretz/pgl-mirror/pkg/plog"
	"github.com/paulschiretz/pgl-mirror/pkg/preflight"
	"github.com/paulschiretz/pgl-mirror/pkg/runlog"
	"github.com/paulschiretz/pgl-mirror/pkg/util"
)

// Syncer runs the copy engine for an assembled plan.
type Syncer interface {
	Sync(ctx context.Context, p *pathsync.Plan) error
}

// Packer compresses the run logs of quarters older than the current one.
type Packer interface {
	Pack(ctx context.Context, hostRoot, currentQuarterName string) error
}

// Runner wires the backup stages together. The injectable function fields
// exist for testing; production callers keep the defaults from NewRunner.
type Runner struct {
	validator *preflight.Validator
	syncer    Syncer
	hooks     *hook.HookExecutor
	packer    Packer

	// Now returns the wall clock time the run plans against.
	Now func() time.Time
	// Hostname resolves the host identity when the config leaves it empty.
	Hostname func() (string, error)
	// Confirm is consulted before the sync when the run requests
	// confirmation. Returning false aborts the run. Nil means no prompt.
	Confirm func(p *pathsync.Plan) bool
}

// NewRunner creates a Runner with production defaults for clock and hostname.
func NewRunner(syncer Syncer, hooks *hook.HookExecutor, packer Packer) *Runner {
	return &Runner{
		validator: preflight.NewValidator(),
		syncer:    syncer,
		hooks:     hooks,
		packer:    packer,
		Now:       time.Now,
		Hostname:  os.Hostname,
	}
}

// ExecuteBackup performs one backup run against the resolved configuration.
func (r *Runner) ExecuteBackup(ctx context.Context, cfg config.Config) error {
	// Check for cancellation at the very beginning.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	host := cfg.HostIdentity
	if host == "" {
		var err error
		host, err = r.Hostname()
		if err != nil {
			return fmt.Errorf("could not determine hostname: %w", err)
		}
	}

	// Capture a consistent timestamp for the entire run. The backup date and
	// quarter are fixed here even if the sync crosses midnight.
	start := r.Now()
	paths := planner.Plan(start, host, cfg.TargetBase)
	hostRoot := filepath.Dir(paths.QuarterPath)

	// Run preflight validation before touching the destination.
	preflightPlan := &preflight.Plan{
		SourceAccessible:  true,
		TargetAccessible:  true,
		RequireRoot:       cfg.Preflight.RequireRoot,
		RequireMountPoint: cfg.Preflight.RequireMountPoint,
		DryRun:            cfg.Runtime.DryRun,
		FailFast:          cfg.FailFast,
	}
	if err := r.validator.Run(ctx, cfg.Source, cfg.TargetBase, preflightPlan); err != nil {
		return fmt.Errorf("preflight failed: %w", err)
	}

	if !cfg.Runtime.DryRun {
		if err := r.ensureDestinationDirs(hostRoot, paths); err != nil {
			return err
		}
	}

	// The catalog decides full vs incremental: today's own directory (which
	// may already exist from an earlier run on the same date) never serves
	// as its own link-dest.
	catalog, err := planner.ReadCatalog(paths.QuarterPath)
	if err != nil {
		return fmt.Errorf("could not read backup catalog: %w", err)
	}

	var linkDest string
	if previous, ok := planner.LocatePrevious(catalog, paths.BackupPath); ok {
		linkDest = previous.Path
	}

	syncPlan := pathsync.BuildPlan(linkDest, paths.BackupPath, paths.LogFilePath, cfg.Source, cfg.ExcludePatterns())
	syncPlan.RsyncPath = cfg.Sync.RsyncPath

	plog.Info("Starting backup",
		"source", cfg.Source,
		"destination", paths.BackupPath,
		"mode", syncPlan.Mode().String(),
		"link_dest", linkDest)

	if cfg.Runtime.Confirm && r.Confirm != nil {
		if !r.Confirm(syncPlan) {
			return exitcode.New(exitcode.UserAbort, fmt.Errorf("backup aborted by user"))
		}
	}

	hookPlan := &hook.Plan{
		Enabled:            true,
		PreBackupCommands:  cfg.Hooks.PreBackup,
		PostBackupCommands: cfg.Hooks.PostBackup,
		DryRun:             cfg.Runtime.DryRun,
		FailFast:           cfg.FailFast,
	}

	if cfg.Runtime.DryRun {
		// Nothing below this point runs in a dry run: the destination
		// directories were never created, so there is no log file to append
		// to and no directory for rsync to fill.
		if err := r.hooks.RunPreBackup(ctx, hookPlan); err != nil && !hints.IsHint(err) {
			return fmt.Errorf("pre-backup hook failed: %w", err)
		}
		plog.Info("[DRY RUN] Would execute copy engine", "command", pathsync.CommandLine(syncPlan))
		if err := r.hooks.RunPostBackup(ctx, hookPlan); err != nil && !hints.IsHint(err) {
			plog.Warn("post-backup hook failed", "error", err)
		}
		return nil
	}

	runLog, err := runlog.Open(paths.LogFilePath)
	if err != nil {
		return err
	}
	defer runLog.Close()

	if err := runLog.LogStart(paths.BackupPath, pathsync.CommandLine(syncPlan), syncPlan.Mode(), linkDest, start); err != nil {
		return fmt.Errorf("could not write run log header: %w", err)
	}

	// Pre-backup hook failures are fatal: the hooks quiesce whatever the
	// mirror is about to read.
	if err := r.hooks.RunPreBackup(ctx, hookPlan); err != nil && !hints.IsHint(err) {
		errMsg := "pre-backup hook failed"
		if errors.Is(err, context.Canceled) {
			errMsg = "pre-backup hook canceled"
		}
		finishErr := fmt.Errorf("%s: %w", errMsg, err)
		if logErr := runLog.LogFinish(start, r.Now(), finishErr); logErr != nil {
			plog.Warn("Could not write run log footer", "error", logErr)
		}
		return finishErr
	}

	// Post-backup hooks run even when the sync failed.
	defer func() {
		if err := r.hooks.RunPostBackup(ctx, hookPlan); err != nil && !hints.IsHint(err) {
			if errors.Is(err, context.Canceled) {
				plog.Info("post-backup hooks skipped due to cancellation")
			} else {
				plog.Warn("post-backup hook failed", "error", err)
			}
		}
	}()

	syncErr := r.syncer.Sync(ctx, syncPlan)

	// The finish record is written whether the sync succeeded or failed, so
	// the log always shows how every run ended.
	if err := runLog.LogFinish(start, r.Now(), syncErr); err != nil {
		plog.Warn("Could not write run log footer", "error", err)
	}
	if syncErr != nil {
		return fmt.Errorf("error during sync: %w", syncErr)
	}

	// Pack the run logs of completed quarters. Never fatal: the backup
	// itself already succeeded.
	if cfg.LogPack.Enabled {
		if err := r.packer.Pack(ctx, hostRoot, filepath.Base(paths.QuarterPath)); err != nil && !hints.IsHint(err) {
			plog.Warn("Log packing failed", "error", err)
		}
	}

	plog.Info("Backup completed", "destination", paths.BackupPath)
	return nil
}

// ensureDestinationDirs creates the destination hierarchy level by level so
// each failure maps to its own exit code.
func (r *Runner) ensureDestinationDirs(hostRoot string, paths planner.PathPlan) error {
	type step struct {
		path string
		code int
	}
	for _, s := range []step{
		{hostRoot, exitcode.HostRootCreate},
		{paths.QuarterPath, exitcode.QuarterCreate},
		{paths.BackupPath, exitcode.BackupDirCreate},
	} {
		if err := os.MkdirAll(s.path, util.UserWritableDirPerms); err != nil {
			return exitcode.New(s.code, fmt.Errorf("could not create %s: %w", s.path, err))
		}
	}
	return nil
}
