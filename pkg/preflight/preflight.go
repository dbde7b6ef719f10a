// Package preflight provides validation checks that run before a backup
// begins. The checks are read-only: they verify privileges and that the
// destination is a real, mounted, writable location before anything is
// created there.
package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Validator runs the preflight checks of a plan in order and fails fast on
// the first violation.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Run executes the enabled checks for a source/target pair.
func (v *Validator) Run(ctx context.Context, sourcePath, targetPath string, p *Plan) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if p.RequireRoot {
		if err := checkRootPrivilege(); err != nil {
			return err
		}
	}
	if p.SourceAccessible {
		if err := CheckSourceAccessible(sourcePath); err != nil {
			return err
		}
	}
	if p.TargetAccessible {
		if err := CheckTargetAccessible(targetPath, p.RequireMountPoint); err != nil {
			return err
		}
	}
	return nil
}

// CheckSourceAccessible validates that the source path exists and is a directory.
func CheckSourceAccessible(srcPath string) error {
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("source directory %s does not exist", srcPath)
		}
		return fmt.Errorf("cannot stat source directory %s: %w", srcPath, err)
	}

	if !srcInfo.IsDir() {
		return fmt.Errorf("source path %s is not a directory", srcPath)
	}

	return nil
}

// CheckTargetAccessible ensures the backup destination is usable before any
// directory is created under it.
//
// The checks include:
//  1. If the target path exists, confirms it is a directory.
//  2. If it does not exist, confirms its deepest existing ancestor is
//     accessible so MkdirAll will not fail on the parent.
//  3. On Unix, verifies the target does not silently resolve to the root
//     filesystem ("ghost" directory left behind by an unmounted drive), and
//     optionally that it is an actual mount point.
func CheckTargetAccessible(targetPath string, requireMountPoint bool) error {
	info, err := os.Stat(targetPath)
	if os.IsNotExist(err) {
		// Target doesn't exist. Find the deepest existing ancestor and
		// validate that instead: if /mnt/backup/host doesn't exist, is
		// /mnt/backup mounted?
		ancestor := targetPath
		for {
			parent := filepath.Dir(ancestor)
			if parent == ancestor {
				break // Hit root
			}
			if _, err := os.Stat(parent); err == nil {
				ancestor = parent
				break
			}
			ancestor = parent
		}
		return validateMountTarget(ancestor, requireMountPoint)
	} else if err != nil {
		return fmt.Errorf("cannot access target path: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("target path exists but is not a directory: %s", targetPath)
	}

	return validateMountTarget(targetPath, requireMountPoint)
}

func validateMountTarget(path string, requireMountPoint bool) error {
	if err := platformValidateMountTarget(path); err != nil {
		return err
	}
	if requireMountPoint {
		mounted, err := IsMountPoint(path)
		if err != nil {
			return fmt.Errorf("cannot verify mount point %s: %w", path, err)
		}
		if !mounted {
			return fmt.Errorf("target path %s is not a mount point; is the backup drive mounted?", path)
		}
	}
	return nil
}
