//go:build !windows

package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// checkRootPrivilege verifies the process runs with an effective UID of 0.
// Mirror backups preserve arbitrary ownership and permissions, which
// requires elevation.
func checkRootPrivilege() error {
	if unix.Geteuid() != 0 {
		return fmt.Errorf("this operation must be run as root (try sudo)")
	}
	return nil
}

// platformValidateMountTarget checks if the path resides on the root
// filesystem. If it does, the backup drive is assumed NOT mounted (ghost
// detection): writing there would fill the system disk instead of the
// external destination.
func platformValidateMountTarget(path string) error {
	// Backups into the user's home directory are usually intentional.
	homeDir, _ := os.UserHomeDir()
	if homeDir != "" && strings.HasPrefix(path, homeDir) {
		return nil
	}

	rootInfo, err := os.Stat("/")
	if err != nil {
		return fmt.Errorf("failed to stat root: %w", err)
	}
	rootStat, ok := rootInfo.Sys().(*unix.Stat_t)
	if !ok {
		return fmt.Errorf("unsupported platform for unix.Stat_t")
	}

	pathInfo, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat target path: %w", err)
	}
	pathStat, ok := pathInfo.Sys().(*unix.Stat_t)
	if !ok {
		return fmt.Errorf("unsupported platform for unix.Stat_t")
	}

	// Same device ID as "/" means the destination lives on the system
	// partition. Exception: the user explicitly targeted "/".
	if pathStat.Dev == rootStat.Dev && path != "/" {
		return fmt.Errorf("path '%s' is on the root filesystem (system disk). "+
			"Ensure your external drive is mounted", path)
	}

	return nil
}
