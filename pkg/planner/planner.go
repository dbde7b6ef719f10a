// Package planner computes the destination layout of a backup run and
// locates the previous backup to hard-link against.
//
// Backups are grouped per host per calendar quarter:
//
//	<root>/backup/<hostIdentity>/<year>q<quarter>/<YYYY-MM-DD>/
//	<root>/backup/<hostIdentity>/<year>q<quarter>/<YYYY-MM-DD>.log
//
// One directory exists per calendar date; a second run on the same date
// mutates the existing directory instead of creating a new one.
package planner

import (
	"fmt"
	"path/filepath"
	"time"
)

// dateFormat is the directory name of a backup entry.
const dateFormat = "2006-01-02"

// PathPlan holds the resolved destination paths for one run.
type PathPlan struct {
	// QuarterPath groups all backups of one calendar quarter for one host.
	QuarterPath string
	// BackupPath is today's backup directory under QuarterPath.
	BackupPath string
	// LogFilePath is the append-only run log next to BackupPath.
	LogFilePath string
}

// Quarter returns the calendar quarter (1..4) for a month.
func Quarter(month time.Month) int {
	return (int(month)-1)/3 + 1
}

// Plan computes the destination paths for a run. It is pure: identical
// inputs always yield identical paths, and no filesystem access happens
// here. The quarter is derived from the local calendar month of now.
func Plan(now time.Time, hostIdentity, root string) PathPlan {
	quarterDir := fmt.Sprintf("%dq%d", now.Year(), Quarter(now.Month()))
	quarterPath := filepath.Join(root, "backup", hostIdentity, quarterDir)
	date := now.Format(dateFormat)
	return PathPlan{
		QuarterPath: quarterPath,
		BackupPath:  filepath.Join(quarterPath, date),
		LogFilePath: filepath.Join(quarterPath, date+".log"),
	}
}
