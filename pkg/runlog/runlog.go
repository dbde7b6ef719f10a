// Package runlog records one block per backup run into the per-quarter log
// file. The file is append-only: nothing is ever truncated or rewritten, so
// the log accumulates the history of every run against its calendar date.
package runlog

import (
	"fmt"
	"os"
	"time"

	"github.com/paulschiretz/pgl-mirror/pkg/planner"
	"github.com/paulschiretz/pgl-mirror/pkg/util"
)

const timestampFormat = "2006-01-02 15:04:05 MST"

// Logger appends run records to a log file.
type Logger struct {
	path string
	f    *os.File
}

// Open opens (or creates) the log file in append mode.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, util.UserWritableFilePerms)
	if err != nil {
		return nil, fmt.Errorf("could not open run log %s: %w", path, err)
	}
	return &Logger{path: path, f: f}, nil
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	return l.f.Close()
}

// LogStart records the resolved plan and the start timestamp.
// previous is empty for a full backup.
func (l *Logger) LogStart(destination, command string, mode planner.Mode, previous string, start time.Time) error {
	modeLine := mode.String()
	if previous != "" {
		modeLine = fmt.Sprintf("%s (link-dest %s)", modeLine, previous)
	}
	_, err := fmt.Fprintf(l.f,
		"destination: %s\nlog file:    %s\nmode:        %s\ncommand:     %s\nstarted:     %s\n",
		destination, l.path, modeLine, command, start.Format(timestampFormat))
	return err
}

// LogFinish records the end timestamp, the elapsed duration and the outcome,
// followed by the blank-line separator that closes this run's block. It is
// written whether the sync succeeded or failed.
func (l *Logger) LogFinish(start, end time.Time, syncErr error) error {
	status := "ok"
	if syncErr != nil {
		status = fmt.Sprintf("failed: %v", syncErr)
	}
	_, err := fmt.Fprintf(l.f,
		"finished:    %s\nelapsed:     %s\nstatus:      %s\n\n",
		end.Format(timestampFormat), FormatElapsed(end.Sub(start)), status)
	return err
}

// FormatElapsed renders a duration as hours:minutes:seconds (H:MM:SS).
// Negative durations (clock adjustments mid-run) clamp to zero.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
