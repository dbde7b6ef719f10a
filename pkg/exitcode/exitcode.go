// Package exitcode defines the process exit codes of the CLI and typed
// errors that carry them to main.
package exitcode

import (
	"errors"
	"fmt"
)

// Process exit codes. Copy-engine failures exit with the engine's own
// exit status instead of one of these.
const (
	Success = 0
	// Usage covers argument and privilege errors.
	Usage = 1
	// HostRootCreate, QuarterCreate and BackupDirCreate report which level of
	// the destination layout could not be created.
	HostRootCreate  = 2
	QuarterCreate   = 3
	BackupDirCreate = 4
	// UserAbort is returned when the interactive confirmation is declined.
	UserAbort = 5
)

// Coder is implemented by errors that carry a process exit code.
type Coder interface {
	ExitCode() int
}

// Error wraps an underlying error with the exit code it should produce.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode implements Coder.
func (e *Error) ExitCode() int { return e.Code }

// New wraps err with the given exit code.
func New(code int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// Errorf formats an error that carries the given exit code.
func Errorf(code int, format string, args ...any) error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

// FromError resolves the exit code for an error. A nil error is Success;
// errors without a code default to Usage.
func FromError(err error) int {
	if err == nil {
		return Success
	}
	var coder Coder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return Usage
}
