package exitcode_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/paulschiretz/pgl-mirror/pkg/exitcode"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil means success", nil, exitcode.Success},
		{"plain error defaults to usage", errors.New("boom"), exitcode.Usage},
		{"coded error", exitcode.New(exitcode.QuarterCreate, errors.New("mkdir failed")), exitcode.QuarterCreate},
		{"wrapped coded error", fmt.Errorf("outer: %w", exitcode.New(exitcode.BackupDirCreate, errors.New("mkdir failed"))), exitcode.BackupDirCreate},
		{"rsync code passes through", exitcode.New(23, errors.New("partial transfer")), 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitcode.FromError(tt.err); got != tt.want {
				t.Errorf("FromError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := exitcode.New(exitcode.HostRootCreate, fmt.Errorf("wrapped: %w", inner))
	if !errors.Is(err, inner) {
		t.Error("coded error must unwrap to its cause")
	}
}
