package hints_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/paulschiretz/pgl-mirror/pkg/hints"
)

func TestIsHint(t *testing.T) {
	hint := hints.New("nothing to do")
	if !hints.IsHint(hint) {
		t.Error("New should produce a hint")
	}
	if !hints.IsHint(fmt.Errorf("wrapped: %w", hint)) {
		t.Error("wrapped hints should still be hints")
	}
	if hints.IsHint(errors.New("real failure")) {
		t.Error("plain errors are not hints")
	}
	if hints.IsHint(nil) {
		t.Error("nil is not a hint")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("cause")
	wrapped := hints.Wrap(cause)
	if !hints.IsHint(wrapped) {
		t.Error("Wrap should produce a hint")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Wrap must preserve the cause")
	}
}
