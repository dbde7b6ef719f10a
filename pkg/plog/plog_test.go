package plog_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/paulschiretz/pgl-mirror/pkg/plog"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := plog.LevelFromString(tt.in); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	plog.SetOutput(&buf)

	plog.SetLevel(slog.LevelInfo)
	plog.Debug("hidden")
	plog.Info("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message leaked at info level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("info message missing")
	}

	buf.Reset()
	plog.SetLevel(slog.LevelDebug)
	plog.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug message missing at debug level")
	}
	plog.SetLevel(slog.LevelInfo)
}

func TestQuietModeSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	plog.SetOutput(&buf)

	plog.SetQuiet(true)
	defer plog.SetQuiet(false)

	plog.Info("quiet info")
	plog.Warn("loud warn")

	out := buf.String()
	if strings.Contains(out, "quiet info") {
		t.Error("info message leaked in quiet mode")
	}
	if !strings.Contains(out, "loud warn") {
		t.Error("warnings must not be suppressed in quiet mode")
	}
}
