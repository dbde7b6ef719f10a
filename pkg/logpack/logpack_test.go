package logpack_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"

	"github.com/paulschiretz/pgl-mirror/pkg/hints"
	"github.com/paulschiretz/pgl-mirror/pkg/logpack"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPackCompressesOlderQuartersOnly(t *testing.T) {
	hostRoot := t.TempDir()
	oldLog := filepath.Join(hostRoot, "2026q2", "2026-05-10.log")
	currentLog := filepath.Join(hostRoot, "2026q3", "2026-08-25.log")
	writeLog(t, oldLog, "old quarter run history")
	writeLog(t, currentLog, "current quarter run history")

	packer := logpack.NewPacker(logpack.Gzip, 2)
	if err := packer.Pack(context.Background(), hostRoot, "2026q3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The old quarter's log was replaced by its packed form.
	if _, err := os.Stat(oldLog); !os.IsNotExist(err) {
		t.Errorf("original log %s should have been removed", oldLog)
	}
	packed, err := os.Open(oldLog + ".gz")
	if err != nil {
		t.Fatalf("packed log missing: %v", err)
	}
	defer packed.Close()
	zr, err := pgzip.NewReader(packed)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "old quarter run history" {
		t.Errorf("packed content = %q", data)
	}

	// The current quarter's log is untouched.
	if _, err := os.Stat(currentLog); err != nil {
		t.Errorf("current quarter log should be untouched: %v", err)
	}
	if _, err := os.Stat(currentLog + ".gz"); !os.IsNotExist(err) {
		t.Error("current quarter log must not be packed")
	}
}

func TestPackZstd(t *testing.T) {
	hostRoot := t.TempDir()
	oldLog := filepath.Join(hostRoot, "2025q4", "2025-11-01.log")
	writeLog(t, oldLog, "content")

	packer := logpack.NewPacker(logpack.Zstd, 1)
	if err := packer.Pack(context.Background(), hostRoot, "2026q1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(oldLog + ".zst"); err != nil {
		t.Errorf("packed zstd log missing: %v", err)
	}
}

func TestPackDisabledIsAHint(t *testing.T) {
	packer := logpack.NewPacker(logpack.None, 1)
	err := packer.Pack(context.Background(), t.TempDir(), "2026q3")
	if !hints.IsHint(err) {
		t.Errorf("expected a hint error, got %v", err)
	}
}

func TestPackMissingHostRoot(t *testing.T) {
	packer := logpack.NewPacker(logpack.Gzip, 1)
	err := packer.Pack(context.Background(), filepath.Join(t.TempDir(), "missing"), "2026q3")
	if err != nil {
		t.Errorf("missing host root must not be an error, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    logpack.Format
		wantErr bool
	}{
		{"gzip", logpack.Gzip, false},
		{"zstd", logpack.Zstd, false},
		{"none", logpack.None, false},
		{"brotli", 0, true},
	}
	for _, tt := range tests {
		got, err := logpack.ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
