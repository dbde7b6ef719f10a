package util_test

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/paulschiretz/pgl-mirror/pkg/util"
)

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/backups", filepath.Join(home, "backups")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}
	for _, tt := range tests {
		got, err := util.ExpandPath(tt.in)
		if err != nil {
			t.Errorf("ExpandPath(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandedAbsPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := util.ExpandedAbsPath("~/backups/../data")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, "data")
	if got != want {
		t.Errorf("ExpandedAbsPath = %q, want %q", got, want)
	}
}

func TestInvertMap(t *testing.T) {
	in := map[int]string{1: "one", 2: "two"}
	got := util.InvertMap(in)
	want := map[string]int{"one": 1, "two": 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InvertMap = %v, want %v", got, want)
	}
}

func TestMergeAndDeduplicate(t *testing.T) {
	got := util.MergeAndDeduplicate(
		[]string{"a", "b"},
		[]string{"b", "c"},
		nil,
		[]string{"a", "d"},
	)
	want := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeAndDeduplicate = %v, want %v", got, want)
	}
}
