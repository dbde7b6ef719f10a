package planner

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/paulschiretz/pgl-mirror/pkg/plog"
)

// entryNamePattern matches backup entry directories (YYYY-MM-DD).
var entryNamePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Entry is one backup directory under a quarter path.
type Entry struct {
	Name    string // directory name, YYYY-MM-DD
	Path    string // absolute path
	ModTime time.Time
}

// ReadCatalog lists the backup entries under a quarter path, most recent
// first. Recency is the filesystem modification time; ties are broken by
// name descending, which for YYYY-MM-DD names is date order. A missing
// quarter directory yields an empty catalog, not an error.
func ReadCatalog(quarterPath string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(quarterPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var catalog []Entry
	for _, e := range dirEntries {
		if !e.IsDir() || !entryNamePattern.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			plog.Warn("Skipping catalog entry; cannot stat", "entry", e.Name(), "error", err)
			continue
		}
		catalog = append(catalog, Entry{
			Name:    e.Name(),
			Path:    filepath.Join(quarterPath, e.Name()),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(catalog, func(i, j int) bool {
		if !catalog[i].ModTime.Equal(catalog[j].ModTime) {
			return catalog[i].ModTime.After(catalog[j].ModTime)
		}
		return catalog[i].Name > catalog[j].Name
	})
	return catalog, nil
}
