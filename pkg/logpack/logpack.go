// Package logpack compresses the run logs of completed quarters. Backup
// trees themselves are never compressed (they are live hard-linked mirrors),
// but a quarter's .log files stop growing once the quarter is over and only
// cost space from then on.
//
// Only quarter directories strictly older than the current quarter are
// touched, so an append target is never packed out from under a run.
package logpack

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/paulschiretz/pgl-mirror/pkg/hints"
	"github.com/paulschiretz/pgl-mirror/pkg/plog"
	"github.com/paulschiretz/pgl-mirror/pkg/util"
)

var ErrDisabled = hints.New("log packing is disabled")

// quarterNamePattern matches quarter directories (<year>q<quarter>).
// Names sort lexicographically in chronological order (fixed widths).
var quarterNamePattern = regexp.MustCompile(`^\d{4}q[1-4]$`)

// Packer compresses run logs with a bounded worker group.
type Packer struct {
	format  Format
	workers int
}

// NewPacker creates a Packer. workers < 1 falls back to 1.
func NewPacker(format Format, workers int) *Packer {
	if workers < 1 {
		workers = 1
	}
	return &Packer{format: format, workers: workers}
}

// Pack compresses every plain .log file found in quarter directories under
// hostRoot whose name sorts before currentQuarterName. Each original is
// removed once its packed replacement is fully written. Files that are
// already packed are skipped.
func (p *Packer) Pack(ctx context.Context, hostRoot, currentQuarterName string) error {
	if p.format == None {
		return ErrDisabled
	}

	entries, err := os.ReadDir(hostRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read host root %s: %w", hostRoot, err)
	}

	var logFiles []string
	for _, entry := range entries {
		if !entry.IsDir() || !quarterNamePattern.MatchString(entry.Name()) {
			continue
		}
		if entry.Name() >= currentQuarterName {
			continue
		}
		quarterDir := filepath.Join(hostRoot, entry.Name())
		matches, err := filepath.Glob(filepath.Join(quarterDir, "*.log"))
		if err != nil {
			return fmt.Errorf("failed to scan quarter %s: %w", quarterDir, err)
		}
		logFiles = append(logFiles, matches...)
	}

	if len(logFiles) == 0 {
		return nil
	}

	plog.Info("Packing run logs of completed quarters", "files", len(logFiles), "format", p.format.String())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, logFile := range logFiles {
		logFile := logFile
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return p.packFile(logFile)
		})
	}
	return g.Wait()
}

// packFile compresses a single log file to a sibling with the format's
// extension and removes the original. The packed file is written via a .tmp
// name and renamed into place so an interrupted run never leaves a
// truncated packed log behind.
func (p *Packer) packFile(path string) error {
	packedPath := path + p.format.Extension()
	tmpPath := packedPath + ".tmp"

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open log %s: %w", path, err)
	}
	defer in.Close()

	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, util.UserWritableFilePerms)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", tmpPath, err)
	}
	defer out.Close()
	defer os.Remove(tmpPath) // no-op after a successful rename

	var compressed io.WriteCloser
	switch p.format {
	case Gzip:
		compressed, err = pgzip.NewWriterLevel(out, pgzip.DefaultCompression)
		if err != nil {
			return fmt.Errorf("could not create gzip writer: %w", err)
		}
	case Zstd:
		compressed, err = zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("could not create zstd writer: %w", err)
		}
	default:
		return fmt.Errorf("unsupported log pack format: %s", p.format)
	}

	if _, err := io.Copy(compressed, in); err != nil {
		compressed.Close()
		return fmt.Errorf("could not compress %s: %w", path, err)
	}
	if err := compressed.Close(); err != nil {
		return fmt.Errorf("could not finish compressing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, packedPath); err != nil {
		return fmt.Errorf("could not move packed log into place: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("could not remove original log %s: %w", path, err)
	}
	plog.Debug("Packed run log", "original", path, "packed", packedPath)
	return nil
}
