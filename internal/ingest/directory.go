package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

// FileResult is one discovered screenshot, or the walk error for that path.
type FileResult struct {
	Path string
	Size int64
	Err  string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
	Failed  uint32
}

// ScanDirectory walks root and returns every screenshot file under it, sorted by
// path. Unreadable entries are reported per file and do not stop the walk.
func ScanDirectory(ctx context.Context, root string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			stats.Skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			stats.Skipped++
			return nil
		}
		stats.Matched++

		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		results = append(results, FileResult{Path: path, Size: size})
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, stats, nil
}

// Refs converts the successful scan results to image references.
func Refs(results []FileResult) []entity.ImageRef {
	refs := make([]entity.ImageRef, 0, len(results))
	for _, r := range results {
		if r.Err != "" {
			continue
		}
		refs = append(refs, RefForPath(r.Path))
	}
	return refs
}
