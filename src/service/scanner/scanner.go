// Package scanner enumerates analyzable files below a root directory.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dirmetrics/src/model"
	"dirmetrics/src/util"
)

// FileEntry describes a discovered file
type FileEntry struct {
	AbsolutePath string
	RelativePath string // slash-separated, relative to the scan root
	SizeBytes    int64
}

// Stats counts what a scan skipped
type Stats struct {
	Files         int
	DirsExcluded  int
	FilesExcluded int
	TooLarge      int
	Unsupported   int
	TooDeep       int
	Symlinks      int
	Errors        int
}

// Scanner walks directory trees applying AnalysisFilters
type Scanner struct{}

// New creates a scanner
func New() *Scanner {
	return &Scanner{}
}

// Scan returns the files under root that pass filters, sorted by relative path.
// Only an unreadable root fails the scan; entries that vanish or cannot be
// read during the walk are skipped.
func (s *Scanner) Scan(ctx context.Context, root string, filters model.AnalysisFilters, mode model.ScanMode) ([]FileEntry, error) {
	files, _, err := s.ScanWithStats(ctx, root, filters, mode)
	return files, err
}

// ScanWithStats is Scan plus skip counters
func (s *Scanner) ScanWithStats(ctx context.Context, root string, filters model.AnalysisFilters, mode model.ScanMode) ([]FileEntry, Stats, error) {
	var stats Stats

	if err := filters.Validate(); err != nil {
		return nil, stats, fmt.Errorf("invalid filters: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, stats, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, stats, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("%s is not a directory", absRoot)
	}

	maxDepth := filters.EffectiveDepth(mode)
	exclusions := util.NewExclusionMatcher(filters.ExcludePatterns)

	var files []FileEntry
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if walkErr != nil {
			if path == absRoot {
				return walkErr
			}
			// Vanished or unreadable entry
			stats.Errors++
			util.Debug("Skipping unreadable path %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == absRoot {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			stats.Errors++
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.Type()&fs.ModeSymlink != 0 {
			stats.Symlinks++
			return nil
		}

		if d.IsDir() {
			if exclusions.MatchesDir(relPath) {
				stats.DirsExcluded++
				return filepath.SkipDir
			}
			// Files inside this directory sit at depth = its segment count
			if segments(relPath) > maxDepth {
				stats.TooDeep++
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if !model.IsSupportedExtension(filepath.Ext(d.Name())) {
			stats.Unsupported++
			return nil
		}
		if exclusions.MatchesFile(relPath) {
			stats.FilesExcluded++
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			// Removed between ReadDir and Info
			stats.Errors++
			return nil
		}
		if filters.MaxFileSize > 0 && fi.Size() > filters.MaxFileSize {
			stats.TooLarge++
			return nil
		}

		files = append(files, FileEntry{
			AbsolutePath: path,
			RelativePath: relPath,
			SizeBytes:    fi.Size(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, stats, err
		}
		return nil, stats, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})
	stats.Files = len(files)

	util.Debug("Scanned %s: %d files (%d dirs excluded, %d files excluded, %d too large, %d unsupported, %d symlinks, %d errors)",
		absRoot, stats.Files, stats.DirsExcluded, stats.FilesExcluded, stats.TooLarge, stats.Unsupported, stats.Symlinks, stats.Errors)

	return files, stats, nil
}

func segments(relPath string) int {
	if relPath == "" || relPath == "." {
		return 0
	}
	return strings.Count(relPath, "/") + 1
}
