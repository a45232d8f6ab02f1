package util

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExclusionMatcher matches scanned paths against exclusion globs.
// Patterns use doublestar syntax and are matched against slash-separated
// relative paths as well as base names, so "vendor" and "**/vendor/**"
// both exclude a vendor directory at any depth.
type ExclusionMatcher struct {
	patterns []string
}

// NewExclusionMatcher creates a new exclusion matcher. Invalid patterns are
// dropped and reported through the default logger.
func NewExclusionMatcher(patterns []string) *ExclusionMatcher {
	m := &ExclusionMatcher{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		p = strings.TrimPrefix(p, "./")
		if !doublestar.ValidatePattern(p) {
			Warn("Ignoring invalid exclude pattern: %q", p)
			continue
		}
		m.patterns = append(m.patterns, p)
	}
	return m
}

// Patterns returns the accepted patterns
func (m *ExclusionMatcher) Patterns() []string {
	out := make([]string, len(m.patterns))
	copy(out, m.patterns)
	return out
}

// MatchesFile checks if a file should be excluded
func (m *ExclusionMatcher) MatchesFile(relPath string) bool {
	return m.matches(relPath, false)
}

// MatchesDir checks if a directory should be skipped entirely
func (m *ExclusionMatcher) MatchesDir(relPath string) bool {
	return m.matches(relPath, true)
}

func (m *ExclusionMatcher) matches(relPath string, isDir bool) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	relPath = strings.TrimPrefix(relPath, "./")
	base := path.Base(relPath)

	for _, pattern := range m.patterns {
		if MatchGlob(pattern, relPath) || MatchGlob(pattern, base) {
			return true
		}
		// "**/name/**" style patterns name a directory; match the directory
		// itself so it is never descended into
		if isDir && strings.HasSuffix(pattern, "/**") {
			dirPattern := strings.TrimSuffix(pattern, "/**")
			if MatchGlob(dirPattern, relPath) || MatchGlob(dirPattern, base) {
				return true
			}
		}
	}
	return false
}

// MatchGlob matches a path against a glob pattern
func MatchGlob(pattern, p string) bool {
	matched, err := doublestar.Match(pattern, p)
	return err == nil && matched
}
