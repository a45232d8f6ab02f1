// Package changes classifies scanned files against a previous analysis result.
package changes

import (
	"sort"

	"dirmetrics/src/model"
	"dirmetrics/src/service/scanner"
	"dirmetrics/src/util"
)

// HashFunc computes the content digest of a file
type HashFunc func(path string) (string, error)

// ChangeSet partitions current and previous files. Every current file is in
// exactly one of Added, Modified or Unchanged; Deleted holds previous files
// missing from the scan.
type ChangeSet struct {
	Added     []scanner.FileEntry
	Modified  []scanner.FileEntry
	Unchanged []scanner.FileEntry
	Deleted   []string // relative paths

	// Hashes holds the current digest of every file that could be hashed
	Hashes map[string]string
	// HashErrors maps relative paths to the hashing error that forced re-analysis
	HashErrors map[string]error
}

// Total returns the number of current files
func (c *ChangeSet) Total() int {
	return len(c.Added) + len(c.Modified) + len(c.Unchanged)
}

// ToAnalyze returns added and modified files, sorted by relative path
func (c *ChangeSet) ToAnalyze() []scanner.FileEntry {
	out := make([]scanner.FileEntry, 0, len(c.Added)+len(c.Modified))
	out = append(out, c.Added...)
	out = append(out, c.Modified...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].RelativePath < out[j].RelativePath
	})
	return out
}

// HasChanges reports whether anything was added, modified or deleted
func (c *ChangeSet) HasChanges() bool {
	return len(c.Added) > 0 || len(c.Modified) > 0 || len(c.Deleted) > 0
}

// Detect classifies current against previous. It works only over the
// scanner's file list. With no previous result every file is added and
// nothing is hashed; a file that fails to hash is treated as modified.
func Detect(current []scanner.FileEntry, previous *model.DirectoryAnalysisResult, hashFn HashFunc) *ChangeSet {
	cs := &ChangeSet{
		Hashes:     make(map[string]string),
		HashErrors: make(map[string]error),
	}

	prevHashes := make(map[string]string)
	if previous != nil {
		for _, f := range previous.Files {
			prevHashes[f.RelativePath] = f.FileHash
		}
	}

	seen := make(map[string]struct{}, len(current))
	for _, entry := range current {
		if _, dup := seen[entry.RelativePath]; dup {
			continue
		}
		seen[entry.RelativePath] = struct{}{}

		prevHash, existed := prevHashes[entry.RelativePath]
		if !existed {
			cs.Added = append(cs.Added, entry)
			continue
		}

		hash, err := hashFn(entry.AbsolutePath)
		if err != nil {
			util.Debug("Hash failed for %s, treating as modified: %v", entry.RelativePath, err)
			cs.HashErrors[entry.RelativePath] = err
			cs.Modified = append(cs.Modified, entry)
			continue
		}
		cs.Hashes[entry.RelativePath] = hash

		if prevHash == "" || hash != prevHash {
			cs.Modified = append(cs.Modified, entry)
		} else {
			cs.Unchanged = append(cs.Unchanged, entry)
		}
	}

	for rel := range prevHashes {
		if _, ok := seen[rel]; !ok {
			cs.Deleted = append(cs.Deleted, rel)
		}
	}

	byPath := func(entries []scanner.FileEntry) {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].RelativePath < entries[j].RelativePath
		})
	}
	byPath(cs.Added)
	byPath(cs.Modified)
	byPath(cs.Unchanged)
	sort.Strings(cs.Deleted)

	return cs
}
