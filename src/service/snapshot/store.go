// Package snapshot persists analysis results in BadgerDB so a later session
// can seed its first pass with the previous result.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"dirmetrics/src/config"
	"dirmetrics/src/model"
	"dirmetrics/src/util"
)

// FormatVersion is bumped whenever the persisted result shape changes.
// Records with another version are ignored.
const FormatVersion = 1

const keyPrefix = "snapshot:"

// ErrNotFound is returned when no usable snapshot exists for a directory
var ErrNotFound = errors.New("snapshot not found")

// record is the persisted value
type record struct {
	Version int                            `json:"version"`
	SavedAt time.Time                      `json:"savedAt"`
	Result  *model.DirectoryAnalysisResult `json:"result"`
}

// Entry describes a stored snapshot without its payload
type Entry struct {
	DirectoryPath string    `json:"directoryPath"`
	SavedAt       time.Time `json:"savedAt"`
	RunID         string    `json:"runId"`
	Files         int       `json:"files"`
	Version       int       `json:"version"`
}

// Store keeps one snapshot per absolute directory path
type Store struct {
	db *badger.DB
	gc *gcRunner
}

// Open opens the store described by cfg
func Open(cfg config.SnapshotConfig) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("snapshot path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create snapshot directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	s := &Store{db: db}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.gc = newGCRunner(db, cfg.GCInterval, 0.5)
		s.gc.start()
	}

	util.Debug("Snapshot store opened (path=%q, inMemory=%v)", cfg.Path, cfg.InMemory)
	return s, nil
}

// OpenInMemory opens a non-persistent store
func OpenInMemory() (*Store, error) {
	return Open(config.SnapshotConfig{InMemory: true})
}

// Close stops background GC and closes the database
func (s *Store) Close() error {
	if s.gc != nil {
		s.gc.stop()
	}
	return s.db.Close()
}

func key(dir string) ([]byte, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	return []byte(keyPrefix + abs), nil
}

// Load returns the stored result for dir or ErrNotFound
func (s *Store) Load(dir string) (*model.DirectoryAnalysisResult, error) {
	k, err := key(dir)
	if err != nil {
		return nil, err
	}

	var rec record
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &rec)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s: %w", dir, err)
	}

	if rec.Version != FormatVersion || rec.Result == nil {
		util.Debug("Ignoring snapshot for %s with version %d (want %d)", dir, rec.Version, FormatVersion)
		return nil, ErrNotFound
	}
	return rec.Result, nil
}

// Save stores result under its metadata directory path
func (s *Store) Save(result *model.DirectoryAnalysisResult) error {
	if result == nil {
		return errors.New("cannot save nil result")
	}
	if result.Metadata.DirectoryPath == "" {
		return errors.New("result has no directory path")
	}

	k, err := key(result.Metadata.DirectoryPath)
	if err != nil {
		return err
	}
	data, err := json.Marshal(record{Version: FormatVersion, SavedAt: time.Now().UTC(), Result: result})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, data)
	}); err != nil {
		return fmt.Errorf("save snapshot for %s: %w", result.Metadata.DirectoryPath, err)
	}

	util.Debug("Saved snapshot for %s (%d files, %d bytes)", result.Metadata.DirectoryPath, len(result.Files), len(data))
	return nil
}

// Delete removes the snapshot for dir. Deleting a missing snapshot is not an error.
func (s *Store) Delete(dir string) error {
	k, err := key(dir)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	}); err != nil {
		return fmt.Errorf("delete snapshot for %s: %w", dir, err)
	}
	return nil
}

// List returns every stored snapshot sorted by directory path
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	prefix := []byte(keyPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			dir := strings.TrimPrefix(string(item.Key()), keyPrefix)

			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec record
			if err := json.Unmarshal(data, &rec); err != nil {
				util.Warn("Skipping unreadable snapshot for %s: %v", dir, err)
				continue
			}

			entry := Entry{DirectoryPath: dir, SavedAt: rec.SavedAt, Version: rec.Version}
			if rec.Result != nil {
				entry.RunID = rec.Result.Metadata.RunID
				entry.Files = len(rec.Result.Files)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].DirectoryPath < entries[j].DirectoryPath
	})
	return entries, nil
}

// Clear removes every snapshot and returns how many were deleted
func (s *Store) Clear() (int, error) {
	entries, err := s.List()
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := s.Delete(e.DirectoryPath); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}
