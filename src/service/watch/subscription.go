package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"dirmetrics/src/model"
	"dirmetrics/src/util"
)

// FSNotifySubscriber watches directories with fsnotify. Shallow subscriptions
// watch only the root; deep ones add every non-excluded subdirectory within
// the depth limit and pick up directories created later.
type FSNotifySubscriber struct{}

// NewFSNotifySubscriber creates the default subscriber
func NewFSNotifySubscriber() *FSNotifySubscriber {
	return &FSNotifySubscriber{}
}

// Subscribe starts watching root
func (s *FSNotifySubscriber) Subscribe(root string, mode model.ScanMode, filters model.AnalysisFilters) (Subscription, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	sub := &fsSubscription{
		root:       absRoot,
		watcher:    watcher,
		exclusions: util.NewExclusionMatcher(filters.ExcludePatterns),
		maxDepth:   filters.EffectiveDepth(mode),
		dirs:       make(map[string]bool),
		events:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	if err := watcher.Add(absRoot); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", absRoot, err)
	}
	if mode == model.ScanDeep {
		sub.addRecursive(absRoot)
	} else {
		sub.trackChildren(absRoot)
	}

	go sub.processEvents()

	util.Debug("Subscribed to %s (%s, %d watched directories)", absRoot, mode, len(watcher.WatchList()))
	return sub, nil
}

type fsSubscription struct {
	root       string
	watcher    *fsnotify.Watcher
	exclusions *util.ExclusionMatcher
	maxDepth   int
	// dirs remembers directories below the root so their removal is still
	// recognized once the path is gone; only the event goroutine touches it
	dirs map[string]bool

	events    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (s *fsSubscription) Events() <-chan struct{} {
	return s.events
}

func (s *fsSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.watcher.Close()
	})
	return err
}

// relative returns the slash-separated path of p below the root
func (s *fsSubscription) relative(p string) (string, bool) {
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// watchable reports whether a directory at rel may be added. Files inside it
// sit at depth = its segment count, which must not exceed maxDepth.
func (s *fsSubscription) watchable(rel string) bool {
	if s.exclusions.MatchesDir(rel) {
		return false
	}
	return strings.Count(rel, "/")+1 <= s.maxDepth
}

func (s *fsSubscription) addRecursive(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path == s.root {
			return nil
		}
		s.dirs[path] = true
		rel, ok := s.relative(path)
		if !ok || !s.watchable(rel) {
			return filepath.SkipDir
		}
		if err := s.watcher.Add(path); err != nil {
			util.Debug("Cannot watch %s: %v", path, err)
			return filepath.SkipDir
		}
		return nil
	})
}

// trackChildren records the root's direct subdirectories
func (s *fsSubscription) trackChildren(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			s.dirs[filepath.Join(root, e.Name())] = true
		}
	}
}

// isDir reports whether the event's path is, or was, a directory
func (s *fsSubscription) isDir(name string) bool {
	if info, err := os.Lstat(name); err == nil {
		return info.IsDir()
	}
	return s.dirs[name]
}

// relevant filters out events the scanner would never see. Directories are
// judged by name against the exclusions only, so dotted names like lib.v2
// are not mistaken for unsupported files.
func (s *fsSubscription) relevant(event fsnotify.Event, dir bool) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	rel, ok := s.relative(event.Name)
	if !ok {
		return false
	}
	if dir {
		return !s.exclusions.MatchesDir(rel)
	}
	if s.exclusions.MatchesFile(rel) {
		return false
	}
	// Extensionless paths that vanished before we saw them may be directories
	ext := filepath.Ext(rel)
	return ext == "" || model.IsSupportedExtension(ext)
}

func (s *fsSubscription) processEvents() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			dir := s.isDir(event.Name)
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				delete(s.dirs, event.Name)
			} else if dir {
				s.dirs[event.Name] = true
				if event.Has(fsnotify.Create) && s.maxDepth > 0 {
					if rel, ok := s.relative(event.Name); ok && s.watchable(rel) {
						s.addRecursive(event.Name)
					}
				}
			}

			if !s.relevant(event, dir) {
				continue
			}

			// Non-blocking: one pending signal is enough
			select {
			case s.events <- struct{}{}:
			default:
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			util.Warn("File watcher error for %s: %v", s.root, err)
		}
	}
}
