// Package view keeps the latest result per directory for display and serves
// it over HTTP.
package view

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dirmetrics/src/model"
)

// View is one open visualization of a directory's result
type View struct {
	ID            string                         `json:"id"`
	DirectoryPath string                         `json:"directoryPath"`
	CreatedAt     time.Time                      `json:"createdAt"`
	UpdatedAt     time.Time                      `json:"updatedAt"`
	Revision      int                            `json:"revision"`
	Result        *model.DirectoryAnalysisResult `json:"result"`
}

// Info is a view without its result payload
type Info struct {
	ID            string    `json:"id"`
	DirectoryPath string    `json:"directoryPath"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Revision      int       `json:"revision"`
	TotalFiles    int       `json:"totalFiles"`
}

// Registry is an in-process set of views, at most one per directory.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byDir map[string]*View
	byID  map[string]*View
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byDir: make(map[string]*View),
		byID:  make(map[string]*View),
	}
}

func normalize(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// HasView reports whether a view is open for dir
func (r *Registry) HasView(dir string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byDir[normalize(dir)]
	return ok
}

// CreateView opens a view for dir, replacing any existing one
func (r *Registry) CreateView(dir string, result *model.DirectoryAnalysisResult) error {
	if result == nil {
		return fmt.Errorf("cannot create view for %s without a result", dir)
	}
	dir = normalize(dir)
	now := time.Now()
	v := &View{
		ID:            uuid.New().String(),
		DirectoryPath: dir,
		CreatedAt:     now,
		UpdatedAt:     now,
		Revision:      1,
		Result:        result,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byDir[dir]; ok {
		delete(r.byID, old.ID)
	}
	r.byDir[dir] = v
	r.byID[v.ID] = v
	return nil
}

// UpdateView replaces the result shown for dir. A missing view is created.
func (r *Registry) UpdateView(dir string, result *model.DirectoryAnalysisResult) error {
	if result == nil {
		return fmt.Errorf("cannot update view for %s without a result", dir)
	}
	dir = normalize(dir)

	r.mu.Lock()
	old, ok := r.byDir[dir]
	if ok {
		// Views are replaced, never mutated, so readers holding the old one stay consistent
		updated := *old
		updated.Result = result
		updated.UpdatedAt = time.Now()
		updated.Revision++
		r.byDir[dir] = &updated
		r.byID[updated.ID] = &updated
	}
	r.mu.Unlock()

	if !ok {
		return r.CreateView(dir, result)
	}
	return nil
}

// Get returns the view with id
func (r *Registry) Get(id string) (*View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.byID[id]
	return v, ok
}

// ForDirectory returns the view open for dir
func (r *Registry) ForDirectory(dir string) (*View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.byDir[normalize(dir)]
	return v, ok
}

// Delete closes the view with id
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	delete(r.byDir, v.DirectoryPath)
	return true
}

// List returns every view sorted by directory path
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.byID))
	for _, v := range r.byID {
		info := Info{
			ID:            v.ID,
			DirectoryPath: v.DirectoryPath,
			CreatedAt:     v.CreatedAt,
			UpdatedAt:     v.UpdatedAt,
			Revision:      v.Revision,
		}
		if v.Result != nil {
			info.TotalFiles = len(v.Result.Files)
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].DirectoryPath < infos[j].DirectoryPath
	})
	return infos
}
