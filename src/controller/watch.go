package controller

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"dirmetrics/src/config"
	"dirmetrics/src/model"
	"dirmetrics/src/service/engine"
	"dirmetrics/src/service/snapshot"
	"dirmetrics/src/service/view"
	"dirmetrics/src/service/watch"
	"dirmetrics/src/util"
)

// WatchController keeps results for a set of directories live until closed
type WatchController struct {
	cfg          *config.Config
	orchestrator *watch.Orchestrator
	registry     *view.Registry
	store        *snapshot.Store
	server       *view.Server
}

// WatchRequest describes the directories to watch
type WatchRequest struct {
	Directories []string
	ScanMode    model.ScanMode
	IsProject   bool
	Filters     model.AnalysisFilters
	UseSnapshot bool
}

// NewWatchController wires the engine, snapshot store, view registry and
// (when enabled) the view server. notifier may be nil.
func NewWatchController(cfg *config.Config, notifier watch.Notifier, filters model.AnalysisFilters, useSnapshot bool) (*WatchController, error) {
	eng, err := engine.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	c := &WatchController{cfg: cfg, registry: view.NewRegistry()}

	if useSnapshot && cfg.Snapshot.Enabled {
		if c.store, err = snapshot.Open(cfg.Snapshot); err != nil {
			util.Warn("Snapshots unavailable, results will not be persisted: %v", err)
			c.store = nil
		}
	}

	c.orchestrator = watch.NewOrchestrator(watch.Options{
		Runner:   eng,
		Viewer:   c.registry,
		Notifier: notifier,
		Settings: watch.SettingsFromConfig(cfg.Watch),
		Filters:  filters,
		OnResult: c.persist,
	})

	if cfg.Server.Enabled {
		c.server = view.NewServer(cfg.Server.Listen, view.NewHandlers(c.registry, cfg.Agent.Version))
		if err := c.server.Start(); err != nil {
			c.Close(context.Background())
			return nil, err
		}
	}

	return c, nil
}

// Start begins watching every requested directory. Each session is seeded
// with its stored snapshot, if any, and an initial pass is triggered.
func (c *WatchController) Start(req WatchRequest) error {
	for _, d := range req.Directories {
		dir, err := filepath.Abs(d)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", d, err)
		}

		previous := LoadPrevious(c.store, dir)
		if previous != nil {
			if err := c.registry.CreateView(dir, previous); err != nil {
				util.Warn("Creating view for %s failed: %v", dir, err)
			}
		}

		if err := c.orchestrator.StartWatching(dir, previous, req.IsProject, req.ScanMode); err != nil {
			return err
		}
		c.orchestrator.Trigger(dir)
	}
	return nil
}

// Orchestrator exposes the underlying orchestrator
func (c *WatchController) Orchestrator() *watch.Orchestrator {
	return c.orchestrator
}

// Registry exposes the view registry
func (c *WatchController) Registry() *view.Registry {
	return c.registry
}

// ServerAddr returns the view server address, empty when disabled
func (c *WatchController) ServerAddr() string {
	if c.server == nil {
		return ""
	}
	return c.server.Addr()
}

// Close stops all sessions, the server and the snapshot store
func (c *WatchController) Close(ctx context.Context) error {
	var errs []error
	if c.orchestrator != nil {
		c.orchestrator.Close()
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down view server: %w", err))
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing snapshot store: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *WatchController) persist(result *model.DirectoryAnalysisResult) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(result); err != nil {
		util.Warn("Saving snapshot for %s failed: %v", result.Metadata.DirectoryPath, err)
	}
}
