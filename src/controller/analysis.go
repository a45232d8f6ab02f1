package controller

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"dirmetrics/src/config"
	"dirmetrics/src/model"
	"dirmetrics/src/service/engine"
	"dirmetrics/src/service/snapshot"
	"dirmetrics/src/util"
)

// AnalysisController runs one-shot analysis passes
type AnalysisController struct {
	cfg *config.Config
}

// NewAnalysisController creates a new analysis controller
func NewAnalysisController(cfg *config.Config) *AnalysisController {
	return &AnalysisController{cfg: cfg}
}

// AnalyzeRequest represents a request to analyze a directory
type AnalyzeRequest struct {
	Directory string
	ScanMode  model.ScanMode
	IsProject bool
	Filters   model.AnalysisFilters
	// UseSnapshot seeds the pass with the stored result and saves the new one
	UseSnapshot bool
	Progress    engine.ProgressFunc
}

// Analyze runs a single incremental pass
func (c *AnalysisController) Analyze(ctx context.Context, req AnalyzeRequest) (*model.DirectoryAnalysisResult, error) {
	startTime := time.Now()

	dir, err := filepath.Abs(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", req.Directory, err)
	}
	util.Info("Starting analysis for directory: %s", dir)

	eng, err := engine.NewFromConfig(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	util.Debug("Engine initialized (analyzer: %s, workers: %d)", eng.AnalyzerName(), c.cfg.Engine.Workers)

	var store *snapshot.Store
	if req.UseSnapshot && c.cfg.Snapshot.Enabled {
		store, err = snapshot.Open(c.cfg.Snapshot)
		if err != nil {
			util.Warn("Snapshots unavailable, running a full pass: %v", err)
		} else {
			defer store.Close()
		}
	}

	previous := LoadPrevious(store, dir)

	mode := model.ModeDirectory
	if req.IsProject {
		mode = model.ModeProject
	}

	result, err := eng.PerformIncrementalAnalysis(ctx, engine.Config{
		DirectoryPath:  dir,
		Filters:        req.Filters,
		ScanMode:       req.ScanMode,
		Mode:           mode,
		PreviousResult: previous,
		Progress:       req.Progress,
	})
	if err != nil {
		util.Error("Analysis of %s failed: %v", dir, err)
		return nil, err
	}

	if store != nil {
		if err := store.Save(result); err != nil {
			util.Warn("Saving snapshot for %s failed: %v", dir, err)
		}
	}

	util.Info("Analysis complete: %d files, %d functions, average complexity %.2f (took %v)",
		result.Summary.TotalFiles, result.Summary.TotalFunctions, result.Summary.AverageComplexity, time.Since(startTime))

	return result, nil
}

// LoadPrevious returns the stored result for dir, or nil when there is none
func LoadPrevious(store *snapshot.Store, dir string) *model.DirectoryAnalysisResult {
	if store == nil {
		return nil
	}
	previous, err := store.Load(dir)
	if err != nil {
		if !errors.Is(err, snapshot.ErrNotFound) {
			util.Warn("Loading snapshot for %s failed: %v", dir, err)
		}
		return nil
	}
	util.Debug("Seeding pass with snapshot %s (%d files)", previous.Metadata.RunID, len(previous.Files))
	return previous
}

// FiltersFromConfig converts the configured default filters
func FiltersFromConfig(cfg config.FiltersConfig) model.AnalysisFilters {
	return model.AnalysisFilters{
		MaxDepth:        cfg.MaxDepth,
		ExcludePatterns: append([]string(nil), cfg.ExcludePatterns...),
		MaxFileSize:     cfg.MaxFileSize,
	}
}
