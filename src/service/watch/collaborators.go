package watch

import (
	"context"
	"time"

	"dirmetrics/src/model"
	"dirmetrics/src/service/engine"
)

// Runner performs one analysis pass
type Runner interface {
	PerformIncrementalAnalysis(ctx context.Context, cfg engine.Config) (*model.DirectoryAnalysisResult, error)
}

// Subscription delivers "something changed" signals for a watched tree.
// Signals carry no diff and may be coalesced or duplicated.
type Subscription interface {
	Events() <-chan struct{}
	Close() error
}

// Subscriber opens filesystem subscriptions
type Subscriber interface {
	Subscribe(root string, mode model.ScanMode, filters model.AnalysisFilters) (Subscription, error)
}

// Viewer displays results. The orchestrator calls UpdateView when a view
// is open for the directory and CreateView otherwise.
type Viewer interface {
	HasView(dir string) bool
	CreateView(dir string, result *model.DirectoryAnalysisResult) error
	UpdateView(dir string, result *model.DirectoryAnalysisResult) error
}

// Notifier receives lifecycle and progress events for display
type Notifier interface {
	Scheduled(dir string, delay time.Duration)
	Analyzing(dir string)
	Progress(dir string, current, total int, fileName string)
	Completed(dir string, files int)
	Failed(dir string, err error)
}

// NopNotifier discards every event
type NopNotifier struct{}

func (NopNotifier) Scheduled(string, time.Duration)   {}
func (NopNotifier) Analyzing(string)                  {}
func (NopNotifier) Progress(string, int, int, string) {}
func (NopNotifier) Completed(string, int)             {}
func (NopNotifier) Failed(string, error)              {}

// nopViewer is used when no viewer is configured
type nopViewer struct{}

func (nopViewer) HasView(string) bool                                     { return false }
func (nopViewer) CreateView(string, *model.DirectoryAnalysisResult) error { return nil }
func (nopViewer) UpdateView(string, *model.DirectoryAnalysisResult) error { return nil }
