// Package watch keeps analysis results live against the filesystem: one
// session per watched directory coalesces change bursts with a debounce
// timer and runs at most one incremental pass at a time.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"dirmetrics/src/model"
	"dirmetrics/src/service/engine"
	"dirmetrics/src/util"
)

// ErrClosed is returned by StartWatching after Close
var ErrClosed = errors.New("orchestrator closed")

// Options wires an Orchestrator to its collaborators
type Options struct {
	Runner     Runner
	Subscriber Subscriber
	Viewer     Viewer
	Notifier   Notifier
	Settings   *Settings
	// Filters are applied to every session's passes and subscription
	Filters model.AnalysisFilters
	// OnResult, when set, receives every accepted result (e.g. for persistence)
	OnResult func(*model.DirectoryAnalysisResult)
}

// Orchestrator owns the watch sessions, keyed by absolute directory path
type Orchestrator struct {
	opts Options

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
	// inflight holds one channel per directory with a running pass; it is
	// closed when the runner returns, even if its session already stopped
	inflight map[string]chan struct{}
}

// NewOrchestrator creates an orchestrator. Runner is required; the other
// collaborators default to fsnotify, no view and no notifications.
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Subscriber == nil {
		opts.Subscriber = NewFSNotifySubscriber()
	}
	if opts.Viewer == nil {
		opts.Viewer = nopViewer{}
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Settings == nil {
		opts.Settings = NewSettings()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
		inflight: make(map[string]chan struct{}),
	}
}

// Settings returns the shared scheduling settings
func (o *Orchestrator) Settings() *Settings {
	return o.opts.Settings
}

// StartWatching begins watching path, seeding the session with
// initialResult. An existing session for path is torn down first; a pass it
// left running still holds the directory, so the new session's first pass
// waits for it.
func (o *Orchestrator) StartWatching(path string, initialResult *model.DirectoryAnalysisResult, isProject bool, mode model.ScanMode) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	previous := o.sessions[dir]
	delete(o.sessions, dir)
	o.mu.Unlock()

	if previous != nil {
		util.Debug("Restarting watch on %s", dir)
		previous.stop()
	}

	sub, err := o.opts.Subscriber.Subscribe(dir, mode, o.opts.Filters)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", dir, err)
	}

	s := newSession(o, dir, initialResult, isProject, mode, sub)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		_ = sub.Close()
		return ErrClosed
	}
	// A concurrent StartWatching on the same path may have won; replace it
	if raced := o.sessions[dir]; raced != nil {
		defer raced.stop()
	}
	o.sessions[dir] = s
	o.mu.Unlock()

	activeSessions.Inc()
	go s.run()
	util.Info("Watching %s (%s, debounce %v)", dir, mode, o.opts.Settings.Debounce())
	return nil
}

// StopWatching ends the session for path. It is a no-op when path is not
// watched and never waits for an in-flight pass, whose result is discarded.
func (o *Orchestrator) StopWatching(path string) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return
	}

	o.mu.Lock()
	s := o.sessions[dir]
	delete(o.sessions, dir)
	o.mu.Unlock()

	if s != nil {
		s.stop()
		util.Info("Stopped watching %s", dir)
	}
}

// Trigger injects a change signal for path as if the filesystem reported one
func (o *Orchestrator) Trigger(path string) bool {
	s := o.session(path)
	if s == nil {
		return false
	}
	select {
	case s.trigger <- struct{}{}:
	default:
	}
	return true
}

// Result returns the session's current result, nil when unwatched
func (o *Orchestrator) Result(path string) *model.DirectoryAnalysisResult {
	s := o.session(path)
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// State returns the session's lifecycle state
func (o *Orchestrator) State(path string) State {
	s := o.session(path)
	if s == nil {
		return StateUnwatched
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Watched returns the watched directories, sorted
func (o *Orchestrator) Watched() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	dirs := make([]string, 0, len(o.sessions))
	for dir := range o.sessions {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Close stops every session and cancels in-flight passes
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	sessions := o.sessions
	o.sessions = make(map[string]*session)
	o.mu.Unlock()

	for _, s := range sessions {
		s.stop()
	}
	o.cancel()
}

// acquirePass claims dir for one pass, waiting while an earlier pass for the
// same directory is still running. It gives up when stop or ctx is done.
func (o *Orchestrator) acquirePass(ctx context.Context, dir string, stop <-chan struct{}) (func(), error) {
	mine := make(chan struct{})
	for {
		select {
		case <-stop:
			return nil, ErrClosed
		default:
		}

		o.mu.Lock()
		running, busy := o.inflight[dir]
		if !busy {
			o.inflight[dir] = mine
			o.mu.Unlock()
			break
		}
		o.mu.Unlock()

		util.Debug("Waiting for the previous pass on %s to finish", dir)
		select {
		case <-running:
		case <-stop:
			return nil, ErrClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return func() {
		o.mu.Lock()
		if o.inflight[dir] == mine {
			delete(o.inflight, dir)
		}
		o.mu.Unlock()
		close(mine)
	}, nil
}

func (o *Orchestrator) session(path string) *session {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessions[dir]
}

type passOutcome struct {
	result *model.DirectoryAnalysisResult
	err    error
}

// session is the per-directory state machine. All transitions happen on the
// run goroutine; mu only publishes result and state to readers.
type session struct {
	o         *Orchestrator
	dir       string
	isProject bool
	mode      model.ScanMode
	sub       Subscription

	trigger  chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	result *model.DirectoryAnalysisResult
	state  State
}

func newSession(o *Orchestrator, dir string, initial *model.DirectoryAnalysisResult, isProject bool, mode model.ScanMode, sub Subscription) *session {
	return &session{
		o:         o,
		dir:       dir,
		isProject: isProject,
		mode:      mode,
		sub:       sub,
		trigger:   make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		result:    initial,
		state:     StateIdle,
	}
}

// stop tears the session down without waiting for an in-flight pass
func (s *session) stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if err := s.sub.Close(); err != nil {
			util.Debug("Closing subscription for %s: %v", s.dir, err)
		}
		<-s.doneCh
		activeSessions.Dec()
		s.mu.Lock()
		s.state = StateUnwatched
		s.result = nil
		s.mu.Unlock()
	})
}

func (s *session) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *session) run() {
	defer close(s.doneCh)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		passC   chan passOutcome
		pending bool
		events  = s.sub.Events()
	)

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		timerC = nil
	}

	// schedule (re)arms the debounce timer; a replaced timer's channel is
	// never read again, so stale fires are dropped
	schedule := func() {
		if passC != nil {
			pending = true
			return
		}
		stopTimer()
		delay := s.o.opts.Settings.Debounce()
		timer = time.NewTimer(delay)
		timerC = timer.C
		s.setState(StateScheduled)
		s.o.opts.Notifier.Scheduled(s.dir, delay)
	}

	for {
		select {
		case <-s.stopCh:
			stopTimer()
			return

		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			changeSignals.WithLabelValues("filesystem").Inc()
			schedule()

		case <-s.trigger:
			changeSignals.WithLabelValues("trigger").Inc()
			schedule()

		case <-timerC:
			timer, timerC = nil, nil
			if !s.o.opts.Settings.AutoAnalyze() {
				util.Debug("Auto-analysis disabled, skipping pass for %s", s.dir)
				watchPasses.WithLabelValues("skipped").Inc()
				s.setState(StateIdle)
				continue
			}
			passC = s.startPass()

		case out := <-passC:
			passC = nil
			if s.stopped() {
				watchPasses.WithLabelValues("discarded").Inc()
				return
			}
			s.finishPass(out)
			s.setState(StateIdle)
			if pending {
				pending = false
				schedule()
			}
		}
	}
}

func (s *session) startPass() chan passOutcome {
	s.setState(StateAnalyzing)
	s.o.opts.Notifier.Analyzing(s.dir)

	s.mu.RLock()
	previous := s.result
	s.mu.RUnlock()

	analysisMode := model.ModeDirectory
	if s.isProject {
		analysisMode = model.ModeProject
	}

	cfg := engine.Config{
		DirectoryPath:  s.dir,
		Filters:        s.o.opts.Filters,
		ScanMode:       s.mode,
		Mode:           analysisMode,
		PreviousResult: previous,
		Progress: func(current, total int, fileName string) {
			s.o.opts.Notifier.Progress(s.dir, current, total, fileName)
		},
	}

	// Buffered so the pass never blocks when the session has stopped
	done := make(chan passOutcome, 1)
	ctx := s.o.ctx
	runner := s.o.opts.Runner
	go func() {
		release, err := s.o.acquirePass(ctx, s.dir, s.stopCh)
		if err != nil {
			done <- passOutcome{err: err}
			return
		}
		defer release()

		result, err := runner.PerformIncrementalAnalysis(ctx, cfg)
		done <- passOutcome{result: result, err: err}
	}()
	return done
}

func (s *session) finishPass(out passOutcome) {
	if out.err == nil && out.result == nil {
		out.err = errors.New("analysis returned no result")
	}
	if out.err != nil {
		util.Error("Analysis of %s failed: %v", s.dir, out.err)
		watchPasses.WithLabelValues("failed").Inc()
		s.o.opts.Notifier.Failed(s.dir, out.err)
		return
	}
	watchPasses.WithLabelValues("success").Inc()

	s.mu.Lock()
	s.result = out.result
	s.mu.Unlock()

	if s.o.opts.OnResult != nil {
		s.o.opts.OnResult(out.result)
	}

	viewer := s.o.opts.Viewer
	var err error
	if viewer.HasView(s.dir) {
		err = viewer.UpdateView(s.dir, out.result)
	} else {
		err = viewer.CreateView(s.dir, out.result)
	}
	if err != nil {
		util.Warn("Updating view for %s failed: %v", s.dir, err)
	}

	s.o.opts.Notifier.Completed(s.dir, len(out.result.Files))
}
