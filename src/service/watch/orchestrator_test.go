package watch

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirmetrics/src/model"
	"dirmetrics/src/service/engine"
)

const testDebounce = 60 * time.Millisecond

type fakeRunner struct {
	mu       sync.Mutex
	starts   []time.Time
	previous []*model.DirectoryAnalysisResult
	inFlight int32
	maxSeen  int32
	gate     chan struct{} // when non-nil each pass waits for a value
	err      error
}

func (r *fakeRunner) PerformIncrementalAnalysis(ctx context.Context, cfg engine.Config) (*model.DirectoryAnalysisResult, error) {
	n := atomic.AddInt32(&r.inFlight, 1)
	defer atomic.AddInt32(&r.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&r.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&r.maxSeen, seen, n) {
			break
		}
	}

	r.mu.Lock()
	r.starts = append(r.starts, time.Now())
	r.previous = append(r.previous, cfg.PreviousResult)
	gate := r.gate
	err := r.err
	pass := len(r.starts)
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if cfg.Progress != nil {
		cfg.Progress(1, 1, "a.py")
	}
	if err != nil {
		return nil, err
	}
	return &model.DirectoryAnalysisResult{
		Files:    []model.FileMetrics{{RelativePath: "a.py"}},
		Metadata: model.ResultMetadata{DirectoryPath: cfg.DirectoryPath, RunID: strconv.Itoa(pass)},
	}, nil
}

func (r *fakeRunner) passes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.starts)
}

func (r *fakeRunner) startTimes() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Time(nil), r.starts...)
}

type fakeSubscription struct {
	events chan struct{}
	closed int32
}

func (s *fakeSubscription) Events() <-chan struct{} { return s.events }

func (s *fakeSubscription) Close() error {
	atomic.AddInt32(&s.closed, 1)
	return nil
}

type fakeSubscriber struct {
	mu   sync.Mutex
	subs []*fakeSubscription
}

func (f *fakeSubscriber) Subscribe(string, model.ScanMode, model.AnalysisFilters) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSubscription{events: make(chan struct{}, 8)}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeSubscriber) last() *fakeSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[len(f.subs)-1]
}

type fakeViewer struct {
	mu      sync.Mutex
	open    map[string]bool
	creates int
	updates int
}

func (v *fakeViewer) HasView(dir string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open[dir]
}

func (v *fakeViewer) CreateView(dir string, _ *model.DirectoryAnalysisResult) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.open[dir] = true
	v.creates++
	return nil
}

func (v *fakeViewer) UpdateView(string, *model.DirectoryAnalysisResult) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.updates++
	return nil
}

func (v *fakeViewer) counts() (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.creates, v.updates
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) add(e string) {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
}

func (n *recordingNotifier) Scheduled(string, time.Duration)   { n.add("scheduled") }
func (n *recordingNotifier) Analyzing(string)                  { n.add("analyzing") }
func (n *recordingNotifier) Progress(string, int, int, string) { n.add("progress") }
func (n *recordingNotifier) Completed(string, int)             { n.add("completed") }
func (n *recordingNotifier) Failed(string, error)              { n.add("failed") }

func (n *recordingNotifier) has(e string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, got := range n.events {
		if got == e {
			return true
		}
	}
	return false
}

type harness struct {
	o        *Orchestrator
	runner   *fakeRunner
	sub      *fakeSubscriber
	viewer   *fakeViewer
	notifier *recordingNotifier
	results  int32
	dir      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		runner:   &fakeRunner{},
		sub:      &fakeSubscriber{},
		viewer:   &fakeViewer{open: map[string]bool{}},
		notifier: &recordingNotifier{},
		dir:      t.TempDir(),
	}
	settings := NewSettings()
	settings.SetDebounce(testDebounce)

	h.o = NewOrchestrator(Options{
		Runner:     h.runner,
		Subscriber: h.sub,
		Viewer:     h.viewer,
		Notifier:   h.notifier,
		Settings:   settings,
		OnResult:   func(*model.DirectoryAnalysisResult) { atomic.AddInt32(&h.results, 1) },
	})
	t.Cleanup(h.o.Close)
	return h
}

func TestBurstCoalescesIntoOnePass(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep))

	h.o.Trigger(h.dir)
	time.Sleep(15 * time.Millisecond)
	h.o.Trigger(h.dir)
	time.Sleep(15 * time.Millisecond)
	last := time.Now()
	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { return h.o.State(h.dir) == StateScheduled }, time.Second, time.Millisecond)

	require.Eventually(t, func() bool { return h.runner.passes() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDebounce)

	assert.Equal(t, 1, h.runner.passes())
	assert.GreaterOrEqual(t, h.runner.startTimes()[0].Sub(last), testDebounce-5*time.Millisecond)
	assert.Equal(t, StateIdle, h.o.State(h.dir))
	assert.NotNil(t, h.o.Result(h.dir))
	assert.True(t, h.notifier.has("scheduled"))
	assert.True(t, h.notifier.has("analyzing"))
	assert.True(t, h.notifier.has("progress"))
	assert.True(t, h.notifier.has("completed"))
}

func TestSubscriptionEventsSchedulePass(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanShallow))

	h.sub.last().events <- struct{}{}
	h.sub.last().events <- struct{}{}

	require.Eventually(t, func() bool { return h.runner.passes() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * testDebounce)
	assert.Equal(t, 1, h.runner.passes())
}

func TestEventsDuringPassQueueOneFollowUp(t *testing.T) {
	h := newHarness(t)
	h.runner.gate = make(chan struct{})
	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep))

	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { return h.o.State(h.dir) == StateAnalyzing }, time.Second, 5*time.Millisecond)

	for i := 0; i < 5; i++ {
		h.o.Trigger(h.dir)
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(2 * testDebounce)
	assert.Equal(t, 1, h.runner.passes(), "no second pass while the first is in flight")

	h.runner.gate <- struct{}{}
	require.Eventually(t, func() bool { return h.runner.passes() == 2 }, time.Second, 5*time.Millisecond)
	h.runner.gate <- struct{}{}

	require.Eventually(t, func() bool { return h.o.State(h.dir) == StateIdle }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.runner.maxSeen))
	assert.Equal(t, 2, h.runner.passes())

	// The follow-up pass was seeded with the first pass's result
	h.runner.mu.Lock()
	defer h.runner.mu.Unlock()
	assert.Nil(t, h.runner.previous[0])
	require.NotNil(t, h.runner.previous[1])
	assert.Equal(t, "1", h.runner.previous[1].Metadata.RunID)
}

func TestStopDiscardsInFlightResult(t *testing.T) {
	h := newHarness(t)
	h.runner.gate = make(chan struct{})
	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep))

	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { return h.o.State(h.dir) == StateAnalyzing }, time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		h.o.StopWatching(h.dir)
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("StopWatching blocked on the in-flight pass")
	}

	close(h.runner.gate)
	time.Sleep(2 * testDebounce)

	assert.Equal(t, StateUnwatched, h.o.State(h.dir))
	assert.Nil(t, h.o.Result(h.dir))
	assert.Zero(t, atomic.LoadInt32(&h.results))
	creates, updates := h.viewer.counts()
	assert.Zero(t, creates+updates)
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.sub.last().closed))

	h.o.StopWatching(h.dir)
	assert.False(t, h.o.Trigger(h.dir))
}

func TestRestartWaitsForRunningPass(t *testing.T) {
	h := newHarness(t)
	h.runner.gate = make(chan struct{})
	seed := &model.DirectoryAnalysisResult{Metadata: model.ResultMetadata{RunID: "seed"}}

	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep))
	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { return h.runner.passes() == 1 }, time.Second, 5*time.Millisecond)

	// The replaced session's pass is still running when the new one fires
	require.NoError(t, h.o.StartWatching(h.dir, seed, false, model.ScanDeep))
	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { return h.o.State(h.dir) == StateAnalyzing }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDebounce)
	assert.Equal(t, 1, h.runner.passes(), "second pass must wait for the first")

	h.runner.gate <- struct{}{}
	require.Eventually(t, func() bool { return h.runner.passes() == 2 }, time.Second, 5*time.Millisecond)
	h.runner.gate <- struct{}{}

	require.Eventually(t, func() bool { return h.o.State(h.dir) == StateIdle }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.runner.maxSeen))
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.results), "the old session's result is discarded")
	assert.Equal(t, "2", h.o.Result(h.dir).Metadata.RunID)

	h.runner.mu.Lock()
	defer h.runner.mu.Unlock()
	require.NotNil(t, h.runner.previous[1])
	assert.Equal(t, "seed", h.runner.previous[1].Metadata.RunID)
}

func TestStopWhileWaitingForPreviousPass(t *testing.T) {
	h := newHarness(t)
	h.runner.gate = make(chan struct{})

	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep))
	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { return h.runner.passes() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep))
	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { return h.o.State(h.dir) == StateAnalyzing }, time.Second, 5*time.Millisecond)
	h.o.StopWatching(h.dir)

	close(h.runner.gate)
	time.Sleep(3 * testDebounce)
	assert.Equal(t, 1, h.runner.passes(), "a stopped session never starts its queued pass")
	assert.Zero(t, atomic.LoadInt32(&h.results))
}

func TestStopCancelsPendingTimer(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep))

	h.o.Trigger(h.dir)
	h.o.StopWatching(h.dir)
	time.Sleep(3 * testDebounce)

	assert.Zero(t, h.runner.passes())
}

func TestRestartTearsDownPreviousSession(t *testing.T) {
	h := newHarness(t)
	seed := &model.DirectoryAnalysisResult{Metadata: model.ResultMetadata{RunID: "seed"}}

	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep))
	first := h.sub.last()
	h.o.Trigger(h.dir)

	require.NoError(t, h.o.StartWatching(h.dir, seed, true, model.ScanShallow))
	assert.Equal(t, int32(1), atomic.LoadInt32(&first.closed))
	assert.Len(t, h.o.Watched(), 1)
	assert.Equal(t, StateIdle, h.o.State(h.dir))
	assert.Equal(t, "seed", h.o.Result(h.dir).Metadata.RunID)

	time.Sleep(3 * testDebounce)
	assert.Zero(t, h.runner.passes(), "the old session's timer must not fire")
}

func TestAutoAnalyzeDisabledSkipsPass(t *testing.T) {
	h := newHarness(t)
	h.o.Settings().SetAutoAnalyze(false)
	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep))

	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { return h.o.State(h.dir) == StateIdle }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * testDebounce)
	assert.Zero(t, h.runner.passes())

	h.o.Settings().SetAutoAnalyze(true)
	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { return h.runner.passes() == 1 }, time.Second, 5*time.Millisecond)
}

func TestDebounceChangeAppliesToNextSchedule(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep))

	h.o.Settings().SetDebounce(250 * time.Millisecond)
	start := time.Now()
	h.o.Trigger(h.dir)

	require.Eventually(t, func() bool { return h.runner.passes() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, h.runner.startTimes()[0].Sub(start), 240*time.Millisecond)
}

func TestFailedPassKeepsPreviousResult(t *testing.T) {
	h := newHarness(t)
	h.runner.err = errors.New("scan failed")
	seed := &model.DirectoryAnalysisResult{Metadata: model.ResultMetadata{RunID: "seed"}}
	require.NoError(t, h.o.StartWatching(h.dir, seed, false, model.ScanDeep))

	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { return h.notifier.has("failed") }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return h.o.State(h.dir) == StateIdle }, time.Second, 5*time.Millisecond)

	assert.Equal(t, "seed", h.o.Result(h.dir).Metadata.RunID)
	assert.Zero(t, atomic.LoadInt32(&h.results))

	// Later events still retry
	h.runner.mu.Lock()
	h.runner.err = nil
	h.runner.mu.Unlock()
	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&h.results) == 1 }, time.Second, 5*time.Millisecond)
}

func TestViewerCreateThenUpdate(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep))

	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { c, _ := h.viewer.counts(); return c == 1 }, time.Second, 5*time.Millisecond)

	h.o.Trigger(h.dir)
	require.Eventually(t, func() bool { _, u := h.viewer.counts(); return u == 1 }, time.Second, 5*time.Millisecond)

	creates, _ := h.viewer.counts()
	assert.Equal(t, 1, creates)
}

func TestCloseRejectsNewSessions(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep))
	h.o.Close()

	assert.Empty(t, h.o.Watched())
	assert.ErrorIs(t, h.o.StartWatching(h.dir, nil, false, model.ScanDeep), ErrClosed)
}

func TestDefaultCollaborators(t *testing.T) {
	runner := &fakeRunner{}
	o := NewOrchestrator(Options{Runner: runner})
	t.Cleanup(o.Close)
	o.Settings().SetDebounce(testDebounce)

	var _ Notifier = NopNotifier{}
	dir := t.TempDir()
	require.NoError(t, o.StartWatching(dir, nil, false, model.ScanShallow))
	o.Trigger(dir)

	require.Eventually(t, func() bool { return o.Result(dir) != nil }, time.Second, 5*time.Millisecond)
	assert.False(t, nopViewer{}.HasView(dir))
	assert.Equal(t, StateIdle, o.State(dir))
}
