package snapshot

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"dirmetrics/src/util"
)

// badgerLogger routes BadgerDB's internal logging through util's logger.
// Badger's info output is chatty, so it is demoted to debug.
type badgerLogger struct{}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	util.Error("badger: "+format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	util.Warn("badger: "+format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	util.Debug("badger: "+format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	util.Debug("badger: "+format, args...)
}

// gcRunner periodically runs value log garbage collection
type gcRunner struct {
	db       *badger.DB
	interval time.Duration
	ratio    float64
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newGCRunner(db *badger.DB, interval time.Duration, ratio float64) *gcRunner {
	return &gcRunner{
		db:       db,
		interval: interval,
		ratio:    ratio,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (r *gcRunner) start() {
	go r.run()
}

func (r *gcRunner) stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *gcRunner) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			// ErrNoRewrite means there was nothing to collect
			if err := r.db.RunValueLogGC(r.ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				util.Warn("Snapshot store GC error: %v", err)
			}
		}
	}
}
