package watch

import (
	"sync"
	"time"

	"dirmetrics/src/config"
)

// DefaultDebounce is the quiet period before a re-analysis starts
const DefaultDebounce = 2 * time.Second

// Settings holds the runtime-tunable scheduling values shared by all
// sessions. Changes apply at the next scheduling decision; subscriptions
// and in-flight passes are left alone.
type Settings struct {
	mu          sync.RWMutex
	debounce    time.Duration
	autoAnalyze bool
}

// NewSettings creates settings with the default debounce and auto-analysis on
func NewSettings() *Settings {
	return &Settings{debounce: DefaultDebounce, autoAnalyze: true}
}

// SettingsFromConfig creates settings from the watch config section
func SettingsFromConfig(cfg config.WatchConfig) *Settings {
	s := NewSettings()
	if cfg.Debounce > 0 {
		s.debounce = cfg.Debounce
	}
	s.autoAnalyze = cfg.AutoAnalyze
	return s
}

// Debounce returns the current debounce delay
func (s *Settings) Debounce() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debounce
}

// SetDebounce changes the debounce delay; non-positive values restore the default
func (s *Settings) SetDebounce(d time.Duration) {
	if d <= 0 {
		d = DefaultDebounce
	}
	s.mu.Lock()
	s.debounce = d
	s.mu.Unlock()
}

// AutoAnalyze reports whether timer fires start a pass
func (s *Settings) AutoAnalyze() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoAnalyze
}

// SetAutoAnalyze enables or disables analysis on timer fire
func (s *Settings) SetAutoAnalyze(enabled bool) {
	s.mu.Lock()
	s.autoAnalyze = enabled
	s.mu.Unlock()
}
