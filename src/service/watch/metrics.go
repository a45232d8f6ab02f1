package watch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dirmetrics_watch_sessions",
		Help: "Number of watched directories",
	})

	// changeSignals counts inbound change signals by source
	changeSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dirmetrics_watch_change_signals_total",
		Help: "Change signals received by watch sessions",
	}, []string{"source"})

	// watchPasses counts scheduled passes by outcome
	watchPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dirmetrics_watch_passes_total",
		Help: "Watch-triggered analysis passes by outcome",
	}, []string{"outcome"})
)
