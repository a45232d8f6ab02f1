package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// passTotal counts analysis passes by result
	passTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dirmetrics_engine_passes_total",
		Help: "Total analysis passes by result and kind",
	}, []string{"result", "kind"})

	// passDuration tracks end-to-end pass latency
	passDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dirmetrics_engine_pass_duration_seconds",
		Help:    "Analysis pass duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
	})

	// analyzerInvocations counts single-file analyzer calls by outcome
	analyzerInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dirmetrics_analyzer_invocations_total",
		Help: "Single-file analyzer invocations by backend and outcome",
	}, []string{"backend", "outcome"})

	// analyzerDuration tracks per-file analyzer latency
	analyzerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dirmetrics_analyzer_duration_seconds",
		Help:    "Single-file analyzer duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"backend"})

	// filesByChange counts files per pass by change classification
	filesByChange = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dirmetrics_engine_files_total",
		Help: "Files seen by analysis passes by change classification",
	}, []string{"change"})
)
