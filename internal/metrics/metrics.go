// Package metrics provides Prometheus metrics for pipeline stages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StageErrors counts isolated per-item failures by stage.
	StageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendingpress",
			Name:      "stage_errors_total",
			Help:      "Total number of isolated failures per pipeline stage",
		},
		[]string{"stage"},
	)

	// StageProcessed counts items a stage completed.
	StageProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendingpress",
			Name:      "stage_processed_total",
			Help:      "Total number of items processed per pipeline stage",
		},
		[]string{"stage"},
	)

	// PublishOutcomes counts publish attempts by platform and status.
	PublishOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendingpress",
			Name:      "publish_outcomes_total",
			Help:      "Total number of publish attempts",
		},
		[]string{"platform", "status"},
	)

	// ComposeSource counts articles by composition path (generated or template).
	ComposeSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendingpress",
			Name:      "compose_total",
			Help:      "Articles composed, by path",
		},
		[]string{"source"},
	)

	// StageDuration measures a full stage run.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trendingpress",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stage runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"stage"},
	)
)

// RecordError records one isolated failure.
func RecordError(stage string) {
	StageErrors.WithLabelValues(stage).Inc()
}

// RecordProcessed records one completed item.
func RecordProcessed(stage string) {
	StageProcessed.WithLabelValues(stage).Inc()
}

// RecordPublish records one publish attempt.
func RecordPublish(platform, status string) {
	PublishOutcomes.WithLabelValues(platform, status).Inc()
}
