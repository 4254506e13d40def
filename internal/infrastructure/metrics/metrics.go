package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Generation outcomes per feature
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatorhub",
			Subsystem: "creation_api",
			Name:      "generations_total",
			Help:      "Total generation requests by feature and outcome",
		},
		[]string{"feature", "outcome"},
	)

	// End-to-end generation duration
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creatorhub",
			Subsystem: "creation_api",
			Name:      "generation_duration_seconds",
			Help:      "Generation request duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"feature"},
	)

	// Quota gate rejections
	QuotaRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatorhub",
			Subsystem: "creation_api",
			Name:      "quota_rejections_total",
			Help:      "Requests rejected by the quota gate",
		},
		[]string{"feature", "tier"},
	)

	// Safety gate blocks
	SafetyBlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatorhub",
			Subsystem: "creation_api",
			Name:      "safety_blocks_total",
			Help:      "Requests blocked by the safety gate",
		},
		[]string{"feature"},
	)

	// External backend calls
	BackendCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatorhub",
			Subsystem: "creation_api",
			Name:      "backend_calls_total",
			Help:      "External backend calls by backend and status",
		},
		[]string{"backend", "status"},
	)

	// External backend latency
	BackendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creatorhub",
			Subsystem: "creation_api",
			Name:      "backend_duration_seconds",
			Help:      "External backend call duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"backend"},
	)
)

// RecordGeneration records one finished generation request.
func RecordGeneration(feature, outcome string, durationSec float64) {
	GenerationsTotal.WithLabelValues(feature, outcome).Inc()
	GenerationDuration.WithLabelValues(feature).Observe(durationSec)
}

// RecordQuotaRejection records a quota gate rejection.
func RecordQuotaRejection(feature, tier string) {
	QuotaRejectionsTotal.WithLabelValues(feature, tier).Inc()
}

// RecordSafetyBlock records a safety gate block.
func RecordSafetyBlock(feature string) {
	SafetyBlocksTotal.WithLabelValues(feature).Inc()
}

// RecordBackendCall records an external backend call.
func RecordBackendCall(backend, status string, durationSec float64) {
	BackendCallsTotal.WithLabelValues(backend, status).Inc()
	BackendDuration.WithLabelValues(backend).Observe(durationSec)
}
