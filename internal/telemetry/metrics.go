package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SurveyResponsesTotal tracks accepted survey responses
	SurveyResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_responses_total",
			Help: "Total number of accepted survey responses",
		},
		[]string{"source"}, // "api"
	)

	// ResponseRejectionsTotal tracks answer sets rejected by validation
	ResponseRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_response_rejections_total",
			Help: "Total number of answer sets rejected by validation",
		},
		[]string{"reason"},
	)

	// AggregationCacheLookups tracks cache-aside reads on the results path
	AggregationCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_cache_lookups_total",
			Help: "Aggregation report cache lookups by result",
		},
		[]string{"result"}, // "hit" or "miss"
	)

	// ExportsTotal tracks generated tabular exports
	ExportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "survey_exports_total",
			Help: "Total number of tabular exports generated",
		},
	)

	// HTTPRequestDuration tracks HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RegisterMetrics registers all Prometheus metrics
// This is called during application startup
func RegisterMetrics() {
	// Metrics are auto-registered via promauto, but we keep this function
	// for consistency and future manual registration if needed
}
