package client

import (
	"github.com/Sternrassler/xivapi-dye-names/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for XIVAPI client operations.
var (
	xivapiRequestsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "xivapi_requests_total",
		Help: "Total XIVAPI requests by language and status",
	}, []string{"language", "status"})

	xivapiRequestDuration = promauto.With(metrics.Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xivapi_request_duration_seconds",
		Help:    "XIVAPI request duration in seconds by language",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"language"})

	xivapiErrorsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "xivapi_errors_total",
		Help: "Total XIVAPI attempt errors by class",
	}, []string{"class"})

	xivapiRetriesTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "xivapi_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	xivapiRetryBackoffSeconds = promauto.With(metrics.Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xivapi_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0, 0.5, 1, 2, 4, 8, 16},
	}, []string{"error_class"})

	xivapiRetryExhaustedTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "xivapi_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})

	xivapiFetchFailuresTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "xivapi_fetch_failures_total",
		Help: "Total unrecoverable name fetches by error class",
	}, []string{"error_class"})

	xivapiNamesFetchedTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "xivapi_names_fetched_total",
		Help: "Total names fetched successfully by language",
	}, []string{"language"})
)
