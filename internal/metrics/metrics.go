// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

// Package metrics holds the Prometheus collectors exported on /metrics.
//
// Collectors are registered on the default registry through promauto at
// package init. Callers use the Record* helpers rather than touching the
// vectors directly so label values stay consistent.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store call outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeDuplicate = "duplicate"
	OutcomeTimeout   = "timeout"
	OutcomeError     = "error"
)

var (
	// Store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidstream_store_call_duration_seconds",
			Help:    "Duration of record store calls in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		},
		[]string{"operation", "outcome"},
	)

	DBConflictRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_store_conflict_retries_total",
			Help: "DuckDB transaction conflicts retried, by operation",
		},
		[]string{"operation"},
	)

	// Analytics metrics
	ViewsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_views_recorded_total",
			Help: "View events recorded, by the path that committed them",
		},
		[]string{"path"}, // "increment", "create", "create_race_retry"
	)

	ViewErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_view_errors_total",
			Help: "View events rejected, by error kind",
		},
		[]string{"kind"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidstream_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidstream_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_cache_hits_total",
			Help: "Total number of directory cache hits",
		},
		[]string{"cache_type"}, // "user", "video"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_cache_misses_total",
			Help: "Total number of directory cache misses",
		},
		[]string{"cache_type"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_cache_invalidations_total",
			Help: "Total number of directory cache invalidations",
		},
		[]string{"cache_type"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vidstream_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Media host metrics
	MediaOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidstream_media_operation_duration_seconds",
			Help:    "Duration of media host operations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 300},
		},
		[]string{"backend", "operation", "result"},
	)

	MediaUploadBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_media_upload_bytes_total",
			Help: "Bytes written to the media host",
		},
		[]string{"backend"},
	)

	// Event metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_events_published_total",
			Help: "Domain events published, by topic",
		},
		[]string{"topic"},
	)

	EventsPublishFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_events_publish_failed_total",
			Help: "Domain events that could not be published, by topic",
		},
		[]string{"topic"},
	)

	// Catalog metrics
	PlaybackDenied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidstream_playback_denied_total",
			Help: "Playback requests for paid videos refused for lack of a subscription",
		},
	)
)

// RecordDBQuery records the duration and outcome of one store call.
func RecordDBQuery(operation, outcome string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// RecordViewRecorded counts a committed view by the path that committed it.
func RecordViewRecorded(path string) {
	ViewsRecorded.WithLabelValues(path).Inc()
}

// RecordViewError counts a rejected view by error kind.
func RecordViewError(kind string) {
	ViewErrors.WithLabelValues(kind).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup counts a directory cache hit or miss.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordCacheInvalidation counts a directory cache invalidation.
func RecordCacheInvalidation(cacheType string) {
	CacheInvalidations.WithLabelValues(cacheType).Inc()
}

// RecordMediaOperation records one media host call.
func RecordMediaOperation(backend, operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	MediaOperationDuration.WithLabelValues(backend, operation, result).Observe(duration.Seconds())
}

// RecordEventPublish counts a publish attempt for topic.
func RecordEventPublish(topic string, err error) {
	if err != nil {
		EventsPublishFailed.WithLabelValues(topic).Inc()
		return
	}
	EventsPublished.WithLabelValues(topic).Inc()
}
