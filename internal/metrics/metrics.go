// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

// Package metrics exposes Prometheus instrumentation for the API, the
// cache, and the upstream backend client. All collectors are registered
// with the default registry and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by method, path, and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanytics_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "urbanytics_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPActiveRequests tracks requests currently in flight.
	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "urbanytics_http_active_requests",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// CacheHitsTotal counts cache hits by scope prefix.
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanytics_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"scope"},
	)

	// CacheMissesTotal counts cache misses by scope prefix.
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanytics_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"scope"},
	)

	// CacheEntries reports the current number of cached entries.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "urbanytics_cache_entries",
			Help: "Current number of entries in the cache",
		},
	)

	// CacheInvalidationsTotal counts scope invalidations triggered by mutations.
	CacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanytics_cache_invalidations_total",
			Help: "Total cache invalidations by scope",
		},
		[]string{"scope"},
	)

	// BackendRequestsTotal counts proxied requests to the backend service.
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanytics_backend_requests_total",
			Help: "Total requests sent to the backend service",
		},
		[]string{"operation", "status"},
	)

	// BackendCircuitState reports the backend circuit breaker state
	// (0 = closed, 1 = half-open, 2 = open).
	BackendCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "urbanytics_backend_circuit_state",
			Help: "Backend circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// MLRequestsTotal counts proxied requests to the ML service.
	MLRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanytics_ml_requests_total",
			Help: "Total requests sent to the ML service",
		},
		[]string{"operation", "status"},
	)

	// MLCircuitState reports the ML circuit breaker state
	// (0 = closed, 1 = half-open, 2 = open).
	MLCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "urbanytics_ml_circuit_state",
			Help: "ML service circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// DashboardAssemblyDuration observes full dashboard fan-out latency.
	DashboardAssemblyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "urbanytics_dashboard_assembly_duration_seconds",
			Help:    "Latency of assembling the composite analytics dashboard",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// DashboardAssemblyFailures counts discarded dashboard assemblies.
	DashboardAssemblyFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "urbanytics_dashboard_assembly_failures_total",
			Help: "Total dashboard assemblies discarded due to a failed sub-query",
		},
	)

	// DatabaseQueryDuration observes database query latency by query name.
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "urbanytics_database_query_duration_seconds",
			Help:    "Database query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, path, status string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// RecordCacheLookup records a cache hit or miss for the given scope.
func RecordCacheLookup(scope string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(scope).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(scope).Inc()
	}
}

// TrackActiveRequest increments the in-flight gauge and returns a function
// that decrements it. Intended for use with defer.
func TrackActiveRequest() func() {
	HTTPActiveRequests.Inc()
	return HTTPActiveRequests.Dec
}
