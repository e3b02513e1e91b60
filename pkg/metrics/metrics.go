// Package metrics defines the Prometheus instrumentation for the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered through promauto, so importing this package is all
// the wiring the default registry needs.

var (
	// HTTPRequestsTotal counts processed requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypertransit_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures server response time per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "hypertransit_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
			// Buckets span cache hits (sub-millisecond) to fresh large
			// generations plus rendering (seconds).
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// GenerationsTotal counts network generations by cache outcome.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypertransit_generations_total",
			Help: "Total number of network generations",
		},
		[]string{"cache"},
	)

	// RouteQueriesTotal counts route queries by mode and outcome.
	RouteQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypertransit_route_queries_total",
			Help: "Total number of route queries",
		},
		[]string{"mode", "outcome"},
	)

	// CacheOpsTotal counts cache lookups by key type and result.
	CacheOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypertransit_cache_ops_total",
			Help: "Total number of cache lookups",
		},
		[]string{"type", "result"},
	)

	// StoredNetworks tracks how many networks the archive currently holds.
	StoredNetworks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hypertransit_stored_networks",
			Help: "Number of networks in the archive",
		},
	)
)
