// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookart_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookart_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookart_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookart_rate_limited_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"policy"},
	)

	SearchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookart_search_queries_total",
			Help: "Search requests by outcome",
		},
		[]string{"outcome"}, // "ok", "empty", "error"
	)
)

// RecordAPIRequest observes one finished request. route is the router pattern,
// never the raw path, to keep label cardinality bounded.
func RecordAPIRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	code := strconv.Itoa(status)
	APIRequestDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
	APIRequestsTotal.WithLabelValues(method, route, code).Inc()
}

func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RegisterDB exports connection pool statistics for db.
func RegisterDB(db *sql.DB) error {
	return prometheus.Register(collectors.NewDBStatsCollector(db, "bookart"))
}
