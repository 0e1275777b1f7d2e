// Package metrics exposes the Prometheus instruments of the analytics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "futureweaver"

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts dispatcher requests by route template, method and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "http_requests_total",
	Help:      "Total dispatcher requests.",
}, []string{"route", "method", "status"})

// HTTPDuration tracks dispatcher request latency in seconds.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "http_request_duration_seconds",
	Help:      "Dispatcher request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

// RateLimited counts requests rejected by the rate limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "http_rate_limited_total",
	Help:      "Requests rejected with 429.",
})

// ─── Analysis ───────────────────────────────────────────────────────────────

// AnalysisDuration tracks service operation latency in seconds.
var AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "analysis_duration_seconds",
	Help:      "Analytics operation duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
}, []string{"operation"})

// AnalysisFailures counts failed operations by error code.
var AnalysisFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "analysis_failures_total",
	Help:      "Failed analytics operations.",
}, []string{"operation", "code"})

// CausalLinks records how many links the last discovery produced.
var CausalLinks = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "causal_links_discovered",
	Help:      "Links produced by the most recent causal discovery.",
})

// PreventedMigration records total prevented migration of the last simulation.
var PreventedMigration = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "simulation_prevented_migration",
	Help:      "Total prevented migration of the most recent policy simulation.",
})

// ─── Store ──────────────────────────────────────────────────────────────────

// TableLoads counts store reads by table and outcome (ok, missing, error).
var TableLoads = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "store_table_loads_total",
	Help:      "Store table loads.",
}, []string{"table", "outcome"})

// RecordsAppended counts records written to append-only logs.
var RecordsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "store_records_appended_total",
	Help:      "Records appended to result logs.",
}, []string{"table"})
