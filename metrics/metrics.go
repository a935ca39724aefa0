// Package metrics provides Prometheus metrics for the Wikisource MCP server.
// It tracks tool calls, wiki API traffic, cache performance and split outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const (
	Namespace = "wikisource_mcp"
)

var (
	// RequestsTotal counts total MCP tool calls by tool name and status
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// RequestDuration measures request latency distribution
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request latency distribution by tool",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"tool"})

	// RequestInFlight tracks currently executing requests
	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "requests_in_flight",
		Help:      "Number of requests currently being processed",
	}, []string{"tool"})

	// CacheHits counts page cache hits
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_hits_total",
		Help:      "Total cache hit count",
	})

	// CacheMisses counts page cache misses
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_misses_total",
		Help:      "Total cache miss count",
	})

	// CacheSize tracks current cache entry count
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "cache_entries",
		Help:      "Current number of cache entries",
	})

	// WikiAPILatency measures MediaWiki API call latency by action
	WikiAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "wiki_api_latency_seconds",
		Help:      "MediaWiki API call latency by action",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})

	// WikiAPIRequestsTotal counts MediaWiki API requests
	WikiAPIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wiki_api_requests_total",
		Help:      "Total MediaWiki API requests by action and status",
	}, []string{"action", "status"})

	// WikiAPIErrors counts MediaWiki API errors by error code
	WikiAPIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wiki_api_errors_total",
		Help:      "MediaWiki API errors by action and error code",
	}, []string{"action", "error_code"})

	// WikiAPIRetries counts API request retries
	WikiAPIRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wiki_api_retries_total",
		Help:      "MediaWiki API retry count by action",
	}, []string{"action"})

	// RateLimitWaits counts requests that had to wait for the wiki's Retry-After
	RateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rate_limit_waits_total",
		Help:      "Requests that waited on a Retry-After response",
	})

	// AuthFailures counts authentication failures
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "auth_failures_total",
		Help:      "Authentication failure count by reason",
	}, []string{"reason"})

	// PanicsRecovered counts recovered panics
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	// EditOperations counts page saves by operation and status
	EditOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "edit_operations_total",
		Help:      "Page saves by operation and status",
	}, []string{"operation", "status"})

	// ContentSize tracks the size of saved page text
	ContentSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "content_size_bytes",
		Help:      "Saved content size distribution in bytes",
		Buckets:   []float64{1000, 10000, 100000, 250000, 500000, 1000000, 1887436, 2097152, 4194304},
	}, []string{"operation"})

	// SplitSubpages observes how many subpages a split produced
	SplitSubpages = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "split_subpages",
		Help:      "Number of subpages produced per split",
		Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16, 32},
	})

	// SplitOutcomes counts split runs by the stage they ended in
	SplitOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "split_outcomes_total",
		Help:      "Split runs by final stage",
	}, []string{"stage"})

	// OversizedBlocks counts single page blocks larger than the ceiling
	OversizedBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "oversized_blocks_total",
		Help:      "Page blocks that alone exceeded the split ceiling",
	})

	// CircuitBreakerOpen is 1 while the wiki circuit breaker rejects requests
	CircuitBreakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "circuit_breaker_open",
		Help:      "1 when the wiki API circuit breaker is open",
	})
)

// RecordRequest records a completed request with its duration and status
func RecordRequest(tool string, duration float64, success bool) {
	RequestsTotal.WithLabelValues(tool, status(success)).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration)
}

// RecordAPICall records a MediaWiki API call
func RecordAPICall(action string, duration float64, success bool, errorCode string) {
	WikiAPIRequestsTotal.WithLabelValues(action, status(success)).Inc()
	WikiAPILatency.WithLabelValues(action).Observe(duration)
	if errorCode != "" {
		WikiAPIErrors.WithLabelValues(action, errorCode).Inc()
	}
}

// RecordEdit records a page save and the size of the saved text
func RecordEdit(operation string, size int, success bool) {
	EditOperations.WithLabelValues(operation, status(success)).Inc()
	if success {
		ContentSize.WithLabelValues(operation).Observe(float64(size))
	}
}

// RecordSplit records the outcome of a split run
func RecordSplit(stage string, subpages, oversized int) {
	SplitOutcomes.WithLabelValues(stage).Inc()
	if subpages > 0 {
		SplitSubpages.Observe(float64(subpages))
	}
	OversizedBlocks.Add(float64(oversized))
}

// RecordCacheAccess records a cache hit or miss
func RecordCacheAccess(hit bool) {
	if hit {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}
}

// SetCacheSize updates the current cache size gauge
func SetCacheSize(size int64) {
	CacheSize.Set(float64(size))
}

// SetCircuitOpen updates the circuit breaker gauge
func SetCircuitOpen(open bool) {
	if open {
		CircuitBreakerOpen.Set(1)
	} else {
		CircuitBreakerOpen.Set(0)
	}
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
