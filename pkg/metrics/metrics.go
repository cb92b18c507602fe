// Package metrics exposes the collector's Prometheus metrics over HTTP.
// The collectors themselves are defined in the packages that update them
// (client, ratelimit, cache, progress) and register through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the registerer every collector metric is added to.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source served on /metrics.
var Gatherer = prometheus.DefaultGatherer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - gbiz_requests_total{endpoint, status} (Counter): requests by endpoint (search, detail) and HTTP status
//   - gbiz_request_duration_seconds{endpoint} (Histogram): request duration by endpoint
//   - gbiz_errors_total{class} (Counter): errors by class (client, server, rate_limit, network, decode)
//
// Pacing Metrics (pkg/ratelimit):
//   - gbiz_ratelimit_wait_seconds (Histogram): time spent waiting for the request interval
//   - gbiz_ratelimit_wait_cancelled_total (Counter): waits aborted by cancellation
//
// Cache Metrics (pkg/cache):
//   - gbiz_cache_hits_total (Counter): detail responses served from Redis
//   - gbiz_cache_misses_total (Counter): detail lookups not in Redis
//   - gbiz_cache_stored_bytes_total (Counter): bytes written to Redis
//   - gbiz_cache_errors_total{operation} (Counter): Redis failures by operation
//
// Progress Metrics (pkg/progress):
//   - gbiz_records_total{phase, outcome} (Counter): items by phase (dump, hydrate) and outcome (added, skipped, failed)
//
// Example Prometheus Queries:
//
//   # Hydrate throughput
//   rate(gbiz_records_total{phase="hydrate"}[5m])
//
//   # Hydrate failure ratio
//   rate(gbiz_records_total{phase="hydrate",outcome="failed"}[5m]) /
//   rate(gbiz_records_total{phase="hydrate"}[5m])
//
//   # Upstream throttling
//   rate(gbiz_errors_total{class="rate_limit"}[5m])
//
//   # P95 detail latency
//   histogram_quantile(0.95, rate(gbiz_request_duration_seconds_bucket{endpoint="detail"}[5m]))
