package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts detail lookups served from Redis.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gbiz_cache_hits_total",
			Help: "Total number of gBizINFO cache hits",
		},
	)

	// CacheMisses counts lookups that fell through to the API.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gbiz_cache_misses_total",
			Help: "Total number of gBizINFO cache misses",
		},
	)

	// CacheStoredBytes counts bytes written to Redis.
	CacheStoredBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gbiz_cache_stored_bytes_total",
			Help: "Total bytes of response data written to the cache",
		},
	)

	// CacheErrors counts failed cache operations.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gbiz_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
