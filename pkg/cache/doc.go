// Package cache keeps raw gBizINFO detail responses in Redis so a corporate
// number that was already hydrated once is not requested again, for example
// when hydrating the same list into a fresh output file.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.DetailKey("1234567890123")
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then
//		entry, _ = cache.ResponseToEntry(resp, 24*time.Hour)
//		_ = manager.Set(ctx, key, entry)
//	}
//
// Only successful (200) detail bodies are cached. Entries carry their own
// expiry and are stored with a matching Redis TTL.
//
// # Metrics
//
//   - gbiz_cache_hits_total
//   - gbiz_cache_misses_total
//   - gbiz_cache_stored_bytes_total
//   - gbiz_cache_errors_total{operation}
package cache
