// Package cache provides the dual-tier response cache for the gallery
// API client.
//
// The cache sits in front of an expensive remote API and consists of:
//
// - A volatile in-process tier (MemoryStore) the host may clear at will
// - A durable Redis tier (RedisStore) with explicit row expiry
// - A tiered orchestrator (TieredStore) with write-through and
//   fallback-read semantics
// - A manager façade with fetch-or-populate, invalidation, bulk flush,
//   sweep, and statistics
// - A versioned deterministic key space with legacy-format detection
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewTieredStore(cache.NewMemoryStore(), cache.NewRedisStore(redisClient))
//	manager := cache.NewManager(store, cache.Config{})
//
//	data, err := manager.GetOrPopulate(ctx, cache.KindCaseList, query.Params(),
//		func(ctx context.Context) ([]byte, error) {
//			return apiClient.FetchCasesRaw(ctx, query)
//		})
//
// # Semantics
//
// Reads hit the volatile tier first and fall back to the durable tier,
// backfilling the volatile tier on a durable hit. Writes land in the
// durable tier before the volatile tier so an interrupted write leaves
// the source of truth intact. A tier outage is invisible to callers:
// the worst case is a miss and a live upstream fetch.
//
// GetOrPopulate invokes its producer at most once and takes no lock
// around it; concurrent misses on one key each populate and the last
// write wins. Callers that need at-most-one populate add their own
// advisory lock around the producer.
//
// # Metrics
//
//   - gallery_cache_hits_total{tier} - hits by tier
//   - gallery_cache_misses_total - misses
//   - gallery_cache_size_bytes{tier} - bytes written
//   - gallery_cache_errors_total{operation} - tier operation errors
//   - gallery_cache_flushes_total{kind} - bulk flushes
//   - gallery_cache_sweep_deleted_total - legacy entries reclaimed
package cache
