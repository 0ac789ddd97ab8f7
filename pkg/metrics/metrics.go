// Package metrics provides the central Prometheus registry reference
// for the gallery cache proxy. Metrics are defined in their respective
// packages (cache, client, resolver) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the proxy.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - gallery_cache_hits_total{tier} (Counter): Cache hits by tier (volatile, durable)
//   - gallery_cache_misses_total (Counter): Cache misses
//   - gallery_cache_size_bytes{tier} (Gauge): Bytes written by tier
//   - gallery_cache_errors_total{operation} (Counter): Tier operation errors
//   - gallery_cache_flushes_total{kind} (Counter): Bulk flushes by kind
//   - gallery_cache_sweep_deleted_total (Counter): Legacy entries reclaimed
//
// Resolver Metrics (pkg/resolver):
//   - gallery_resolver_attempts_total{strategy, outcome} (Counter):
//     Resolution attempts by strategy (filtered_scan, unfiltered_scan,
//     direct_fetch, legacy_scan) and outcome (hit, miss, error)
//
// Request Metrics (pkg/client):
//   - gallery_api_requests_total{endpoint, status} (Counter): Upstream requests
//   - gallery_api_request_duration_seconds{endpoint} (Histogram): Request duration
//   - gallery_api_errors_total{class} (Counter): Errors by class
//
// Retry Metrics (pkg/client):
//   - gallery_api_retries_total{error_class} (Counter): Retry attempts
//   - gallery_api_retry_backoff_seconds{error_class} (Histogram): Backoff duration
//   - gallery_api_retry_exhausted_total{error_class} (Counter): Exhausted retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(gallery_cache_hits_total[5m])) /
//   (sum(rate(gallery_cache_hits_total[5m])) + sum(rate(gallery_cache_misses_total[5m])))
//
//   # Share of resolutions that needed the network
//   rate(gallery_resolver_attempts_total{strategy="direct_fetch",outcome="hit"}[5m]) /
//   sum(rate(gallery_resolver_attempts_total{outcome="hit"}[5m]))
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(gallery_api_request_duration_seconds_bucket[5m]))
