package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks cache hits by tier (volatile, durable)
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_cache_hits_total",
			Help: "Total number of gallery cache hits",
		},
		[]string{"tier"},
	)

	// cacheMisses tracks misses across both tiers
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_cache_misses_total",
			Help: "Total number of gallery cache misses",
		},
	)

	// cacheSize tracks bytes written by tier
	cacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_cache_size_bytes",
			Help: "Bytes written to the gallery cache by tier",
		},
		[]string{"tier"},
	)

	// cacheErrors tracks tier operation errors
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "flush"
	)

	// cacheFlushes tracks bulk flushes by kind
	cacheFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_cache_flushes_total",
			Help: "Total number of bulk cache flushes",
		},
		[]string{"kind"},
	)

	// sweepDeleted tracks legacy entries reclaimed by the sweep
	sweepDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_cache_sweep_deleted_total",
			Help: "Total number of legacy cache entries deleted",
		},
	)
)
