// Package resolver locates a single gallery case by ID across the
// cached listings, the single-case cache, the upstream API, and
// legacy-format cache entries.
//
// Resolution walks an ordered chain of strategies in strictly
// increasing cost order (in-memory scan, in-memory scan, network call,
// scan+rewrite) and short-circuits on the first success. Adding,
// removing, or reordering strategies is a data change in buildChain,
// not a code change.
package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/mvollmer/gallery-api-cache/pkg/cache"
	"github.com/mvollmer/gallery-api-cache/pkg/gallery"
)

// ErrNotFound is returned when every strategy is exhausted. It is a
// normal outcome ("case does not exist or is not yet visible"), not an
// error condition; callers render an empty state.
var ErrNotFound = errors.New("case not found")

var resolverAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gallery_resolver_attempts_total",
	Help: "Case resolution attempts by strategy and outcome",
}, []string{"strategy", "outcome"})

// CaseFetcher is the upstream collaborator for direct by-ID fetches.
type CaseFetcher interface {
	FetchCase(ctx context.Context, caseID int64) (*gallery.CaseRecord, error)
}

// Strategy is one step in the resolution chain. Implementations return
// ErrNotFound to pass resolution along to the next strategy.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, caseID int64) (*gallery.CaseRecord, error)
}

// Attempt records which strategy resolved a case. Diagnostic only,
// never persisted as authoritative state.
type Attempt struct {
	CaseID   int64
	Strategy string
	Duration time.Duration
}

// Resolver resolves cases through the strategy chain.
type Resolver struct {
	manager *cache.Manager
	fetcher CaseFetcher
	logger  zerolog.Logger
}

// New creates a resolver over the cache manager and upstream fetcher.
func New(manager *cache.Manager, fetcher CaseFetcher, logger zerolog.Logger) *Resolver {
	if manager == nil {
		panic("cache manager cannot be nil")
	}
	return &Resolver{manager: manager, fetcher: fetcher, logger: logger}
}

// buildChain assembles the ordered strategy list for one resolution.
// contexts are the caller's known filter parameter sets, most recently
// used first.
func (r *Resolver) buildChain(contexts []gallery.Query) []Strategy {
	return []Strategy{
		&filteredScan{manager: r.manager, contexts: contexts},
		&unfilteredScan{manager: r.manager},
		&directFetch{manager: r.manager, fetcher: r.fetcher},
		&legacyScan{manager: r.manager},
	}
}

// ResolveCase walks the strategy chain for caseID, short-circuiting on
// the first success. A strategy failure other than a miss (e.g. an
// upstream outage) does not abort the chain; it is surfaced only when
// no later strategy succeeds either.
func (r *Resolver) ResolveCase(ctx context.Context, caseID int64, contexts []gallery.Query) (*gallery.CaseRecord, Attempt, error) {
	start := time.Now()
	var firstErr error

	for _, strategy := range r.buildChain(contexts) {
		record, err := strategy.Resolve(ctx, caseID)
		if err == nil {
			attempt := Attempt{CaseID: caseID, Strategy: strategy.Name(), Duration: time.Since(start)}
			resolverAttempts.WithLabelValues(strategy.Name(), "hit").Inc()
			r.logger.Debug().
				Int64("case_id", caseID).
				Str("strategy", strategy.Name()).
				Dur("duration", attempt.Duration).
				Msg("Case resolved")
			return record, attempt, nil
		}
		if errors.Is(err, ErrNotFound) {
			resolverAttempts.WithLabelValues(strategy.Name(), "miss").Inc()
			continue
		}
		resolverAttempts.WithLabelValues(strategy.Name(), "error").Inc()
		r.logger.Warn().
			Err(err).
			Int64("case_id", caseID).
			Str("strategy", strategy.Name()).
			Msg("Resolution strategy failed")
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return nil, Attempt{CaseID: caseID, Duration: time.Since(start)}, firstErr
	}
	return nil, Attempt{CaseID: caseID, Duration: time.Since(start)}, ErrNotFound
}
