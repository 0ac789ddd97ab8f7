package cache

import (
	"context"
	"errors"
)

// TieredStore orchestrates the volatile and durable tiers.
//
// Reads try the volatile tier first and fall back to the durable tier,
// backfilling the volatile tier on a durable hit. Writes go to the
// durable tier first so that an interrupted write leaves the source of
// truth intact. A tier outage degrades silently to single-tier
// operation: callers only ever observe a miss, never a tier error.
type TieredStore struct {
	volatile Store
	durable  Store
}

// NewTieredStore wires the two tiers. volatile may be nil to run
// durable-only (e.g. the host disabled the object cache).
func NewTieredStore(volatile, durable Store) *TieredStore {
	if durable == nil {
		panic("durable store cannot be nil")
	}
	return &TieredStore{volatile: volatile, durable: durable}
}

// Get reads volatile first, then durable with volatile backfill.
func (t *TieredStore) Get(ctx context.Context, key string) (*Entry, error) {
	if t.volatile != nil {
		entry, err := t.volatile.Get(ctx, key)
		if err == nil {
			cacheHits.WithLabelValues(string(TierVolatile)).Inc()
			return entry, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			cacheErrors.WithLabelValues("get").Inc()
		}
	}

	entry, err := t.durable.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) || errors.Is(err, ErrInvalidEntry) {
			cacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		// Tier outage: degrade to a miss.
		cacheErrors.WithLabelValues("get").Inc()
		return nil, ErrCacheMiss
	}

	// Backfill the volatile tier, best effort.
	if t.volatile != nil {
		_ = t.volatile.Set(ctx, key, entry)
	}

	cacheHits.WithLabelValues(string(TierDurable)).Inc()
	return entry, nil
}

// Set writes through both tiers, durable first. A durable outage still
// lets the volatile write proceed so the current node keeps the value.
func (t *TieredStore) Set(ctx context.Context, key string, entry *Entry) error {
	if err := t.durable.Set(ctx, key, entry); err != nil {
		if !errors.Is(err, ErrStoreUnavailable) {
			cacheErrors.WithLabelValues("set").Inc()
			return err
		}
		cacheErrors.WithLabelValues("set").Inc()
	}
	if t.volatile != nil {
		_ = t.volatile.Set(ctx, key, entry)
	}
	cacheSize.WithLabelValues(string(TierDurable)).Add(float64(len(entry.Data)))
	return nil
}

// Delete removes the key from both tiers unconditionally.
func (t *TieredStore) Delete(ctx context.Context, key string) error {
	if t.volatile != nil {
		_ = t.volatile.Delete(ctx, key)
	}
	if err := t.durable.Delete(ctx, key); err != nil && !errors.Is(err, ErrStoreUnavailable) {
		cacheErrors.WithLabelValues("delete").Inc()
		return err
	}
	return nil
}

// FlushPrefix deletes every durable key under prefix via scan, then
// clears the matching volatile keys. A volatile tier without prefix
// enumeration is flushed wholesale, which is acceptable because that
// tier is reconstructable.
func (t *TieredStore) FlushPrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := t.durable.Keys(ctx, prefix)
	if err != nil && !errors.Is(err, ErrStoreUnavailable) {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		if err := t.durable.Delete(ctx, key); err == nil {
			deleted++
		}
	}

	if t.volatile != nil {
		vkeys, err := t.volatile.Keys(ctx, prefix)
		if errors.Is(err, ErrScanUnsupported) {
			_ = t.volatile.Flush(ctx)
		} else if err == nil {
			for _, key := range vkeys {
				_ = t.volatile.Delete(ctx, key)
			}
		}
	}

	return deleted, nil
}

// DurableKeys enumerates durable-tier keys for stats and the legacy
// sweep.
func (t *TieredStore) DurableKeys(ctx context.Context, prefix string) ([]string, error) {
	return t.durable.Keys(ctx, prefix)
}

// DurableGet reads the durable tier directly, bypassing the volatile
// tier. The legacy sweep and migration scans use it because legacy
// keys were never written to the current volatile namespace.
func (t *TieredStore) DurableGet(ctx context.Context, key string) (*Entry, error) {
	return t.durable.Get(ctx, key)
}
