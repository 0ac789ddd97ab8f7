package cache

import (
	"context"
	"fmt"
	"time"
)

// Config holds manager tuning.
type Config struct {
	// TTLOverrides replaces the built-in TTL for specific kinds.
	TTLOverrides map[Kind]time.Duration

	// Notifier receives an event for every cache operation. Defaults
	// to NopNotifier.
	Notifier Notifier
}

// Manager is the façade callers use: fetch-or-populate, targeted
// invalidation, bulk flush by kind, and cache statistics. It holds its
// collaborators explicitly; there are no package-level singletons.
type Manager struct {
	store    *TieredStore
	ttls     map[Kind]time.Duration
	notifier Notifier
}

// NewManager creates a cache manager over the tiered store.
func NewManager(store *TieredStore, cfg Config) *Manager {
	if store == nil {
		panic("tiered store cannot be nil")
	}
	ttls := make(map[Kind]time.Duration, len(defaultTTLs))
	for kind, ttl := range defaultTTLs {
		ttls[kind] = ttl
	}
	for kind, ttl := range cfg.TTLOverrides {
		if kind.Valid() && ttl > 0 {
			ttls[kind] = ttl
		}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Manager{store: store, ttls: ttls, notifier: notifier}
}

// TTL returns the effective TTL for a kind.
func (m *Manager) TTL(kind Kind) time.Duration {
	if ttl, ok := m.ttls[kind]; ok {
		return ttl
	}
	return kind.DefaultTTL()
}

// Store exposes the underlying tiered store for collaborators that
// need raw key access (resolver legacy scan, tests).
func (m *Manager) Store() *TieredStore {
	return m.store
}

// Producer fetches a value from upstream on a cache miss. Retry and
// backoff are the producer's responsibility, not the cache's.
type Producer func(ctx context.Context) ([]byte, error)

// GetOrPopulate returns the cached payload for kind+params, invoking
// producer exactly once on a miss and writing the result through both
// tiers with the kind's TTL. Nothing is cached when producer fails.
//
// No lock is taken around producer: concurrent misses on the same key
// each populate, last write wins.
func (m *Manager) GetOrPopulate(ctx context.Context, kind Kind, params map[string]string, producer Producer) ([]byte, error) {
	key := NewKey(kind, params)

	if entry, err := m.store.Get(ctx, key.String()); err == nil {
		m.notifier.Notify(Event{Op: OpGet, Kind: kind, KeyHash: key.Hash(), Outcome: OutcomeHit})
		return entry.Data, nil
	}
	m.notifier.Notify(Event{Op: OpGet, Kind: kind, KeyHash: key.Hash(), Outcome: OutcomeMiss})

	data, err := producer(ctx)
	if err != nil {
		return nil, fmt.Errorf("populate %s: %w", kind, err)
	}

	if err := m.put(ctx, key, kind, data); err != nil {
		// The value is good even if the write-through failed.
		m.notifier.Notify(Event{Op: OpSet, Kind: kind, KeyHash: key.Hash(), Outcome: OutcomeError})
		return data, nil
	}
	return data, nil
}

// Peek returns the cached entry for kind+params without populating.
// Used by the case resolver's cache-only strategies.
func (m *Manager) Peek(ctx context.Context, kind Kind, params map[string]string) (*Entry, error) {
	key := NewKey(kind, params)
	entry, err := m.store.Get(ctx, key.String())
	if err != nil {
		m.notifier.Notify(Event{Op: OpGet, Kind: kind, KeyHash: key.Hash(), Outcome: OutcomeMiss})
		return nil, err
	}
	m.notifier.Notify(Event{Op: OpGet, Kind: kind, KeyHash: key.Hash(), Outcome: OutcomeHit})
	return entry, nil
}

// Put writes a payload under kind+params with the kind's TTL.
func (m *Manager) Put(ctx context.Context, kind Kind, params map[string]string, data []byte) error {
	key := NewKey(kind, params)
	if err := m.put(ctx, key, kind, data); err != nil {
		m.notifier.Notify(Event{Op: OpSet, Kind: kind, KeyHash: key.Hash(), Outcome: OutcomeError})
		return err
	}
	return nil
}

func (m *Manager) put(ctx context.Context, key Key, kind Kind, data []byte) error {
	entry := NewEntry(data, m.TTL(kind))
	if err := m.store.Set(ctx, key.String(), entry); err != nil {
		return err
	}
	m.notifier.Notify(Event{Op: OpSet, Kind: kind, KeyHash: key.Hash(), Outcome: OutcomeOK})
	return nil
}

// Invalidate removes the entry for kind+params from both tiers.
func (m *Manager) Invalidate(ctx context.Context, kind Kind, params map[string]string) error {
	key := NewKey(kind, params)
	if err := m.store.Delete(ctx, key.String()); err != nil {
		m.notifier.Notify(Event{Op: OpDelete, Kind: kind, KeyHash: key.Hash(), Outcome: OutcomeError})
		return err
	}
	m.notifier.Notify(Event{Op: OpDelete, Kind: kind, KeyHash: key.Hash(), Outcome: OutcomeOK})
	return nil
}

// FlushKind removes every entry of the kind from both tiers.
func (m *Manager) FlushKind(ctx context.Context, kind Kind) (int, error) {
	deleted, err := m.store.FlushPrefix(ctx, Prefix(kind))
	if err != nil {
		m.notifier.Notify(Event{Op: OpFlush, Kind: kind, Outcome: OutcomeError})
		return 0, err
	}
	cacheFlushes.WithLabelValues(string(kind)).Inc()
	m.notifier.Notify(Event{Op: OpFlush, Kind: kind, Outcome: OutcomeOK})
	return deleted, nil
}

// FlushAll flushes every known kind prefix and runs the legacy sweep.
// Backs the "Clear All Cache" and "Factory Reset" admin operations.
func (m *Manager) FlushAll(ctx context.Context) (int, error) {
	total := 0
	var firstErr error
	for _, kind := range Kinds() {
		deleted, err := m.FlushKind(ctx, kind)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		total += deleted
	}
	result, err := m.Sweep(ctx)
	if err != nil && firstErr == nil {
		firstErr = err
	}
	total += result.Deleted
	return total, firstErr
}

// KindStats reports the durable entry count for one kind.
type KindStats struct {
	Kind    Kind `json:"kind"`
	Entries int  `json:"entries"`
}

// Stats enumerates durable-tier entry counts per kind plus the number
// of legacy-shaped keys still present. Diagnostic only.
type Stats struct {
	Kinds  []KindStats `json:"kinds"`
	Legacy int         `json:"legacy"`
}

// Stats reports cache contents for the admin surface.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	for _, kind := range Kinds() {
		keys, err := m.store.DurableKeys(ctx, Prefix(kind))
		if err != nil {
			return stats, err
		}
		stats.Kinds = append(stats.Kinds, KindStats{Kind: kind, Entries: len(keys)})
	}

	all, err := m.store.DurableKeys(ctx, "")
	if err != nil {
		return stats, err
	}
	for _, key := range all {
		if IsLegacyKey(key) {
			stats.Legacy++
		}
	}
	return stats, nil
}
