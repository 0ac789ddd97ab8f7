package cache

import (
	"context"
)

// SweepResult summarizes one legacy cleanup run.
type SweepResult struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
}

// Sweep enumerates durable-tier keys, classifies each against the
// retired key formats, and deletes matches from both tiers. Idempotent:
// a second run with no intervening legacy writes deletes nothing.
//
// Runs on demand (admin-triggered) and opportunistically during
// FlushAll.
func (m *Manager) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	keys, err := m.store.DurableKeys(ctx, "")
	if err != nil {
		m.notifier.Notify(Event{Op: OpSweep, Outcome: OutcomeError})
		return result, err
	}

	for _, key := range keys {
		result.Scanned++
		if !IsLegacyKey(key) {
			continue
		}
		if err := m.store.Delete(ctx, key); err != nil {
			continue
		}
		result.Deleted++
		sweepDeleted.Inc()
	}

	m.notifier.Notify(Event{Op: OpSweep, Outcome: OutcomeOK})
	return result, nil
}
