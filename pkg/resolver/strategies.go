package resolver

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/mvollmer/gallery-api-cache/pkg/cache"
	"github.com/mvollmer/gallery-api-cache/pkg/client"
	"github.com/mvollmer/gallery-api-cache/pkg/gallery"
)

// singleCaseParams is the canonical parameter set for a SingleCase key.
func singleCaseParams(caseID int64) map[string]string {
	return map[string]string{"case_id": strconv.FormatInt(caseID, 10)}
}

// decodeCaseList decodes a cached listing payload. A payload that does
// not decode is treated as a miss and the corrupt entry is removed.
func decodeCaseList(ctx context.Context, manager *cache.Manager, params map[string]string, data []byte) *gallery.CaseList {
	var list gallery.CaseList
	if err := json.Unmarshal(data, &list); err != nil {
		_ = manager.Invalidate(ctx, cache.KindCaseList, params)
		return nil
	}
	return &list
}

// filteredScan scans the CaseList entries of the caller's known filter
// contexts, most recently used first. Cache-only, zero network cost;
// serves the common case where the case was already loaded by the
// current page's active filters.
type filteredScan struct {
	manager  *cache.Manager
	contexts []gallery.Query
}

func (s *filteredScan) Name() string { return "filtered_scan" }

func (s *filteredScan) Resolve(ctx context.Context, caseID int64) (*gallery.CaseRecord, error) {
	for _, q := range s.contexts {
		params := q.Params()
		entry, err := s.manager.Peek(ctx, cache.KindCaseList, params)
		if err != nil {
			continue
		}
		list := decodeCaseList(ctx, s.manager, params, entry.Data)
		if record := list.Find(caseID); record != nil {
			return record, nil
		}
	}
	return nil, ErrNotFound
}

// unfilteredScan scans the "all cases" CaseList entry if one is cached.
// A case often exists in the broader listing even when absent from the
// narrower filtered one.
type unfilteredScan struct {
	manager *cache.Manager
}

func (s *unfilteredScan) Name() string { return "unfiltered_scan" }

func (s *unfilteredScan) Resolve(ctx context.Context, caseID int64) (*gallery.CaseRecord, error) {
	params := gallery.Query{}.Params()
	entry, err := s.manager.Peek(ctx, cache.KindCaseList, params)
	if err != nil {
		return nil, ErrNotFound
	}
	list := decodeCaseList(ctx, s.manager, params, entry.Data)
	if record := list.Find(caseID); record != nil {
		return record, nil
	}
	return nil, ErrNotFound
}

// directFetch asks the upstream API for the case by ID, bypassing list
// pagination. The only strategy that can discover genuinely new data.
// The fetched record lands in the SingleCase cache but is never merged
// into a CaseList entry, which would corrupt that entry's
// pagination/filter semantics.
type directFetch struct {
	manager *cache.Manager
	fetcher CaseFetcher
}

func (s *directFetch) Name() string { return "direct_fetch" }

func (s *directFetch) Resolve(ctx context.Context, caseID int64) (*gallery.CaseRecord, error) {
	params := singleCaseParams(caseID)

	// A previous direct fetch may already be cached.
	if entry, err := s.manager.Peek(ctx, cache.KindSingleCase, params); err == nil {
		var record gallery.CaseRecord
		if err := json.Unmarshal(entry.Data, &record); err == nil {
			return &record, nil
		}
		_ = s.manager.Invalidate(ctx, cache.KindSingleCase, params)
	}

	if s.fetcher == nil {
		return nil, ErrNotFound
	}

	record, err := s.fetcher.FetchCase(ctx, caseID)
	if err != nil {
		if client.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if data, err := json.Marshal(record); err == nil {
		_ = s.manager.Put(ctx, cache.KindSingleCase, params, data)
	}
	return record, nil
}

// legacyScan is the last resort: it walks durable-tier keys written
// under retired key formats and searches their payloads for the case.
// A match is rewritten under the current SingleCase key and the legacy
// entry deleted, so the migration heals itself one lookup at a time.
type legacyScan struct {
	manager *cache.Manager
}

func (s *legacyScan) Name() string { return "legacy_scan" }

func (s *legacyScan) Resolve(ctx context.Context, caseID int64) (*gallery.CaseRecord, error) {
	store := s.manager.Store()

	keys, err := store.DurableKeys(ctx, "")
	if err != nil {
		return nil, ErrNotFound
	}

	for _, key := range keys {
		if !cache.IsLegacyKey(key) {
			continue
		}
		entry, err := store.DurableGet(ctx, key)
		if err != nil {
			continue
		}
		record := findInLegacyPayload(entry.Data, caseID)
		if record == nil {
			continue
		}

		// Self-healing migration: rewrite current, drop legacy.
		if data, err := json.Marshal(record); err == nil {
			_ = s.manager.Put(ctx, cache.KindSingleCase, singleCaseParams(caseID), data)
		}
		_ = store.Delete(ctx, key)
		return record, nil
	}
	return nil, ErrNotFound
}

// findInLegacyPayload searches a legacy payload for a case, trying the
// two shapes older plugin versions wrote: a full case list and a bare
// record.
func findInLegacyPayload(data []byte, caseID int64) *gallery.CaseRecord {
	var list gallery.CaseList
	if err := json.Unmarshal(data, &list); err == nil && len(list.Cases) > 0 {
		if record := list.Find(caseID); record != nil {
			return record
		}
		return nil
	}

	var record gallery.CaseRecord
	if err := json.Unmarshal(data, &record); err == nil && record.CaseID == caseID {
		return &record
	}
	return nil
}
