package cache

import (
	"context"
	"testing"
	"time"
)

// downStore simulates an unreachable tier.
type downStore struct{}

func (downStore) Get(context.Context, string) (*Entry, error)    { return nil, ErrStoreUnavailable }
func (downStore) Set(context.Context, string, *Entry) error      { return ErrStoreUnavailable }
func (downStore) Delete(context.Context, string) error           { return ErrStoreUnavailable }
func (downStore) Keys(context.Context, string) ([]string, error) { return nil, ErrStoreUnavailable }
func (downStore) Flush(context.Context) error                    { return ErrStoreUnavailable }

// noScanStore is a volatile tier without prefix enumeration.
type noScanStore struct {
	*MemoryStore
}

func (s *noScanStore) Keys(context.Context, string) ([]string, error) {
	return nil, ErrScanUnsupported
}

func setupTiered(t *testing.T) (*TieredStore, *MemoryStore, *RedisStore) {
	t.Helper()
	volatile := NewMemoryStore()
	durable := setupTestRedis(t)
	return NewTieredStore(volatile, durable), volatile, durable
}

func TestTieredStore_WriteThrough(t *testing.T) {
	tiered, volatile, durable := setupTiered(t)
	ctx := context.Background()

	entry := NewEntry([]byte("v"), time.Minute)
	if err := tiered.Set(ctx, "k1", entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Volatile-tier hit.
	got, err := tiered.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Origin != TierVolatile {
		t.Errorf("Origin = %q, want volatile hit", got.Origin)
	}
	if string(got.Data) != "v" {
		t.Errorf("Data = %q, want %q", got.Data, "v")
	}

	// Evict the volatile copy: the durable tier must still serve it.
	if err := volatile.Delete(ctx, "k1"); err != nil {
		t.Fatalf("volatile delete failed: %v", err)
	}
	got, err = tiered.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get after volatile eviction failed: %v", err)
	}
	if got.Origin != TierDurable {
		t.Errorf("Origin = %q, want durable fallback", got.Origin)
	}

	// And the durable hit must have backfilled the volatile tier.
	if _, err := volatile.Get(ctx, "k1"); err != nil {
		t.Errorf("volatile tier not backfilled after durable hit: %v", err)
	}

	// The durable tier holds the write-through copy throughout.
	if _, err := durable.Get(ctx, "k1"); err != nil {
		t.Errorf("durable tier missing write-through copy: %v", err)
	}
}

func TestTieredStore_Get_Miss(t *testing.T) {
	tiered, _, _ := setupTiered(t)

	if _, err := tiered.Get(context.Background(), "absent"); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestTieredStore_Delete_BothTiers(t *testing.T) {
	tiered, volatile, durable := setupTiered(t)
	ctx := context.Background()

	if err := tiered.Set(ctx, "k1", NewEntry([]byte("v"), time.Minute)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := tiered.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := volatile.Get(ctx, "k1"); err != ErrCacheMiss {
		t.Errorf("volatile tier still has k1: %v", err)
	}
	if _, err := durable.Get(ctx, "k1"); err != ErrCacheMiss {
		t.Errorf("durable tier still has k1: %v", err)
	}
}

func TestTieredStore_FlushPrefix_Isolation(t *testing.T) {
	tiered, _, durable := setupTiered(t)
	ctx := context.Background()

	listKey := Prefix(KindCaseList) + "a"
	sidebarKey := Prefix(KindSidebar) + "b"
	for _, key := range []string{listKey, sidebarKey} {
		if err := tiered.Set(ctx, key, NewEntry([]byte("v"), time.Minute)); err != nil {
			t.Fatalf("Set %q failed: %v", key, err)
		}
	}

	deleted, err := tiered.FlushPrefix(ctx, Prefix(KindCaseList))
	if err != nil {
		t.Fatalf("FlushPrefix failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if _, err := tiered.Get(ctx, listKey); err != ErrCacheMiss {
		t.Errorf("caselist key survived flush: %v", err)
	}
	if _, err := durable.Get(ctx, sidebarKey); err != nil {
		t.Errorf("sidebar key should be untouched: %v", err)
	}
}

func TestTieredStore_FlushPrefix_NoScanVolatile(t *testing.T) {
	volatile := &noScanStore{NewMemoryStore()}
	durable := setupTestRedis(t)
	tiered := NewTieredStore(volatile, durable)
	ctx := context.Background()

	if err := tiered.Set(ctx, Prefix(KindCaseList)+"a", NewEntry([]byte("v"), time.Minute)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := tiered.Set(ctx, Prefix(KindSidebar)+"b", NewEntry([]byte("v"), time.Minute)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := tiered.FlushPrefix(ctx, Prefix(KindCaseList)); err != nil {
		t.Fatalf("FlushPrefix failed: %v", err)
	}

	// Without prefix enumeration the volatile tier is flushed
	// wholesale. It is reconstructable, so this only costs a reload.
	if volatile.Len() != 0 {
		t.Errorf("volatile Len = %d, want wholesale flush", volatile.Len())
	}
	// The durable tier keeps the other kind.
	if _, err := durable.Get(ctx, Prefix(KindSidebar)+"b"); err != nil {
		t.Errorf("sidebar key should survive in durable tier: %v", err)
	}
}

func TestTieredStore_VolatileOutageDegrades(t *testing.T) {
	durable := setupTestRedis(t)
	tiered := NewTieredStore(downStore{}, durable)
	ctx := context.Background()

	if err := tiered.Set(ctx, "k1", NewEntry([]byte("v"), time.Minute)); err != nil {
		t.Fatalf("Set with volatile tier down failed: %v", err)
	}
	got, err := tiered.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get with volatile tier down failed: %v", err)
	}
	if got.Origin != TierDurable {
		t.Errorf("Origin = %q, want durable", got.Origin)
	}
}

func TestTieredStore_DurableOutageDegrades(t *testing.T) {
	volatile := NewMemoryStore()
	tiered := NewTieredStore(volatile, downStore{})
	ctx := context.Background()

	// Set succeeds on the volatile tier alone; callers never see the
	// durable outage.
	if err := tiered.Set(ctx, "k1", NewEntry([]byte("v"), time.Minute)); err != nil {
		t.Fatalf("Set with durable tier down failed: %v", err)
	}
	got, err := tiered.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get with durable tier down failed: %v", err)
	}
	if got.Origin != TierVolatile {
		t.Errorf("Origin = %q, want volatile", got.Origin)
	}

	// A full outage is just a miss, never an error.
	if _, err := tiered.Get(ctx, "absent"); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss on outage, got %v", err)
	}
}

func TestTieredStore_DurableOnly(t *testing.T) {
	durable := setupTestRedis(t)
	tiered := NewTieredStore(nil, durable)
	ctx := context.Background()

	if err := tiered.Set(ctx, "k1", NewEntry([]byte("v"), time.Minute)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := tiered.Get(ctx, "k1"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
}
