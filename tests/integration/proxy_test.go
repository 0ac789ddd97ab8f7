package integration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mvollmer/gallery-api-cache/internal/testutil"
	"github.com/mvollmer/gallery-api-cache/pkg/cache"
	"github.com/mvollmer/gallery-api-cache/pkg/client"
	"github.com/mvollmer/gallery-api-cache/pkg/gallery"
	"github.com/mvollmer/gallery-api-cache/pkg/resolver"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

type stack struct {
	manager  *cache.Manager
	resolver *resolver.Resolver
	client   *client.Client
	mock     *testutil.MockGalleryAPI
}

func setupStack(t *testing.T, redisClient *redis.Client) *stack {
	t.Helper()

	mock := testutil.NewMockGalleryAPI()
	t.Cleanup(mock.Close)

	c, err := client.New(client.DefaultConfig(mock.URL(), "integration-token"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	store := cache.NewTieredStore(cache.NewMemoryStore(), cache.NewRedisStore(redisClient))
	manager := cache.NewManager(store, cache.Config{})
	r := resolver.New(manager, c, zerolog.Nop())

	return &stack{manager: manager, resolver: r, client: c, mock: mock}
}

// TestFullListingFlow covers the complete listing flow: cache miss →
// upstream fetch → cache store → cache hit.
func TestFullListingFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	s := setupStack(t, redisClient)
	s.mock.SetCases([]gallery.CaseRecord{
		{CaseID: 101, ProcedureIDs: []int64{3405}},
		{CaseID: 102, ProcedureIDs: []int64{3405}},
	})

	ctx := context.Background()
	q := gallery.Query{ProcedureIDs: []int64{3405}}
	producer := func(ctx context.Context) ([]byte, error) {
		return s.client.FetchCasesRaw(ctx, q)
	}

	// Request 1: miss, upstream fetch, store.
	data, err := s.manager.GetOrPopulate(ctx, cache.KindCaseList, q.Params(), producer)
	if err != nil {
		t.Fatalf("Request 1 failed: %v", err)
	}
	var list gallery.CaseList
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(list.Cases) != 2 {
		t.Errorf("listing has %d cases, want 2", len(list.Cases))
	}
	if s.mock.GetRequestCount() != 1 {
		t.Errorf("upstream requests = %d, want 1", s.mock.GetRequestCount())
	}

	// Request 2: served from cache, upstream untouched.
	if _, err := s.manager.GetOrPopulate(ctx, cache.KindCaseList, q.Params(), producer); err != nil {
		t.Fatalf("Request 2 failed: %v", err)
	}
	if s.mock.GetRequestCount() != 1 {
		t.Errorf("upstream requests after cache hit = %d, want 1", s.mock.GetRequestCount())
	}
}

// TestResolverFlow covers case resolution against real Redis: cached
// listings resolve with zero upstream calls, unknown cases fall through
// to a direct fetch exactly once.
func TestResolverFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	s := setupStack(t, redisClient)
	s.mock.SetCases([]gallery.CaseRecord{
		{CaseID: 101, ProcedureIDs: []int64{3405}},
		{CaseID: 102, ProcedureIDs: []int64{3405}},
		{CaseID: 999, ProcedureIDs: []int64{77}},
	})

	ctx := context.Background()
	q := gallery.Query{ProcedureIDs: []int64{3405}}

	// Populate the filtered listing the way a page load would.
	if _, err := s.manager.GetOrPopulate(ctx, cache.KindCaseList, q.Params(), func(ctx context.Context) ([]byte, error) {
		return s.client.FetchCasesRaw(ctx, q)
	}); err != nil {
		t.Fatalf("populate failed: %v", err)
	}
	s.mock.Reset()

	// Resolving a listed case never touches upstream.
	record, attempt, err := s.resolver.ResolveCase(ctx, 101, []gallery.Query{q})
	if err != nil {
		t.Fatalf("resolve 101 failed: %v", err)
	}
	if record.CaseID != 101 {
		t.Errorf("CaseID = %d, want 101", record.CaseID)
	}
	if attempt.Strategy != "filtered_scan" {
		t.Errorf("Strategy = %q, want filtered_scan", attempt.Strategy)
	}
	if s.mock.GetRequestCount() != 0 {
		t.Errorf("upstream requests = %d, want 0", s.mock.GetRequestCount())
	}

	// An unlisted case is discovered by direct fetch, exactly once.
	record, attempt, err = s.resolver.ResolveCase(ctx, 999, []gallery.Query{q})
	if err != nil {
		t.Fatalf("resolve 999 failed: %v", err)
	}
	if record.CaseID != 999 {
		t.Errorf("CaseID = %d, want 999", record.CaseID)
	}
	if attempt.Strategy != "direct_fetch" {
		t.Errorf("Strategy = %q, want direct_fetch", attempt.Strategy)
	}
	if s.mock.GetCaseRequests() != 1 {
		t.Errorf("single-case requests = %d, want 1", s.mock.GetCaseRequests())
	}

	// Resolving 999 again is a SingleCase cache hit.
	if _, _, err := s.resolver.ResolveCase(ctx, 999, []gallery.Query{q}); err != nil {
		t.Fatalf("second resolve 999 failed: %v", err)
	}
	if s.mock.GetCaseRequests() != 1 {
		t.Errorf("single-case requests after cached resolve = %d, want 1", s.mock.GetCaseRequests())
	}

	// A case nobody has is a not-found, not an error.
	if _, _, err := s.resolver.ResolveCase(ctx, 424242, []gallery.Query{q}); !errors.Is(err, resolver.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestLegacyMigrationFlow covers the self-healing path over real Redis:
// a legacy-format entry is found by the resolver, rewritten under the
// current key, and removed by the sweep thereafter.
func TestLegacyMigrationFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	s := setupStack(t, redisClient)
	ctx := context.Background()

	// Plant a legacy entry holding a case list, as older deployments
	// wrote them.
	legacyKey := "gallery_cache_caselist_0123456789abcdef0123456789abcdef"
	list := gallery.CaseList{Cases: []gallery.CaseRecord{{CaseID: 55, ProcedureIDs: []int64{3405}}}}
	data, _ := json.Marshal(list)
	if err := s.manager.Store().Set(ctx, legacyKey, cache.NewEntry(data, s.manager.TTL(cache.KindCaseList))); err != nil {
		t.Fatalf("legacy set failed: %v", err)
	}

	record, attempt, err := s.resolver.ResolveCase(ctx, 55, nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if record.CaseID != 55 {
		t.Errorf("CaseID = %d, want 55", record.CaseID)
	}
	if attempt.Strategy != "legacy_scan" {
		t.Errorf("Strategy = %q, want legacy_scan", attempt.Strategy)
	}

	// The legacy entry is gone; the current-format entry serves the
	// next lookup.
	if _, err := s.manager.Store().DurableGet(ctx, legacyKey); !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("legacy entry should be deleted: %v", err)
	}
	if _, err := s.manager.Peek(ctx, cache.KindSingleCase, map[string]string{"case_id": "55"}); err != nil {
		t.Errorf("migrated entry missing: %v", err)
	}

	// Nothing legacy remains for the sweep.
	result, err := s.manager.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if result.Deleted != 0 {
		t.Errorf("Sweep deleted %d entries after migration, want 0", result.Deleted)
	}
}
