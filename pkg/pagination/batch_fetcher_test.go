package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mvollmer/gallery-api-cache/pkg/gallery"
)

// fakePageFetcher serves a fixed number of pages and can fail specific
// pages.
type fakePageFetcher struct {
	totalPages int
	failPages  map[int]error

	mu      sync.Mutex
	fetched []int
	calls   int32
}

func (f *fakePageFetcher) FetchPage(_ context.Context, _ gallery.Query, pageNum int) ([]byte, int, error) {
	atomic.AddInt32(&f.calls, 1)
	if err, ok := f.failPages[pageNum]; ok {
		return nil, 0, err
	}
	f.mu.Lock()
	f.fetched = append(f.fetched, pageNum)
	f.mu.Unlock()
	return []byte(fmt.Sprintf(`{"page":%d}`, pageNum)), f.totalPages, nil
}

func TestBatchFetcher_SinglePage(t *testing.T) {
	fetcher := &fakePageFetcher{totalPages: 1}
	bf := NewBatchFetcher(fetcher, DefaultConfig())

	results, err := bf.FetchAllPages(context.Background(), gallery.Query{})
	if err != nil {
		t.Fatalf("FetchAllPages failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d pages, want 1", len(results))
	}
	if atomic.LoadInt32(&fetcher.calls) != 1 {
		t.Errorf("calls = %d, want 1", fetcher.calls)
	}
}

func TestBatchFetcher_AllPages(t *testing.T) {
	fetcher := &fakePageFetcher{totalPages: 7}
	bf := NewBatchFetcher(fetcher, Config{MaxConcurrency: 3})

	results, err := bf.FetchAllPages(context.Background(), gallery.Query{ProcedureIDs: []int64{3405}})
	if err != nil {
		t.Fatalf("FetchAllPages failed: %v", err)
	}
	if len(results) != 7 {
		t.Fatalf("got %d pages, want 7", len(results))
	}
	for page := 1; page <= 7; page++ {
		if _, ok := results[page]; !ok {
			t.Errorf("page %d missing from results", page)
		}
	}
}

func TestBatchFetcher_PartialResultsOnWorkerError(t *testing.T) {
	fetcher := &fakePageFetcher{
		totalPages: 5,
		failPages:  map[int]error{3: errors.New("page 3 boom")},
	}
	bf := NewBatchFetcher(fetcher, Config{MaxConcurrency: 1})

	results, err := bf.FetchAllPages(context.Background(), gallery.Query{})
	if err == nil {
		t.Fatal("expected worker error")
	}
	// Page 1 is always present; the failing page is not.
	if _, ok := results[1]; !ok {
		t.Error("page 1 missing from partial results")
	}
	if _, ok := results[3]; ok {
		t.Error("failed page 3 should not be in results")
	}
}

func TestBatchFetcher_FirstPageFailure(t *testing.T) {
	fetcher := &fakePageFetcher{
		totalPages: 5,
		failPages:  map[int]error{1: errors.New("first page boom")},
	}
	bf := NewBatchFetcher(fetcher, DefaultConfig())

	if _, err := bf.FetchAllPages(context.Background(), gallery.Query{}); err == nil {
		t.Fatal("expected error when the first page fails")
	}
}

func TestNewBatchFetcher_ConfigDefaults(t *testing.T) {
	bf := NewBatchFetcher(&fakePageFetcher{totalPages: 1}, Config{})

	if bf.config.MaxConcurrency <= 0 {
		t.Error("MaxConcurrency should default to a positive value")
	}
	if bf.config.Timeout <= 0 {
		t.Error("Timeout should default to a positive value")
	}
	if bf.config.BufferSize <= 0 {
		t.Error("BufferSize should default to a positive value")
	}
}
