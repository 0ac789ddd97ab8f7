// Package pagination provides parallel batch fetching for paginated
// gallery case listings, used by cache warm-up and full syncs.
package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mvollmer/gallery-api-cache/pkg/gallery"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// BufferSize for channels (default: estimated total pages)
	BufferSize int
}

// DefaultConfig returns safe default configuration for the gallery API
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
		Timeout:        15 * time.Second,
		BufferSize:     100,
	}
}

// PageFetcher is the interface the API client implements for
// single-page fetching
type PageFetcher interface {
	// FetchPage fetches a single listing page and returns data + total page count
	FetchPage(ctx context.Context, q gallery.Query, pageNum int) (data []byte, totalPages int, err error)
}

// PageResult represents the result of fetching a single page
type PageResult struct {
	PageNumber int
	Data       []byte
	Error      error
}

// BatchFetcher handles parallel fetching of multiple pages
type BatchFetcher struct {
	fetcher PageFetcher
	config  Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher(fetcher PageFetcher, config Config) *BatchFetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 100
	}

	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAllPages fetches every page of a case listing in parallel using
// a worker pool. Returns map of pageNumber -> data for successful pages.
func (bf *BatchFetcher) FetchAllPages(ctx context.Context, q gallery.Query) (map[int][]byte, error) {
	start := time.Now()

	// Fetch first page to get total page count
	firstPageData, totalPages, err := bf.fetcher.FetchPage(ctx, q, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}

	log.Info().
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	// Single page optimization
	if totalPages == 1 {
		result := map[int][]byte{1: firstPageData}
		log.Info().
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return result, nil
	}

	results := make(map[int][]byte)
	results[1] = firstPageData
	resultsMutex := sync.Mutex{}

	pageQueue := make(chan int, bf.config.BufferSize)
	pageResults := make(chan PageResult, bf.config.BufferSize)
	errs := make(chan error, bf.config.MaxConcurrency)

	// Fill page queue (skip page 1, already fetched)
	go func() {
		for page := 2; page <= totalPages; page++ {
			pageQueue <- page
		}
		close(pageQueue)
	}()

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(ctx, q, pageQueue, pageResults, errs, &wg, i)
	}

	go func() {
		wg.Wait()
		close(pageResults)
		close(errs)
	}()

	fetchedPages := 1
	for result := range pageResults {
		if result.Error != nil {
			log.Warn().
				Err(result.Error).
				Int("page", result.PageNumber).
				Msg("Page fetch failed")
			continue
		}

		resultsMutex.Lock()
		results[result.PageNumber] = result.Data
		fetchedPages++
		resultsMutex.Unlock()
	}

	select {
	case err := <-errs:
		if err != nil {
			log.Warn().
				Err(err).
				Int("fetched_pages", fetchedPages).
				Int("total_pages", totalPages).
				Msg("Worker error - returning partial results")
			return results, fmt.Errorf("worker error (partial data: %d/%d pages): %w", fetchedPages, totalPages, err)
		}
	default:
	}

	log.Info().
		Int("pages", fetchedPages).
		Int("total", totalPages).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}

// worker processes pages from the queue
func (bf *BatchFetcher) worker(ctx context.Context, q gallery.Query, pageQueue <-chan int, results chan<- PageResult, errs chan<- error, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for pageNum := range pageQueue {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		data, _, err := bf.fetcher.FetchPage(pageCtx, q, pageNum)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")

			select {
			case errs <- err:
			default:
			}
			return
		}

		select {
		case results <- PageResult{PageNumber: pageNum, Data: data}:
		case <-ctx.Done():
			return
		}
	}
}
