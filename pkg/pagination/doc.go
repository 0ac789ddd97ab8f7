// Package pagination implements parallel fetching of every page of a
// paginated case listing with a bounded worker pool.
//
// The gallery API caps listing pages at a fixed size, so a full
// procedure sync can span dozens of pages. Fetching them sequentially
// dominates warm-up time; the batch fetcher fetches page 1 to learn the
// total page count, then fans the remaining pages out across workers.
//
// Partial results are returned alongside the error when a worker fails,
// so a warm-up can cache what it got and retry the remainder later.
package pagination
