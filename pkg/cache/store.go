package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found, was
	// expired, or lives in an unreachable tier.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a stored value failed to deserialize.
	// Callers treat it as a miss; the store deletes the corrupt row.
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrStoreUnavailable indicates a tier cannot be reached. The
	// tiered store downgrades it to a miss; callers never see it.
	ErrStoreUnavailable = errors.New("cache store unavailable")

	// ErrScanUnsupported indicates a tier has no prefix enumeration.
	// Prefix flushes fall back to a wholesale flush of that tier.
	ErrScanUnsupported = errors.New("prefix scan unsupported")
)

// Store is the minimal key-value contract both tiers implement.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry for key, or ErrCacheMiss. Expired entries
	// are treated as misses and may be deleted as a side effect.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores the entry under key, replacing any previous value.
	// The entry's absolute Expires drives row expiry.
	Set(ctx context.Context, key string, entry *Entry) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys enumerates stored keys matching prefix (all keys when
	// prefix is empty). Returns ErrScanUnsupported if the tier cannot
	// enumerate.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Flush removes every entry in the tier.
	Flush(ctx context.Context) error
}
