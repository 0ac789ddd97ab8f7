package cache

import (
	"time"
)

// Tier identifies which storage tier an entry was read from.
type Tier string

const (
	// TierVolatile is the fast in-process tier. The host may clear it
	// at any time; it is never assumed coherent across nodes.
	TierVolatile Tier = "volatile"

	// TierDurable is the persisted tier with explicit row expiry. It
	// is the source of truth between the two.
	TierDurable Tier = "durable"
)

// Entry is one cached artifact. Writes are whole-value replacements;
// an entry is never partially updated.
type Entry struct {
	// Data is the opaque serialized payload.
	Data []byte `json:"data"`

	// CachedAt is when the entry was written.
	CachedAt time.Time `json:"cached_at"`

	// Expires is when the entry becomes stale. Always after CachedAt.
	Expires time.Time `json:"expires"`

	// Origin records the tier the entry was read from. Not persisted
	// as authoritative state.
	Origin Tier `json:"-"`
}

// NewEntry creates an entry expiring ttl from now.
func NewEntry(data []byte, ttl time.Duration) *Entry {
	now := time.Now().UTC()
	return &Entry{
		Data:     data,
		CachedAt: now,
		Expires:  now.Add(ttl),
	}
}

// IsExpired returns true if the entry is stale. Expiry is checked
// lazily on read; the durable row may outlive it until the next write.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
