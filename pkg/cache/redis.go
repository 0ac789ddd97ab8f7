package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the durable tier: entries persisted as JSON rows with
// an absolute expiry. Rows carry a Redis TTL as a safety net, but
// expiry is also checked lazily on read so a clock-skewed row never
// serves stale data.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a durable store over the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{client: client}
}

// Get retrieves the entry for key. Corrupt rows are deleted and
// reported as ErrInvalidEntry; connection failures map to
// ErrStoreUnavailable.
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: redis get: %v", ErrStoreUnavailable, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt row: delete rather than raise, callers see a miss.
		_ = s.Delete(ctx, key)
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		_ = s.Delete(ctx, key)
		return nil, ErrCacheMiss
	}

	entry.Origin = TierDurable
	return &entry, nil
}

// Set stores the entry with a row TTL derived from its Expires.
func (s *RedisStore) Set(ctx context.Context, key string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		// Already expired, don't persist.
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Keys enumerates stored keys matching prefix via SCAN. Required
// because the durable tier has no tag-based invalidation.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: redis scan: %v", ErrStoreUnavailable, err)
	}
	return keys, nil
}

// Flush removes every row in the backing database.
func (s *RedisStore) Flush(ctx context.Context) error {
	if err := s.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis flushdb: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping verifies the durable tier is reachable (startup check).
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %v", ErrStoreUnavailable, err)
	}
	return nil
}
