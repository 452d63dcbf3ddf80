package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bhoomi/pkg/platform/sentinel"
)

// Cache is a short-TTL read-through cache for point queries. It is strictly
// an optimization: the ledger remains the source of truth, and services
// invalidate touched keys after every committed write. A stale entry can
// outlive an invalidation failure for at most the TTL.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache constructs a cache over an existing Redis client.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

type cacheEnvelope struct {
	DocType string          `json:"docType"`
	Body    json.RawMessage `json:"body"`
	Version int64           `json:"version"`
}

func cacheKey(key string) string { return "record:" + key }

// Get returns the cached document or sentinel.ErrNotFound on a miss.
func (c *Cache) Get(ctx context.Context, key string) (Document, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Document{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("cache: get %s: %w", key, err)
	}
	var env cacheEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Document{}, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return Document{Key: key, DocType: env.DocType, Body: env.Body, Version: env.Version}, nil
}

// Set stores a document with the configured TTL.
func (c *Cache) Set(ctx context.Context, doc Document) error {
	raw, err := json.Marshal(cacheEnvelope{DocType: doc.DocType, Body: doc.Body, Version: doc.Version})
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", doc.Key, err)
	}
	if err := c.rdb.Set(ctx, cacheKey(doc.Key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", doc.Key, err)
	}
	return nil
}

// Invalidate drops cached entries for the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	cacheKeys := make([]string, len(keys))
	for i, k := range keys {
		cacheKeys[i] = cacheKey(k)
	}
	if err := c.rdb.Del(ctx, cacheKeys...).Err(); err != nil {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}
