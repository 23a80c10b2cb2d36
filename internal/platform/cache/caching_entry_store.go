// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"crypto_advisor/internal/feature/crypto/domain/entity"
	"crypto_advisor/internal/feature/crypto/usecase"
)

const (
	defaultTTL       = 5 * time.Minute
	defaultNamespace = "crypto"
)

// CachingEntryStore decorates an EntryStore with Redis caching.
// Per-symbol entry reads and the symbol list are memoized; any successful
// write invalidates the whole namespace, so aggregate results cached by
// CachingStatsService under the same namespace are dropped at the same time.
type CachingEntryStore struct {
	inner     usecase.EntryStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewCachingEntryStore decorates an EntryStore with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "crypto".
func NewCachingEntryStore(rdb *redis.Client, ttl time.Duration, inner usecase.EntryStore, namespace string) *CachingEntryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &CachingEntryStore{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// ListSymbols returns the known symbols, checking cache first.
func (c *CachingEntryStore) ListSymbols(ctx context.Context) ([]string, error) {
	if c.rdb == nil {
		return c.inner.ListSymbols(ctx)
	}
	key := c.namespace + ":symbols"
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []string
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}
	out, err := c.inner.ListSymbols(ctx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// ReadEntries retrieves a symbol's dataset, checking cache first then
// falling back to the underlying store.
func (c *CachingEntryStore) ReadEntries(ctx context.Context, symbol string) ([]entity.Entry, error) {
	if c.rdb == nil {
		return c.inner.ReadEntries(ctx, symbol)
	}
	key := c.entriesKey(symbol)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Entry
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to disk
	out, err := c.inner.ReadEntries(ctx, symbol)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// WriteEntries replaces a symbol's dataset and invalidates the namespace.
// Invalidation is wholesale: writes are rare relative to reads and every
// cached aggregate in the namespace is derived from the dataset files.
func (c *CachingEntryStore) WriteEntries(ctx context.Context, symbol string, entries []entity.Entry) error {
	if err := c.inner.WriteEntries(ctx, symbol, entries); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	_ = c.deleteByPattern(ctx, c.namespace+":*") // Best effort: don't fail if cache deletion fails
	return nil
}

// entriesKey generates the cache key for a symbol's dataset.
func (c *CachingEntryStore) entriesKey(symbol string) string {
	return fmt.Sprintf("%s:entries:%s", c.namespace, safe(strings.ToUpper(symbol)))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingEntryStore) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
