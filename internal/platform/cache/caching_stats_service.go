package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"crypto_advisor/internal/feature/crypto/domain/entity"
)

// StatsService abstracts the statistics computations this decorator memoizes.
// Defined here on the consumer side, matching the methods of
// usecase.StatisticsUsecase.
type StatsService interface {
	GetCryptoStatistics(ctx context.Context, crypto string, from, to time.Time) (entity.CryptoStats, error)
	GetAllNormalizedRanges(ctx context.Context) ([]entity.NormalizedRange, error)
	GetHighestNormalizedRange(ctx context.Context, from, to time.Time) (entity.NormalizedRange, error)
}

// CachingStatsService decorates a StatsService with Redis caching.
// It must share its namespace with the CachingEntryStore of the same
// deployment: uploads invalidate `<namespace>:*`, which covers these keys.
// Errors are never cached.
type CachingStatsService struct {
	inner     StatsService
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewCachingStatsService decorates a StatsService with Redis caching.
// Defaults match NewCachingEntryStore.
func NewCachingStatsService(rdb *redis.Client, ttl time.Duration, inner StatsService, namespace string) *CachingStatsService {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &CachingStatsService{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// GetCryptoStatistics memoizes per-symbol statistics keyed by symbol and window.
func (c *CachingStatsService) GetCryptoStatistics(ctx context.Context, crypto string, from, to time.Time) (entity.CryptoStats, error) {
	key := fmt.Sprintf("%s:stats:%s:%s:%s", c.namespace, safe(strings.ToUpper(crypto)), windowPart(from), windowPart(to))
	var out entity.CryptoStats
	if ok := c.lookup(ctx, key, &out); ok {
		return out, nil
	}
	out, err := c.inner.GetCryptoStatistics(ctx, crypto, from, to)
	if err != nil {
		return entity.CryptoStats{}, err
	}
	c.memoize(ctx, key, out)
	return out, nil
}

// GetAllNormalizedRanges memoizes the all-time ranking.
func (c *CachingStatsService) GetAllNormalizedRanges(ctx context.Context) ([]entity.NormalizedRange, error) {
	key := c.namespace + ":ranges:all"
	var out []entity.NormalizedRange
	if ok := c.lookup(ctx, key, &out); ok {
		return out, nil
	}
	out, err := c.inner.GetAllNormalizedRanges(ctx)
	if err != nil {
		return nil, err
	}
	c.memoize(ctx, key, out)
	return out, nil
}

// GetHighestNormalizedRange memoizes the per-window winner.
func (c *CachingStatsService) GetHighestNormalizedRange(ctx context.Context, from, to time.Time) (entity.NormalizedRange, error) {
	key := fmt.Sprintf("%s:highest:%s:%s", c.namespace, windowPart(from), windowPart(to))
	var out entity.NormalizedRange
	if ok := c.lookup(ctx, key, &out); ok {
		return out, nil
	}
	out, err := c.inner.GetHighestNormalizedRange(ctx, from, to)
	if err != nil {
		return entity.NormalizedRange{}, err
	}
	c.memoize(ctx, key, out)
	return out, nil
}

// lookup reads and unmarshals a cached value; corrupted payloads are deleted.
func (c *CachingStatsService) lookup(ctx context.Context, key string, dst any) bool {
	if c.rdb == nil {
		return false
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// memoize stores a computed value (best effort).
func (c *CachingStatsService) memoize(ctx context.Context, key string, v any) {
	if c.rdb == nil {
		return
	}
	if b, err := json.Marshal(v); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
}

// windowPart renders a window bound for use in a cache key.
func windowPart(t time.Time) string {
	if t.IsZero() {
		return "all"
	}
	return t.Format(time.DateOnly)
}
