package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"xchangez/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	feedKeyPrefix = "feed:"
	// FeedTTL bounds how stale a cached feed page may be.
	FeedTTL = 30 * time.Second
)

// FeedKey names the cache entry for one feed page.
func FeedKey(kind string, size int) string {
	return fmt.Sprintf("%s%s:%d", feedKeyPrefix, kind, size)
}

// FeedCache stores rendered feed pages as JSON. A nil client turns every call into a miss.
type FeedCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFeedCache returns a cache backed by rdb.
func NewFeedCache(rdb *redis.Client, ttl time.Duration) *FeedCache {
	if ttl <= 0 {
		ttl = FeedTTL
	}
	return &FeedCache{rdb: rdb, ttl: ttl}
}

// Get decodes the cached value at key into dest and reports whether it was found.
func (f *FeedCache) Get(ctx context.Context, key string, dest any) bool {
	if f == nil || f.rdb == nil {
		return false
	}
	raw, err := f.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			observability.FeedCacheLookups.WithLabelValues("error").Inc()
		} else {
			observability.FeedCacheLookups.WithLabelValues("miss").Inc()
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		observability.FeedCacheLookups.WithLabelValues("error").Inc()
		return false
	}
	observability.FeedCacheLookups.WithLabelValues("hit").Inc()
	return true
}

// Set stores value at key for the cache TTL.
func (f *FeedCache) Set(ctx context.Context, key string, value any) error {
	if f == nil || f.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return f.rdb.Set(ctx, key, raw, f.ttl).Err()
}

// InvalidateAll drops every cached feed page.
func (f *FeedCache) InvalidateAll(ctx context.Context) error {
	if f == nil || f.rdb == nil {
		return nil
	}
	iter := f.rdb.Scan(ctx, 0, feedKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return f.rdb.Del(ctx, keys...).Err()
}
