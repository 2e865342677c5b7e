// Package cache holds the Redis-backed report cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/engagement-analytics/internal/analytics"
)

// ReportCache stores complete engagement reports as JSON under a key prefix.
// It implements engagement.ReportCache.
type ReportCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Key builds the cache key for one report variant of a tenant. The tenant id
// is query-escaped so it can hold neither the ':' separator nor a SCAN glob
// metacharacter.
func Key(tenantID, variant string) string {
	return url.QueryEscape(tenantID) + ":" + variant
}

// NewReportCache creates a cache with the given key prefix and entry TTL.
func NewReportCache(client *redis.Client, prefix string, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, prefix: prefix, ttl: ttl}
}

// Get returns a cached report. A miss is (nil, false, nil).
func (c *ReportCache) Get(ctx context.Context, key string) (*analytics.Report, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached report: %w", err)
	}
	var r analytics.Report
	if err := json.Unmarshal(data, &r); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it.
		return nil, false, nil
	}
	return &r, true, nil
}

// Set stores r with the cache TTL.
func (c *ReportCache) Set(ctx context.Context, key string, r *analytics.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached report: %w", err)
	}
	return nil
}

// Invalidate removes every cached report for a tenant. Keys must have been
// built with Key.
func (c *ReportCache) Invalidate(ctx context.Context, tenantID string) (int, error) {
	var removed int
	iter := c.client.Scan(ctx, 0, c.prefix+Key(tenantID, "*"), 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("delete cached report: %w", err)
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan cached reports: %w", err)
	}
	return removed, nil
}
