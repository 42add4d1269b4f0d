package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Frankanator8/jobfinder/internal/feed"
)

// CachedSource is a Redis read-through wrapper around a feed source. Pages
// are keyed by their query shape and held for a short TTL so repeated
// refreshes of the same view don't hit Postgres. ForceFresh queries bypass
// the cache and overwrite the cached page on the way out.
type CachedSource struct {
	inner feed.Source
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedSource wraps inner with a Redis page cache.
func NewCachedSource(inner feed.Source, rdb *redis.Client, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedSource{inner: inner, rdb: rdb, ttl: ttl}
}

func pageKey(q feed.PageQuery) string {
	return fmt.Sprintf("feedpage:%d:%s:%s", q.PageSize, q.Category, q.Cursor)
}

// FetchPage implements feed.Source.
func (c *CachedSource) FetchPage(ctx context.Context, q feed.PageQuery) (feed.Page, error) {
	key := pageKey(q)

	if !q.ForceFresh {
		payload, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var page feed.Page
			if jsonErr := json.Unmarshal(payload, &page); jsonErr == nil {
				return page, nil
			}
			// Unreadable entry: fall through to the source and rewrite it.
		} else if !errors.Is(err, redis.Nil) {
			slog.Warn("feed page cache read failed", "key", key, "err", err)
		}
	}

	page, err := c.inner.FetchPage(ctx, q)
	if err != nil {
		return feed.Page{}, err
	}

	payload, err := json.Marshal(page)
	if err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			slog.Warn("feed page cache write failed", "key", key, "err", err)
		}
	}
	return page, nil
}
