package leadsource

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/billingcat/leadboard/leadtable"
	"github.com/redis/go-redis/v9"
)

// CachedSource keeps fetched lead lists in redis for TTL. Redis failures
// never fail a fetch; they are logged and the wrapped source is used.
type CachedSource struct {
	next   Source
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSource wraps next with a redis cache.
func NewCachedSource(next Source, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedSource{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// CacheKey is the redis key for q.
func CacheKey(q Query) string {
	user := q.SelectedUserID
	if user == "" {
		user = "all"
	}
	return "leadboard:leads:" + string(q.Role) + ":" + user
}

// FetchLeads returns the cached list for q or fetches and stores it.
func (c *CachedSource) FetchLeads(ctx context.Context, q Query) ([]leadtable.Lead, error) {
	key := CacheKey(q)
	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var leads []leadtable.Lead
		if err = json.Unmarshal(data, &leads); err == nil {
			return leads, nil
		}
		c.logger.Warn("cannot decode cached leads", "key", key, "error", err)
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}

	leads, err := c.next.FetchLeads(ctx, q)
	if err != nil {
		return nil, err
	}
	if data, err = json.Marshal(leads); err != nil {
		c.logger.Warn("cannot encode leads for cache", "key", key, "error", err)
		return leads, nil
	}
	if err = c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return leads, nil
}

// Invalidate drops the cached list for q.
func (c *CachedSource) Invalidate(ctx context.Context, q Query) error {
	return c.rdb.Del(ctx, CacheKey(q)).Err()
}
