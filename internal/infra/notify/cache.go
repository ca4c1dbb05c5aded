package notify

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// CachedCounter fronts a Registry's UnreadCount with a short-lived redis
// cache, so the badge polled by clients does not hammer the upstream
// service. An inbound event invalidates the key instead of waiting out
// the TTL. Cache failures degrade to a direct fetch.
type CachedCounter struct {
	registry Registry
	rdb      *redis.Client
	ttl      time.Duration
	log      *slog.Logger
}

func NewCachedCounter(registry Registry, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *CachedCounter {
	return &CachedCounter{registry: registry, rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(email string) string {
	return "notify:unread:" + email
}

func (c *CachedCounter) UnreadCount(ctx context.Context, email string) (int, error) {
	if cached, err := c.rdb.Get(ctx, cacheKey(email)).Result(); err == nil {
		if n, convErr := strconv.Atoi(cached); convErr == nil {
			return n, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("unread-count cache read failed, falling through",
			slog.String("error", err.Error()))
	}

	n, err := c.registry.UnreadCount(ctx, email)
	if err != nil {
		return 0, err
	}

	if err := c.rdb.Set(ctx, cacheKey(email), strconv.Itoa(n), c.ttl).Err(); err != nil {
		c.log.Warn("unread-count cache write failed",
			slog.String("error", err.Error()))
	}
	return n, nil
}

// Invalidate drops the cached count so the next read reflects a
// just-delivered notification.
func (c *CachedCounter) Invalidate(ctx context.Context, email string) {
	if err := c.rdb.Del(ctx, cacheKey(email)).Err(); err != nil {
		c.log.Warn("unread-count cache invalidation failed",
			slog.String("error", err.Error()))
	}
}
