package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Amund211/ministats/internal/logging"
	"github.com/Amund211/ministats/internal/reporting"
)

// Stored while a caller is computing the entry
const claimMarker = "__claimed__"

// A claim outlives a crashed creator by at most this long
const defaultClaimTTL = 30 * time.Second

type redisCache[T any] struct {
	client   *redis.Client
	prefix   string
	ttl      time.Duration
	claimTTL time.Duration
}

func (c *redisCache[T]) fullKey(key string) string {
	return c.prefix + ":" + key
}

func (c *redisCache[T]) getOrClaim(ctx context.Context, key string) hitResult[T] {
	fullKey := c.fullKey(key)

	claimed, err := c.client.SetNX(ctx, fullKey, claimMarker, c.claimTTL).Result()
	if err != nil {
		// Redis being down should not take the service down with it
		reporting.Report(ctx, fmt.Errorf("failed to claim redis cache entry: %w", err), map[string]string{
			"key": fullKey,
		})
		return hitResult[T]{uncached: true}
	}
	if claimed {
		return hitResult[T]{claimed: true}
	}

	raw, err := c.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired or deleted between SETNX and GET. Try again after waiting.
		return hitResult[T]{}
	}
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to get redis cache entry: %w", err), map[string]string{
			"key": fullKey,
		})
		return hitResult[T]{uncached: true}
	}

	if string(raw) == claimMarker {
		return hitResult[T]{}
	}

	var data T
	if err := json.Unmarshal(raw, &data); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "Discarding unreadable cache entry", "key", fullKey, "error", err.Error())
		// Overwritten by set once the caller has recomputed the value
		return hitResult[T]{claimed: true}
	}

	return hitResult[T]{data: data, valid: true}
}

func (c *redisCache[T]) set(ctx context.Context, key string, data T) {
	fullKey := c.fullKey(key)

	raw, err := json.Marshal(data)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal cache entry: %w", err), map[string]string{
			"key": fullKey,
		})
		c.delete(ctx, key)
		return
	}

	err = c.client.Set(ctx, fullKey, raw, c.ttl).Err()
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to set redis cache entry: %w", err), map[string]string{
			"key": fullKey,
		})
	}
}

func (c *redisCache[T]) delete(ctx context.Context, key string) {
	fullKey := c.fullKey(key)

	// Use a fresh context so a cancelled request still releases its claim
	err := c.client.Del(context.WithoutCancel(ctx), fullKey).Err()
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to delete redis cache entry: %w", err), map[string]string{
			"key": fullKey,
		})
	}
}

func (c *redisCache[T]) wait() {
	time.Sleep(50 * time.Millisecond)
}

// NewRedisCache returns a cache shared between instances, storing JSON encoded values under prefix
func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration) Cache[T] {
	return &redisCache[T]{
		client:   client,
		prefix:   prefix,
		ttl:      ttl,
		claimTTL: defaultClaimTTL,
	}
}
