package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type testEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

const localRedisURL = "redis://localhost:6379/0"

func newTestRedisCache(t *testing.T, ttl time.Duration) Cache[testEntry] {
	t.Helper()

	options, err := redis.ParseURL(localRedisURL)
	require.NoError(t, err)

	client := redis.NewClient(options)
	t.Cleanup(func() {
		_ = client.Close()
	})

	// Unique prefix per test so runs don't interfere
	return NewRedisCache[testEntry](client, fmt.Sprintf("ministats-test:%s", uuid.NewString()), ttl)
}

func TestCacheImplementations(t *testing.T) {
	t.Parallel()

	type cacheFactory func(t *testing.T) Cache[testEntry]

	factories := map[string]cacheFactory{
		"basic": func(t *testing.T) Cache[testEntry] {
			return NewBasicCache[testEntry]()
		},
		"ttl": func(t *testing.T) Cache[testEntry] {
			return NewTTLCache[testEntry](1000 * time.Second)
		},
		"redis": func(t *testing.T) Cache[testEntry] {
			if testing.Short() {
				t.Skip("skipping redis tests in short mode")
			}
			return newTestRedisCache(t, 1000*time.Second)
		},
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			t.Run("set and get", func(t *testing.T) {
				t.Parallel()
				cache := factory(t)

				cache.set(ctx, "test", testEntry{Value: "test", Count: 3})

				result := cache.getOrClaim(ctx, "test")
				require.False(t, result.claimed, "Expected entry to exist")
				require.True(t, result.valid)
				require.Equal(t, testEntry{Value: "test", Count: 3}, result.data)
			})

			t.Run("getOrClaim claims when missing", func(t *testing.T) {
				t.Parallel()
				cache := factory(t)

				result := cache.getOrClaim(ctx, "test")
				require.True(t, result.claimed, "Expected entry to not exist and get claimed")

				result = cache.getOrClaim(ctx, "test")
				require.False(t, result.claimed, "Expected entry to exist and not get claimed")
				require.False(t, result.valid, "Expected entry to be invalid")
			})

			t.Run("delete", func(t *testing.T) {
				t.Parallel()
				cache := factory(t)
				cache.set(ctx, "test", testEntry{Value: "test"})

				cache.delete(ctx, "test")

				result := cache.getOrClaim(ctx, "test")
				require.True(t, result.claimed, "Expected to not find a value")
			})

			t.Run("delete missing entry", func(t *testing.T) {
				t.Parallel()
				cache := factory(t)

				cache.delete(ctx, "test")

				result := cache.getOrClaim(ctx, "test")
				require.True(t, result.claimed, "Expected to not find a value")
			})

			t.Run("keys are independent", func(t *testing.T) {
				t.Parallel()
				cache := factory(t)

				cache.set(ctx, "a", testEntry{Value: "a"})

				result := cache.getOrClaim(ctx, "b")
				require.True(t, result.claimed)

				result = cache.getOrClaim(ctx, "a")
				require.True(t, result.valid)
				require.Equal(t, "a", result.data.Value)
			})

			t.Run("wait", func(t *testing.T) {
				t.Parallel()
				cache := factory(t)
				cache.wait()
			})
		})
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cache := NewTTLCache[testEntry](10 * time.Millisecond)
	cache.set(ctx, "test", testEntry{Value: "test"})

	require.Eventually(t, func() bool {
		return cache.getOrClaim(ctx, "test").claimed
	}, time.Second, 5*time.Millisecond)
}

func TestRedisCacheExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis tests in short mode")
	}
	t.Parallel()
	ctx := context.Background()

	cache := newTestRedisCache(t, 50*time.Millisecond)
	cache.set(ctx, "test", testEntry{Value: "test"})

	require.Eventually(t, func() bool {
		return cache.getOrClaim(ctx, "test").claimed
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRedisCacheUnavailable(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Nothing listens on this port. The cache should degrade to computing locally.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cache := NewRedisCache[testEntry](client, "unavailable", time.Minute)

	result := cache.getOrClaim(ctx, "key")
	require.True(t, result.uncached)
	require.False(t, result.claimed, "an unreachable redis must not hand out claims")

	_, _, err := GetOrCreate(ctx, cache, "key", func() (testEntry, error) {
		return testEntry{}, errors.New("upstream failed")
	})
	require.ErrorContains(t, err, "upstream failed")

	data, created, err := GetOrCreate(ctx, cache, "key", func() (testEntry, error) {
		return testEntry{Value: "computed"}, nil
	})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "computed", data.Value)
}
