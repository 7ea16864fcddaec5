package cache

import (
	"context"
	"fmt"

	"github.com/Amund211/ministats/internal/logging"
)

// GetOrCreate returns the cached value for key, or computes it with create.
// Only one caller computes a given key at a time; others wait for the result.
//
// Returns data, created, error
func GetOrCreate[T any](ctx context.Context, cache Cache[T], key string, create func() (T, error)) (T, bool, error) {
	// Clean up the cache if we claim an entry, but don't set it
	// This allows other callers to try again
	claimed := false
	set := false
	defer func() {
		if claimed && !set {
			cache.delete(ctx, key)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			var empty T
			return empty, false, fmt.Errorf("context done while waiting for cache: %w", err)
		}

		result := cache.getOrClaim(ctx, key)

		if result.uncached {
			logging.FromContext(ctx).WarnContext(ctx, "Computing without cache", "cache", "unavailable", "key", key)

			data, err := create()
			if err != nil {
				var empty T
				return empty, false, fmt.Errorf("failed to create uncached entry: %w", err)
			}
			return data, true, nil
		}

		if result.claimed {
			claimed = true

			logging.FromContext(ctx).InfoContext(ctx, "Computing cache entry", "cache", "miss", "key", key)

			data, err := create()
			if err != nil {
				var empty T
				return empty, false, fmt.Errorf("failed to create cache entry: %w", err)
			}

			cache.set(ctx, key, data)
			set = true

			return data, true, nil
		}

		if result.valid {
			logging.FromContext(ctx).InfoContext(ctx, "Computing cache entry", "cache", "hit", "key", key)
			return result.data, false, nil
		}

		logging.FromContext(ctx).InfoContext(ctx, "Waiting for cache", "key", key)
		cache.wait()
	}
}
