package cache

import "context"

type hitResult[T any] struct {
	data    T
	valid   bool
	claimed bool
	// The backend could not be reached. Compute without claiming, setting or deleting the key.
	uncached bool
}

// Cache is a claim-based store used by GetOrCreate to de-duplicate concurrent computations
type Cache[T any] interface {
	getOrClaim(ctx context.Context, key string) hitResult[T]
	set(ctx context.Context, key string, data T)
	delete(ctx context.Context, key string)
	wait()
}
