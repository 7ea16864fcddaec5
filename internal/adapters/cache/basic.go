package cache

import (
	"context"
	"runtime"
	"sync"
)

// memoryCache keeps entries for the lifetime of the process
type memoryCache[T any] struct {
	mu      sync.Mutex
	values  map[string]T
	pending map[string]struct{}
}

func (c *memoryCache[T]) getOrClaim(ctx context.Context, key string) hitResult[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if data, ok := c.values[key]; ok {
		return hitResult[T]{data: data, valid: true}
	}

	if _, ok := c.pending[key]; ok {
		return hitResult[T]{}
	}

	c.pending[key] = struct{}{}
	return hitResult[T]{claimed: true}
}

func (c *memoryCache[T]) set(ctx context.Context, key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, key)
	c.values[key] = data
}

func (c *memoryCache[T]) delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, key)
	delete(c.values, key)
}

func (c *memoryCache[T]) wait() {
	runtime.Gosched()
}

// NewBasicCache returns an in-process cache without expiry
func NewBasicCache[T any]() Cache[T] {
	return &memoryCache[T]{
		values:  make(map[string]T),
		pending: make(map[string]struct{}),
	}
}
