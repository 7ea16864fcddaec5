package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Data = string

type Callback func() (Data, error)

func withWait[T any](client *mockCacheClient[T], waits int, f Callback) Callback {
	wrapped := func() (Data, error) {
		for range waits {
			client.wait()
		}
		return f()
	}
	return wrapped
}

func createResponse(data int) (Data, error) {
	return fmt.Sprintf("data%d", data), nil
}

func createCallback(data int) Callback {
	return func() (Data, error) {
		return createResponse(data)
	}
}

func createErrorCallback(variant int) Callback {
	return func() (Data, error) {
		return "", fmt.Errorf("error%d", variant)
	}
}

func createUnreachable(t *testing.T) Callback {
	return func() (Data, error) {
		t.Error("Unreachable code executed")
		return "", nil
	}
}

func TestMockedCacheFinishes(t *testing.T) {
	for clientCount := range 10 {
		server, clients := newMockCacheServer[Data](clientCount, 100)
		completedWg := sync.WaitGroup{}
		completedWg.Add(clientCount)
		for i := range clientCount {
			go func() {
				client := clients[i]
				client.waitUntilDone()
				completedWg.Done()
			}()
		}
		server.processTicks()
		completedWg.Wait()
	}
}

func TestGetOrCreateSingle(t *testing.T) {
	server, clients := newMockCacheServer[Data](1, 10)

	go func() {
		client := clients[0]
		assert.Equal(t, 0, client.server.currentTick)

		data, created, err := GetOrCreate(context.Background(), client, "key1", createCallback(1))
		assert.Nil(t, err)
		assert.True(t, created)
		assert.Equal(t, "data1", data)
		assert.Equal(t, 0, client.server.currentTick)

		client.wait()

		assert.Equal(t, 1, client.server.currentTick)

		client.waitUntilDone()
	}()

	server.processTicks()
}

func TestGetOrCreateMultiple(t *testing.T) {
	server, clients := newMockCacheServer[Data](2, 10)

	go func() {
		client := clients[0]
		data, created, err := GetOrCreate(context.Background(), client, "key1", createCallback(1))
		assert.Nil(t, err)
		assert.True(t, created)
		assert.Equal(t, "data1", data)
		assert.Equal(t, 0, client.server.currentTick)

		data, created, err = GetOrCreate(context.Background(), client, "key2", withWait(client, 2, createCallback(2)))
		assert.Nil(t, err)
		assert.True(t, created)
		assert.Equal(t, "data2", data)
		assert.Equal(t, 2, client.server.currentTick)

		client.waitUntilDone()
	}()

	go func() {
		client := clients[1]
		client.wait() // Wait for the first client to populate the cache
		data, created, err := GetOrCreate(context.Background(), client, "key1", createUnreachable(t))
		assert.Nil(t, err)
		assert.False(t, created)
		assert.Equal(t, "data1", data)
		assert.Equal(t, 1, client.server.currentTick)

		data, created, err = GetOrCreate(context.Background(), client, "key2", createUnreachable(t))
		assert.Nil(t, err)
		assert.False(t, created)
		assert.Equal(t, "data2", data)
		// The first client will insert this during the second tick
		// If our second tick processes after the first client's we will get it in the second tick
		// If our second tick processes before the first client's we will get it in the third tick
		assert.True(t, client.server.currentTick == 2 || client.server.currentTick == 3)

		client.waitUntilDone()
	}()

	server.processTicks()
}

func TestGetOrCreateErrorRetries(t *testing.T) {
	server, clients := newMockCacheServer[Data](2, 10)

	go func() {
		client := clients[0]
		_, _, err := GetOrCreate(context.Background(), client, "key1", withWait(client, 2, createErrorCallback(1)))
		assert.NotNil(t, err)
		assert.Equal(t, 2, client.server.currentTick)

		client.waitUntilDone()
	}()

	go func() {
		client := clients[1]
		client.wait()

		// This should wait for the first client to finish (not storing a result due to an error)
		// then it should retry and get the result
		data, created, err := GetOrCreate(context.Background(), client, "key1", withWait(client, 2, createCallback(1)))
		assert.Nil(t, err)
		assert.True(t, created)
		assert.Equal(t, "data1", data)
		assert.True(t, client.server.currentTick == 4 || client.server.currentTick == 5)

		client.waitUntilDone()
	}()

	server.processTicks()
}

func TestGetOrCreateCleansUpOnError(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		cache Cache[Data]
	}{
		{
			name:  "BasicCache",
			cache: NewBasicCache[Data](),
		},
		{
			name:  "TTLCache",
			cache: NewTTLCache[Data](1 * time.Minute),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := GetOrCreate(context.Background(), c.cache, "key1", createErrorCallback(10))
			require.Error(t, err)

			// The cache should be empty and allow us to create a new entry
			data, created, err := GetOrCreate(context.Background(), c.cache, "key1", createCallback(1))
			require.Nil(t, err)
			require.True(t, created)
			require.Equal(t, "data1", data)
		})
	}
}

func TestGetOrCreateCancelledContext(t *testing.T) {
	t.Parallel()

	cache := NewTTLCache[Data](1 * time.Minute)

	// Claim the entry so the next caller has to wait
	require.True(t, cache.getOrClaim(context.Background(), "key1").claimed)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	_, _, err := GetOrCreate(ctx, cache, "key1", createUnreachable(t))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetOrCreateRealCache(t *testing.T) {
	t.Parallel()

	t.Run("requests are de-duplicated in highly concurrent environment", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		cache := NewTTLCache[Data](1 * time.Minute)

		for testIndex := range 100 {
			t.Run(fmt.Sprintf("attempt #%d", testIndex), func(t *testing.T) {
				t.Parallel()

				var calls atomic.Int32
				monoStableCallback := func() (Data, error) {
					calls.Add(1)
					return createResponse(1)
				}

				wg := sync.WaitGroup{}
				for range 10 {
					wg.Add(1)
					go func() {
						defer wg.Done()
						data, _, err := GetOrCreate(ctx, cache, fmt.Sprintf("key%d", testIndex), monoStableCallback)
						assert.Nil(t, err)
						assert.Equal(t, "data1", data)
					}()
				}
				wg.Wait()

				require.Equal(t, int32(1), calls.Load(), "Callback should only be called once")
			})
		}
	})
}

// unreachableCache behaves like a backend that cannot be contacted
type unreachableCache struct {
	sets    atomic.Int32
	deletes atomic.Int32
}

func (c *unreachableCache) getOrClaim(ctx context.Context, key string) hitResult[Data] {
	return hitResult[Data]{uncached: true}
}

func (c *unreachableCache) set(ctx context.Context, key string, data Data) {
	c.sets.Add(1)
}

func (c *unreachableCache) delete(ctx context.Context, key string) {
	c.deletes.Add(1)
}

func (c *unreachableCache) wait() {}

func TestGetOrCreateUnreachableCache(t *testing.T) {
	t.Parallel()

	t.Run("computes without touching the key", func(t *testing.T) {
		t.Parallel()

		cache := &unreachableCache{}

		data, created, err := GetOrCreate(context.Background(), cache, "key1", createCallback(1))
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, "data1", data)

		require.Zero(t, cache.sets.Load())
		require.Zero(t, cache.deletes.Load())
	})

	t.Run("failed computation does not delete an entry it never owned", func(t *testing.T) {
		t.Parallel()

		cache := &unreachableCache{}

		_, created, err := GetOrCreate(context.Background(), cache, "key1", createErrorCallback(1))
		require.ErrorContains(t, err, "error1")
		require.False(t, created)

		require.Zero(t, cache.sets.Load())
		require.Zero(t, cache.deletes.Load())
	})
}
