package ratelimiting

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type mockedTime struct {
	lock        sync.Mutex
	currentTime time.Time
	timers      []mockedTimer
	afterCalls  atomic.Int32
}

type mockedTimer struct {
	expiresAt time.Time
	ch        chan time.Time
}

func newMockedTime(start time.Time) *mockedTime {
	return &mockedTime{currentTime: start}
}

func (m *mockedTime) Now() time.Time {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.currentTime
}

func (m *mockedTime) After(d time.Duration) <-chan time.Time {
	m.lock.Lock()
	defer m.lock.Unlock()

	ch := make(chan time.Time, 1)
	m.timers = append(m.timers, mockedTimer{expiresAt: m.currentTime.Add(d), ch: ch})
	m.afterCalls.Add(1)
	return ch
}

func (m *mockedTime) advance(d time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.currentTime = m.currentTime.Add(d)

	remaining := m.timers[:0]
	for _, timer := range m.timers {
		if !m.currentTime.Before(timer.expiresAt) {
			timer.ch <- m.currentTime
			continue
		}
		remaining = append(remaining, timer)
	}
	m.timers = remaining
}

func TestWindowLimiter(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	t.Run("allows limit requests immediately", func(t *testing.T) {
		t.Parallel()

		clock := newMockedTime(start)
		limiter := NewWindowLimiter(3, time.Second, clock.Now, clock.After)

		for range 3 {
			require.NoError(t, limiter.Wait(t.Context()))
		}
		require.Zero(t, clock.afterCalls.Load())
	})

	t.Run("waits for the window to slide", func(t *testing.T) {
		t.Parallel()

		clock := newMockedTime(start)
		limiter := NewWindowLimiter(2, time.Second, clock.Now, clock.After)

		require.NoError(t, limiter.Wait(t.Context()))
		clock.advance(300 * time.Millisecond)
		require.NoError(t, limiter.Wait(t.Context()))

		done := make(chan error, 1)
		go func() {
			done <- limiter.Wait(t.Context())
		}()

		require.Eventually(t, func() bool {
			return clock.afterCalls.Load() == 1
		}, time.Second, time.Millisecond)

		select {
		case <-done:
			t.Fatal("should be waiting for a slot")
		default:
		}

		// The first request leaves the window after one second
		clock.advance(700 * time.Millisecond)

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("should have been released")
		}
	})

	t.Run("gives up when the deadline is too soon", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		clock := newMockedTime(now)
		limiter := NewWindowLimiter(1, time.Minute, clock.Now, clock.After)

		require.NoError(t, limiter.Wait(t.Context()))

		ctx, cancel := context.WithDeadline(t.Context(), now.Add(10*time.Second))
		defer cancel()

		require.ErrorIs(t, limiter.Wait(ctx), ErrDeadlineTooSoon)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		clock := newMockedTime(start)
		limiter := NewWindowLimiter(1, time.Minute, clock.Now, clock.After)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		require.ErrorIs(t, limiter.Wait(ctx), context.Canceled)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		t.Parallel()

		clock := newMockedTime(start)
		limiter := NewWindowLimiter(1, time.Minute, clock.Now, clock.After)
		require.NoError(t, limiter.Wait(t.Context()))

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() {
			done <- limiter.Wait(ctx)
		}()

		require.Eventually(t, func() bool {
			return clock.afterCalls.Load() == 1
		}, time.Second, time.Millisecond)
		cancel()

		require.ErrorIs(t, <-done, context.Canceled)
	})
}
