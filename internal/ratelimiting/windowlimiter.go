package ratelimiting

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrDeadlineTooSoon is returned when the context would expire before a slot opens
var ErrDeadlineTooSoon = errors.New("deadline expires before a request slot is available")

type RequestLimiter interface {
	// Wait blocks until a request may be started
	Wait(ctx context.Context) error
}

// WindowLimiter allows at most limit request starts within any sliding window
type WindowLimiter struct {
	limit     int
	window    time.Duration
	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time

	mutex  sync.Mutex
	starts []time.Time
}

func NewWindowLimiter(
	limit int,
	window time.Duration,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) *WindowLimiter {
	if limit < 1 {
		limit = 1
	}
	return &WindowLimiter{
		limit:     limit,
		window:    window,
		nowFunc:   nowFunc,
		afterFunc: afterFunc,
		starts:    make([]time.Time, 0, limit),
	}
}

// reserve records a start if a slot is free, otherwise returns how long until one frees up
func (l *WindowLimiter) reserve() (time.Duration, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.nowFunc()

	expired := 0
	for expired < len(l.starts) && !now.Before(l.starts[expired].Add(l.window)) {
		expired++
	}
	l.starts = append(l.starts[:0], l.starts[expired:]...)

	if len(l.starts) < l.limit {
		l.starts = append(l.starts, now)
		return 0, true
	}

	return l.starts[0].Add(l.window).Sub(now), false
}

func (l *WindowLimiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := l.reserve()
		if ok {
			return nil
		}

		if deadline, hasDeadline := ctx.Deadline(); hasDeadline && deadline.Sub(l.nowFunc()) < wait {
			return ErrDeadlineTooSoon
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.afterFunc(wait):
		}
	}
}
