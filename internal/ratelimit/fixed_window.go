package ratelimit

import (
	"context"
	"sync"
	"time"
)

// FixedWindowLimiter implements fixed-window counting with in-process
// state. Each identity gets its own window, opened on its first request
// and reset once the window elapses. Counters are process-local; a
// multi-instance deployment should use RedisLimiter instead, behind the
// same Limiter contract.
type FixedWindowLimiter struct {
	counters sync.Map // identity -> *windowCounter
	now      func() time.Time
}

// windowCounter tracks one identity's current window. The mutex makes
// checks linearizable per identity.
type windowCounter struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// NewFixedWindowLimiter creates a new in-process fixed window limiter.
func NewFixedWindowLimiter() *FixedWindowLimiter {
	return &FixedWindowLimiter{now: time.Now}
}

// Check implements Limiter.
func (l *FixedWindowLimiter) Check(ctx context.Context, identity string, rule Rule) (*Result, error) {
	now := l.now()

	value, _ := l.counters.LoadOrStore(identity, &windowCounter{})
	wc := value.(*windowCounter)

	wc.mu.Lock()
	defer wc.mu.Unlock()

	// First request for this identity, or the window has elapsed:
	// reset the counter and open a new window.
	if wc.resetAt.IsZero() || !now.Before(wc.resetAt) {
		wc.count = 1
		wc.resetAt = now.Add(rule.Window)
		return &Result{Allowed: true, Remaining: rule.Limit - 1}, nil
	}

	if wc.count < rule.Limit {
		wc.count++
		return &Result{Allowed: true, Remaining: rule.Limit - wc.count}, nil
	}

	return &Result{
		Allowed:    false,
		Remaining:  0,
		RetryAfter: wc.resetAt.Sub(now),
	}, nil
}

// Cleanup removes counters whose window has elapsed. The counter map
// grows with the number of distinct identities seen; callers may run
// this periodically to bound it.
func (l *FixedWindowLimiter) Cleanup() {
	now := l.now()

	l.counters.Range(func(key, value interface{}) bool {
		wc := value.(*windowCounter)
		wc.mu.Lock()
		stale := !wc.resetAt.IsZero() && !now.Before(wc.resetAt)
		wc.mu.Unlock()

		if stale {
			l.counters.Delete(key)
		}
		return true
	})
}

var _ Limiter = (*FixedWindowLimiter)(nil)
