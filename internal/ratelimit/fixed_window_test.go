package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowLimiter_AllowsWithinLimit(t *testing.T) {
	limiter := NewFixedWindowLimiter()
	rule := Rule{Limit: 3, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "ak_test", rule)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 2-i, result.Remaining)
	}

	result, err := limiter.Check(ctx, "ak_test", rule)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Greater(t, result.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, result.RetryAfterSeconds(), 60)
}

func TestFixedWindowLimiter_WindowReset(t *testing.T) {
	now := time.Now()
	limiter := NewFixedWindowLimiter()
	limiter.now = func() time.Time { return now }

	rule := Rule{Limit: 1, Window: time.Minute}
	ctx := context.Background()

	first, err := limiter.Check(ctx, "ak_test", rule)
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	second, err := limiter.Check(ctx, "ak_test", rule)
	require.NoError(t, err)
	assert.False(t, second.Allowed)

	// Once the window elapses the counter resets.
	now = now.Add(61 * time.Second)

	third, err := limiter.Check(ctx, "ak_test", rule)
	require.NoError(t, err)
	assert.True(t, third.Allowed)
}

func TestFixedWindowLimiter_IndependentIdentities(t *testing.T) {
	limiter := NewFixedWindowLimiter()
	rule := Rule{Limit: 1, Window: time.Minute}
	ctx := context.Background()

	first, err := limiter.Check(ctx, "ak_one", rule)
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	// A different key's budget is untouched.
	other, err := limiter.Check(ctx, "ak_two", rule)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

// Two concurrent requests must not both pass a limit of one.
func TestFixedWindowLimiter_ConcurrentChecks(t *testing.T) {
	limiter := NewFixedWindowLimiter()
	rule := Rule{Limit: 1, Window: time.Minute}
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := limiter.Check(ctx, "ak_contended", rule)
			if err == nil && result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, allowed)
}

func TestFixedWindowLimiter_Cleanup(t *testing.T) {
	now := time.Now()
	limiter := NewFixedWindowLimiter()
	limiter.now = func() time.Time { return now }

	rule := Rule{Limit: 1, Window: time.Second}
	ctx := context.Background()

	_, err := limiter.Check(ctx, "ak_stale", rule)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	limiter.Cleanup()

	_, loaded := limiter.counters.Load("ak_stale")
	assert.False(t, loaded)
}

func TestResult_RetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 0, (&Result{}).RetryAfterSeconds())
	assert.Equal(t, 1, (&Result{RetryAfter: 200 * time.Millisecond}).RetryAfterSeconds())
	assert.Equal(t, 60, (&Result{RetryAfter: time.Minute}).RetryAfterSeconds())
}
