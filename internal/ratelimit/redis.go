package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/afi-protocol/afi-gateway/internal/observability"
)

// incrWithExpiryScript atomically increments a window counter and sets
// its expiration when the counter is new.
// KEYS[1] = window key
// ARGV[1] = expiration in seconds
var incrWithExpiryScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[1])
	end
	return current
`)

// RedisLimiter implements fixed-window counting on shared Redis
// counters, for deployments with more than one gateway instance. It
// satisfies the same Limiter contract as FixedWindowLimiter; only the
// backing state differs. Windows are aligned to wall-clock multiples of
// the rule window so all instances agree on window boundaries.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	logger observability.Logger
	now    func() time.Time
}

// RedisLimiterOption is a functional option for the Redis limiter.
type RedisLimiterOption func(*RedisLimiter)

// WithRedisLimiterLogger sets the logger for the limiter.
func WithRedisLimiterLogger(logger observability.Logger) RedisLimiterOption {
	return func(l *RedisLimiter) {
		l.logger = logger
	}
}

// NewRedisLimiter creates a Redis-backed fixed window limiter.
// If prefix is empty it defaults to "ratelimit:".
func NewRedisLimiter(client *redis.Client, prefix string, opts ...RedisLimiterOption) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit:"
	}

	l := &RedisLimiter{
		client: client,
		prefix: prefix,
		logger: observability.NopLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Check implements Limiter.
func (l *RedisLimiter) Check(ctx context.Context, identity string, rule Rule) (*Result, error) {
	now := l.now()
	windowStart := now.Truncate(rule.Window)
	windowEnd := windowStart.Add(rule.Window)

	windowKey := fmt.Sprintf("%s%s:%d", l.prefix, identity, windowStart.Unix())

	// Expire with a one second buffer for clock skew between instances.
	expiration := int64(rule.Window/time.Second) + 1

	count, err := incrWithExpiryScript.Run(ctx, l.client, []string{windowKey}, expiration).Int64()
	if err != nil {
		return nil, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count > int64(rule.Limit) {
		return &Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: windowEnd.Sub(now),
		}, nil
	}

	return &Result{
		Allowed:   true,
		Remaining: rule.Limit - int(count),
	}, nil
}

// Reset clears the identity's counter in the current window.
func (l *RedisLimiter) Reset(ctx context.Context, identity string, rule Rule) error {
	windowStart := l.now().Truncate(rule.Window)
	windowKey := fmt.Sprintf("%s%s:%d", l.prefix, identity, windowStart.Unix())

	if err := l.client.Del(ctx, windowKey).Err(); err != nil {
		l.logger.Warn("failed to delete window counter",
			observability.String("identity", identity),
			observability.Error(err),
		)
		return err
	}
	return nil
}

var _ Limiter = (*RedisLimiter)(nil)
