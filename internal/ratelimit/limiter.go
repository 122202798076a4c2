// Package ratelimit provides fixed-window rate limiting keyed by
// credential identity. The window is intentionally fixed rather than
// sliding or token-bucket: the gateway's goal is abuse prevention, not
// precise pacing, and the known boundary-burst property (up to twice
// the limit across a window boundary) is an accepted trade-off.
package ratelimit

import (
	"context"
	"time"
)

// Rule describes "at most Limit accepted requests per fixed window".
type Rule struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is within the budget.
	Allowed bool

	// Remaining is the number of requests left in the current window.
	Remaining int

	// RetryAfter is how long until the window resets (set when the
	// request is rejected).
	RetryAfter time.Duration
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds.
func (r *Result) RetryAfterSeconds() int {
	if r.RetryAfter <= 0 {
		return 0
	}
	return int((r.RetryAfter + time.Second - 1) / time.Second)
}

// Limiter bounds request rates per identity. Implementations must be
// linearizable per identity: two concurrent checks against a limit of
// one must not both pass.
type Limiter interface {
	// Check consumes one request from the identity's budget under the
	// given rule and reports whether it was allowed.
	Check(ctx context.Context, identity string, rule Rule) (*Result, error)
}
