package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiter caps the number of requests per minute.
type RateLimiter struct {
	RequestsBucket *TokenBucket
}

// Ensure RateLimiter implements Limiter.
var _ Limiter = (*RateLimiter)(nil)

// New creates a limiter allowing requestsPerMinute requests, refilled every minute.
func New(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		RequestsBucket: NewTokenBucket(requestsPerMinute, requestsPerMinute, time.Minute),
	}
}

// TryConsume atomically checks capacity and consumes n requests if available.
func (rl *RateLimiter) TryConsume(n int) bool {
	return rl.RequestsBucket.TryConsume(n)
}

// HasCapacity reports whether n requests are available without consuming them.
func (rl *RateLimiter) HasCapacity(n int) bool {
	return rl.RequestsBucket.HasCapacity(n)
}

// TimeUntilAvailable returns how long until n requests would be allowed.
func (rl *RateLimiter) TimeUntilAvailable(n int) time.Duration {
	return rl.RequestsBucket.TimeUntilAvailable(n)
}

// TokenBucket implements a token bucket rate limit algorithm.
type TokenBucket struct {
	mu             sync.Mutex
	capacity       int
	remaining      int
	refillInterval time.Duration
	lastRefill     time.Time
	now            func() time.Time
}

// NewTokenBucket creates a new token bucket.
func NewTokenBucket(capacity int, initialTokens int, refillInterval time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:       capacity,
		remaining:      initialTokens,
		refillInterval: refillInterval,
		lastRefill:     time.Now(),
		now:            time.Now,
	}
}

// HasCapacity checks if tokens are available WITHOUT consuming them.
func (tb *TokenBucket) HasCapacity(tokens int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	remaining := tb.remaining
	if tb.now().Sub(tb.lastRefill) >= tb.refillInterval {
		remaining = tb.capacity
	}
	return tokens <= remaining
}

// TryConsume atomically checks and consumes tokens.
func (tb *TokenBucket) TryConsume(tokens int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := tb.now()
	if now.Sub(tb.lastRefill) >= tb.refillInterval {
		tb.remaining = tb.capacity
		tb.lastRefill = now
	}
	if tokens <= tb.remaining {
		tb.remaining -= tokens
		return true
	}
	return false
}

// TimeUntilAvailable returns how long until tokens would be available (read-only).
func (tb *TokenBucket) TimeUntilAvailable(tokens int) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tokens > tb.capacity {
		// Never satisfiable within one interval; report a full interval.
		return tb.refillInterval
	}

	elapsed := tb.now().Sub(tb.lastRefill)
	if elapsed >= tb.refillInterval || tokens <= tb.remaining {
		return 0
	}

	// The bucket refills all at once at the end of the interval.
	return tb.refillInterval - elapsed
}
