package ratelimiter

import "time"

// Limiter guards how often requests may be sent.
// Implementations can be local (in-memory) or shared between processes.
type Limiter interface {
	// TryConsume atomically checks capacity and consumes n requests if available.
	// Returns true if they were consumed, false if insufficient capacity.
	TryConsume(n int) bool

	// HasCapacity reports whether n requests are available without consuming them.
	HasCapacity(n int) bool

	// TimeUntilAvailable returns how long until n requests would be allowed (read-only).
	TimeUntilAvailable(n int) time.Duration
}
