package nanobanana

import (
	"log/slog"
	"time"

	"github.com/seiseiai1st/NanoBananaProPlayGround/ratelimiter"
)

// SessionOption configures the Session.
type SessionOption func(*Session)

// WithLogger sets a structured logger for the session.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithStorage sets the storage backend used by Download.
func WithStorage(storage Storage) SessionOption {
	return func(s *Session) {
		s.storage = storage
	}
}

// WithCredentialStore persists the API key across runs.
func WithCredentialStore(store CredentialStore) SessionOption {
	return func(s *Session) {
		s.credentials = store
	}
}

// WithAPIKey sets the key used when the credential store has none.
func WithAPIKey(key string) SessionOption {
	return func(s *Session) {
		s.initialKey = key
	}
}

// WithHistoryLimit changes how many entries the history keeps.
// Values below 1 are ignored.
func WithHistoryLimit(limit int) SessionOption {
	return func(s *Session) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// WithExchangeRate sets the USD to JPY rate used for display.
// Values at or below zero are ignored.
func WithExchangeRate(usdToJPY float64) SessionOption {
	return func(s *Session) {
		if usdToJPY > 0 {
			s.usdToJPY = usdToJPY
		}
	}
}

// WithRateLimiter guards how many requests the session sends per minute.
// An exhausted limiter rejects the call with a RateLimitError; it never waits.
func WithRateLimiter(limiter ratelimiter.Limiter) SessionOption {
	return func(s *Session) {
		s.limiter = limiter
	}
}

// WithClock overrides the clock used for history timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}
