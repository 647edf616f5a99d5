// Package ratelimit provides per-key fixed-window admission control. A limiter
// answers "may this key make another request right now?" and counts admitted
// requests against a window that starts with the first request after expiry.
// HTTP middleware built on the same limiter guards inbound traffic.
package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultKey is used when a caller passes an empty key.
const DefaultKey = "default"

// ErrInvalidConfig is wrapped by every configuration error returned from
// NewMemoryLimiter.
var ErrInvalidConfig = errors.New("invalid rate limit configuration")

// Limiter defines the rate limiting contract. Implementations must be safe for
// concurrent use.
type Limiter interface {
	// IsAllowed reports whether the request identified by key is admitted.
	// An admitted request is counted against the current window.
	IsAllowed(key string) bool

	// Admit is IsAllowed plus a snapshot of key's state taken atomically
	// with the decision.
	Admit(key string) (bool, Status)

	// Remaining returns how many more requests key may make in its current
	// window without counting anything.
	Remaining(key string) int

	// TimeUntilReset returns how long until key's current window ends.
	TimeUntilReset(key string) time.Duration

	// Reset forgets all state for key.
	Reset(key string)

	// Status returns a read-only snapshot of key's state.
	Status(key string) Status

	// Close stops background goroutines and releases resources.
	Close()
}

// Config describes one fixed-window policy.
type Config struct {
	MaxRequests int           // requests admitted per window, must be positive
	Window      time.Duration // window length, must be positive

	// OnLimitReached is called once for every denied request, after the
	// limiter has released its lock.
	OnLimitReached func()
}

func (c Config) Validate() error {
	if c.MaxRequests <= 0 {
		return fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidConfig, c.MaxRequests)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidConfig, c.Window)
	}
	return nil
}

// DefaultPolicy allows 100 requests a minute.
func DefaultPolicy() Config {
	return Config{MaxRequests: 100, Window: time.Minute}
}

// StrictPolicy allows 10 requests a second.
func StrictPolicy() Config {
	return Config{MaxRequests: 10, Window: time.Second}
}

// Status is a snapshot of one key's limiter state.
type Status struct {
	Key       string        `json:"key"`
	Limit     int           `json:"limit"`
	Remaining int           `json:"remaining"`
	ResetIn   time.Duration `json:"reset_in"`
}

// RetryAfterSeconds rounds d up to whole seconds.
func RetryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func normalizeKey(key string) string {
	if key == "" {
		return DefaultKey
	}
	return key
}
