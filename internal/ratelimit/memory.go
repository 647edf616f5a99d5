package ratelimit

import (
	"sync"
	"time"
)

// window holds the start of a key's current window and the requests admitted
// in it.
type window struct {
	start time.Time
	count int
}

// MemoryLimiter is an in-memory fixed-window limiter. Each key gets its own
// window, opened by the first request after the previous one expired. A
// background goroutine evicts expired windows once per window length.
//
// Two bursts straddling a window boundary can admit up to twice MaxRequests
// in a span shorter than Window.
type MemoryLimiter struct {
	cfg             Config
	now             func() time.Time
	cleanupInterval time.Duration

	mu      sync.Mutex
	windows map[string]*window
	done    chan struct{}
	stopped chan struct{}
	closed  bool
}

// Option configures a MemoryLimiter.
type Option func(*MemoryLimiter)

// WithClock replaces time.Now as the limiter's time source.
func WithClock(now func() time.Time) Option {
	return func(m *MemoryLimiter) {
		m.now = now
	}
}

// WithCleanupInterval overrides how often expired windows are evicted.
// It defaults to the window length.
func WithCleanupInterval(d time.Duration) Option {
	return func(m *MemoryLimiter) {
		if d > 0 {
			m.cleanupInterval = d
		}
	}
}

// NewMemoryLimiter validates cfg and starts the cleanup goroutine. Callers
// must Close the limiter when done with it.
func NewMemoryLimiter(cfg Config, opts ...Option) (*MemoryLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &MemoryLimiter{
		cfg:             cfg,
		now:             time.Now,
		cleanupInterval: cfg.Window,
		windows:         make(map[string]*window),
		done:            make(chan struct{}),
		stopped:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.cleanup()
	return m, nil
}

// Config returns the policy the limiter enforces.
func (m *MemoryLimiter) Config() Config {
	return m.cfg
}

func (m *MemoryLimiter) IsAllowed(key string) bool {
	allowed, _ := m.Admit(key)
	return allowed
}

// Admit decides like IsAllowed and returns the key's state right after that
// decision, both taken under one lock.
func (m *MemoryLimiter) Admit(key string) (bool, Status) {
	key = normalizeKey(key)

	m.mu.Lock()
	now := m.now()
	w, ok := m.windows[key]
	allowed := true
	switch {
	case !ok || m.expired(w, now):
		w = &window{start: now, count: 1}
		m.windows[key] = w
	case w.count >= m.cfg.MaxRequests:
		allowed = false
	default:
		w.count++
	}
	status := m.statusOf(key, w, now)
	m.mu.Unlock()

	if !allowed && m.cfg.OnLimitReached != nil {
		m.cfg.OnLimitReached()
	}
	return allowed, status
}

func (m *MemoryLimiter) Remaining(key string) int {
	key = normalizeKey(key)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining(m.windows[key], m.now())
}

func (m *MemoryLimiter) TimeUntilReset(key string) time.Duration {
	key = normalizeKey(key)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.untilReset(m.windows[key], m.now())
}

func (m *MemoryLimiter) Reset(key string) {
	key = normalizeKey(key)

	m.mu.Lock()
	delete(m.windows, key)
	m.mu.Unlock()
}

func (m *MemoryLimiter) Status(key string) Status {
	key = normalizeKey(key)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusOf(key, m.windows[key], m.now())
}

// Len returns the number of keys currently tracked, expired or not.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// Close stops the cleanup goroutine and waits for it to exit. It is safe to
// call more than once.
func (m *MemoryLimiter) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.done)
	m.mu.Unlock()

	<-m.stopped
}

// expired uses a strict comparison: a request exactly Window after the
// window opened still belongs to it.
func (m *MemoryLimiter) expired(w *window, now time.Time) bool {
	return now.Sub(w.start) > m.cfg.Window
}

func (m *MemoryLimiter) statusOf(key string, w *window, now time.Time) Status {
	return Status{
		Key:       key,
		Limit:     m.cfg.MaxRequests,
		Remaining: m.remaining(w, now),
		ResetIn:   m.untilReset(w, now),
	}
}

func (m *MemoryLimiter) remaining(w *window, now time.Time) int {
	if w == nil || m.expired(w, now) {
		return m.cfg.MaxRequests
	}
	return max(0, m.cfg.MaxRequests-w.count)
}

func (m *MemoryLimiter) untilReset(w *window, now time.Time) time.Duration {
	if w == nil || m.expired(w, now) {
		return 0
	}
	return max(0, m.cfg.Window-now.Sub(w.start))
}

func (m *MemoryLimiter) cleanup() {
	defer close(m.stopped)

	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictExpired()
		}
	}
}

// evictExpired removes every window that has expired. Eviction never changes
// an answer: an expired window and a missing one look the same to callers.
func (m *MemoryLimiter) evictExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, w := range m.windows {
		if m.expired(w, now) {
			delete(m.windows, key)
		}
	}
}
