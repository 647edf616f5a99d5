package ratelimit

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry holds named limiters. It is built once at startup and passed to
// whatever needs a policy by name.
type Registry struct {
	mu       sync.RWMutex
	limiters map[string]Limiter
}

func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]Limiter)}
}

// DefaultPolicies returns the built-in "default" and "strict" policies.
func DefaultPolicies() map[string]Config {
	return map[string]Config{"default": DefaultPolicy(), "strict": StrictPolicy()}
}

// WrapFunc decorates the limiter built for a named policy before it is
// registered.
type WrapFunc func(name string, l *MemoryLimiter) (Limiter, error)

// NewRegistryFromPolicies builds one MemoryLimiter per policy, in name order,
// and registers it after passing it through wrap when wrap is non-nil. On
// error every limiter built so far is closed.
func NewRegistryFromPolicies(policies map[string]Config, wrap WrapFunc, opts ...Option) (*Registry, error) {
	r := NewRegistry()
	for _, name := range slices.Sorted(maps.Keys(policies)) {
		m, err := NewMemoryLimiter(policies[name], opts...)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("policy %q: %w", name, err)
		}

		var l Limiter = m
		if wrap != nil {
			if l, err = wrap(name, m); err != nil {
				m.Close()
				r.Close()
				return nil, fmt.Errorf("policy %q: %w", name, err)
			}
		}

		if err := r.Register(name, l); err != nil {
			l.Close()
			r.Close()
			return nil, err
		}
	}
	return r, nil
}

// Register adds l under name. Names are unique.
func (r *Registry) Register(name string, l Limiter) error {
	if name == "" {
		return fmt.Errorf("%w: policy name cannot be empty", ErrInvalidConfig)
	}
	if l == nil {
		return fmt.Errorf("%w: limiter for policy %q is nil", ErrInvalidConfig, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.limiters[name]; exists {
		return fmt.Errorf("%w: policy %q already registered", ErrInvalidConfig, name)
	}
	r.limiters[name] = l
	return nil
}

func (r *Registry) Get(name string) (Limiter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.limiters[name]
	return l, ok
}

// Names returns the registered policy names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.limiters))
	for name := range r.limiters {
		names = append(names, name)
	}
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Close closes every registered limiter.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.limiters {
		l.Close()
	}
}
