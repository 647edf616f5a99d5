// Package cache stores upstream response bodies for a bounded time so repeated
// catalog reads do not spend rate limit budget.
package cache

import (
	"context"
	"fmt"
	"pokedex/internal/models"
	"time"
)

// Cache is a TTL byte cache. Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Close() error
}

// New builds the cache described by cfg. A disabled cache is a NopCache.
func New(cfg models.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return NopCache{}, nil
	}

	switch cfg.Type {
	case models.CacheTypeMemory:
		return NewMemoryCache(cfg.Memory.MaxSize, cfg.Memory.CleanupInterval), nil
	case models.CacheTypeRedis:
		return NewRedisCache(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NopCache) Close() error { return nil }
