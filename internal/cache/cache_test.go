package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokedex/internal/models"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMemoryCache(t *testing.T, maxSize int) (*MemoryCache, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(maxSize, 0)
	c.now = clock.Now
	t.Cleanup(func() { c.Close() })
	return c, clock
}

func TestMemoryCache_GetSet(t *testing.T) {
	c, _ := newTestMemoryCache(t, 10)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), value)
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	c, _ := newTestMemoryCache(t, 10)
	ctx := context.Background()

	original := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", original, time.Minute))
	original[0] = 'x'

	value, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(value))
	value[0] = 'y'

	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, clock := newTestMemoryCache(t, 10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 5*time.Minute))

	clock.Advance(5*time.Minute - time.Second)
	_, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_NonPositiveTTLIsIgnored(t *testing.T) {
	c, _ := newTestMemoryCache(t, 10)

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_EvictsSoonestExpiryWhenFull(t *testing.T) {
	c, _ := newTestMemoryCache(t, 2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "new", []byte("3"), 10*time.Minute))

	assert.Equal(t, 2, c.Len())
	_, ok, _ := c.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "long")
	assert.True(t, ok)

	// Overwriting an existing key never evicts.
	require.NoError(t, c.Set(ctx, "long", []byte("4"), time.Hour))
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCache_EvictExpired(t *testing.T) {
	c, clock := newTestMemoryCache(t, 0)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Duration(i+1)*time.Minute))
	}

	clock.Advance(3 * time.Minute)
	c.evictExpired()
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache(10, 10*time.Millisecond)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}

func TestNew(t *testing.T) {
	c, err := New(models.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, NopCache{}, c)

	c, err = New(models.CacheConfig{Enabled: true, Type: models.CacheTypeMemory, Memory: models.MemoryConfig{MaxSize: 5}})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
	c.Close()

	_, err = New(models.CacheConfig{Enabled: true, Type: "memcached"})
	assert.Error(t, err)
}

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func TestRedisCache_GetSet(t *testing.T) {
	client := setupTestRedis(t)
	c := NewRedisCacheWithClient(client, "pokedex-test:")
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "pokemon/1", []byte(`{"id":1}`), time.Minute))
	value, ok, err := c.Get(ctx, "pokemon/1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":1}`, string(value))

	ttl, err := client.TTL(ctx, "pokedex-test:pokemon/1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(models.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
