package observability

import (
	"context"
	"pokedex/internal/cache"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentedCache counts cache lookups by result (hit, miss, error).
type InstrumentedCache struct {
	inner    cache.Cache
	lookups  metric.Int64Counter
	hit      metric.MeasurementOption
	miss     metric.MeasurementOption
	failures metric.MeasurementOption
}

var _ cache.Cache = (*InstrumentedCache)(nil)

func NewInstrumentedCache(backend string, inner cache.Cache) (*InstrumentedCache, error) {
	meter := otel.Meter("pokedex/cache")

	lookups, err := meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Number of upstream cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	backendAttr := attribute.String("backend", backend)
	return &InstrumentedCache{
		inner:    inner,
		lookups:  lookups,
		hit:      metric.WithAttributes(backendAttr, attribute.String("result", "hit")),
		miss:     metric.WithAttributes(backendAttr, attribute.String("result", "miss")),
		failures: metric.WithAttributes(backendAttr, attribute.String("result", "error")),
	}, nil
}

func (c *InstrumentedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok, err := c.inner.Get(ctx, key)
	switch {
	case err != nil:
		c.lookups.Add(ctx, 1, c.failures)
	case ok:
		c.lookups.Add(ctx, 1, c.hit)
	default:
		c.lookups.Add(ctx, 1, c.miss)
	}
	return value, ok, err
}

func (c *InstrumentedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, key, value, ttl)
}

func (c *InstrumentedCache) Close() error {
	return c.inner.Close()
}
