package observability

import (
	"context"
	"pokedex/internal/ratelimit"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Rate limit decision outcomes recorded on ratelimit.decisions.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
)

// InstrumentedLimiter wraps a ratelimit.Limiter and counts every admission
// decision and reset under the policy name.
type InstrumentedLimiter struct {
	inner     ratelimit.Limiter
	policy    string
	allowed   metric.MeasurementOption
	denied    metric.MeasurementOption
	decisions metric.Int64Counter
	resets    metric.Int64Counter
}

var _ ratelimit.Limiter = (*InstrumentedLimiter)(nil)

// NewInstrumentedLimiter creates a limiter wrapper reporting through the
// global meter provider.
func NewInstrumentedLimiter(policy string, inner ratelimit.Limiter) (*InstrumentedLimiter, error) {
	meter := otel.Meter("pokedex/ratelimit")

	decisions, err := meter.Int64Counter(
		"ratelimit.decisions",
		metric.WithDescription("Number of rate limit admission decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	resets, err := meter.Int64Counter(
		"ratelimit.resets",
		metric.WithDescription("Number of explicit rate limit key resets"),
		metric.WithUnit("{reset}"),
	)
	if err != nil {
		return nil, err
	}

	policyAttr := attribute.String("policy", policy)
	return &InstrumentedLimiter{
		inner:     inner,
		policy:    policy,
		allowed:   metric.WithAttributes(policyAttr, attribute.String("outcome", OutcomeAllowed)),
		denied:    metric.WithAttributes(policyAttr, attribute.String("outcome", OutcomeDenied)),
		decisions: decisions,
		resets:    resets,
	}, nil
}

// Policy returns the policy name the wrapper reports under.
func (l *InstrumentedLimiter) Policy() string {
	return l.policy
}

func (l *InstrumentedLimiter) IsAllowed(key string) bool {
	allowed, _ := l.Admit(key)
	return allowed
}

func (l *InstrumentedLimiter) Admit(key string) (bool, ratelimit.Status) {
	allowed, status := l.inner.Admit(key)
	if allowed {
		l.decisions.Add(context.Background(), 1, l.allowed)
	} else {
		l.decisions.Add(context.Background(), 1, l.denied)
	}
	return allowed, status
}

func (l *InstrumentedLimiter) Remaining(key string) int {
	return l.inner.Remaining(key)
}

func (l *InstrumentedLimiter) TimeUntilReset(key string) time.Duration {
	return l.inner.TimeUntilReset(key)
}

func (l *InstrumentedLimiter) Reset(key string) {
	l.inner.Reset(key)
	l.resets.Add(context.Background(), 1, metric.WithAttributes(attribute.String("policy", l.policy)))
}

func (l *InstrumentedLimiter) Status(key string) ratelimit.Status {
	return l.inner.Status(key)
}

func (l *InstrumentedLimiter) Close() {
	l.inner.Close()
}
