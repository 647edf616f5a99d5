package observability

import (
	"context"
	"errors"
	"pokedex/internal/models"
	"pokedex/internal/storage"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedStorage wraps a storage.Storage implementation with
// OpenTelemetry tracing and metrics instrumentation.
type InstrumentedStorage struct {
	inner    storage.Storage
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

var _ storage.Storage = (*InstrumentedStorage)(nil)

// NewInstrumentedStorage creates a new storage wrapper that records trace spans,
// operation latency histograms, and error counters for every storage method call.
func NewInstrumentedStorage(inner storage.Storage) (*InstrumentedStorage, error) {
	tracer := otel.Tracer("pokedex/storage")
	meter := otel.Meter("pokedex/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStorage{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedStorage) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "storage."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
		}, attrs...)...),
	)
}

// record ends span. A missing team is an expected outcome and is not
// counted as an error.
func (s *InstrumentedStorage) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	s.duration.Record(ctx, elapsed, attrs)

	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, storage.ErrTeamNotFound):
		span.SetAttributes(attribute.Bool("storage.not_found", true))
	default:
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

func (s *InstrumentedStorage) Teams(ctx context.Context) ([]*models.Team, error) {
	ctx, span := s.startSpan(ctx, "Teams")
	start := time.Now()
	result, err := s.inner.Teams(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int("storage.result_count", len(result)))
	}
	s.record(ctx, span, "Teams", start, err)
	return result, err
}

func (s *InstrumentedStorage) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	ctx, span := s.startSpan(ctx, "GetTeam", attribute.String("team_id", id))
	start := time.Now()
	result, err := s.inner.GetTeam(ctx, id)
	s.record(ctx, span, "GetTeam", start, err)
	return result, err
}

func (s *InstrumentedStorage) SaveTeam(ctx context.Context, team *models.Team) error {
	var attrs []attribute.KeyValue
	if team != nil {
		attrs = append(attrs,
			attribute.String("team_id", team.ID),
			attribute.Int("team.members", len(team.Members)),
		)
	}
	ctx, span := s.startSpan(ctx, "SaveTeam", attrs...)
	start := time.Now()
	err := s.inner.SaveTeam(ctx, team)
	s.record(ctx, span, "SaveTeam", start, err)
	return err
}

func (s *InstrumentedStorage) DeleteTeam(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "DeleteTeam", attribute.String("team_id", id))
	start := time.Now()
	err := s.inner.DeleteTeam(ctx, id)
	s.record(ctx, span, "DeleteTeam", start, err)
	return err
}

func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record(ctx, span, "Ping", start, err)
	return err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
