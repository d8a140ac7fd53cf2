// Package resilience envuelve el store de dosis con un circuit breaker
// para que una base caída no sature las vistas de adherencia y síntomas.
package resilience

import (
	"context"
	"errors"
	"time"

	"vet-discharge-portal/internal/domain/doses"
	"vet-discharge-portal/internal/platform/metrics"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Config struct {
	Name string
	// MaxRequests permitidos en half-open.
	MaxRequests uint32
	// Interval limpia los contadores en closed.
	Interval time.Duration
	// Timeout antes de pasar de open a half-open.
	Timeout time.Duration
	// ConsecutiveFailures que abren el circuito.
	ConsecutiveFailures uint32
}

func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// DoseSource implementa doses.Source delegando en next a través del breaker.
type DoseSource struct {
	next    doses.Source
	cb      *gobreaker.CircuitBreaker
	name    string
	log     *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewDoseSource(next doses.Source, cfg Config, log *zap.Logger, m *metrics.Metrics) *DoseSource {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultConfig(cfg.Name).ConsecutiveFailures
	}

	s := &DoseSource{
		next:    next,
		name:    cfg.Name,
		log:     log,
		metrics: m,
		tracer:  otel.Tracer("circuit-breaker"),
	}

	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.onStateChange(from, to)
		},
		// Una request cancelada por el cliente no habla de la salud del store.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	s.setGauge(gobreaker.StateClosed)

	return s
}

func (s *DoseSource) ListByDischarge(ctx context.Context, dischargeID string, filter doses.ListFilter) ([]doses.DoseRecord, error) {
	ctx, span := s.tracer.Start(ctx, "circuit_breaker_execute",
		trace.WithAttributes(
			attribute.String("breaker_name", s.name),
			attribute.String("state", s.cb.State().String()),
		))
	defer span.End()

	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.ListByDischarge(ctx, dischargeID, filter)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			span.SetAttributes(attribute.Bool("circuit_open", true))
		}
		span.RecordError(err)
		return nil, err
	}
	return out.([]doses.DoseRecord), nil
}

// State expone el estado actual (closed, half-open, open).
func (s *DoseSource) State() gobreaker.State {
	return s.cb.State()
}

func (s *DoseSource) onStateChange(from, to gobreaker.State) {
	s.log.Warn("circuit breaker state changed",
		zap.String("breaker", s.name),
		zap.String("from", from.String()),
		zap.String("to", to.String()))
	s.setGauge(to)
}

func (s *DoseSource) setGauge(st gobreaker.State) {
	if s.metrics == nil {
		return
	}
	var v float64
	switch st {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	s.metrics.BreakerState.WithLabelValues(s.name).Set(v)
}
