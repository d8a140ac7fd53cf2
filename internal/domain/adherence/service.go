package adherence

import (
	"context"
	"strings"
	"time"

	"vet-discharge-portal/internal/domain/discharges"
	"vet-discharge-portal/internal/domain/doses"
	"vet-discharge-portal/internal/platform/logger"
	"vet-discharge-portal/internal/platform/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultEpisodeDays = 7
	DefaultPetDays     = 30
	MaxDays            = 365
)

// EpisodeLister resuelve los episodios de una mascota (por pet id, no por nombre).
type EpisodeLister interface {
	ListByPet(ctx context.Context, petID string) ([]discharges.Discharge, error)
}

type Service struct {
	doses    doses.Source
	episodes EpisodeLister
	agg      Aggregator
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService recibe sus dependencias explícitas; m puede ser nil.
func NewService(src doses.Source, episodes EpisodeLister, loc *time.Location, log logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		doses:    src,
		episodes: episodes,
		agg:      NewAggregator(loc),
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

// ForDischarge calcula métricas de un alta. Si el store falla devuelve métricas
// en cero junto a un *doses.FetchError; el caller decide cómo mostrarlo.
func (s *Service) ForDischarge(ctx context.Context, d discharges.Discharge, days int) (Metrics, error) {
	ctx, span := otel.Tracer("adherence").Start(ctx, "adherence.ForDischarge")
	defer span.End()
	span.SetAttributes(attribute.String("discharge.id", d.ID), attribute.Int("days", days))

	start := s.now()
	defer s.observe("episode", start)

	days = ClampDays(days, DefaultEpisodeDays)
	now := s.now()

	recs, err := doses.Fetch(ctx, s.doses, d.ID, doses.Window(now, days))
	if err != nil {
		s.fetchFailed(err, map[string]any{"discharge_id": d.ID})
		span.RecordError(err)
		return Metrics{}, err
	}

	return s.agg.Compute(recs, now, days), nil
}

// ForPet agrega todos los episodios de la mascota. Los episodios cuyo fetch
// falla contribuyen vacío; el error devuelto lista cada *doses.FetchError.
func (s *Service) ForPet(ctx context.Context, petID string, days int) (PetMetrics, error) {
	ctx, span := otel.Tracer("adherence").Start(ctx, "adherence.ForPet")
	defer span.End()
	span.SetAttributes(attribute.String("pet.id", petID), attribute.Int("days", days))

	start := s.now()
	defer s.observe("pet", start)

	days = ClampDays(days, DefaultPetDays)
	now := s.now()

	eps, err := s.episodes.ListByPet(ctx, strings.TrimSpace(petID))
	if err != nil {
		fe := &doses.FetchError{DischargeID: "*", Err: err}
		s.fetchFailed(fe, map[string]any{"pet_id": petID})
		return PetMetrics{}, fe
	}

	// La métrica "solo activas" mira 30 días aunque la ventana pedida sea menor.
	window := days
	if window < ActiveWindowDays {
		window = ActiveWindowDays
	}

	ids := make([]string, 0, len(eps))
	for _, d := range eps {
		ids = append(ids, d.ID)
	}
	byID, fetchErr := doses.FetchMany(ctx, s.doses, ids, doses.Window(now, window))
	if fetchErr != nil {
		s.fetchFailed(fetchErr, map[string]any{
			"pet_id":      petID,
			"discharges":  doses.FailedDischarges(fetchErr),
			"total_eps":   len(eps),
			"window_days": window,
		})
		span.RecordError(fetchErr)
	}

	input := make([]Episode, 0, len(eps))
	for _, d := range eps {
		input = append(input, Episode{Discharge: d, Records: byID[d.ID]})
	}

	return s.agg.ComputePet(input, now, days), fetchErr
}

// ClampDays aplica default y límites al parámetro days.
func ClampDays(days, def int) int {
	if days <= 0 {
		return def
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}

func (s *Service) fetchFailed(err error, fields map[string]any) {
	fields["err"] = err
	s.log.Warn("adherence: dose record fetch failed", fields)
	if s.metrics != nil {
		s.metrics.DoseFetchFailures.WithLabelValues("adherence").Inc()
	}
}

func (s *Service) observe(kind string, start time.Time) {
	if s.metrics != nil {
		s.metrics.AggregationDuration.WithLabelValues("adherence_" + kind).Observe(s.now().Sub(start).Seconds())
	}
}
