package symptoms

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

// LookbackDays acota la lectura de registros: alcanza para 14 entradas
// recientes más la ventana previa de tendencia.
const LookbackDays = 30

type EpisodeLister interface {
	ListByPet(ctx context.Context, petID string) ([]discharges.Discharge, error)
}

type Service struct {
	doses    doses.Source
	episodes EpisodeLister
	loc      *time.Location
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(src doses.Source, episodes EpisodeLister, loc *time.Location, log logger.Logger, m *metrics.Metrics) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		doses:    src,
		episodes: episodes,
		loc:      loc,
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

// ForDischarge analiza los síntomas de un alta.
// Con error del store devuelve un análisis vacío y un *doses.FetchError.
func (s *Service) ForDischarge(ctx context.Context, dischargeID string) (Analysis, error) {
	ctx, span := otel.Tracer("symptoms").Start(ctx, "symptoms.ForDischarge")
	defer span.End()
	span.SetAttributes(attribute.String("discharge.id", dischargeID))

	start := s.now()
	defer s.observe("episode", start)

	recs, err := doses.Fetch(ctx, s.doses, dischargeID, doses.Window(s.now(), LookbackDays))
	if err != nil {
		s.fetchFailed(err, map[string]any{"discharge_id": dischargeID})
		span.RecordError(err)
		return Analyze(nil), err
	}

	a := Analyze(DailyEntries(recs, s.loc))
	s.countFlags(a.Flags)
	return a, nil
}

// ForPet analiza cada episodio de la mascota y fusiona el resultado.
// Los episodios que fallan quedan afuera; el error los lista.
func (s *Service) ForPet(ctx context.Context, petID string) (Analysis, error) {
	ctx, span := otel.Tracer("symptoms").Start(ctx, "symptoms.ForPet")
	defer span.End()
	span.SetAttributes(attribute.String("pet.id", petID))

	start := s.now()
	defer s.observe("pet", start)

	eps, err := s.episodes.ListByPet(ctx, strings.TrimSpace(petID))
	if err != nil {
		fe := &doses.FetchError{DischargeID: "*", Err: err}
		s.fetchFailed(fe, map[string]any{"pet_id": petID})
		return Analyze(nil), fe
	}

	ids := make([]string, 0, len(eps))
	for _, d := range eps {
		ids = append(ids, d.ID)
	}
	byID, fetchErr := doses.FetchMany(ctx, s.doses, ids, doses.Window(s.now(), LookbackDays))
	if fetchErr != nil {
		s.fetchFailed(fetchErr, map[string]any{
			"pet_id":     petID,
			"discharges": doses.FailedDischarges(fetchErr),
		})
		span.RecordError(fetchErr)
	}

	input := make([]EpisodeEntries, 0, len(eps))
	for _, d := range eps {
		input = append(input, EpisodeEntries{
			DischargeID: d.ID,
			Entries:     DailyEntries(byID[d.ID], s.loc),
		})
	}

	a := AnalyzeEpisodes(input)
	s.countFlags(a.Flags)
	return a, fetchErr
}

func (s *Service) countFlags(flags []Flag) {
	if s.metrics == nil {
		return
	}
	for _, f := range flags {
		s.metrics.SymptomFlagsServed.WithLabelValues(string(f.Type), string(f.Severity)).Inc()
	}
}

func (s *Service) fetchFailed(err error, fields map[string]any) {
	fields["err"] = err
	s.log.Warn("symptoms: dose record fetch failed", fields)
	if s.metrics != nil {
		s.metrics.DoseFetchFailures.WithLabelValues("symptoms").Inc()
	}
}

func (s *Service) observe(kind string, start time.Time) {
	if s.metrics != nil {
		s.metrics.AggregationDuration.WithLabelValues("symptoms_" + kind).Observe(s.now().Sub(start).Seconds())
	}
}
