package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vet-discharge-portal/internal/domain/discharges"
	"vet-discharge-portal/internal/domain/doses"
	"vet-discharge-portal/internal/platform/metrics"

	"go.uber.org/zap"
)

// DoseEvent es el payload que publica la app móvil.
type DoseEvent struct {
	ID             string     `json:"id"`
	DischargeID    string     `json:"discharge_id"`
	MedicationName string     `json:"medication_name"`
	ScheduledTime  time.Time  `json:"scheduled_time"`
	GivenAt        *time.Time `json:"given_at"`
	Status         string     `json:"status"`
	Dosage         string     `json:"dosage"`
	Frequency      float64    `json:"frequency"`
	Instructions   string     `json:"instructions"`
	Symptoms       *struct {
		Appetite   int        `json:"appetite"`
		Energy     int        `json:"energy"`
		IsPanting  bool       `json:"is_panting"`
		Notes      string     `json:"notes"`
		RecordedAt *time.Time `json:"recorded_at"`
	} `json:"symptoms"`
}

// DoseLogger es el subconjunto de doses.Service que usa el ingestor.
type DoseLogger interface {
	Log(ctx context.Context, dischargeID string, in doses.LogInput) (doses.DoseRecord, bool, error)
}

// DoseIngestor traduce eventos a doses.Service.Log.
type DoseIngestor struct {
	svc     DoseLogger
	owner   doses.DischargeClinic
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewDoseIngestor(svc DoseLogger, owner doses.DischargeClinic, log *zap.Logger, m *metrics.Metrics) *DoseIngestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &DoseIngestor{svc: svc, owner: owner, log: log, metrics: m}
}

// Handle implementa MessageHandler. Payload inválido o alta inexistente => ErrSkip;
// un fallo del store vuelve como error para reintentar.
func (in *DoseIngestor) Handle(ctx context.Context, key, value []byte) error {
	var ev DoseEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return fmt.Errorf("%w: invalid json: %v", ErrSkip, err)
	}
	if ev.DischargeID == "" {
		ev.DischargeID = string(key)
	}

	if _, err := in.owner.ClinicOfDischarge(ctx, ev.DischargeID); err != nil {
		if errors.Is(err, discharges.ErrNotFound) || errors.Is(err, discharges.ErrInvalidInput) {
			return fmt.Errorf("%w: unknown discharge %q", ErrSkip, ev.DischargeID)
		}
		return fmt.Errorf("resolve discharge %q: %w", ev.DischargeID, err)
	}

	rec, created, err := in.svc.Log(ctx, ev.DischargeID, ev.toInput())
	if err != nil {
		if errors.Is(err, doses.ErrInvalidInput) {
			return fmt.Errorf("%w: %v", ErrSkip, err)
		}
		return err
	}

	if created && in.metrics != nil {
		in.metrics.DosesLogged.WithLabelValues(string(rec.Status), string(doses.OriginKafka)).Inc()
	}
	in.log.Debug("dose event ingested",
		zap.String("dose_id", rec.ID),
		zap.String("discharge_id", rec.DischargeID),
		zap.Bool("created", created))
	return nil
}

func (ev DoseEvent) toInput() doses.LogInput {
	in := doses.LogInput{
		ID:             ev.ID,
		MedicationName: ev.MedicationName,
		ScheduledTime:  ev.ScheduledTime,
		GivenAt:        ev.GivenAt,
		Status:         doses.Status(ev.Status),
		Dosage:         ev.Dosage,
		Frequency:      ev.Frequency,
		Instructions:   ev.Instructions,
	}
	if s := ev.Symptoms; s != nil {
		in.Symptoms = &doses.SymptomInput{
			Appetite:  s.Appetite,
			Energy:    s.Energy,
			IsPanting: s.IsPanting,
			Notes:     s.Notes,
		}
		if s.RecordedAt != nil {
			in.Symptoms.RecordedAt = *s.RecordedAt
		}
	}
	return in
}
