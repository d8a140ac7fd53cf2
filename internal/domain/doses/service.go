package doses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("dose record not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type SymptomInput struct {
	Appetite   int
	Energy     int
	IsPanting  bool
	Notes      string
	RecordedAt time.Time
}

type LogInput struct {
	// ID opcional: la app puede mandar su propio id para reintentos idempotentes.
	ID string

	MedicationName string
	ScheduledTime  time.Time
	GivenAt        *time.Time
	Status         Status

	Dosage       string
	Frequency    float64
	Instructions string

	Symptoms *SymptomInput
}

// Log registra un evento de dosis. Si in.ID ya existe devuelve el registro guardado
// (los registros son inmutables, no se sobreescriben).
func (s *Service) Log(ctx context.Context, dischargeID string, in LogInput) (DoseRecord, bool, error) {
	dischargeID = strings.TrimSpace(dischargeID)
	if dischargeID == "" {
		return DoseRecord{}, false, ErrInvalidInput
	}
	if err := validateLogInput(in); err != nil {
		return DoseRecord{}, false, err
	}

	id := strings.TrimSpace(in.ID)
	if id != "" {
		if existing, err := s.repo.GetByID(ctx, id); err == nil {
			if existing.DischargeID != dischargeID {
				return DoseRecord{}, false, fmt.Errorf("%w: id belongs to another discharge", ErrInvalidInput)
			}
			return existing, false, nil
		}
	} else {
		id = uuid.NewString()
	}

	now := s.now()
	rec := DoseRecord{
		ID:             id,
		DischargeID:    dischargeID,
		MedicationName: strings.TrimSpace(in.MedicationName),
		ScheduledTime:  in.ScheduledTime,
		Status:         in.Status,
		Dosage:         strings.TrimSpace(in.Dosage),
		Frequency:      in.Frequency,
		Instructions:   strings.TrimSpace(in.Instructions),
		LoggedAt:       now,
	}
	if in.Status == StatusGiven {
		g := *in.GivenAt
		rec.GivenAt = &g
	}
	if in.Symptoms != nil {
		recordedAt := in.Symptoms.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = now
		}
		rec.Symptoms = &SymptomSnapshot{
			Appetite:   in.Symptoms.Appetite,
			Energy:     in.Symptoms.Energy,
			IsPanting:  in.Symptoms.IsPanting,
			Notes:      strings.TrimSpace(in.Symptoms.Notes),
			RecordedAt: recordedAt,
		}
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return DoseRecord{}, false, err
	}
	return rec, true, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (DoseRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DoseRecord{}, ErrInvalidInput
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return DoseRecord{}, err
	}
	return r, nil
}

func (s *Service) ListByDischarge(ctx context.Context, dischargeID string, filter ListFilter) ([]DoseRecord, error) {
	filter.Limit = filter.EffectiveLimit()
	return s.repo.ListByDischarge(ctx, dischargeID, filter)
}

func validateLogInput(in LogInput) error {
	if strings.TrimSpace(in.MedicationName) == "" {
		return fmt.Errorf("%w: medication name required", ErrInvalidInput)
	}
	if in.ScheduledTime.IsZero() {
		return fmt.Errorf("%w: scheduled time required", ErrInvalidInput)
	}
	if !in.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}
	// givenAt presente sii status == given
	if (in.Status == StatusGiven) != (in.GivenAt != nil) {
		return fmt.Errorf("%w: given_at must be set only when status is given", ErrInvalidInput)
	}
	if in.Frequency < 0 {
		return fmt.Errorf("%w: frequency must be positive", ErrInvalidInput)
	}
	if sym := in.Symptoms; sym != nil {
		if sym.Appetite < 1 || sym.Appetite > 5 || sym.Energy < 1 || sym.Energy > 5 {
			return fmt.Errorf("%w: symptom scores must be 1-5", ErrInvalidInput)
		}
	}
	return nil
}
