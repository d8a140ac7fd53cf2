package discharges

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("discharge not found")
)

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type Service struct {
	repo Repository
	now  func() time.Time
	loc  *time.Location
}

func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo: repo,
		now:  time.Now,
		loc:  loc,
	}
}

type CreateInput struct {
	PetID       string
	Pet         PetDescriptor
	Medications []Medication
	Notes       string
	VetID       string
	ClinicID    string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Discharge, error) {
	if strings.TrimSpace(in.PetID) == "" || strings.TrimSpace(in.ClinicID) == "" {
		return Discharge{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Pet.Name) == "" || strings.TrimSpace(in.Pet.Species) == "" {
		return Discharge{}, fmt.Errorf("%w: pet name and species required", ErrInvalidInput)
	}
	if len(in.Medications) == 0 {
		return Discharge{}, fmt.Errorf("%w: at least one medication required", ErrInvalidInput)
	}

	meds := make([]Medication, 0, len(in.Medications))
	seen := map[string]struct{}{}
	for i, m := range in.Medications {
		m, err := normalizeMedication(m)
		if err != nil {
			return Discharge{}, fmt.Errorf("medication %d: %w", i, err)
		}
		key := strings.ToLower(m.Name)
		if _, dup := seen[key]; dup {
			return Discharge{}, fmt.Errorf("%w: duplicate medication %q", ErrInvalidInput, m.Name)
		}
		seen[key] = struct{}{}
		meds = append(meds, m)
	}

	d := Discharge{
		ID:    uuid.NewString(),
		PetID: strings.TrimSpace(in.PetID),
		Pet: PetDescriptor{
			Name:     strings.TrimSpace(in.Pet.Name),
			Species:  strings.TrimSpace(in.Pet.Species),
			WeightKg: in.Pet.WeightKg,
		},
		Medications: meds,
		Notes:       strings.TrimSpace(in.Notes),
		VetID:       strings.TrimSpace(in.VetID),
		ClinicID:    strings.TrimSpace(in.ClinicID),
		CreatedAt:   s.now(),
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return Discharge{}, err
	}
	return d, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Discharge, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Discharge{}, ErrInvalidInput
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Discharge{}, err
	}
	return d, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]Discharge, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPet(ctx, petID)
}

// Location es la zona que define el día calendario para la clínica.
func (s *Service) Location() *time.Location {
	return s.loc
}

type MedicationStatus struct {
	Name   string
	Active bool
}

type StatusReport struct {
	DischargeID string
	Reference   time.Time
	Active      bool
	Medications []MedicationStatus
}

// Status evalúa el clasificador de vigencia para cada medicación a la fecha ref
// (ref cero = ahora).
func (s *Service) Status(d Discharge, ref time.Time) StatusReport {
	if ref.IsZero() {
		ref = s.now()
	}
	out := StatusReport{
		DischargeID: d.ID,
		Reference:   ref,
		Medications: make([]MedicationStatus, 0, len(d.Medications)),
	}
	for _, m := range d.Medications {
		active := MedicationActive(m, d, ref, s.loc)
		out.Active = out.Active || active
		out.Medications = append(out.Medications, MedicationStatus{Name: m.Name, Active: active})
	}
	return out
}

func normalizeMedication(m Medication) (Medication, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Instructions = strings.TrimSpace(m.Instructions)
	if m.Name == "" {
		return Medication{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}

	if m.IsTapered {
		if len(m.TaperStages) == 0 {
			return Medication{}, fmt.Errorf("%w: tapered medication needs stages", ErrInvalidInput)
		}
		if strings.TrimSpace(m.Dosage) != "" || m.Frequency != 0 || len(m.Times) > 0 ||
			m.StartDate != nil || m.EndDate != nil || m.TotalDoses != 0 {
			return Medication{}, fmt.Errorf("%w: tapered medication cannot set simple schedule fields", ErrInvalidInput)
		}
		stages := make([]TaperStage, len(m.TaperStages))
		copy(stages, m.TaperStages)
		m.TaperStages = stages
		for i, st := range stages {
			st.Dosage = strings.TrimSpace(st.Dosage)
			if st.Dosage == "" || st.Frequency <= 0 {
				return Medication{}, fmt.Errorf("%w: stage %d needs dosage and frequency", ErrInvalidInput, i)
			}
			if st.StartDate.IsZero() || st.EndDate.IsZero() || st.EndDate.Before(st.StartDate) {
				return Medication{}, fmt.Errorf("%w: stage %d has an invalid date range", ErrInvalidInput, i)
			}
			if i > 0 && st.StartDate.Before(stages[i-1].StartDate) {
				return Medication{}, fmt.Errorf("%w: stages must be ordered by start date", ErrInvalidInput)
			}
			if err := validateTimes(st.Times); err != nil {
				return Medication{}, err
			}
			stages[i] = st
		}
		return m, nil
	}

	if len(m.TaperStages) > 0 {
		return Medication{}, fmt.Errorf("%w: taper stages require is_tapered", ErrInvalidInput)
	}
	m.Dosage = strings.TrimSpace(m.Dosage)
	if m.Dosage == "" || m.Frequency <= 0 {
		return Medication{}, fmt.Errorf("%w: dosage and frequency required", ErrInvalidInput)
	}
	if m.StartDate != nil && m.EndDate != nil && m.EndDate.Before(*m.StartDate) {
		return Medication{}, fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}
	if m.TotalDoses < 0 {
		return Medication{}, fmt.Errorf("%w: total doses cannot be negative", ErrInvalidInput)
	}
	if err := validateTimes(m.Times); err != nil {
		return Medication{}, err
	}
	return m, nil
}

func validateTimes(times []string) error {
	for _, t := range times {
		if !timeOfDay.MatchString(strings.TrimSpace(t)) {
			return fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidInput, t)
		}
	}
	return nil
}

// ClinicOfDischarge expone la clínica dueña del alta para autorizar
// módulos que cuelgan de ella (doses).
func (s *Service) ClinicOfDischarge(ctx context.Context, dischargeID string) (string, error) {
	d, err := s.GetByID(ctx, dischargeID)
	if err != nil {
		return "", err
	}
	return d.ClinicID, nil
}
