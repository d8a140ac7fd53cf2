package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
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

type CreateInput struct {
	Name      string
	Species   string
	Breed     string
	Sex       string
	BirthDate *time.Time
	WeightKg  float64
	Client    Client
	Notes     string
}

func (s *Service) Create(ctx context.Context, clinicID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(clinicID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, ErrInvalidInput
	}
	species := Species(strings.ToLower(strings.TrimSpace(in.Species)))
	if !species.Valid() {
		return Pet{}, ErrInvalidInput
	}
	if in.WeightKg < 0 {
		return Pet{}, ErrInvalidInput
	}

	sex := Sex(strings.ToLower(strings.TrimSpace(in.Sex)))
	if sex == "" {
		sex = SexUnknown
	}

	now := s.now()
	p := Pet{
		ID:        uuid.NewString(),
		ClinicID:  strings.TrimSpace(clinicID),
		Name:      strings.TrimSpace(in.Name),
		Species:   species,
		Breed:     strings.TrimSpace(in.Breed),
		Sex:       sex,
		BirthDate: in.BirthDate,
		WeightKg:  in.WeightKg,
		Client:    trimClient(in.Client),
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) ListByClinic(ctx context.Context, clinicID string) ([]Pet, error) {
	return s.repo.ListByClinic(ctx, clinicID)
}

// BirthDatePatch distingue "no enviado" de "null" (limpiar) en PATCH.
type BirthDatePatch struct {
	Present bool
	Value   *string
}

// UpdateProfileInput: punteros nil = no tocar.
type UpdateProfileInput struct {
	Name        *string
	Species     *string
	Breed       *string
	Sex         *string
	BirthDate   BirthDatePatch
	WeightKg    *float64
	ClientName  *string
	ClientEmail *string
	ClientPhone *string
	Notes       *string
}

func (s *Service) UpdateProfile(ctx context.Context, petID string, in UpdateProfileInput) (Pet, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(petID))
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = name
	}
	if in.Species != nil {
		sp := Species(strings.ToLower(strings.TrimSpace(*in.Species)))
		if !sp.Valid() {
			return Pet{}, ErrInvalidInput
		}
		p.Species = sp
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		p.Sex = Sex(strings.ToLower(strings.TrimSpace(*in.Sex)))
	}
	if in.BirthDate.Present {
		if in.BirthDate.Value == nil {
			p.BirthDate = nil
		} else {
			t, err := time.Parse("2006-01-02", strings.TrimSpace(*in.BirthDate.Value))
			if err != nil {
				return Pet{}, ErrInvalidInput
			}
			p.BirthDate = &t
		}
	}
	if in.WeightKg != nil {
		if *in.WeightKg < 0 {
			return Pet{}, ErrInvalidInput
		}
		p.WeightKg = *in.WeightKg
	}
	if in.ClientName != nil {
		p.Client.Name = strings.TrimSpace(*in.ClientName)
	}
	if in.ClientEmail != nil {
		p.Client.Email = strings.TrimSpace(*in.ClientEmail)
	}
	if in.ClientPhone != nil {
		p.Client.Phone = strings.TrimSpace(*in.ClientPhone)
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func trimClient(c Client) Client {
	return Client{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
}
