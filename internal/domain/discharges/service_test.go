package discharges

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Discharge
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Discharge{}}
}

func (r *testRepo) Create(ctx context.Context, d Discharge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[d.ID] = d
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Discharge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return Discharge{}, ErrNotFound
	}
	return d, nil
}

func (r *testRepo) ListByPet(ctx context.Context, petID string) ([]Discharge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Discharge, 0)
	for _, d := range r.byID {
		if d.PetID == petID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// -------------------------
// Tests
// -------------------------

func validInput() CreateInput {
	return CreateInput{
		PetID:    "pet-1",
		Pet:      PetDescriptor{Name: " Luna ", Species: "dog", WeightKg: 12.5},
		VetID:    "vet-1",
		ClinicID: "clinic-1",
		Medications: []Medication{
			{Name: " Carprofen ", Dosage: "25mg", Frequency: 2, Times: []string{"08:00", "20:00"}},
		},
	}
}

func TestCreate_OK(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, time.UTC)
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	d, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if d.ID == "" || !d.CreatedAt.Equal(now) {
		t.Fatalf("expected id and creation time, got %+v", d)
	}
	if d.Pet.Name != "Luna" || d.Medications[0].Name != "Carprofen" {
		t.Fatalf("expected trimmed fields, got %+v", d)
	}
	if _, err := repo.GetByID(context.Background(), d.ID); err != nil {
		t.Fatalf("expected discharge persisted, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	start := date(2026, 2, 1)
	end := date(2026, 1, 25)

	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing pet id", func(in *CreateInput) { in.PetID = " " }},
		{"missing clinic", func(in *CreateInput) { in.ClinicID = "" }},
		{"missing species", func(in *CreateInput) { in.Pet.Species = "" }},
		{"no medications", func(in *CreateInput) { in.Medications = nil }},
		{"missing dosage", func(in *CreateInput) { in.Medications[0].Dosage = "" }},
		{"zero frequency", func(in *CreateInput) { in.Medications[0].Frequency = 0 }},
		{"bad time format", func(in *CreateInput) { in.Medications[0].Times = []string{"8am"} }},
		{"hour out of range", func(in *CreateInput) { in.Medications[0].Times = []string{"24:00"} }},
		{"end before start", func(in *CreateInput) {
			in.Medications[0].StartDate, in.Medications[0].EndDate = &start, &end
		}},
		{"duplicate name", func(in *CreateInput) {
			in.Medications = append(in.Medications, Medication{Name: "carprofen", Dosage: "1", Frequency: 1})
		}},
		{"stages without taper flag", func(in *CreateInput) {
			in.Medications[0].TaperStages = []TaperStage{{Dosage: "1", Frequency: 1, StartDate: start, EndDate: start}}
		}},
		{"tapered without stages", func(in *CreateInput) {
			in.Medications[0] = Medication{Name: "Pred", IsTapered: true}
		}},
		{"tapered with simple fields", func(in *CreateInput) {
			in.Medications[0] = Medication{Name: "Pred", IsTapered: true, Dosage: "5mg",
				TaperStages: []TaperStage{{Dosage: "5mg", Frequency: 1, StartDate: start, EndDate: start}}}
		}},
		{"stages out of order", func(in *CreateInput) {
			in.Medications[0] = Medication{Name: "Pred", IsTapered: true, TaperStages: []TaperStage{
				{Dosage: "10mg", Frequency: 2, StartDate: start.AddDate(0, 0, 5), EndDate: start.AddDate(0, 0, 9)},
				{Dosage: "5mg", Frequency: 1, StartDate: start, EndDate: start.AddDate(0, 0, 4)},
			}}
		}},
		{"stage end before start", func(in *CreateInput) {
			in.Medications[0] = Medication{Name: "Pred", IsTapered: true, TaperStages: []TaperStage{
				{Dosage: "10mg", Frequency: 2, StartDate: start, EndDate: end},
			}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newTestRepo(), time.UTC)
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreate_TaperedOK(t *testing.T) {
	svc := NewService(newTestRepo(), time.UTC)
	in := validInput()
	stages := []TaperStage{
		{Dosage: " 10mg ", Frequency: 2, Times: []string{"08:00", "20:00"}, StartDate: date(2026, 2, 1), EndDate: date(2026, 2, 5)},
		{Dosage: "5mg", Frequency: 1, StartDate: date(2026, 2, 6), EndDate: date(2026, 2, 10)},
	}
	in.Medications = []Medication{{Name: "Prednisolone", IsTapered: true, TaperStages: stages}}

	d, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if d.Medications[0].TaperStages[0].Dosage != "10mg" {
		t.Fatalf("expected trimmed stage dosage, got %q", d.Medications[0].TaperStages[0].Dosage)
	}
	if stages[0].Dosage != " 10mg " {
		t.Fatalf("caller stages must not be mutated")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := NewService(newTestRepo(), time.UTC)

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// downRepo simula un store caído.
type downRepo struct{ testRepo }

var errStoreDown = errors.New("dial tcp: connection refused")

func (*downRepo) GetByID(ctx context.Context, id string) (Discharge, error) {
	return Discharge{}, errStoreDown
}

func TestGetByID_StoreErrorIsNotNotFound(t *testing.T) {
	svc := NewService(&downRepo{}, time.UTC)

	_, err := svc.GetByID(context.Background(), "d1")
	if errors.Is(err, ErrNotFound) || !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := svc.ClinicOfDischarge(context.Background(), "d1"); errors.Is(err, ErrNotFound) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestListByPet_NewestFirst(t *testing.T) {
	svc := NewService(newTestRepo(), time.UTC)
	ctx := context.Background()

	first := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	older, _ := svc.Create(ctx, validInput())

	svc.now = func() time.Time { return first.AddDate(0, 1, 0) }
	newer, _ := svc.Create(ctx, validInput())

	list, err := svc.ListByPet(ctx, "pet-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}
}

func TestStatus(t *testing.T) {
	svc := NewService(newTestRepo(), time.UTC)
	d := Discharge{
		ID:        "d1",
		CreatedAt: date(2026, 1, 10),
		Medications: []Medication{
			{Name: "Short", StartDate: ptr(date(2026, 1, 10)), EndDate: ptr(date(2026, 1, 12))},
			{Name: "Long"},
		},
	}

	rep := svc.Status(d, date(2026, 1, 20))
	if !rep.Active || len(rep.Medications) != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if rep.Medications[0].Active || !rep.Medications[1].Active {
		t.Fatalf("unexpected medication status: %+v", rep.Medications)
	}

	svc.now = func() time.Time { return date(2026, 6, 1) }
	if rep := svc.Status(d, time.Time{}); rep.Active || !rep.Reference.Equal(date(2026, 6, 1)) {
		t.Fatalf("zero ref should default to now: %+v", rep)
	}
}

func TestClinicOfDischarge(t *testing.T) {
	svc := NewService(newTestRepo(), time.UTC)
	d, _ := svc.Create(context.Background(), validInput())

	clinic, err := svc.ClinicOfDischarge(context.Background(), d.ID)
	if err != nil || clinic != "clinic-1" {
		t.Fatalf("expected clinic-1, got %q (%v)", clinic, err)
	}
}
