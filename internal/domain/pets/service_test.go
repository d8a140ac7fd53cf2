package pets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Pet
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Pet{}}
}

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByClinic(ctx context.Context, clinicID string) ([]Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if p.ClinicID == clinicID {
			out = append(out, p)
		}
	}
	return out, nil
}

// -------------------------
// Tests
// -------------------------

func TestCreate_NormalizesInput(t *testing.T) {
	svc := NewService(newTestRepo())
	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	p, err := svc.Create(context.Background(), "clinic-1", CreateInput{
		Name:    " Luna ",
		Species: "DOG",
		Client:  Client{Name: " Ana ", Phone: " 555 "},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if p.Name != "Luna" || p.Species != SpeciesDog || p.Sex != SexUnknown {
		t.Fatalf("unexpected normalization: %+v", p)
	}
	if p.Client.Name != "Ana" || p.Client.Phone != "555" {
		t.Fatalf("expected trimmed client, got %+v", p.Client)
	}
	if !p.CreatedAt.Equal(now) || !p.UpdatedAt.Equal(now) {
		t.Fatalf("expected timestamps set to now")
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	svc := NewService(newTestRepo())

	cases := []struct {
		clinic string
		in     CreateInput
	}{
		{"", CreateInput{Name: "Luna", Species: "dog"}},
		{"c1", CreateInput{Name: " ", Species: "dog"}},
		{"c1", CreateInput{Name: "Luna", Species: "parrot"}},
		{"c1", CreateInput{Name: "Luna", Species: "cat", WeightKg: -1}},
	}
	for i, c := range cases {
		if _, err := svc.Create(context.Background(), c.clinic, c.in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestUpdateProfile_PartialPatch(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	birth := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	p, _ := svc.Create(ctx, "c1", CreateInput{Name: "Luna", Species: "dog", BirthDate: &birth, WeightKg: 10})

	later := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return later }

	weight := 11.5
	email := " ana@example.com "
	got, err := svc.UpdateProfile(ctx, p.ID, UpdateProfileInput{
		WeightKg:    &weight,
		ClientEmail: &email,
		BirthDate:   BirthDatePatch{Present: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.Name != "Luna" || got.WeightKg != 11.5 || got.Client.Email != "ana@example.com" {
		t.Fatalf("unexpected patch result: %+v", got)
	}
	if got.BirthDate != nil {
		t.Fatalf("explicit null should clear birth date")
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("expected UpdatedAt bumped")
	}
}

func TestUpdateProfile_Errors(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()
	p, _ := svc.Create(ctx, "c1", CreateInput{Name: "Luna", Species: "dog"})

	if _, err := svc.UpdateProfile(ctx, "missing", UpdateProfileInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	bad := "01/02/2020"
	if _, err := svc.UpdateProfile(ctx, p.ID, UpdateProfileInput{BirthDate: BirthDatePatch{Present: true, Value: &bad}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad date, got %v", err)
	}

	species := "dragon"
	if _, err := svc.UpdateProfile(ctx, p.ID, UpdateProfileInput{Species: &species}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for species, got %v", err)
	}
}

func TestClinicOf(t *testing.T) {
	svc := NewService(newTestRepo())
	p, _ := svc.Create(context.Background(), "clinic-9", CreateInput{Name: "Michi", Species: "cat"})

	if c, err := svc.ClinicOf(context.Background(), p.ID); err != nil || c != "clinic-9" {
		t.Fatalf("expected clinic-9, got %q %v", c, err)
	}
	if _, err := svc.ClinicOf(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
