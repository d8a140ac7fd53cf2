package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"vet-discharge-portal/internal/domain/doses"
)

func TestDoseRepo_ListByDischarge(t *testing.T) {
	repo := NewDoseRepo()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	recs := []doses.DoseRecord{
		{ID: "b", DischargeID: "d1", ScheduledTime: base},
		{ID: "a", DischargeID: "d1", ScheduledTime: base},
		{ID: "c", DischargeID: "d1", ScheduledTime: base.Add(24 * time.Hour)},
		{ID: "d", DischargeID: "d1", ScheduledTime: base.Add(48 * time.Hour)},
		{ID: "x", DischargeID: "d2", ScheduledTime: base},
	}
	for _, r := range recs {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("create %s: %v", r.ID, err)
		}
	}

	all, _ := repo.ListByDischarge(ctx, "d1", doses.ListFilter{})
	if ids := idsOf(all); ids != "d,c,a,b" {
		t.Fatalf("expected scheduled desc with id tie-break, got %s", ids)
	}

	from, to := base, base.Add(24*time.Hour)
	ranged, _ := repo.ListByDischarge(ctx, "d1", doses.ListFilter{From: &from, To: &to})
	if ids := idsOf(ranged); ids != "c,a,b" {
		t.Fatalf("expected inclusive range, got %s", ids)
	}

	limited, _ := repo.ListByDischarge(ctx, "d1", doses.ListFilter{Limit: 1})
	if ids := idsOf(limited); ids != "d" {
		t.Fatalf("expected newest only, got %s", ids)
	}
}

func TestDoseRepo_CreateRejectsDuplicates(t *testing.T) {
	repo := NewDoseRepo()
	ctx := context.Background()

	if err := repo.Create(ctx, doses.DoseRecord{ID: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Create(ctx, doses.DoseRecord{ID: "a"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := repo.GetByID(ctx, "zzz"); !errors.Is(err, doses.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func idsOf(recs []doses.DoseRecord) string {
	out := ""
	for i, r := range recs {
		if i > 0 {
			out += ","
		}
		out += r.ID
	}
	return out
}
