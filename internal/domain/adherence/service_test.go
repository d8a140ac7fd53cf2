package adherence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vet-discharge-portal/internal/domain/discharges"
	"vet-discharge-portal/internal/domain/doses"
	"vet-discharge-portal/internal/platform/logger"
	"vet-discharge-portal/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	mu          sync.Mutex
	byDischarge map[string][]doses.DoseRecord
	failing     map[string]bool
	lastFilter  doses.ListFilter
}

func (f *fakeSource) ListByDischarge(ctx context.Context, id string, filter doses.ListFilter) ([]doses.DoseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	if f.failing[id] {
		return nil, errors.New("connection reset")
	}
	return f.byDischarge[id], nil
}

type fakeEpisodes struct {
	byPet map[string][]discharges.Discharge
	err   error
}

func (f fakeEpisodes) ListByPet(ctx context.Context, petID string) ([]discharges.Discharge, error) {
	return f.byPet[petID], f.err
}

func newTestService(src doses.Source, eps EpisodeLister, m *metrics.Metrics) *Service {
	svc := NewService(src, eps, time.UTC, logger.Nop(), m)
	svc.now = func() time.Time { return now }
	return svc
}

func TestService_ForDischarge_ComputesWindow(t *testing.T) {
	src := &fakeSource{byDischarge: map[string][]doses.DoseRecord{
		"d1": {given("a", "X", at(9, 8), 0), missed("b", "X", at(9, 20))},
	}}
	svc := newTestService(src, fakeEpisodes{}, nil)

	m, err := svc.ForDischarge(context.Background(), discharges.Discharge{ID: "d1"}, 0)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if m.Overall.Total != 2 || m.Overall.Rate != 50 {
		t.Fatalf("unexpected metrics: %+v", m.Overall)
	}
	if src.lastFilter.From == nil || !src.lastFilter.From.Equal(now.AddDate(0, 0, -DefaultEpisodeDays)) {
		t.Fatalf("expected default 7-day window, got %+v", src.lastFilter)
	}
	if src.lastFilter.Limit != doses.MaxFetch {
		t.Fatalf("expected capped fetch, got %d", src.lastFilter.Limit)
	}
}

func TestService_ForDischarge_FetchErrorIsExplicit(t *testing.T) {
	m := metrics.New()
	src := &fakeSource{failing: map[string]bool{"d1": true}}
	svc := newTestService(src, fakeEpisodes{}, m)

	got, err := svc.ForDischarge(context.Background(), discharges.Discharge{ID: "d1"}, 7)

	var fe *doses.FetchError
	if !errors.As(err, &fe) || fe.DischargeID != "d1" {
		t.Fatalf("expected *doses.FetchError for d1, got %v", err)
	}
	if got.HasData() {
		t.Fatalf("expected empty metrics on failure, got %+v", got.Overall)
	}
	if v := testutil.ToFloat64(m.DoseFetchFailures.WithLabelValues("adherence")); v != 1 {
		t.Fatalf("expected 1 fetch failure recorded, got %v", v)
	}
}

func TestService_ForPet_PartialFailure(t *testing.T) {
	eps := fakeEpisodes{byPet: map[string][]discharges.Discharge{
		"p1": {
			{ID: "d1", CreatedAt: at(5, 10), Medications: []discharges.Medication{{Name: "X", Dosage: "1", Frequency: 1}}},
			{ID: "d2", CreatedAt: at(1, 10), Medications: []discharges.Medication{{Name: "Y", Dosage: "1", Frequency: 1}}},
		},
	}}
	src := &fakeSource{
		byDischarge: map[string][]doses.DoseRecord{"d1": {given("a", "X", at(9, 8), 0)}},
		failing:     map[string]bool{"d2": true},
	}
	svc := newTestService(src, eps, nil)

	pm, err := svc.ForPet(context.Background(), "p1", 30)
	if err == nil {
		t.Fatalf("expected partial failure error")
	}
	if failed := doses.FailedDischarges(err); len(failed) != 1 || failed[0] != "d2" {
		t.Fatalf("expected d2 reported as failed, got %v", failed)
	}
	if pm.Overall.Overall.Total != 1 || len(pm.Episodes) != 2 {
		t.Fatalf("healthy episode should still be aggregated: %+v", pm)
	}
}

func TestService_ForPet_ListError(t *testing.T) {
	svc := newTestService(&fakeSource{}, fakeEpisodes{err: errors.New("db down")}, nil)

	_, err := svc.ForPet(context.Background(), "p1", 30)
	var fe *doses.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *doses.FetchError, got %v", err)
	}
}

func TestClampDays(t *testing.T) {
	tests := []struct {
		in, def, want int
	}{
		{0, 7, 7},
		{-3, 30, 30},
		{14, 7, 14},
		{1000, 7, MaxDays},
	}
	for _, tt := range tests {
		if got := ClampDays(tt.in, tt.def); got != tt.want {
			t.Fatalf("ClampDays(%d, %d) = %d, want %d", tt.in, tt.def, got, tt.want)
		}
	}
}
