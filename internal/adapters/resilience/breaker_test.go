package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"vet-discharge-portal/internal/domain/doses"

	"github.com/sony/gobreaker"
)

type flakySource struct {
	err   error
	calls int
}

func (f *flakySource) ListByDischarge(ctx context.Context, dischargeID string, filter doses.ListFilter) ([]doses.DoseRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []doses.DoseRecord{{ID: "r1", DischargeID: dischargeID}}, nil
}

func TestDoseSource_PassesThroughWhenHealthy(t *testing.T) {
	src := &flakySource{}
	b := NewDoseSource(src, DefaultConfig("doses"), nil, nil)

	recs, err := b.ListByDischarge(context.Background(), "d1", doses.ListFilter{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(recs) != 1 || recs[0].DischargeID != "d1" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestDoseSource_OpensAfterConsecutiveFailures(t *testing.T) {
	src := &flakySource{err: errors.New("connection refused")}
	cfg := DefaultConfig("doses")
	cfg.ConsecutiveFailures = 3
	cfg.Timeout = time.Hour
	b := NewDoseSource(src, cfg, nil, nil)

	for i := 0; i < 3; i++ {
		if _, err := b.ListByDischarge(context.Background(), "d1", doses.ListFilter{}); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", b.State())
	}

	_, err := b.ListByDischarge(context.Background(), "d1", doses.ListFilter{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected ErrOpenState, got %v", err)
	}
	if src.calls != 3 {
		t.Fatalf("open breaker should not reach the store; calls=%d", src.calls)
	}
}

func TestDoseSource_CanceledContextDoesNotTrip(t *testing.T) {
	src := &flakySource{err: context.Canceled}
	cfg := DefaultConfig("doses")
	cfg.ConsecutiveFailures = 1
	b := NewDoseSource(src, cfg, nil, nil)

	for i := 0; i < 3; i++ {
		_, _ = b.ListByDischarge(context.Background(), "d1", doses.ListFilter{})
	}
	if b.State() != gobreaker.StateClosed {
		t.Fatalf("expected closed breaker, got %s", b.State())
	}
}
