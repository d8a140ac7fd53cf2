package doses

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type stubSource struct {
	mu      sync.Mutex
	calls   int
	failing map[string]error
}

func (s *stubSource) ListByDischarge(ctx context.Context, id string, filter ListFilter) ([]DoseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := s.failing[id]; err != nil {
		return nil, err
	}
	return []DoseRecord{{ID: id + "-r", DischargeID: id}}, nil
}

func TestFetch_WrapsError(t *testing.T) {
	cause := errors.New("connection refused")
	src := &stubSource{failing: map[string]error{"d1": cause}}

	_, err := Fetch(context.Background(), src, "d1", ListFilter{})

	var fe *FetchError
	if !errors.As(err, &fe) || fe.DischargeID != "d1" || !errors.Is(err, cause) {
		t.Fatalf("expected *FetchError wrapping cause, got %v", err)
	}
}

func TestFetchMany_PartialFailure(t *testing.T) {
	src := &stubSource{failing: map[string]error{
		"d2": errors.New("boom"),
		"d4": errors.New("boom"),
	}}
	ids := []string{"d1", "d2", "d3", "d4", "d5"}

	got, err := FetchMany(context.Background(), src, ids, ListFilter{})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if failed := FailedDischarges(err); !reflect.DeepEqual(failed, []string{"d2", "d4"}) {
		t.Fatalf("unexpected failed list: %v", failed)
	}
	if len(got) != len(ids) || len(got["d1"]) != 1 || got["d2"] != nil {
		t.Fatalf("unexpected records: %+v", got)
	}
	if src.calls != len(ids) {
		t.Fatalf("expected every discharge fetched once, got %d", src.calls)
	}
}

func TestFetchMany_AllOK(t *testing.T) {
	got, err := FetchMany(context.Background(), &stubSource{}, []string{"a", "b"}, ListFilter{})
	if err != nil || len(got) != 2 {
		t.Fatalf("expected two results without error, got %v %v", got, err)
	}
	if FailedDischarges(err) != nil {
		t.Fatalf("expected nil failed list")
	}
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f := Window(now, 7)

	if !f.From.Equal(now.AddDate(0, 0, -7)) || !f.To.Equal(now) || f.Limit != MaxFetch {
		t.Fatalf("unexpected window: %+v", f)
	}
	if (ListFilter{Limit: 10_000}).EffectiveLimit() != MaxFetch {
		t.Fatalf("limit above max should be capped")
	}
}
