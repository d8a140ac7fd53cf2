package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"vet-discharge-portal/internal/domain/doses"
)

type doseRepo struct {
	mu   sync.RWMutex
	byID map[string]doses.DoseRecord
}

func NewDoseRepo() doses.Repository {
	return &doseRepo{
		byID: make(map[string]doses.DoseRecord),
	}
}

func (r *doseRepo) Create(ctx context.Context, rec doses.DoseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		return errors.New("dose record id required")
	}
	if _, exists := r.byID[rec.ID]; exists {
		return errors.New("dose record already exists")
	}

	r.byID[rec.ID] = rec
	return nil
}

func (r *doseRepo) GetByID(ctx context.Context, id string) (doses.DoseRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return doses.DoseRecord{}, doses.ErrNotFound
	}
	return rec, nil
}

func (r *doseRepo) ListByDischarge(ctx context.Context, dischargeID string, filter doses.ListFilter) ([]doses.DoseRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doses.DoseRecord, 0)

	for _, rec := range r.byID {
		if rec.DischargeID != dischargeID {
			continue
		}

		// Rango inclusivo sobre scheduled_time
		if filter.From != nil && rec.ScheduledTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && rec.ScheduledTime.After(*filter.To) {
			continue
		}

		out = append(out, rec)
	}

	// Orden por scheduled_time desc (más reciente primero); id como desempate estable
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledTime.Equal(out[j].ScheduledTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledTime.After(out[j].ScheduledTime)
	})

	if limit := filter.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}
