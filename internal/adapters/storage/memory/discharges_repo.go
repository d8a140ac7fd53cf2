package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-discharge-portal/internal/domain/discharges"
)

type dischargeRepo struct {
	mu   sync.RWMutex
	byID map[string]discharges.Discharge
}

func NewDischargeRepo() discharges.Repository {
	return &dischargeRepo{
		byID: make(map[string]discharges.Discharge),
	}
}

func (r *dischargeRepo) Create(ctx context.Context, d discharges.Discharge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("discharge id required")
	}
	if _, exists := r.byID[d.ID]; exists {
		return errors.New("discharge already exists")
	}
	r.byID[d.ID] = d
	return nil
}

func (r *dischargeRepo) GetByID(ctx context.Context, id string) (discharges.Discharge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return discharges.Discharge{}, discharges.ErrNotFound
	}
	return d, nil
}

func (r *dischargeRepo) ListByPet(ctx context.Context, petID string) ([]discharges.Discharge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]discharges.Discharge, 0)
	for _, d := range r.byID {
		if d.PetID == petID {
			out = append(out, d)
		}
	}

	// Más reciente primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}
