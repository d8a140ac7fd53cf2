package discharges

import "context"

type Repository interface {
	Create(ctx context.Context, d Discharge) error
	// GetByID devuelve ErrNotFound si el alta no existe; otro error es del store.
	GetByID(ctx context.Context, id string) (Discharge, error)
	// ListByPet devuelve los episodios de la mascota, más reciente primero.
	ListByPet(ctx context.Context, petID string) ([]Discharge, error)
}
