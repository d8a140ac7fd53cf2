package pets

import "context"

type Repository interface {
	Create(ctx context.Context, p Pet) error
	// Update y GetByID devuelven ErrNotFound si la ficha no existe.
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	ListByClinic(ctx context.Context, clinicID string) ([]Pet, error)
}
