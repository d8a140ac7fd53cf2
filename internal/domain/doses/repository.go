package doses

import (
	"context"
	"time"
)

// MaxFetch es el tope de registros por consulta al store.
const MaxFetch = 500

type Repository interface {
	Create(ctx context.Context, r DoseRecord) error
	GetByID(ctx context.Context, id string) (DoseRecord, error) // ErrNotFound si no existe
	ListByDischarge(ctx context.Context, dischargeID string, filter ListFilter) ([]DoseRecord, error)
}

// ListFilter acota por scheduled_time, ambos extremos inclusivos.
// Resultado ordenado por scheduled_time desc.
type ListFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// Window arma el filtro [now - days, now] con el tope estándar.
func Window(now time.Time, days int) ListFilter {
	from := now.AddDate(0, 0, -days)
	to := now
	return ListFilter{From: &from, To: &to, Limit: MaxFetch}
}

// EffectiveLimit normaliza Limit a (0, MaxFetch].
func (f ListFilter) EffectiveLimit() int {
	if f.Limit <= 0 || f.Limit > MaxFetch {
		return MaxFetch
	}
	return f.Limit
}
