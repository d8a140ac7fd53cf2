package doses

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// fetchConcurrency acota las lecturas simultáneas al store en vistas multi-episodio.
const fetchConcurrency = 4

// Source es la vista de solo lectura que consumen los agregadores.
// La implementan Repository, Service y el breaker de adapters/resilience.
type Source interface {
	ListByDischarge(ctx context.Context, dischargeID string, filter ListFilter) ([]DoseRecord, error)
}

// FetchError indica que el store no respondió para un alta.
// Permite distinguir "sin datos aún" de "datos no disponibles".
type FetchError struct {
	DischargeID string
	Err         error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch dose records for discharge %s: %v", e.DischargeID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetch lee un alta y envuelve cualquier error en *FetchError.
func Fetch(ctx context.Context, src Source, dischargeID string, filter ListFilter) ([]DoseRecord, error) {
	recs, err := src.ListByDischarge(ctx, dischargeID, filter)
	if err != nil {
		return nil, &FetchError{DischargeID: dischargeID, Err: err}
	}
	return recs, nil
}

// FetchMany lee varias altas en paralelo. Un alta que falla queda sin registros
// y su *FetchError se agrega al error devuelto (errors.Join); el resto sigue.
func FetchMany(ctx context.Context, src Source, dischargeIDs []string, filter ListFilter) (map[string][]DoseRecord, error) {
	var (
		mu   sync.Mutex
		out  = make(map[string][]DoseRecord, len(dischargeIDs))
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(fetchConcurrency)

	for _, id := range dischargeIDs {
		g.Go(func() error {
			recs, err := Fetch(ctx, src, id, filter)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				out[id] = nil
				return nil
			}
			out[id] = recs
			return nil
		})
	}
	_ = g.Wait()

	return out, errors.Join(errs...)
}

// FailedDischarges extrae los ids de los *FetchError contenidos en err.
func FailedDischarges(err error) []string {
	if err == nil {
		return nil
	}
	var out []string
	var walk func(error)
	walk = func(e error) {
		var fe *FetchError
		if multi, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range multi.Unwrap() {
				walk(inner)
			}
			return
		}
		if errors.As(e, &fe) {
			out = append(out, fe.DischargeID)
		}
	}
	walk(err)
	sort.Strings(out)
	return out
}
