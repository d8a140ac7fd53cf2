package doses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"vet-discharge-portal/internal/domain/discharges"
	"vet-discharge-portal/internal/middleware"
	"vet-discharge-portal/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// DischargeClinic resuelve la clínica dueña de un alta.
// Lo implementa discharges.Service; un alta inexistente se informa con
// discharges.ErrNotFound.
type DischargeClinic interface {
	ClinicOfDischarge(ctx context.Context, dischargeID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, owner DischargeClinic, m *metrics.Metrics) {
	r.Post("/discharges/{dischargeID}/doses", logDoseHandler(svc, owner, m))
	r.Get("/discharges/{dischargeID}/doses", listDosesHandler(svc, owner))
}

type symptomsPayload struct {
	Appetite   int        `json:"appetite"`
	Energy     int        `json:"energy"`
	IsPanting  bool       `json:"is_panting"`
	Notes      string     `json:"notes"`
	RecordedAt *time.Time `json:"recorded_at"`
}

type logDoseRequest struct {
	ID             string           `json:"id"`
	MedicationName string           `json:"medication_name"`
	ScheduledTime  time.Time        `json:"scheduled_time"`
	GivenAt        *time.Time       `json:"given_at"`
	Status         string           `json:"status" enums:"given,missed,skipped"`
	Dosage         string           `json:"dosage"`
	Frequency      float64          `json:"frequency"`
	Instructions   string           `json:"instructions"`
	Symptoms       *symptomsPayload `json:"symptoms"`
}

type doseResponse struct {
	ID             string           `json:"id"`
	DischargeID    string           `json:"discharge_id"`
	MedicationName string           `json:"medication_name"`
	ScheduledTime  time.Time        `json:"scheduled_time"`
	GivenAt        *time.Time       `json:"given_at,omitempty"`
	Status         Status           `json:"status"`
	Dosage         string           `json:"dosage"`
	Frequency      float64          `json:"frequency"`
	Instructions   string           `json:"instructions,omitempty"`
	LoggedAt       time.Time        `json:"logged_at"`
	Symptoms       *symptomsPayload `json:"symptoms,omitempty"`
}

// logDoseHandler godoc
// @Summary Registrar una dosis
// @Description Registra una dosis dada/omitida con snapshot de síntomas opcional. Si el id ya existe responde 200 con el registro guardado.
// @Tags doses
// @Accept json
// @Produce json
// @Param dischargeID path string true "ID del alta"
// @Param payload body logDoseRequest true "Evento de dosis"
// @Success 201 {object} doseResponse
// @Success 200 {object} doseResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "discharge not found"
// @Router /discharges/{dischargeID}/doses [post]
func logDoseHandler(svc *Service, owner DischargeClinic, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dischargeID, ok := authorize(w, r, owner)
		if !ok {
			return
		}

		var req logDoseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rec, created, err := svc.Log(r.Context(), dischargeID, req.toInput())
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
			if m != nil {
				m.DosesLogged.WithLabelValues(string(rec.Status), string(OriginApp)).Inc()
			}
		}
		writeJSON(w, status, toDoseResponse(rec))
	}
}

// listDosesHandler godoc
// @Summary Listar dosis de un alta
// @Description Más reciente primero (por horario programado). from/to en RFC3339, ambos inclusivos.
// @Tags doses
// @Produce json
// @Param dischargeID path string true "ID del alta"
// @Param from query string false "Desde (RFC3339)"
// @Param to query string false "Hasta (RFC3339)"
// @Param limit query int false "Máximo 500"
// @Success 200 {array} doseResponse
// @Failure 400 {string} string "invalid filter"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "discharge not found"
// @Router /discharges/{dischargeID}/doses [get]
func listDosesHandler(svc *Service, owner DischargeClinic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dischargeID, ok := authorize(w, r, owner)
		if !ok {
			return
		}

		filter, err := parseFilter(r)
		if err != nil {
			http.Error(w, "invalid filter", http.StatusBadRequest)
			return
		}

		items, err := svc.ListByDischarge(r.Context(), dischargeID, filter)
		if err != nil {
			http.Error(w, "dose records unavailable", http.StatusServiceUnavailable)
			return
		}

		out := make([]doseResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toDoseResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func authorize(w http.ResponseWriter, r *http.Request, owner DischargeClinic) (string, bool) {
	claims, ok := middleware.ClinicClaims(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	dischargeID := chi.URLParam(r, "dischargeID")
	clinicID, err := owner.ClinicOfDischarge(r.Context(), dischargeID)
	switch {
	case err != nil && !errors.Is(err, discharges.ErrNotFound) && !errors.Is(err, discharges.ErrInvalidInput):
		http.Error(w, "internal error", http.StatusInternalServerError)
		return "", false
	case err != nil || clinicID != claims.ClinicID:
		http.Error(w, "discharge not found", http.StatusNotFound)
		return "", false
	}
	return dischargeID, true
}

func parseFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	var f ListFilter
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, err
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, err
		}
		f.To = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ListFilter{}, err
		}
		f.Limit = n
	}
	return f, nil
}

func (req logDoseRequest) toInput() LogInput {
	in := LogInput{
		ID:             req.ID,
		MedicationName: req.MedicationName,
		ScheduledTime:  req.ScheduledTime,
		GivenAt:        req.GivenAt,
		Status:         Status(req.Status),
		Dosage:         req.Dosage,
		Frequency:      req.Frequency,
		Instructions:   req.Instructions,
	}
	if s := req.Symptoms; s != nil {
		in.Symptoms = &SymptomInput{
			Appetite:  s.Appetite,
			Energy:    s.Energy,
			IsPanting: s.IsPanting,
			Notes:     s.Notes,
		}
		if s.RecordedAt != nil {
			in.Symptoms.RecordedAt = *s.RecordedAt
		}
	}
	return in
}

func toDoseResponse(r DoseRecord) doseResponse {
	out := doseResponse{
		ID:             r.ID,
		DischargeID:    r.DischargeID,
		MedicationName: r.MedicationName,
		ScheduledTime:  r.ScheduledTime,
		GivenAt:        r.GivenAt,
		Status:         r.Status,
		Dosage:         r.Dosage,
		Frequency:      r.Frequency,
		Instructions:   r.Instructions,
		LoggedAt:       r.LoggedAt,
	}
	if s := r.Symptoms; s != nil {
		at := s.RecordedAt
		out.Symptoms = &symptomsPayload{
			Appetite:   s.Appetite,
			Energy:     s.Energy,
			IsPanting:  s.IsPanting,
			Notes:      s.Notes,
			RecordedAt: &at,
		}
	}
	return out
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
