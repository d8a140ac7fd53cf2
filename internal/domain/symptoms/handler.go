package symptoms

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"vet-discharge-portal/internal/domain/discharges"
	"vet-discharge-portal/internal/domain/doses"
	"vet-discharge-portal/internal/domain/pets"
	"vet-discharge-portal/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const (
	DataOK          = "ok"
	DataEmpty       = "no_data"
	DataPartial     = "partial"
	DataUnavailable = "unavailable"
)

func RegisterRoutes(r chi.Router, svc *Service, dischargesSvc *discharges.Service, petsSvc *pets.Service) {
	r.Get("/discharges/{dischargeID}/symptoms", dischargeSymptomsHandler(svc, dischargesSvc))
	r.Get("/pets/{petID}/symptoms", petSymptomsHandler(svc, petsSvc, dischargesSvc))
}

type flagResponse struct {
	Type          FlagType `json:"type"`
	Date          string   `json:"date"`
	Description   string   `json:"description"`
	Severity      Severity `json:"severity" enums:"low,medium,high"`
	Value         float64  `json:"value"`
	PreviousValue *float64 `json:"previous_value,omitempty"`
	DischargeID   string   `json:"discharge_id,omitempty"`
}

type entryResponse struct {
	Date        string    `json:"date"`
	Appetite    int       `json:"appetite"`
	Energy      int       `json:"energy"`
	IsPanting   bool      `json:"is_panting"`
	Notes       string    `json:"notes,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
	DischargeID string    `json:"discharge_id"`
}

type scoreTrendResponse struct {
	Trend           Trend   `json:"trend" enums:"improving,declining,stable"`
	CurrentAverage  float64 `json:"current_average"`
	PreviousAverage float64 `json:"previous_average"`
}

type trendsResponse struct {
	Appetite        scoreTrendResponse `json:"appetite"`
	Energy          scoreTrendResponse `json:"energy"`
	PantingDays     int                `json:"panting_days"`
	PantingFrequent bool               `json:"panting_frequent"`
}

type analysisResponse struct {
	DataStatus            string          `json:"data_status"`
	UnavailableDischarges []string        `json:"unavailable_discharges,omitempty"`
	Flags                 []flagResponse  `json:"flags"`
	RecentEntries         []entryResponse `json:"recent_entries"`
	Trends                trendsResponse  `json:"trends"`
}

type dischargeSymptomsResponse struct {
	DischargeID string `json:"discharge_id"`
	analysisResponse
}

type petSymptomsResponse struct {
	PetID string `json:"pet_id"`
	// Activas a hoy (clasificador de vigencia); útil para el encabezado del dashboard.
	ActiveDischarges []string `json:"active_discharges"`
	analysisResponse
}

// dischargeSymptomsHandler godoc
// @Summary Alertas de síntomas de un alta
// @Description Entradas diarias recientes, alertas (apetito/energía bajos o en caída, jadeo persistente) y tendencias.
// @Tags symptoms
// @Produce json
// @Param dischargeID path string true "ID del alta"
// @Success 200 {object} dischargeSymptomsResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "discharge not found"
// @Router /discharges/{dischargeID}/symptoms [get]
func dischargeSymptomsHandler(svc *Service, dischargesSvc *discharges.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClinicClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := dischargesSvc.GetByID(r.Context(), chi.URLParam(r, "dischargeID"))
		if lookupFailed(w, err, d.ClinicID == claims.ClinicID, "discharge not found") {
			return
		}

		a, err := svc.ForDischarge(r.Context(), d.ID)

		writeJSON(w, http.StatusOK, dischargeSymptomsResponse{
			DischargeID:      d.ID,
			analysisResponse: toAnalysisResponse(a, err, 1),
		})
	}
}

// petSymptomsHandler godoc
// @Summary Alertas de síntomas de una mascota
// @Description Fusiona todos los episodios de la mascota; cada alerta indica el alta que la originó.
// @Tags symptoms
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petSymptomsResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/symptoms [get]
func petSymptomsHandler(svc *Service, petsSvc *pets.Service, dischargesSvc *discharges.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClinicClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		clinicID, err := petsSvc.ClinicOf(r.Context(), petID)
		if lookupFailed(w, err, clinicID == claims.ClinicID, "pet not found") {
			return
		}

		eps, err := dischargesSvc.ListByPet(r.Context(), petID)
		if err != nil {
			// Sin la lista de episodios no hay nada que analizar.
			fe := &doses.FetchError{DischargeID: "*", Err: err}
			svc.fetchFailed(fe, map[string]any{"pet_id": petID})
			writeJSON(w, http.StatusOK, petSymptomsResponse{
				PetID:            petID,
				ActiveDischarges: []string{},
				analysisResponse: toAnalysisResponse(Analyze(nil), fe, 0),
			})
			return
		}

		active := make([]string, 0, len(eps))
		for _, d := range eps {
			if dischargesSvc.Status(d, time.Time{}).Active {
				active = append(active, d.ID)
			}
		}

		a, err := svc.ForPet(r.Context(), petID)

		writeJSON(w, http.StatusOK, petSymptomsResponse{
			PetID:            petID,
			ActiveDischarges: active,
			analysisResponse: toAnalysisResponse(a, err, len(eps)),
		})
	}
}

func toAnalysisResponse(a Analysis, err error, episodes int) analysisResponse {
	failed := doses.FailedDischarges(err)
	status := DataOK
	switch {
	case err != nil && (episodes == 0 || len(failed) >= episodes):
		status = DataUnavailable
	case err != nil:
		status = DataPartial
	case len(a.Recent) == 0:
		status = DataEmpty
	}

	out := analysisResponse{
		DataStatus:            status,
		UnavailableDischarges: failed,
		Flags:                 make([]flagResponse, 0, len(a.Flags)),
		RecentEntries:         make([]entryResponse, 0, len(a.Recent)),
		Trends: trendsResponse{
			Appetite:        scoreTrendResponse(a.Trends.Appetite),
			Energy:          scoreTrendResponse(a.Trends.Energy),
			PantingDays:     a.Trends.PantingDays,
			PantingFrequent: a.Trends.PantingFrequent,
		},
	}
	for _, f := range a.Flags {
		out.Flags = append(out.Flags, flagResponse(f))
	}
	for _, e := range a.Recent {
		out.RecentEntries = append(out.RecentEntries, entryResponse(e))
	}
	return out
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// lookupFailed: 404 si no existe o es de otra clínica, 500 si falló el store.
func lookupFailed(w http.ResponseWriter, err error, owned bool, msg string) bool {
	missing := errors.Is(err, discharges.ErrNotFound) ||
		errors.Is(err, pets.ErrNotFound) ||
		errors.Is(err, discharges.ErrInvalidInput)
	switch {
	case err != nil && !missing:
		http.Error(w, "internal error", http.StatusInternalServerError)
	case err != nil || !owned:
		http.Error(w, msg, http.StatusNotFound)
	default:
		return false
	}
	return true
}
