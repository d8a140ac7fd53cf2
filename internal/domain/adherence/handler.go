package adherence

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"vet-discharge-portal/internal/domain/discharges"
	"vet-discharge-portal/internal/domain/doses"
	"vet-discharge-portal/internal/domain/pets"
	"vet-discharge-portal/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// Estados de datos para que el dashboard distinga "sin datos aún" de "no disponible".
const (
	DataOK          = "ok"
	DataEmpty       = "no_data"
	DataPartial     = "partial"
	DataUnavailable = "unavailable"
)

func RegisterRoutes(r chi.Router, svc *Service, dischargesSvc *discharges.Service, petsSvc *pets.Service) {
	r.Get("/discharges/{dischargeID}/adherence", dischargeAdherenceHandler(svc, dischargesSvc))
	r.Get("/pets/{petID}/adherence", petAdherenceHandler(svc, petsSvc))
}

type countsResponse struct {
	Total         int `json:"total_doses"`
	Given         int `json:"given_doses"`
	OnTime        int `json:"on_time_doses"`
	Late          int `json:"late_doses"`
	Missed        int `json:"missed_doses"`
	AdherenceRate int `json:"adherence_rate"`
}

type medicationResponse struct {
	Name string `json:"medication_name"`
	countsResponse
}

type dayResponse struct {
	Date string `json:"date"`
	countsResponse
}

type metricsResponse struct {
	Overall      countsResponse       `json:"overall"`
	ByMedication []medicationResponse `json:"by_medication"`
	Timeline     []dayResponse        `json:"timeline"`
}

type dischargeAdherenceResponse struct {
	DischargeID string          `json:"discharge_id"`
	Days        int             `json:"days"`
	DataStatus  string          `json:"data_status"`
	Metrics     metricsResponse `json:"metrics"`
}

type episodeResponse struct {
	DischargeID string          `json:"discharge_id"`
	CreatedAt   time.Time       `json:"created_at"`
	Active      bool            `json:"active"`
	Metrics     metricsResponse `json:"metrics"`
}

type lastDoseResponse struct {
	ID             string    `json:"id"`
	DischargeID    string    `json:"discharge_id"`
	MedicationName string    `json:"medication_name"`
	ScheduledTime  time.Time `json:"scheduled_time"`
	GivenAt        time.Time `json:"given_at"`
}

type petAdherenceResponse struct {
	PetID                 string            `json:"pet_id"`
	Days                  int               `json:"days"`
	DataStatus            string            `json:"data_status"`
	UnavailableDischarges []string          `json:"unavailable_discharges,omitempty"`
	Overall               metricsResponse   `json:"overall"`
	ActiveOnly            metricsResponse   `json:"active_only"`
	Episodes              []episodeResponse `json:"episodes"`
	LastGivenDose         *lastDoseResponse `json:"last_given_dose,omitempty"`
}

// dischargeAdherenceHandler godoc
// @Summary Adherencia de un alta
// @Description Métricas de adherencia (total, por medicación y diaria) para la ventana [ahora - days, ahora]. Si el store de dosis falla responde 200 con data_status=unavailable.
// @Tags adherence
// @Produce json
// @Param dischargeID path string true "ID del alta"
// @Param days query int false "Ventana en días (default 7, máx 365)"
// @Success 200 {object} dischargeAdherenceResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "discharge not found"
// @Router /discharges/{dischargeID}/adherence [get]
func dischargeAdherenceHandler(svc *Service, dischargesSvc *discharges.Service) http.HandlerFunc {
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

		days := ClampDays(queryInt(r, "days"), DefaultEpisodeDays)
		m, err := svc.ForDischarge(r.Context(), d, days)

		status := DataOK
		switch {
		case err != nil:
			status = DataUnavailable
		case !m.HasData():
			status = DataEmpty
		}

		writeJSON(w, http.StatusOK, dischargeAdherenceResponse{
			DischargeID: d.ID,
			Days:        days,
			DataStatus:  status,
			Metrics:     toMetricsResponse(m),
		})
	}
}

// petAdherenceHandler godoc
// @Summary Adherencia de una mascota (todas sus altas)
// @Description Agrega todos los episodios de la mascota: total, solo medicaciones activas (30 días), desglose por episodio y última dosis dada.
// @Tags adherence
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param days query int false "Ventana en días (default 30, máx 365)"
// @Success 200 {object} petAdherenceResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/adherence [get]
func petAdherenceHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
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

		days := ClampDays(queryInt(r, "days"), DefaultPetDays)
		pm, err := svc.ForPet(r.Context(), petID, days)

		failed := doses.FailedDischarges(err)
		status := DataOK
		switch {
		case err != nil && (len(failed) >= len(pm.Episodes) || len(pm.Episodes) == 0):
			status = DataUnavailable
		case err != nil:
			status = DataPartial
		case !pm.Overall.HasData():
			status = DataEmpty
		}

		out := petAdherenceResponse{
			PetID:                 petID,
			Days:                  days,
			DataStatus:            status,
			UnavailableDischarges: failed,
			Overall:               toMetricsResponse(pm.Overall),
			ActiveOnly:            toMetricsResponse(pm.ActiveOnly),
			Episodes:              make([]episodeResponse, 0, len(pm.Episodes)),
		}
		for _, ep := range pm.Episodes {
			out.Episodes = append(out.Episodes, episodeResponse{
				DischargeID: ep.DischargeID,
				CreatedAt:   ep.CreatedAt,
				Active:      ep.Active,
				Metrics:     toMetricsResponse(ep.Metrics),
			})
		}
		if last := pm.LastGiven; last != nil {
			out.LastGivenDose = &lastDoseResponse{
				ID:             last.ID,
				DischargeID:    last.DischargeID,
				MedicationName: last.MedicationName,
				ScheduledTime:  last.ScheduledTime,
				GivenAt:        *last.GivenAt,
			}
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func toMetricsResponse(m Metrics) metricsResponse {
	out := metricsResponse{
		Overall:      toCounts(m.Overall),
		ByMedication: make([]medicationResponse, 0, len(m.ByMedication)),
		Timeline:     make([]dayResponse, 0, len(m.Timeline)),
	}
	for _, med := range m.ByMedication {
		out.ByMedication = append(out.ByMedication, medicationResponse{Name: med.Name, countsResponse: toCounts(med.Counts)})
	}
	for _, day := range m.Timeline {
		out.Timeline = append(out.Timeline, dayResponse{Date: day.Date, countsResponse: toCounts(day.Counts)})
	}
	return out
}

func toCounts(c Counts) countsResponse {
	return countsResponse{
		Total:         c.Total,
		Given:         c.Given,
		OnTime:        c.OnTime,
		Late:          c.Late,
		Missed:        c.Missed,
		AdherenceRate: c.Rate,
	}
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
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
