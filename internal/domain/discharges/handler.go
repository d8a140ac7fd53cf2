package discharges

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"vet-discharge-portal/internal/domain/pets"
	"vet-discharge-portal/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Post("/pets/{petID}/discharges", createDischargeHandler(svc, petsSvc))
	r.Get("/pets/{petID}/discharges", listDischargesHandler(svc, petsSvc))

	r.Get("/discharges/{dischargeID}", getDischargeHandler(svc))
	r.Get("/discharges/{dischargeID}/status", dischargeStatusHandler(svc))
}

type taperStagePayload struct {
	Dosage    string   `json:"dosage"`
	Frequency float64  `json:"frequency"`
	Times     []string `json:"times"`
	StartDate string   `json:"start_date"` // YYYY-MM-DD
	EndDate   string   `json:"end_date"`
}

type medicationPayload struct {
	Name         string              `json:"name"`
	Instructions string              `json:"instructions"`
	IsTapered    bool                `json:"is_tapered"`
	Dosage       string              `json:"dosage,omitempty"`
	Frequency    float64             `json:"frequency,omitempty"`
	Times        []string            `json:"times,omitempty"`
	StartDate    string              `json:"start_date,omitempty"`
	EndDate      string              `json:"end_date,omitempty"`
	TotalDoses   int                 `json:"total_doses,omitempty"`
	TaperStages  []taperStagePayload `json:"taper_stages,omitempty"`
}

type createDischargeRequest struct {
	// Si faltan se toman de la ficha de la mascota.
	PetName     string              `json:"pet_name"`
	PetSpecies  string              `json:"pet_species"`
	PetWeightKg float64             `json:"pet_weight_kg"`
	Medications []medicationPayload `json:"medications"`
	Notes       string              `json:"notes"`
}

type dischargeResponse struct {
	ID          string              `json:"id"`
	PetID       string              `json:"pet_id"`
	PetName     string              `json:"pet_name"`
	PetSpecies  string              `json:"pet_species"`
	PetWeightKg float64             `json:"pet_weight_kg"`
	Medications []medicationPayload `json:"medications"`
	Notes       string              `json:"notes"`
	VetID       string              `json:"vet_id"`
	ClinicID    string              `json:"clinic_id"`
	CreatedAt   time.Time           `json:"created_at"`
	Active      bool                `json:"active"`
}

type medicationStatusResponse struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type statusResponse struct {
	DischargeID string                     `json:"discharge_id"`
	Date        string                     `json:"date"`
	Active      bool                       `json:"active"`
	Medications []medicationStatusResponse `json:"medications"`
}

// createDischargeHandler godoc
// @Summary Crear alta
// @Description Registra un episodio de alta con sus medicaciones. Cada medicación usa esquema simple o etapas de reducción, nunca ambos.
// @Tags discharges
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createDischargeRequest true "Alta"
// @Success 201 {object} dischargeResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/discharges [post]
func createDischargeHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClinicClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := petsSvc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if lookupFailed(w, err, p.ClinicID == claims.ClinicID, "pet not found") {
			return
		}

		var req createDischargeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		meds, err := toMedications(req.Medications)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		desc := PetDescriptor{Name: req.PetName, Species: req.PetSpecies, WeightKg: req.PetWeightKg}
		if desc.Name == "" {
			desc.Name = p.Name
		}
		if desc.Species == "" {
			desc.Species = string(p.Species)
		}
		if desc.WeightKg == 0 {
			desc.WeightKg = p.WeightKg
		}

		d, err := svc.Create(r.Context(), CreateInput{
			PetID:       p.ID,
			Pet:         desc,
			Medications: meds,
			Notes:       req.Notes,
			VetID:       claims.UserID,
			ClinicID:    claims.ClinicID,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toDischargeResponse(svc, d))
	}
}

// listDischargesHandler godoc
// @Summary Listar altas de una mascota
// @Description Más reciente primero.
// @Tags discharges
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} dischargeResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/discharges [get]
func listDischargesHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
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

		items, err := svc.ListByPet(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]dischargeResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDischargeResponse(svc, d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getDischargeHandler godoc
// @Summary Ver alta
// @Tags discharges
// @Produce json
// @Param dischargeID path string true "ID del alta"
// @Success 200 {object} dischargeResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "discharge not found"
// @Router /discharges/{dischargeID} [get]
func getDischargeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := loadOwned(w, r, svc)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toDischargeResponse(svc, d))
	}
}

// dischargeStatusHandler godoc
// @Summary Vigencia de las medicaciones del alta
// @Description Evalúa cada medicación a la fecha indicada (default hoy, zona de la clínica).
// @Tags discharges
// @Produce json
// @Param dischargeID path string true "ID del alta"
// @Param date query string false "Fecha de referencia YYYY-MM-DD"
// @Success 200 {object} statusResponse
// @Failure 400 {string} string "date must be YYYY-MM-DD"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "discharge not found"
// @Router /discharges/{dischargeID}/status [get]
func dischargeStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := loadOwned(w, r, svc)
		if !ok {
			return
		}

		var ref time.Time
		if v := r.URL.Query().Get("date"); v != "" {
			t, err := time.ParseInLocation(time.DateOnly, v, svc.Location())
			if err != nil {
				http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			ref = t
		}

		rep := svc.Status(d, ref)
		out := statusResponse{
			DischargeID: rep.DischargeID,
			Date:        rep.Reference.In(svc.Location()).Format(time.DateOnly),
			Active:      rep.Active,
			Medications: make([]medicationStatusResponse, 0, len(rep.Medications)),
		}
		for _, m := range rep.Medications {
			out.Medications = append(out.Medications, medicationStatusResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func loadOwned(w http.ResponseWriter, r *http.Request, svc *Service) (Discharge, bool) {
	claims, ok := middleware.ClinicClaims(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Discharge{}, false
	}
	d, err := svc.GetByID(r.Context(), chi.URLParam(r, "dischargeID"))
	if lookupFailed(w, err, d.ClinicID == claims.ClinicID, "discharge not found") {
		return Discharge{}, false
	}
	return d, true
}

// lookupFailed responde 404 si el recurso no existe o es de otra clínica
// y 500 si el store falló.
func lookupFailed(w http.ResponseWriter, err error, owned bool, msg string) bool {
	missing := errors.Is(err, ErrNotFound) || errors.Is(err, pets.ErrNotFound) || errors.Is(err, ErrInvalidInput)
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

func toMedications(in []medicationPayload) ([]Medication, error) {
	out := make([]Medication, 0, len(in))
	for _, p := range in {
		m := Medication{
			Name:         p.Name,
			Instructions: p.Instructions,
			IsTapered:    p.IsTapered,
			Dosage:       p.Dosage,
			Frequency:    p.Frequency,
			Times:        p.Times,
			TotalDoses:   p.TotalDoses,
		}
		var err error
		if m.StartDate, err = parseOptionalDate(p.StartDate); err != nil {
			return nil, err
		}
		if m.EndDate, err = parseOptionalDate(p.EndDate); err != nil {
			return nil, err
		}
		for _, st := range p.TaperStages {
			start, err := time.Parse(time.DateOnly, st.StartDate)
			if err != nil {
				return nil, errBadDate
			}
			end, err := time.Parse(time.DateOnly, st.EndDate)
			if err != nil {
				return nil, errBadDate
			}
			m.TaperStages = append(m.TaperStages, TaperStage{
				Dosage:    st.Dosage,
				Frequency: st.Frequency,
				Times:     st.Times,
				StartDate: start,
				EndDate:   end,
			})
		}
		out = append(out, m)
	}
	return out, nil
}

var errBadDate = errors.New("dates must be YYYY-MM-DD")

func parseOptionalDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, errBadDate
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func toDischargeResponse(svc *Service, d Discharge) dischargeResponse {
	out := dischargeResponse{
		ID:          d.ID,
		PetID:       d.PetID,
		PetName:     d.Pet.Name,
		PetSpecies:  d.Pet.Species,
		PetWeightKg: d.Pet.WeightKg,
		Medications: make([]medicationPayload, 0, len(d.Medications)),
		Notes:       d.Notes,
		VetID:       d.VetID,
		ClinicID:    d.ClinicID,
		CreatedAt:   d.CreatedAt,
		Active:      svc.Status(d, time.Time{}).Active,
	}
	for _, m := range d.Medications {
		mp := medicationPayload{
			Name:         m.Name,
			Instructions: m.Instructions,
			IsTapered:    m.IsTapered,
			Dosage:       m.Dosage,
			Frequency:    m.Frequency,
			Times:        m.Times,
			StartDate:    formatDate(m.StartDate),
			EndDate:      formatDate(m.EndDate),
			TotalDoses:   m.TotalDoses,
		}
		for _, st := range m.TaperStages {
			mp.TaperStages = append(mp.TaperStages, taperStagePayload{
				Dosage:    st.Dosage,
				Frequency: st.Frequency,
				Times:     st.Times,
				StartDate: st.StartDate.Format(time.DateOnly),
				EndDate:   st.EndDate.Format(time.DateOnly),
			})
		}
		out.Medications = append(out.Medications, mp)
	}
	return out
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
