package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vet-discharge-portal/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Rutas planas: discharges, adherence y symptoms cuelgan de /pets/{petID}/...
	r.Post("/pets", createPetHandler(svc))
	r.Get("/pets", listPetsHandler(svc))

	// Ficha (solo staff de la clínica dueña)
	r.Get("/pets/{petID}", getPetHandler(svc))
	r.Patch("/pets/{petID}", updatePetHandler(svc))
}

type clientPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type createPetRequest struct {
	Name      string        `json:"name"`
	Species   string        `json:"species" enums:"dog,cat,other"`
	Breed     string        `json:"breed"`
	Sex       string        `json:"sex"`
	BirthDate string        `json:"birth_date"` // YYYY-MM-DD opcional
	WeightKg  float64       `json:"weight_kg"`
	Client    clientPayload `json:"client"`
	Notes     string        `json:"notes"`
}

type petResponse struct {
	ID        string        `json:"id"`
	ClinicID  string        `json:"clinic_id"`
	Name      string        `json:"name"`
	Species   Species       `json:"species"`
	Breed     string        `json:"breed"`
	Sex       Sex           `json:"sex"`
	BirthDate *time.Time    `json:"birth_date,omitempty"`
	WeightKg  float64       `json:"weight_kg"`
	Client    clientPayload `json:"client"`
	Notes     string        `json:"notes"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string  `json:"name"`
	Species     *string  `json:"species"`
	Breed       *string  `json:"breed"`
	Sex         *string  `json:"sex"`
	WeightKg    *float64 `json:"weight_kg"`
	ClientName  *string  `json:"client_name"`
	ClientEmail *string  `json:"client_email"`
	ClientPhone *string  `json:"client_phone"`
	Notes       *string  `json:"notes"`
	// birth_date se lee aparte para distinguir null de ausente.
	BirthDate json.RawMessage `json:"birth_date"`
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Description Crea la ficha de una mascota en la clínica del usuario autenticado.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-Debug-Clinic-ID header string false "Solo en modo dev"
// @Param payload body createPetRequest true "Datos de la mascota"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClinicClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse("2006-01-02", req.BirthDate)
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			bd = &t
		}

		p, err := svc.Create(r.Context(), claims.ClinicID, CreateInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: bd,
			WeightKg:  req.WeightKg,
			Client: Client{
				Name:  req.Client.Name,
				Email: req.Client.Email,
				Phone: req.Client.Phone,
			},
			Notes: req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Listar mascotas de la clínica
// @Tags pets
// @Produce json
// @Success 200 {array} petResponse
// @Failure 401 {string} string "unauthorized"
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClinicClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByClinic(r.Context(), claims.ClinicID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary Ver ficha de mascota
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClinicClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		// Otra clínica: 404 para no filtrar existencia.
		if lookupFailed(w, err, p.ClinicID == claims.ClinicID) {
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Actualizar ficha de mascota
// @Description PATCH parcial; birth_date null limpia la fecha.
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body updatePetRequest true "Campos a modificar"
// @Success 200 {object} petResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClinicClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		current, err := svc.GetByID(r.Context(), petID)
		if lookupFailed(w, err, current.ClinicID == claims.ClinicID) {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updatePetRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// Presencia de birth_date: RawMessage queda nil si no vino.
		bd := BirthDatePatch{}
		if req.BirthDate != nil {
			bd.Present = true
			if string(req.BirthDate) != "null" {
				var s string
				if err := json.Unmarshal(req.BirthDate, &s); err != nil {
					http.Error(w, "birth_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				bd.Value = &s
			}
		}

		updated, err := svc.UpdateProfile(r.Context(), petID, UpdateProfileInput{
			Name:        req.Name,
			Species:     req.Species,
			Breed:       req.Breed,
			Sex:         req.Sex,
			BirthDate:   bd,
			WeightKg:    req.WeightKg,
			ClientName:  req.ClientName,
			ClientEmail: req.ClientEmail,
			ClientPhone: req.ClientPhone,
			Notes:       req.Notes,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "pet not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:        p.ID,
		ClinicID:  p.ClinicID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Sex:       p.Sex,
		BirthDate: p.BirthDate,
		WeightKg:  p.WeightKg,
		Client: clientPayload{
			Name:  p.Client.Name,
			Email: p.Client.Email,
			Phone: p.Client.Phone,
		},
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func lookupFailed(w http.ResponseWriter, err error, owned bool) bool {
	switch {
	case err != nil && !errors.Is(err, ErrNotFound):
		http.Error(w, "internal error", http.StatusInternalServerError)
	case err != nil || !owned:
		http.Error(w, "pet not found", http.StatusNotFound)
	default:
		return false
	}
	return true
}
