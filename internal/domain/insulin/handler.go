package insulin

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"diapets/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets/{petID}/insulin", func(ir chi.Router) {
		ir.Post("/", registerHandler(svc))
		ir.Get("/", listHandler(svc))
		ir.Get("/export", exportHandler(svc))
		ir.Get("/filters", filterBoundsHandler(svc))

		ir.Get("/{applicationID}", getHandler(svc))
		ir.Patch("/{applicationID}", updateHandler(svc))
		ir.Delete("/{applicationID}", deleteHandler(svc))
	})
	r.Get("/pets/{petID}/dashboard", dashboardHandler(svc))
}

// registerRequest es el cuerpo para registrar una aplicación de insulina.
type registerRequest struct {
	ResponsibleID string  `json:"responsible_id"` // opcional, por defecto quien registra
	AppliedAt     string  `json:"application_time"` // RFC3339, opcional (ahora)
	InsulinUnits  float64 `json:"insulin_units"`
	GlucoseLevel  *int    `json:"glucose_level"`
	Observations  string  `json:"observations"`
}

type updateRequest struct {
	AppliedAt    *string  `json:"application_time"`
	InsulinUnits *float64 `json:"insulin_units"`
	GlucoseLevel *int     `json:"glucose_level"`
	Observations *string  `json:"observations"`
}

// applicationResponse representa una aplicación de insulina devuelta por la API.
type applicationResponse struct {
	ID           string    `json:"id"`
	PetID        string    `json:"pet_id"`
	UserID       string    `json:"user_id"`
	AppliedAt    time.Time `json:"application_time"`
	InsulinUnits float64   `json:"insulin_units"`
	GlucoseLevel *int      `json:"glucose_level,omitempty"`
	Observations string    `json:"observations,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// filterBoundsResponse son los extremos para armar los filtros del listado.
type filterBoundsResponse struct {
	MinDate    time.Time `json:"min_date"`
	MaxDate    time.Time `json:"max_date"`
	MinUnits   float64   `json:"min_units"`
	MaxUnits   float64   `json:"max_units"`
	MinGlucose *int      `json:"min_glucose"`
	MaxGlucose *int      `json:"max_glucose"`
}

type dashboardResponse struct {
	PetID                 string               `json:"pet_id"`
	PetName               string               `json:"pet_name"`
	InsulinFrequencyHours int                  `json:"insulin_frequency"`
	Last                  *applicationResponse `json:"last_application,omitempty"`
	NextDueAt             *time.Time           `json:"next_application_time,omitempty"`
}

// registerHandler godoc
// @Summary Registrar aplicación de insulina
// @Description Registra una dosis para la mascota. Quien registra y el responsable deben ser owner o caretaker. Se notifica a los cuidadores por push. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags insulin
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param payload body registerRequest true "Datos de la dosis; application_time en formato RFC3339"
// @Success 201 {object} applicationResponse
// @Failure 400 {string} string "invalid json / application_time inválido / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/insulin [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var appliedAt time.Time
		if strings.TrimSpace(req.AppliedAt) != "" {
			t, err := time.Parse(time.RFC3339, req.AppliedAt)
			if err != nil {
				http.Error(w, "application_time must be RFC3339", http.StatusBadRequest)
				return
			}
			appliedAt = t
		}

		a, err := svc.Register(r.Context(), claims.UserID, RegisterInput{
			PetID:             chi.URLParam(r, "petID"),
			ResponsibleUserID: req.ResponsibleID,
			ActorName:         claims.Name,
			AppliedAt:         appliedAt,
			InsulinUnits:      req.InsulinUnits,
			GlucoseLevel:      req.GlucoseLevel,
			Observations:      req.Observations,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toApplicationResponse(a))
	}
}

// listHandler godoc
// @Summary Listar aplicaciones de insulina
// @Description Lista las dosis de una mascota, más recientes primero. Filtra por rango de fechas y responsable.
// @Tags insulin
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param limit query int false "Máximo a devolver (1-200). Por defecto 50"
// @Param from query string false "application_time mínimo (RFC3339)"
// @Param to query string false "application_time máximo (RFC3339)"
// @Param user_id query string false "Solo dosis aplicadas por este usuario"
// @Param min_units query number false "Unidades mínimas"
// @Param max_units query number false "Unidades máximas"
// @Param min_glucose query int false "Glucosa mínima (excluye dosis sin glucosa)"
// @Param max_glucose query int false "Glucosa máxima (excluye dosis sin glucosa)"
// @Success 200 {array} applicationResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/insulin [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByPet(r.Context(), claims.UserID, chi.URLParam(r, "petID"), filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := make([]applicationResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toApplicationResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// exportHandler godoc
// @Summary Exportar historial de insulina
// @Description Devuelve una planilla XLSX con las dosis filtradas (mismos filtros que el listado, hasta 200 filas).
// @Tags insulin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param petID path string true "ID de la mascota"
// @Success 200 {file} file
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/insulin/export [get]
func exportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("limit") == "" {
			filter.Limit = maxLimit
		}

		petID := chi.URLParam(r, "petID")
		d, err := svc.Dashboard(r.Context(), claims.UserID, petID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		items, err := svc.ListByPet(r.Context(), claims.UserID, petID, filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		raw, err := ExportXLSX(d.PetName, items, nil)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="insulina.xlsx"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}

// filterBoundsHandler godoc
// @Summary Rangos de filtro de insulina
// @Description Devuelve fecha, unidades y glucosa mínimas y máximas de las dosis de la mascota.
// @Tags insulin
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} filterBoundsResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found / insulin application not found"
// @Router /pets/{petID}/insulin/filters [get]
func filterBoundsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		b, err := svc.FilterBounds(r.Context(), claims.UserID, chi.URLParam(r, "petID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, filterBoundsResponse{
			MinDate:    b.MinDate,
			MaxDate:    b.MaxDate,
			MinUnits:   b.MinUnits,
			MaxUnits:   b.MaxUnits,
			MinGlucose: b.MinGlucose,
			MaxGlucose: b.MaxGlucose,
		})
	}
}

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := svc.GetByID(r.Context(), claims.UserID, chi.URLParam(r, "applicationID"))
		if err == nil && a.PetID != chi.URLParam(r, "petID") {
			err = ErrNotFound
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toApplicationResponse(a))
	}
}

// updateHandler godoc
// @Summary Corregir aplicación de insulina
// @Description Corrige campos de una dosis ya registrada. Solo se cambian los campos enviados.
// @Tags insulin
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param applicationID path string true "ID de la aplicación"
// @Param payload body updateRequest true "Campos a corregir"
// @Success 200 {object} applicationResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "insulin application not found"
// @Router /pets/{petID}/insulin/{applicationID} [patch]
func updateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			InsulinUnits: req.InsulinUnits,
			GlucoseLevel: req.GlucoseLevel,
			Observations: req.Observations,
		}
		if req.AppliedAt != nil {
			t, err := time.Parse(time.RFC3339, *req.AppliedAt)
			if err != nil {
				http.Error(w, "application_time must be RFC3339", http.StatusBadRequest)
				return
			}
			in.AppliedAt = &t
		}

		// Evita corregir registros de otra mascota vía URL
		current, err := svc.GetByID(r.Context(), claims.UserID, chi.URLParam(r, "applicationID"))
		if err == nil && current.PetID != chi.URLParam(r, "petID") {
			err = ErrNotFound
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}

		a, err := svc.Update(r.Context(), claims.UserID, current.ID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toApplicationResponse(a))
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		current, err := svc.GetByID(r.Context(), claims.UserID, chi.URLParam(r, "applicationID"))
		if err == nil && current.PetID != chi.URLParam(r, "petID") {
			err = ErrNotFound
		}
		if err == nil {
			err = svc.Delete(r.Context(), claims.UserID, current.ID)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// dashboardHandler godoc
// @Summary Dashboard de insulina
// @Description Devuelve la última aplicación de la mascota y la hora de la próxima dosis (última + frecuencia).
// @Tags insulin
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} dashboardResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/dashboard [get]
func dashboardHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.Dashboard(r.Context(), claims.UserID, chi.URLParam(r, "petID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := dashboardResponse{
			PetID:                 d.PetID,
			PetName:               d.PetName,
			InsulinFrequencyHours: d.InsulinFrequencyHours,
			NextDueAt:             d.NextDueAt,
		}
		if d.Last != nil {
			last := toApplicationResponse(*d.Last)
			out.Last = &last
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxLimit {
			limit = n
		}
	}

	filter := ListFilter{Limit: limit}

	// from/to RFC3339
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}

	filter.UserID = strings.TrimSpace(r.URL.Query().Get("user_id"))

	var err error
	if filter.MinUnits, err = floatParam(r, "min_units"); err != nil {
		return ListFilter{}, err
	}
	if filter.MaxUnits, err = floatParam(r, "max_units"); err != nil {
		return ListFilter{}, err
	}
	if filter.MinGlucose, err = intParam(r, "min_glucose"); err != nil {
		return ListFilter{}, err
	}
	if filter.MaxGlucose, err = intParam(r, "max_glucose"); err != nil {
		return ListFilter{}, err
	}

	return filter, nil
}

func floatParam(r *http.Request, name string) (*float64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.New(name + " must be a number")
	}
	return &f, nil
}

func intParam(r *http.Request, name string) (*int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, errors.New(name + " must be an integer")
	}
	return &n, nil
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrPetNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "insulin application not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toApplicationResponse(a Application) applicationResponse {
	return applicationResponse{
		ID:           a.ID,
		PetID:        a.PetID,
		UserID:       a.UserID,
		AppliedAt:    a.AppliedAt,
		InsulinUnits: a.InsulinUnits,
		GlucoseLevel: a.GlucoseLevel,
		Observations: a.Observations,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
