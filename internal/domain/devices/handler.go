package devices

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"diapets/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/me/push-tokens", func(dr chi.Router) {
		dr.Post("/", registerTokenHandler(svc))
		dr.Delete("/", unregisterTokenHandler(svc))
	})
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

type pushTokenResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// registerTokenHandler godoc
// @Summary Registrar push token
// @Description Registra el token FCM del dispositivo del usuario autenticado. Repetir el mismo token devuelve el existente (200).
// @Tags devices
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body pushTokenRequest true "Token FCM"
// @Success 201 {object} pushTokenResponse
// @Success 200 {object} pushTokenResponse
// @Failure 400 {string} string "invalid json / token vacío"
// @Failure 401 {string} string "unauthorized"
// @Router /me/push-tokens [post]
func registerTokenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req pushTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		pt, created, err := svc.Register(r.Context(), claims.UserID, req.Token)
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
		}
		writeJSON(w, status, pushTokenResponse{
			ID:        pt.ID,
			UserID:    pt.UserID,
			Token:     pt.Token,
			CreatedAt: pt.CreatedAt,
		})
	}
}

func unregisterTokenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req pushTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := svc.Unregister(r.Context(), claims.UserID, req.Token); err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "push token not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
