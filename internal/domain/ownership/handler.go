package ownership

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
	r.Route("/pets/{petID}/caretakers", func(cr chi.Router) {
		cr.Post("/", addMemberHandler(svc))
		cr.Get("/", listMembersHandler(svc))
	})
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Level  Level  `json:"level"` // OWNER | CARETAKER (default CARETAKER)
}

type membershipResponse struct {
	PetID     string    `json:"pet_id"`
	UserID    string    `json:"user_id"`
	Level     Level     `json:"level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func addMemberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req addMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.Add(r.Context(), AddInput{
			PetID:       chi.URLParam(r, "petID"),
			ActorUserID: claims.UserID,
			UserID:      req.UserID,
			Level:       req.Level,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toMembershipResponse(m))
	}
}

func listMembersHandler(svc *Service) http.HandlerFunc {
	// Solo miembros de la mascota pueden ver quiénes la cuidan
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		member, err := svc.IsMember(r.Context(), petID, claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !member {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListByPet(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]membershipResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMembershipResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toMembershipResponse(m Membership) membershipResponse {
	return membershipResponse{
		PetID:     m.PetID,
		UserID:    m.UserID,
		Level:     m.Level,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
