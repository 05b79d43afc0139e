package reminders

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Runner es lo que el trigger HTTP necesita del Driver.
type Runner interface {
	RunOnce(ctx context.Context) ([]PolicyReport, error)
}

// RegisterRoutes expone el trigger para invocadores externos tipo cron.
// Si triggerToken está vacío el endpoint no exige header.
func RegisterRoutes(r chi.Router, runner Runner, triggerToken string) {
	r.Post("/internal/reminders/run", runHandler(runner, triggerToken))
}

type runResponse struct {
	Policies []PolicyReport `json:"policies"`
}

// runHandler godoc
// @Summary Ejecutar recordatorios de insulina
// @Description Corre una pasada del scheduler (selector + dispatcher) para cada política configurada. Pensado para un cron externo.
// @Tags reminders
// @Produce json
// @Param X-Trigger-Token header string false "Token del trigger si está configurado"
// @Success 200 {object} runResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "reminder run failed"
// @Router /internal/reminders/run [post]
func runHandler(runner Runner, triggerToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if triggerToken != "" {
			got := strings.TrimSpace(r.Header.Get("X-Trigger-Token"))
			if subtle.ConstantTimeCompare([]byte(got), []byte(triggerToken)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		reports, err := runner.RunOnce(r.Context())
		if err != nil {
			http.Error(w, "reminder run failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, runResponse{Policies: reports})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
