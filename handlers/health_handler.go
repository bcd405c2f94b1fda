package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger - проверка доступности хранилища. Для хранилища в памяти не задается.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db  Pinger
	now func() time.Time
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, now: time.Now}
}

// HealthHandler обрабатывает GET /health
func (h *HealthHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	env := jsonResponse{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"message":   "Tournament Predictor Backend is running",
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			env["status"] = "DEGRADED"
			env["error"] = "database unavailable"
			_ = writeJSON(w, http.StatusServiceUnavailable, env, nil)
			return
		}
	}
	_ = writeJSON(w, http.StatusOK, env, nil)
}
