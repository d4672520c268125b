package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/MelParker66/flowerama-vd2026/internal/ports"
	"github.com/go-chi/chi/v5"
)

// HealthHandler exposes liveness probes. DB is optional; when set, /health
// also checks the ledger journal database.
type HealthHandler struct {
	DB ports.HealthChecker
}

func (h HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/api/health", h.handleAPIHealth)
}

func (h HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Health(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, keyOK, "database unavailable")
			return
		}
	}
	writeOK(w, nil)
}

func (h HealthHandler) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]any{"message": "backend live"})
}
