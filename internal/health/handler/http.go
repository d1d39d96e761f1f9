// Package handler serves the readiness endpoint.
package handler

import (
	"context"
	"net/http"
	"time"

	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/platform/httpx"
)

const pingTimeout = 2 * time.Second

// Pinger checks a dependency, e.g. *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves /api/health.
type Handler struct {
	db Pinger
}

// NewHandler returns a health Handler. A nil db reports healthy without a ping.
func NewHandler(db Pinger) *Handler {
	return &Handler{db: db}
}

// Health handles GET /api/health: 200 {"status":"healthy"} or 503 {"status":"unhealthy"}.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("health check: database ping failed")
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": "database unavailable"})
			return
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
