// Package handler serves the admin analytics endpoints.
package handler

import (
	"context"
	"net/http"

	"portfolio-cms/backend/internal/analytics"
	"portfolio-cms/backend/internal/analytics/domain"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/platform/httpx"
)

// Service is the analytics query surface used by Handler.
type Service interface {
	Summary(ctx context.Context) (*domain.Summary, error)
	DashboardStats(ctx context.Context) (*domain.DashboardStats, error)
}

var _ Service = (*analytics.Service)(nil)

// Handler serves /api/analytics and /api/dashboard-stats.
type Handler struct {
	svc Service
}

// NewHandler returns an analytics Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Summary handles GET /api/analytics.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Summary(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("analytics summary failed")
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// DashboardStats handles GET /api/dashboard-stats.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.DashboardStats(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("dashboard stats failed")
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
