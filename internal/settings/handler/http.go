// Package handler serves site settings over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	admindomain "portfolio-cms/backend/internal/admin/domain"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/platform/httpx"
	"portfolio-cms/backend/internal/settings"
	"portfolio-cms/backend/internal/settings/domain"
)

// Service is the subset of settings.Service used by the handlers.
type Service interface {
	Public(ctx context.Context) (*domain.Settings, error)
	Admin(ctx context.Context) (*settings.AdminView, error)
	Update(ctx context.Context, patch map[string]json.RawMessage) error
}

var _ Service = (*settings.Service)(nil)

// Handler serves /api/settings and /api/settings_public.
type Handler struct {
	svc Service
}

// NewHandler returns a settings Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Get handles GET /api/settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Admin(r.Context())
	if err != nil {
		h.internal(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

// GetPublic handles GET /api/settings_public.
func (h *Handler) GetPublic(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Public(r.Context())
	if err != nil {
		h.internal(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

// Update handles POST /api/settings with a partial settings document.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := httpx.Decode(w, r, &patch); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	if err := h.svc.Update(r.Context(), patch); err != nil {
		var fe *domain.InvalidFieldError
		switch {
		case errors.Is(err, domain.ErrEmptyUpdate), errors.Is(err, domain.ErrMobileReadOnly), errors.As(err, &fe):
			httpx.Error(w, http.StatusBadRequest, err.Error())
		default:
			h.internal(w, r, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Settings updated", "updated_fields": patch})
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, admindomain.ErrNotInitialized) {
		logging.Ctx(r.Context()).Error().Err(err).Msg("admin credential not initialized")
		httpx.Error(w, http.StatusInternalServerError, "admin not initialized")
		return
	}
	logging.Ctx(r.Context()).Error().Err(err).Msg("settings request failed")
	httpx.Error(w, http.StatusInternalServerError, "internal error")
}
