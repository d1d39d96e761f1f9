// Package handler serves the contact form and the admin inbox over HTTP.
package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"portfolio-cms/backend/internal/inbox"
	"portfolio-cms/backend/internal/inbox/domain"
	"portfolio-cms/backend/internal/inbox/export"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/platform/httpx"
	"portfolio-cms/backend/internal/sms"
)

// Service is the subset of inbox.Service used by the handlers.
type Service interface {
	Submit(ctx context.Context, in inbox.Submission) (*domain.Message, sms.Result, error)
	List(ctx context.Context) ([]*domain.Message, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	Delete(ctx context.Context, id string) error
}

var _ Service = (*inbox.Service)(nil)

// Handler serves /api/contact, /api/inbox and /api/export-messages.
type Handler struct {
	svc Service
	now func() time.Time
}

// NewHandler returns an inbox Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// Submit handles POST /api/contact. Public and rate limited.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req inbox.Submission
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	m, _, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Message sent successfully", "id": m.ID})
}

// List handles GET /api/inbox.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.List(r.Context())
	if err != nil {
		h.internal(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, msgs)
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=unread read archived"`
}

// UpdateStatus handles PATCH /api/inbox/{id}.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	if err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domain.Status(req.Status)); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.Message(w, "Status updated")
}

// Delete handles DELETE /api/inbox/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.Message(w, "Message deleted")
}

// Export handles GET /api/export-messages with an .xlsx attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.List(r.Context())
	if err != nil {
		h.internal(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, msgs); err != nil {
		h.internal(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(h.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("export write interrupted")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.internal(w, r, err)
	}
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("inbox request failed")
	httpx.Error(w, http.StatusInternalServerError, "internal error")
}
