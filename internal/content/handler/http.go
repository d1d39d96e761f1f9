// Package handler serves portfolio content over HTTP.
package handler

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"portfolio-cms/backend/internal/content/domain"
	"portfolio-cms/backend/internal/content/repository"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/platform/httpx"
)

// Handler serves /api/content.
type Handler struct {
	repo repository.Repository
}

// NewHandler returns a content Handler backed by repo.
func NewHandler(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

type sectionResponse struct {
	Section string          `json:"section"`
	Content json.RawMessage `json:"content"`
}

// List handles GET /api/content. Public.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sections, err := h.repo.List(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("list content failed")
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]sectionResponse, 0, len(sections))
	for _, s := range sections {
		out = append(out, sectionResponse{Section: s.Section, Content: s.Content})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type upsertRequest struct {
	Section string          `json:"section" validate:"required"`
	Content json.RawMessage `json:"content" validate:"required"`
}

// Upsert handles POST /api/content.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	if err := domain.ValidateSection(req.Section, req.Content); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.Upsert(r.Context(), req.Section, req.Content); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("section", req.Section).Msg("upsert content failed")
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.Message(w, fmt.Sprintf("Section %s updated", req.Section))
}
