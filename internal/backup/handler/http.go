// Package handler serves the admin backup download.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"portfolio-cms/backend/internal/backup"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/platform/httpx"
)

// Service builds a backup snapshot.
type Service interface {
	Snapshot(ctx context.Context) (*backup.Snapshot, error)
}

var _ Service = (*backup.Service)(nil)

// Handler serves /api/backup.
type Handler struct {
	svc Service
}

// NewHandler returns a backup Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Backup handles GET /api/backup. The body is the snapshot JSON with an attachment filename.
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("backup failed")
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	name := fmt.Sprintf("portfolio_backup_%s.json", snap.GeneratedAt.Format("20060102"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	httpx.JSON(w, http.StatusOK, snap)
}
