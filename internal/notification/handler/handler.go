// Package handler exposes the current user's notifications over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"permitflow/internal/notification/models"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/platform/httputil"
	"permitflow/pkg/requestcontext"
)

type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) (*models.Notification, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts notification routes. r must already authenticate callers.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Post("/notifications/{id}/read", h.HandleMarkRead)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requestcontext.CurrentUser(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	list, err := h.service.ListForUser(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notifications",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "id must be a UUID"))
		return
	}
	n, err := h.service.MarkRead(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to mark notification read",
			"notification_id", id,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}
