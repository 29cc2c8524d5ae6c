// Package handler exposes the permit repository and status controller over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"permitflow/internal/permit/models"
	"permitflow/internal/permit/service"
	"permitflow/internal/permit/status"
	"permitflow/internal/platform/middleware"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/platform/httputil"
	"permitflow/pkg/requestcontext"
)

// Service defines the permit repository operations the handler needs.
type Service interface {
	Create(ctx context.Context, in models.PermitInput) (*models.Permit, error)
	Update(ctx context.Context, permitID uuid.UUID, in models.PermitInput) (*models.Permit, error)
	Delete(ctx context.Context, permitID uuid.UUID) error
	GetByID(ctx context.Context, permitID uuid.UUID) (*models.PermitView, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.PermitSummary, error)
	ListAll(ctx context.Context) ([]*models.PermitSummary, error)
	ListPermitTypes(ctx context.Context) ([]*models.PermitType, error)
	AddDocument(ctx context.Context, permitID uuid.UUID, filePath string) (*models.Document, error)
	ReviewDocument(ctx context.Context, documentID uuid.UUID, status models.DocumentStatus, reason string) (*models.Document, error)
	RecordPayment(ctx context.Context, permitID uuid.UUID, in service.PaymentInput) (*models.Payment, error)
	SetPaymentStatus(ctx context.Context, paymentID uuid.UUID, status models.PaymentStatus) (*models.Payment, error)
	AddImage(ctx context.Context, permitID uuid.UUID, in service.ImageInput) (*models.UploadedImage, error)
}

// StatusController changes permit status on behalf of an administrator.
type StatusController interface {
	SetStatus(ctx context.Context, permitID uuid.UUID, next models.Status, adminComment *string) (*status.Result, error)
}

type Handler struct {
	permits Service
	status  StatusController
	logger  *slog.Logger
}

func New(permits Service, status StatusController, logger *slog.Logger) *Handler {
	return &Handler{permits: permits, status: status, logger: logger}
}

// Register mounts permit routes. r must already authenticate callers.
func (h *Handler) Register(r chi.Router) {
	r.Get("/permit-types", h.HandleListPermitTypes)
	r.Route("/permits", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleListMine)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/documents", h.HandleAddDocument)
		r.Post("/{id}/payments", h.HandleRecordPayment)
		r.Post("/{id}/images", h.HandleAddImage)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.logger))
		r.Get("/permits", h.HandleListAll)
		r.Patch("/permits/{id}/status", h.HandleSetStatus)
		r.Patch("/documents/{id}", h.HandleReviewDocument)
		r.Patch("/payments/{id}", h.HandleSetPaymentStatus)
	})
}

// savedResponse is returned by create and update. Failed lists subtype
// categories that were not written in best-effort mode.
type savedResponse struct {
	Permit  *models.Permit `json:"permit"`
	Warning string         `json:"warning,omitempty"`
	Failed  []string       `json:"failed,omitempty"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, ok := requestcontext.CurrentUser(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[PermitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	permit, err := h.permits.Create(ctx, req.Input(userID))
	h.writeSaved(w, r, http.StatusCreated, permit, err)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PermitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	permit, err := h.permits.Update(ctx, id, req.Input(requestcontext.UserID(ctx)))
	h.writeSaved(w, r, http.StatusOK, permit, err)
}

func (h *Handler) writeSaved(w http.ResponseWriter, r *http.Request, okStatus int, permit *models.Permit, err error) {
	if err == nil {
		httputil.WriteJSON(w, okStatus, savedResponse{Permit: permit})
		return
	}
	if pw, partial := dErrors.AsPartialWrite(err); partial && permit != nil {
		h.logger.WarnContext(r.Context(), "permit saved with missing subtype records",
			"permit_id", permit.ID,
			"failed", pw.Categories(),
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteJSON(w, http.StatusMultiStatus, savedResponse{
			Permit:  permit,
			Warning: dErrors.MessageOf(err),
			Failed:  pw.Categories(),
		})
		return
	}
	h.fail(r.Context(), w, "failed to save permit", err)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	view, err := h.permits.GetByID(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, "failed to load permit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.permits.Delete(r.Context(), id); err != nil {
		h.fail(r.Context(), w, "failed to delete permit", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.permits.ListForUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to list permits", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"permits": list})
}

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.permits.ListAll(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "failed to list permits", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"permits": list})
}

func (h *Handler) HandleListPermitTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.permits.ListPermitTypes(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "failed to list permit types", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"permit_types": types})
}

func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[StatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.status.SetStatus(ctx, id, req.parsedStatus, req.AdminComment)
	if err != nil {
		h.fail(ctx, w, "failed to update permit status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleAddDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DocumentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	doc, err := h.permits.AddDocument(ctx, id, req.FilePath)
	if err != nil {
		h.fail(ctx, w, "failed to add document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) HandleReviewDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	doc, err := h.permits.ReviewDocument(ctx, id, models.DocumentStatus(req.Status), req.RejectionReason)
	if err != nil {
		h.fail(ctx, w, "failed to review document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) HandleRecordPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PaymentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	payment, err := h.permits.RecordPayment(ctx, id, service.PaymentInput{
		Amount:    req.Amount,
		Method:    req.PaymentMethod,
		Reference: req.PaymentReference,
	})
	if err != nil {
		h.fail(ctx, w, "failed to record payment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, payment)
}

func (h *Handler) HandleSetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PaymentStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	payment, err := h.permits.SetPaymentStatus(ctx, id, models.PaymentStatus(req.PaymentStatus))
	if err != nil {
		h.fail(ctx, w, "failed to update payment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payment)
}

func (h *Handler) HandleAddImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ImageRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	img, err := h.permits.AddImage(ctx, id, service.ImageInput{
		FileName:  req.FileName,
		FilePath:  req.FilePath,
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
	})
	if err != nil {
		h.fail(ctx, w, "failed to add image", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, img)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// fail logs server-side failures at error level and caller mistakes at warn.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
