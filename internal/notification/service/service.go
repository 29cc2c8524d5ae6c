package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"permitflow/internal/notification/models"
	"permitflow/internal/permit/store"
	"permitflow/internal/platform/metrics"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/platform/sentinel"
	"permitflow/pkg/requestcontext"
)

// Service stores in-app notifications. Senders act under their own
// identity, so an unauthenticated context cannot send.
type Service struct {
	client  store.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(client store.Client, opts ...Option) *Service {
	s := &Service{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers msg to its recipient. It fails with permission denied when
// ctx carries no verified sender.
func (s *Service) Send(ctx context.Context, msg models.Message) (*models.Notification, error) {
	if _, ok := requestcontext.CurrentUser(ctx); !ok {
		return nil, dErrors.New(dErrors.CodePermissionDenied, "sender session could not be verified")
	}
	if msg.UserID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	title, body := strings.TrimSpace(msg.Title), strings.TrimSpace(msg.Message)
	if title == "" || body == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title and message are required")
	}
	if msg.Type == "" {
		msg.Type = models.TypeGeneral
	}
	if !msg.Type.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid notification type: "+string(msg.Type))
	}

	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    msg.UserID,
		PermitID:  msg.PermitID,
		Title:     title,
		Message:   body,
		Type:      msg.Type,
		CreatedAt: requestcontext.Now(ctx),
	}
	if qr := strings.TrimSpace(msg.QRCodeURL); qr != "" {
		n.GcashQRCodeURL = &qr
	}
	if _, err := s.client.Insert(ctx, store.TableNotifications, notificationRow(n)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save notification")
	}
	s.metrics.IncrementNotificationSent(string(n.Type))
	s.logger.InfoContext(ctx, "notification sent",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"type", n.Type,
		"request_id", requestcontext.RequestID(ctx),
	)
	return n, nil
}

// ListForUser returns userID's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	rows, err := s.client.SelectMany(ctx, store.TableNotifications, store.Filter{"user_id": userID}, store.Newest)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	out := make([]*models.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, toNotification(row))
	}
	return out, nil
}

// ListForPermit returns the notifications sent about permitID, newest first.
func (s *Service) ListForPermit(ctx context.Context, permitID uuid.UUID) ([]*models.Notification, error) {
	rows, err := s.client.SelectMany(ctx, store.TableNotifications, store.Filter{"permit_id": permitID}, store.Newest)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	out := make([]*models.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, toNotification(row))
	}
	return out, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *Service) MarkRead(ctx context.Context, notificationID uuid.UUID) (*models.Notification, error) {
	userID, ok := requestcontext.CurrentUser(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	row, err := s.client.Update(ctx, store.TableNotifications,
		store.Filter{"id": notificationID, "user_id": userID},
		store.Row{"is_read": true},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update notification")
	}
	return toNotification(row), nil
}

func notificationRow(n *models.Notification) store.Row {
	return store.Row{
		"id":                n.ID,
		"user_id":           n.UserID,
		"permit_id":         n.PermitID,
		"title":             n.Title,
		"message":           n.Message,
		"type":              string(n.Type),
		"is_read":           n.IsRead,
		"gcash_qr_code_url": n.GcashQRCodeURL,
		"created_at":        n.CreatedAt,
	}
}

func toNotification(r store.Row) *models.Notification {
	return &models.Notification{
		ID:             r.UUID("id"),
		UserID:         r.UUID("user_id"),
		PermitID:       r.UUIDPtr("permit_id"),
		Title:          r.String("title"),
		Message:        r.String("message"),
		Type:           models.Type(r.String("type")),
		IsRead:         r.Bool("is_read"),
		GcashQRCodeURL: r.StringPtr("gcash_qr_code_url"),
		CreatedAt:      r.Time("created_at"),
	}
}
