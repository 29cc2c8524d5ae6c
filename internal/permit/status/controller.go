// Package status persists permit status changes and schedules the outcome
// notification for terminal ones.
//
// The write is synchronous and its failure is the caller's failure. Every
// side effect after it (audit, event, dispatch job) is best-effort: a
// failure is logged and counted but never undoes or fails the status change.
package status

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"permitflow/internal/audit"
	"permitflow/internal/events"
	notifmodels "permitflow/internal/notification/models"
	"permitflow/internal/permit/models"
	"permitflow/internal/permit/store"
	"permitflow/internal/platform/metrics"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/platform/sentinel"
	"permitflow/pkg/requestcontext"
)

// Queue accepts dispatch jobs for background delivery.
type Queue interface {
	Enqueue(ctx context.Context, job notifmodels.Job) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, event events.StatusChanged) error
}

// Result is the outcome of a status change. Warning is set for transitions
// that were persisted but look like mistakes.
type Result struct {
	Permit   *models.Permit `json:"permit"`
	Warning  string         `json:"warning,omitempty"`
	JobID    *uuid.UUID     `json:"dispatch_job_id,omitempty"`
	Previous models.Status  `json:"previous_status"`
}

type Controller struct {
	client  store.Client
	queue   Queue
	audit   AuditPublisher
	events  EventPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Controller)

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *Controller) {
		c.audit = publisher
	}
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(c *Controller) {
		c.events = publisher
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

func New(client store.Client, queue Queue, opts ...Option) *Controller {
	c := &Controller{
		client: client,
		queue:  queue,
		events: events.Noop{},
		logger: slog.Default(),
		tracer: otel.Tracer("permitflow/status"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetStatus moves a permit to next and records adminComment. An omitted or
// blank comment clears the stored one.
//
// Approved and rejected schedule exactly one dispatch job carrying the new
// state; the caller never waits on the notification.
func (c *Controller) SetStatus(ctx context.Context, permitID uuid.UUID, next models.Status, adminComment *string) (_ *Result, err error) {
	ctx, span := c.tracer.Start(ctx, "permit.SetStatus", trace.WithAttributes(
		attribute.String("permit.id", permitID.String()),
		attribute.String("permit.status", string(next)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
	}()
	defer c.metrics.ObserveOperation("set_status", time.Now())

	if !requestcontext.IsAdmin(ctx) {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	if !next.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid status: "+string(next))
	}
	row, err := c.client.SelectOne(ctx, store.TablePermits, store.Filter{"id": permitID})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "permit not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load permit")
	}
	current := store.ToPermit(row)

	comment := cleanComment(adminComment)
	now := requestcontext.Now(ctx)
	row, err = c.client.Update(ctx, store.TablePermits, store.Filter{"id": permitID}, store.Row{
		"status":        string(next),
		"admin_comment": comment,
		"updated_at":    now,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "permit not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update permit status")
	}
	updated := store.ToPermit(row)
	res := &Result{Permit: updated, Previous: current.Status, Warning: current.Status.TransitionWarning(next)}
	if res.Warning != "" {
		c.logger.WarnContext(ctx, "unusual status transition",
			"permit_id", permitID,
			"from", current.Status,
			"to", next,
			"warning", res.Warning,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	c.metrics.IncrementStatusTransition(string(next))

	actor := requestcontext.UserID(ctx)
	c.recordAudit(ctx, permitID, current.Status, next, comment)
	c.publish(ctx, events.StatusChanged{
		PermitID:     permitID,
		ApplicantID:  updated.ApplicantID,
		From:         current.Status,
		To:           next,
		AdminComment: comment,
		ActorID:      actor,
		OccurredAt:   now,
	})

	if next.IsTerminal() {
		job := notifmodels.Job{
			ID:          uuid.New(),
			PermitID:    permitID,
			Outcome:     next,
			ActorID:     actor,
			RequestedAt: now,
		}
		if comment != nil {
			job.AdminComment = *comment
		}
		if err := c.queue.Enqueue(ctx, job); err != nil {
			c.metrics.IncrementDispatchFailure("enqueue")
			c.logger.ErrorContext(ctx, "failed to schedule outcome notification",
				"permit_id", permitID,
				"job_id", job.ID,
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		} else {
			res.JobID = &job.ID
		}
	}
	return res, nil
}

func (c *Controller) recordAudit(ctx context.Context, permitID uuid.UUID, from, to models.Status, comment *string) {
	if c.audit == nil {
		return
	}
	note := string(from) + " -> " + string(to)
	if comment != nil {
		note += ": " + *comment
	}
	if err := c.audit.Emit(ctx, audit.Event{PermitID: permitID, Action: models.AuditActionStatusChanged, Note: note}); err != nil {
		c.logger.WarnContext(ctx, "failed to append audit entry",
			"permit_id", permitID,
			"action", models.AuditActionStatusChanged,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func (c *Controller) publish(ctx context.Context, event events.StatusChanged) {
	if err := c.events.PublishStatusChanged(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "failed to publish status event",
			"permit_id", event.PermitID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func cleanComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
