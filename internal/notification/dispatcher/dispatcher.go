// Package dispatcher announces terminal permit outcomes to applicants.
//
// A dispatch job carries the status the controller already wrote. The
// dispatcher waits a grace period, then re-reads the permit until the read
// reflects that status or the retry budget runs out. A ledger claim on the
// job id limits every status transition to one notification attempt even
// when the queue redelivers.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"permitflow/internal/notification/models"
	permitmodels "permitflow/internal/permit/models"
	"permitflow/internal/platform/metrics"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/requestcontext"
)

// PermitReader loads the assembled permit view without access checks.
type PermitReader interface {
	Load(ctx context.Context, permitID uuid.UUID) (*permitmodels.PermitView, error)
}

// Sender is the notification collaborator.
type Sender interface {
	Send(ctx context.Context, msg models.Message) (*models.Notification, error)
}

// QRResolver returns the payment QR asset URL for a permit.
type QRResolver interface {
	Resolve(ctx context.Context, permitID uuid.UUID) (string, error)
}

// Ledger records which jobs have been attempted. Claim returns false when
// jobID was claimed before.
type Ledger interface {
	Claim(ctx context.Context, jobID uuid.UUID) (bool, error)
}

// Config bounds the read-back loop.
type Config struct {
	GracePeriod  time.Duration
	RetryBackoff time.Duration
	MaxAttempts  int
}

// DefaultConfig waits one second and reads at most three times.
func DefaultConfig() Config {
	return Config{
		GracePeriod:  time.Second,
		RetryBackoff: time.Second,
		MaxAttempts:  3,
	}
}

type Dispatcher struct {
	reader  PermitReader
	sender  Sender
	ledger  Ledger
	qr      QRResolver
	cfg     Config
	sleep   func(ctx context.Context, d time.Duration) error
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Dispatcher)

func WithQRResolver(qr QRResolver) Option {
	return func(d *Dispatcher) {
		d.qr = qr
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithSleep replaces the timer used for the grace period and backoff.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Dispatcher) {
		d.sleep = sleep
	}
}

func New(reader PermitReader, sender Sender, ledger Ledger, cfg Config, opts ...Option) *Dispatcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	d := &Dispatcher{
		reader: reader,
		sender: sender,
		ledger: ledger,
		cfg:    cfg,
		sleep:  sleepCtx,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends the outcome notification for job. A job that was already
// claimed is skipped. The returned error is for the worker's log; nothing
// is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, job models.Job) error {
	if !job.Outcome.IsTerminal() {
		return dErrors.New(dErrors.CodeBadRequest, "dispatch requires a terminal outcome, got "+string(job.Outcome))
	}
	log := d.logger.With("permit_id", job.PermitID, "job_id", job.ID, "outcome", job.Outcome)

	claimed, err := d.ledger.Claim(ctx, job.ID)
	if err != nil {
		d.metrics.IncrementDispatchFailure("ledger")
		return dErrors.Wrap(err, dErrors.CodeNotificationSend, "failed to claim dispatch job")
	}
	if !claimed {
		log.InfoContext(ctx, "dispatch job already attempted")
		return nil
	}

	ctx = requestcontext.WithActor(ctx, job.ActorID, requestcontext.RoleAdmin)
	view, err := d.readBack(ctx, log, job)
	if err != nil {
		d.metrics.IncrementDispatchFailure("read")
		log.ErrorContext(ctx, "could not read permit for notification", "error", err)
		return dErrors.Wrap(err, dErrors.CodeNotificationSend, "failed to read permit for notification")
	}
	if view.ApplicantID == uuid.Nil {
		d.metrics.IncrementDispatchFailure("no_applicant")
		log.WarnContext(ctx, "permit has no applicant, skipping notification")
		return nil
	}

	msg := d.compose(ctx, log, job, view)
	if _, err := d.sender.Send(ctx, msg); err != nil {
		reason := string(dErrors.CodeOf(err))
		d.metrics.IncrementDispatchFailure(reason)
		log.ErrorContext(ctx, "failed to send outcome notification",
			"user_id", view.ApplicantID,
			"type", msg.Type,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeNotificationSend, "failed to send outcome notification")
	}
	log.InfoContext(ctx, "outcome notification sent", "user_id", view.ApplicantID, "type", msg.Type)
	return nil
}

// readBack waits out the grace period and reads until the permit shows the
// job's outcome. When the budget runs out it returns the last successful
// read; it fails only if no read succeeded.
func (d *Dispatcher) readBack(ctx context.Context, log *slog.Logger, job models.Job) (*permitmodels.PermitView, error) {
	if err := d.sleep(ctx, d.cfg.GracePeriod); err != nil {
		return nil, err
	}
	var (
		best    *permitmodels.PermitView
		lastErr error
	)
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := d.sleep(ctx, d.cfg.RetryBackoff); err != nil {
				return nil, err
			}
		}
		view, err := d.reader.Load(ctx, job.PermitID)
		switch {
		case err != nil:
			lastErr = err
		case view.Status == job.Outcome:
			return view, nil
		default:
			best = view
			lastErr = dErrors.New(dErrors.CodeReadLag, fmt.Sprintf("read shows %s, expected %s", view.Status, job.Outcome))
		}
		d.metrics.IncrementReadLagRetry()
		log.WarnContext(ctx, "permit read does not reflect outcome yet",
			"attempt", attempt,
			"max_attempts", d.cfg.MaxAttempts,
			"error", lastErr,
		)
	}
	if best == nil {
		return nil, lastErr
	}
	log.WarnContext(ctx, "retry budget exhausted, notifying from last read", "read_status", best.Status)
	return best, nil
}

// compose classifies by the job's outcome rather than the read status so
// a stale read cannot turn an approval into a different message.
func (d *Dispatcher) compose(ctx context.Context, log *slog.Logger, job models.Job, view *permitmodels.PermitView) models.Message {
	permitID := view.ID
	msg := models.Message{UserID: view.ApplicantID, PermitID: &permitID}
	name := "Permit"
	if view.PermitType != nil {
		name = view.PermitType.DisplayName()
	}

	if job.Outcome == permitmodels.StatusRejected {
		msg.Type = models.TypeApplicationRejected
		msg.Title = "Application Rejected"
		msg.Message = fmt.Sprintf("Your %s application was not approved.", name)
		if reason := rejectionReason(job, view); reason != "" {
			msg.Message += " Reason: " + reason
		}
		return msg
	}

	msg.QRCodeURL = d.resolveQR(ctx, log, view.ID)
	if view.HasCompletedPayment() {
		msg.Type = models.TypePermitReady
		msg.Title = "Permit Ready"
		msg.Message = fmt.Sprintf("Your %s has been approved and is ready to receive. Present the QR code when you claim it.", name)
		return msg
	}
	msg.Type = models.TypePaymentRequired
	msg.Title = "Payment Required"
	msg.Message = fmt.Sprintf("Your %s has been approved. Scan the QR code to pay the permit fee before release.", name)
	if pending := view.PendingPayment(); pending != nil {
		msg.Message += fmt.Sprintf(" Amount due: PHP %.2f.", pending.Amount)
	}
	return msg
}

func (d *Dispatcher) resolveQR(ctx context.Context, log *slog.Logger, permitID uuid.UUID) string {
	if d.qr == nil {
		return ""
	}
	url, err := d.qr.Resolve(ctx, permitID)
	if err != nil {
		d.metrics.IncrementDispatchFailure("qr")
		log.WarnContext(ctx, "failed to resolve payment QR, sending without it", "error", err)
		return ""
	}
	return url
}

func rejectionReason(job models.Job, view *permitmodels.PermitView) string {
	if reason := strings.TrimSpace(job.AdminComment); reason != "" {
		return reason
	}
	if view.AdminComment != nil {
		return strings.TrimSpace(*view.AdminComment)
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
