package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"permitflow/internal/audit"
	"permitflow/internal/permit/models"
	"permitflow/internal/permit/store"
	"permitflow/internal/permit/subtype"
	"permitflow/internal/platform/metrics"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/platform/sentinel"
	"permitflow/pkg/requestcontext"
)

type Synchronizer interface {
	Validate(d models.Details) error
	Sync(ctx context.Context, permitID uuid.UUID, d models.Details) (*subtype.Result, error)
	Load(ctx context.Context, permitID uuid.UUID, kind models.Kind) (subtype.Aggregate, error)
	Mode() subtype.Mode
}

type Cascader interface {
	DeleteIf(ctx context.Context, permitID uuid.UUID, guard store.Filter) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
	List(ctx context.Context, permitID uuid.UUID) ([]*models.AuditEntry, error)
}

// Service is the permit repository. It owns the permit root record and
// composes subtype sync, cascade deletion and the side records around it.
type Service struct {
	client  store.Client
	tx      store.Transactor
	sync    Synchronizer
	cascade Cascader
	audit   AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
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

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(client store.Client, tx store.Transactor, sync Synchronizer, cascade Cascader, opts ...Option) *Service {
	s := &Service{
		client:  client,
		tx:      tx,
		sync:    sync,
		cascade: cascade,
		logger:  slog.Default(),
		tracer:  otel.Tracer("permitflow/permit"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// write runs fn in one transaction when the synchronizer is atomic.
func (s *Service) write(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.sync.Mode() == subtype.ModeAtomic {
		return s.tx.RunInTx(ctx, fn)
	}
	return fn(ctx)
}

// permit loads the root record or fails with not found.
func (s *Service) permit(ctx context.Context, permitID uuid.UUID) (*models.Permit, error) {
	row, err := s.client.SelectOne(ctx, store.TablePermits, store.Filter{"id": permitID})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "permit not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load permit")
	}
	return store.ToPermit(row), nil
}

// readable loads a permit the caller may see. Citizens only see their own
// permits; anything else looks absent to them.
func (s *Service) readable(ctx context.Context, permitID uuid.UUID) (*models.Permit, error) {
	p, err := s.permit(ctx, permitID)
	if err != nil {
		return nil, err
	}
	if requestcontext.IsAdmin(ctx) || p.OwnedBy(requestcontext.UserID(ctx)) {
		return p, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "permit not found")
}

// editable loads a permit the caller owns and may still change.
func (s *Service) editable(ctx context.Context, permitID uuid.UUID) (*models.Permit, error) {
	p, err := s.permit(ctx, permitID)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(requestcontext.UserID(ctx)) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the applicant can change this permit")
	}
	if !p.Status.Editable() {
		return nil, dErrors.New(dErrors.CodeEditNotAllowed, "permit can only be changed while pending")
	}
	return p, nil
}

func requireAdmin(ctx context.Context) error {
	if !requestcontext.IsAdmin(ctx) {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return nil
}

// logAudit appends an audit entry. Failures are logged and dropped.
func (s *Service) logAudit(ctx context.Context, permitID uuid.UUID, action, note string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Emit(ctx, audit.Event{PermitID: permitID, Action: action, Note: note})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to append audit entry",
			"permit_id", permitID,
			"action", action,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}
