package status

//go:generate mockgen -source=controller.go -destination=mocks/mocks.go -package=mocks Queue,AuditPublisher,EventPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"permitflow/internal/audit"
	"permitflow/internal/events"
	notifmodels "permitflow/internal/notification/models"
	"permitflow/internal/permit/models"
	"permitflow/internal/permit/status/mocks"
	"permitflow/internal/permit/store"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/requestcontext"
)

type ControllerSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	client     *store.InMemoryClient
	queue      *mocks.MockQueue
	audit      *mocks.MockAuditPublisher
	events     *mocks.MockEventPublisher
	controller *Controller
	admin      uuid.UUID
	applicant  uuid.UUID
	now        time.Time
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client = store.NewInMemory()
	s.queue = mocks.NewMockQueue(s.ctrl)
	s.audit = mocks.NewMockAuditPublisher(s.ctrl)
	s.events = mocks.NewMockEventPublisher(s.ctrl)
	s.admin = uuid.New()
	s.applicant = uuid.New()
	s.now = time.Date(2025, 3, 2, 14, 0, 0, 0, time.UTC)
	s.controller = New(s.client, s.queue,
		WithAuditPublisher(s.audit),
		WithEventPublisher(s.events),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (s *ControllerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ControllerSuite) adminCtx() context.Context {
	ctx := requestcontext.WithActor(context.Background(), s.admin, requestcontext.RoleAdmin)
	return requestcontext.WithTime(ctx, s.now)
}

func (s *ControllerSuite) seed(status models.Status, comment *string) uuid.UUID {
	id := uuid.New()
	_, err := s.client.Insert(context.Background(), store.TablePermits, store.PermitRow(&models.Permit{
		ID:           id,
		ApplicantID:  s.applicant,
		Status:       status,
		AdminComment: comment,
		CreatedAt:    s.now.Add(-time.Hour),
		UpdatedAt:    s.now.Add(-time.Hour),
	}))
	s.Require().NoError(err)
	return id
}

func (s *ControllerSuite) stored(id uuid.UUID) *models.Permit {
	row, err := s.client.SelectOne(context.Background(), store.TablePermits, store.Filter{"id": id})
	s.Require().NoError(err)
	return store.ToPermit(row)
}

func (s *ControllerSuite) allowSideEffects() {
	s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	s.events.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func ptr(s string) *string { return &s }

// =============================================================================
// Persistence
// =============================================================================

func (s *ControllerSuite) TestNonTerminalTransitionSchedulesNothing() {
	id := s.seed(models.StatusPending, nil)
	s.allowSideEffects()
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Times(0)

	res, err := s.controller.SetStatus(s.adminCtx(), id, models.StatusUnderReview, ptr("  checking lot plan "))
	s.Require().NoError(err)
	s.Empty(res.Warning)
	s.Nil(res.JobID)
	s.Equal(models.StatusPending, res.Previous)

	p := s.stored(id)
	s.Equal(models.StatusUnderReview, p.Status)
	s.Require().NotNil(p.AdminComment)
	s.Equal("checking lot plan", *p.AdminComment)
	s.Equal(s.now, p.UpdatedAt)
}

func (s *ControllerSuite) TestOmittedCommentClearsStoredOne() {
	id := s.seed(models.StatusUnderReview, ptr("old note"))
	s.allowSideEffects()

	_, err := s.controller.SetStatus(s.adminCtx(), id, models.StatusPending, nil)
	s.Require().NoError(err)
	s.Nil(s.stored(id).AdminComment)
}

func (s *ControllerSuite) TestRejectsBadInput() {
	id := s.seed(models.StatusPending, nil)

	s.Run("citizen", func() {
		ctx := requestcontext.WithActor(context.Background(), s.applicant, requestcontext.RoleCitizen)
		_, err := s.controller.SetStatus(ctx, id, models.StatusApproved, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown status", func() {
		_, err := s.controller.SetStatus(s.adminCtx(), id, models.Status("archived"), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing permit", func() {
		_, err := s.controller.SetStatus(s.adminCtx(), uuid.New(), models.StatusApproved, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Equal(models.StatusPending, s.stored(id).Status)
}

// =============================================================================
// Dispatch scheduling
// =============================================================================

func (s *ControllerSuite) TestApprovalEnqueuesKnownState() {
	id := s.seed(models.StatusUnderReview, nil)
	s.allowSideEffects()

	var got notifmodels.Job
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, job notifmodels.Job) error {
		got = job
		return nil
	})

	res, err := s.controller.SetStatus(s.adminCtx(), id, models.StatusApproved, nil)
	s.Require().NoError(err)
	s.Require().NotNil(res.JobID)
	s.Equal(*res.JobID, got.ID)
	s.Equal(id, got.PermitID)
	s.Equal(models.StatusApproved, got.Outcome)
	s.Equal(s.admin, got.ActorID)
	s.Equal(s.now, got.RequestedAt)
	s.Empty(got.AdminComment)
}

func (s *ControllerSuite) TestRejectionCarriesComment() {
	id := s.seed(models.StatusUnderReview, nil)
	s.allowSideEffects()

	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, job notifmodels.Job) error {
		s.Equal(models.StatusRejected, job.Outcome)
		s.Equal("missing fire safety certificate", job.AdminComment)
		return nil
	})

	_, err := s.controller.SetStatus(s.adminCtx(), id, models.StatusRejected, ptr("missing fire safety certificate"))
	s.Require().NoError(err)
}

func (s *ControllerSuite) TestReentrantTransitionWarns() {
	id := s.seed(models.StatusApproved, nil)
	s.allowSideEffects()
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

	res, err := s.controller.SetStatus(s.adminCtx(), id, models.StatusApproved, nil)
	s.Require().NoError(err)
	s.Equal("permit is already approved", res.Warning)
}

func (s *ControllerSuite) TestLeavingTerminalWarns() {
	id := s.seed(models.StatusRejected, nil)
	s.allowSideEffects()

	res, err := s.controller.SetStatus(s.adminCtx(), id, models.StatusUnderReview, nil)
	s.Require().NoError(err)
	s.Contains(res.Warning, "already rejected")
	s.Equal(models.StatusUnderReview, s.stored(id).Status)
}

// =============================================================================
// Side effects never fail the change
// =============================================================================

func (s *ControllerSuite) TestSideEffectFailuresAreAbsorbed() {
	id := s.seed(models.StatusUnderReview, nil)
	s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(models.AuditActionStatusChanged, e.Action)
		s.Equal("under_review -> approved", e.Note)
		return errors.New("audit store down")
	})
	s.events.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e events.StatusChanged) error {
		s.Equal(s.applicant, e.ApplicantID)
		s.Equal(models.StatusUnderReview, e.From)
		return events.ErrCircuitOpen
	})
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("redis unavailable"))

	res, err := s.controller.SetStatus(s.adminCtx(), id, models.StatusApproved, nil)
	s.Require().NoError(err)
	s.Nil(res.JobID)
	s.Equal(models.StatusApproved, s.stored(id).Status)
}
