package dispatcher

//go:generate mockgen -source=dispatcher.go -destination=mocks/mocks.go -package=mocks

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

	"permitflow/internal/notification/dispatcher/mocks"
	"permitflow/internal/notification/models"
	permitmodels "permitflow/internal/permit/models"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/requestcontext"
)

type DispatcherSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	reader     *mocks.MockPermitReader
	sender     *mocks.MockSender
	qr         *mocks.MockQRResolver
	ledger     *mocks.MockLedger
	dispatcher *Dispatcher
	slept      []time.Duration
	applicant  uuid.UUID
	admin      uuid.UUID
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.reader = mocks.NewMockPermitReader(s.ctrl)
	s.sender = mocks.NewMockSender(s.ctrl)
	s.qr = mocks.NewMockQRResolver(s.ctrl)
	s.ledger = mocks.NewMockLedger(s.ctrl)
	s.slept = nil
	s.applicant = uuid.New()
	s.admin = uuid.New()
	s.dispatcher = New(s.reader, s.sender, s.ledger,
		Config{GracePeriod: time.Second, RetryBackoff: 2 * time.Second, MaxAttempts: 3},
		WithQRResolver(s.qr),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSleep(func(_ context.Context, d time.Duration) error {
			s.slept = append(s.slept, d)
			return nil
		}),
	)
}

func (s *DispatcherSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *DispatcherSuite) job(outcome permitmodels.Status, comment string) models.Job {
	return models.Job{
		ID:           uuid.New(),
		PermitID:     uuid.New(),
		Outcome:      outcome,
		AdminComment: comment,
		ActorID:      s.admin,
		RequestedAt:  time.Date(2025, 3, 2, 14, 0, 0, 0, time.UTC),
	}
}

func (s *DispatcherSuite) view(job models.Job, status permitmodels.Status, payments ...*permitmodels.Payment) *permitmodels.PermitView {
	return &permitmodels.PermitView{
		Permit: permitmodels.Permit{
			ID:          job.PermitID,
			ApplicantID: s.applicant,
			Status:      status,
		},
		PermitType: &permitmodels.PermitType{Title: "Motorela", Kind: permitmodels.KindMotorela},
		Payments:   payments,
	}
}

func (s *DispatcherSuite) claim(job models.Job) {
	s.ledger.EXPECT().Claim(gomock.Any(), job.ID).Return(true, nil)
}

// =============================================================================
// Classification
// =============================================================================

func (s *DispatcherSuite) TestPaidApprovalIsPermitReady() {
	job := s.job(permitmodels.StatusApproved, "")
	s.claim(job)
	s.reader.EXPECT().Load(gomock.Any(), job.PermitID).Return(s.view(job, permitmodels.StatusApproved,
		&permitmodels.Payment{PaymentStatus: permitmodels.PaymentCompleted, Amount: 350},
	), nil)
	s.qr.EXPECT().Resolve(gomock.Any(), job.PermitID).Return("https://cdn.example.com/gcash.png", nil)
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, msg models.Message) (*models.Notification, error) {
		actor, ok := requestcontext.CurrentUser(ctx)
		s.True(ok)
		s.Equal(s.admin, actor)
		s.Equal(s.applicant, msg.UserID)
		s.Equal(job.PermitID, *msg.PermitID)
		s.Equal(models.TypePermitReady, msg.Type)
		s.Equal("Permit Ready", msg.Title)
		s.Contains(msg.Message, "Motorela Permit")
		s.Contains(msg.Message, "ready to receive")
		s.Equal("https://cdn.example.com/gcash.png", msg.QRCodeURL)
		return &models.Notification{}, nil
	})

	s.Require().NoError(s.dispatcher.Dispatch(context.Background(), job))
	s.Equal([]time.Duration{time.Second}, s.slept)
}

func (s *DispatcherSuite) TestUnpaidApprovalIsPaymentRequired() {
	job := s.job(permitmodels.StatusApproved, "")
	s.claim(job)
	s.reader.EXPECT().Load(gomock.Any(), job.PermitID).Return(s.view(job, permitmodels.StatusApproved,
		&permitmodels.Payment{PaymentStatus: permitmodels.PaymentPending, Amount: 350},
		&permitmodels.Payment{PaymentStatus: permitmodels.PaymentFailed, Amount: 350},
	), nil)
	s.qr.EXPECT().Resolve(gomock.Any(), job.PermitID).Return("https://cdn.example.com/gcash.png", nil)
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg models.Message) (*models.Notification, error) {
		s.Equal(models.TypePaymentRequired, msg.Type)
		s.Contains(msg.Message, "PHP 350.00")
		s.Equal("https://cdn.example.com/gcash.png", msg.QRCodeURL)
		return &models.Notification{}, nil
	})

	s.Require().NoError(s.dispatcher.Dispatch(context.Background(), job))
}

func (s *DispatcherSuite) TestRejectionEmbedsComment() {
	s.Run("comment from the job", func() {
		job := s.job(permitmodels.StatusRejected, "Plate number does not match OR/CR")
		s.claim(job)
		s.reader.EXPECT().Load(gomock.Any(), job.PermitID).Return(s.view(job, permitmodels.StatusRejected), nil)
		s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg models.Message) (*models.Notification, error) {
			s.Equal(models.TypeApplicationRejected, msg.Type)
			s.Contains(msg.Message, "Reason: Plate number does not match OR/CR")
			s.Empty(msg.QRCodeURL)
			return &models.Notification{}, nil
		})
		s.Require().NoError(s.dispatcher.Dispatch(context.Background(), job))
	})

	s.Run("no comment", func() {
		job := s.job(permitmodels.StatusRejected, "")
		s.claim(job)
		s.reader.EXPECT().Load(gomock.Any(), job.PermitID).Return(s.view(job, permitmodels.StatusRejected), nil)
		s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg models.Message) (*models.Notification, error) {
			s.NotContains(msg.Message, "Reason:")
			return &models.Notification{}, nil
		})
		s.Require().NoError(s.dispatcher.Dispatch(context.Background(), job))
	})
}

func (s *DispatcherSuite) TestQRFailureStillNotifies() {
	job := s.job(permitmodels.StatusApproved, "")
	s.claim(job)
	s.reader.EXPECT().Load(gomock.Any(), job.PermitID).Return(s.view(job, permitmodels.StatusApproved), nil)
	s.qr.EXPECT().Resolve(gomock.Any(), job.PermitID).Return("", errors.New("presign failed"))
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg models.Message) (*models.Notification, error) {
		s.Equal(models.TypePaymentRequired, msg.Type)
		s.Empty(msg.QRCodeURL)
		return &models.Notification{}, nil
	})

	s.Require().NoError(s.dispatcher.Dispatch(context.Background(), job))
}

// =============================================================================
// Read-back
// =============================================================================

func (s *DispatcherSuite) TestRetriesUntilReadReflectsOutcome() {
	job := s.job(permitmodels.StatusApproved, "")
	s.claim(job)
	gomock.InOrder(
		s.reader.EXPECT().Load(gomock.Any(), job.PermitID).Return(nil, dErrors.New(dErrors.CodeNotFound, "permit not found")),
		s.reader.EXPECT().Load(gomock.Any(), job.PermitID).Return(s.view(job, permitmodels.StatusUnderReview), nil),
		s.reader.EXPECT().Load(gomock.Any(), job.PermitID).Return(s.view(job, permitmodels.StatusApproved,
			&permitmodels.Payment{PaymentStatus: permitmodels.PaymentCompleted},
		), nil),
	)
	s.qr.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return("", nil)
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg models.Message) (*models.Notification, error) {
		s.Equal(models.TypePermitReady, msg.Type)
		return &models.Notification{}, nil
	}).Times(1)

	s.Require().NoError(s.dispatcher.Dispatch(context.Background(), job))
	s.Equal([]time.Duration{time.Second, 2 * time.Second, 2 * time.Second}, s.slept)
}

func (s *DispatcherSuite) TestExhaustedBudgetNotifiesFromLastRead() {
	job := s.job(permitmodels.StatusApproved, "")
	s.claim(job)
	s.reader.EXPECT().Load(gomock.Any(), job.PermitID).Return(s.view(job, permitmodels.StatusUnderReview), nil).Times(3)
	s.qr.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return("", nil)
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg models.Message) (*models.Notification, error) {
		s.Equal(models.TypePaymentRequired, msg.Type)
		return &models.Notification{}, nil
	})

	s.Require().NoError(s.dispatcher.Dispatch(context.Background(), job))
}

func (s *DispatcherSuite) TestNoSuccessfulReadFails() {
	job := s.job(permitmodels.StatusApproved, "")
	s.claim(job)
	s.reader.EXPECT().Load(gomock.Any(), job.PermitID).Return(nil, errors.New("connection refused")).Times(3)
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	err := s.dispatcher.Dispatch(context.Background(), job)
	s.True(dErrors.HasCode(err, dErrors.CodeNotificationSend))
}

func (s *DispatcherSuite) TestCancelledDuringGracePeriod() {
	d := New(s.reader, s.sender, s.ledger, Config{GracePeriod: time.Hour, MaxAttempts: 3})
	job := s.job(permitmodels.StatusApproved, "")
	s.claim(job)
	s.reader.EXPECT().Load(gomock.Any(), gomock.Any()).Times(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Dispatch(ctx, job)
	s.ErrorIs(err, context.Canceled)
}

// =============================================================================
// One attempt per transition
// =============================================================================

func (s *DispatcherSuite) TestAlreadyClaimedJobIsSkipped() {
	job := s.job(permitmodels.StatusApproved, "")
	s.ledger.EXPECT().Claim(gomock.Any(), job.ID).Return(false, nil)
	s.reader.EXPECT().Load(gomock.Any(), gomock.Any()).Times(0)
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	s.Require().NoError(s.dispatcher.Dispatch(context.Background(), job))
	s.Empty(s.slept)
}

func (s *DispatcherSuite) TestLedgerFailureSendsNothing() {
	job := s.job(permitmodels.StatusApproved, "")
	s.ledger.EXPECT().Claim(gomock.Any(), job.ID).Return(false, errors.New("redis down"))
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	err := s.dispatcher.Dispatch(context.Background(), job)
	s.True(dErrors.HasCode(err, dErrors.CodeNotificationSend))
}

func (s *DispatcherSuite) TestSenderFailureIsNotRetried() {
	job := s.job(permitmodels.StatusRejected, "")
	s.claim(job)
	s.reader.EXPECT().Load(gomock.Any(), job.PermitID).Return(s.view(job, permitmodels.StatusRejected), nil)
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodePermissionDenied, "sender session could not be verified")).
		Times(1)

	err := s.dispatcher.Dispatch(context.Background(), job)
	s.True(dErrors.HasCode(err, dErrors.CodeNotificationSend))
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
}

func (s *DispatcherSuite) TestMissingApplicantIsNoop() {
	job := s.job(permitmodels.StatusApproved, "")
	s.claim(job)
	v := s.view(job, permitmodels.StatusApproved)
	v.ApplicantID = uuid.Nil
	s.reader.EXPECT().Load(gomock.Any(), job.PermitID).Return(v, nil)
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	s.Require().NoError(s.dispatcher.Dispatch(context.Background(), job))
}

func (s *DispatcherSuite) TestNonTerminalOutcomeRejected() {
	job := s.job(permitmodels.StatusUnderReview, "")
	err := s.dispatcher.Dispatch(context.Background(), job)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
