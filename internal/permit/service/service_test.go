package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"permitflow/internal/audit"
	"permitflow/internal/permit/cascade"
	"permitflow/internal/permit/models"
	"permitflow/internal/permit/store"
	"permitflow/internal/permit/store/storetest"
	"permitflow/internal/permit/subtype"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	client    *store.InMemoryClient
	service   *Service
	types     map[models.Kind]uuid.UUID
	citizen   uuid.UUID
	neighbour uuid.UUID
	admin     uuid.UUID
	t0        time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.client = store.NewInMemory()
	s.service = s.newService(s.client, subtype.ModeAtomic)
	s.citizen, s.neighbour, s.admin = uuid.New(), uuid.New(), uuid.New()
	s.t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	ctx := context.Background()
	s.Require().NoError(s.service.SeedPermitTypes(ctx, DefaultPermitTypes))
	types, err := s.service.ListPermitTypes(ctx)
	s.Require().NoError(err)
	s.types = make(map[models.Kind]uuid.UUID)
	for _, t := range types {
		s.types[t.Kind] = t.ID
	}
	for id, name := range map[uuid.UUID]string{s.citizen: "Ana Reyes", s.admin: "Clerk"} {
		_, err := s.client.Insert(ctx, store.TableProfiles, store.ProfileRow(&models.Profile{ID: id, FullName: name, Role: "citizen", CreatedAt: s.t0}))
		s.Require().NoError(err)
	}
}

// newService wires the real collaborators over client; transactions always
// go through the underlying in-memory store.
func (s *ServiceSuite) newService(client store.Client, mode subtype.Mode) *Service {
	return New(client, s.client,
		subtype.New(client, s.client, subtype.WithMode(mode)),
		cascade.New(client, cascade.WithTransaction(s.client)),
		WithAuditPublisher(audit.NewPublisher(client)),
	)
}

func (s *ServiceSuite) as(userID uuid.UUID, at time.Duration) context.Context {
	role := requestcontext.RoleCitizen
	if userID == s.admin {
		role = requestcontext.RoleAdmin
	}
	ctx := requestcontext.WithActor(context.Background(), userID, role)
	return requestcontext.WithTime(ctx, s.t0.Add(at))
}

func buildingPayload() *models.BuildingPayload {
	return &models.BuildingPayload{
		ApplicationNo:  "2025-0001",
		LastName:       "Reyes",
		FirstName:      "Ana",
		OwnerAddress:   "Purok 3, Poblacion",
		Barangay:       "Poblacion",
		ScopeOfWork:    "new construction",
		UseOrCharacter: "residential",
		NumberOfUnits:  "2",
		FloorArea:      "120.5",
		EstimatedCost:  "1250000",
		InspectorName:  "Eng. Cruz",
		EngineerName:   "Eng. Dela Cruz",
		EngineerPRCNo:  "PRC-7788",
	}
}

func details(key string, payload any, extra map[string]any) json.RawMessage {
	obj := map[string]any{}
	for k, v := range extra {
		obj[k] = v
	}
	if key != "" {
		obj[key] = payload
	}
	raw, _ := json.Marshal(obj)
	return raw
}

func (s *ServiceSuite) createBuilding(at time.Duration) *models.Permit {
	p, err := s.service.Create(s.as(s.citizen, at), models.PermitInput{
		ApplicantID:  s.citizen,
		PermitTypeID: s.types[models.KindBuilding],
		Address:      "Purok 3",
		Details:      details(models.DetailsKeyBuilding, buildingPayload(), nil),
	})
	s.Require().NoError(err)
	return p
}

func (s *ServiceSuite) setStatus(permitID uuid.UUID, status models.Status) {
	_, err := s.client.Update(context.Background(), store.TablePermits, store.Filter{"id": permitID}, store.Row{"status": string(status)})
	s.Require().NoError(err)
}

func (s *ServiceSuite) count(table store.Table, permitID uuid.UUID) int {
	rows, err := s.client.SelectMany(context.Background(), table, store.Filter{"permit_id": permitID})
	s.Require().NoError(err)
	return len(rows)
}

// =============================================================================
// Create and read
// =============================================================================

func (s *ServiceSuite) TestCreateThenGetRoundTrips() {
	payload := buildingPayload()
	p, err := s.service.Create(s.as(s.citizen, 0), models.PermitInput{
		ApplicantID:  s.citizen,
		PermitTypeID: s.types[models.KindBuilding],
		Address:      "  Purok 3  ",
		Details:      details(models.DetailsKeyBuilding, payload, map[string]any{"remarks": "rush"}),
	})
	s.Require().NoError(err)
	s.Equal(models.StatusPending, p.Status)
	s.Equal("Purok 3", p.Address)
	s.JSONEq(`{"remarks":"rush"}`, string(p.Details), "subtype payload is stripped from the blob")

	view, err := s.service.GetByID(s.as(s.citizen, time.Minute), p.ID)
	s.Require().NoError(err)
	s.Require().NotNil(view.Building)
	s.Equal(*payload, *view.Building.Payload())
	s.Nil(view.Building.Construction.LotArea, "blank numeric is null, not zero")
	s.Equal("Building Permit", view.PermitType.Title)
	s.Require().NotNil(view.Applicant)
	s.Equal("Ana Reyes", view.Applicant.FullName)
	s.Nil(view.LegacyDetails)
	s.Empty(view.Documents)
	s.NotNil(view.Documents)

	s.Require().Len(view.AuditEntries, 1)
	s.Equal(models.AuditActionCreated, view.AuditEntries[0].Action)
	s.Require().NotNil(view.AuditEntries[0].Actor)
	s.Equal(s.citizen, view.AuditEntries[0].Actor.ID)

	_, err = json.Marshal(view)
	s.NoError(err, "view must encode as JSON")
}

func (s *ServiceSuite) TestCreateValidatesBeforeWriting() {
	ctx := s.as(s.citizen, 0)
	missing := buildingPayload()
	missing.EngineerName = ""
	notANumber := buildingPayload()
	notANumber.FloorArea = "NaN"
	infinite := buildingPayload()
	infinite.EstimatedCost = "Inf"

	cases := map[string]models.PermitInput{
		"missing required field": {
			PermitTypeID: s.types[models.KindBuilding],
			Details:      details(models.DetailsKeyBuilding, missing, nil),
		},
		"NaN floor area": {
			PermitTypeID: s.types[models.KindBuilding],
			Details:      details(models.DetailsKeyBuilding, notANumber, nil),
		},
		"infinite estimated cost": {
			PermitTypeID: s.types[models.KindBuilding],
			Details:      details(models.DetailsKeyBuilding, infinite, nil),
		},
		"payload for another kind": {
			PermitTypeID: s.types[models.KindBuilding],
			Details:      details(models.DetailsKeyMotorela, map[string]string{"plate_no": "X"}, nil),
		},
		"normalized kind without payload": {
			PermitTypeID: s.types[models.KindBusiness],
			Details:      details("", nil, map[string]any{"note": "later"}),
		},
		"generic kind with subtype payload": {
			PermitTypeID: s.types[models.KindGeneric],
			Details:      details(models.DetailsKeyBuilding, buildingPayload(), nil),
		},
		"unknown permit type": {
			PermitTypeID: uuid.New(),
		},
	}
	for name, in := range cases {
		s.Run(name, func() {
			in.ApplicantID = s.citizen
			_, err := s.service.Create(ctx, in)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}

	rows, err := s.client.SelectMany(ctx, store.TablePermits, nil)
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *ServiceSuite) TestCreateGenericKeepsDetailsBlob() {
	p, err := s.service.Create(s.as(s.citizen, 0), models.PermitInput{
		ApplicantID:  s.citizen,
		PermitTypeID: s.types[models.KindGeneric],
		Details:      json.RawMessage(`{"purpose":"employment"}`),
	})
	s.Require().NoError(err)

	view, err := s.service.GetByID(s.as(s.citizen, 0), p.ID)
	s.Require().NoError(err)
	s.JSONEq(`{"purpose":"employment"}`, string(view.Details))
	s.Nil(view.Building)
	s.Nil(view.LegacyDetails)
}

func (s *ServiceSuite) TestLegacyDetailsFallback() {
	ctx := s.as(s.citizen, 0)
	permitID := uuid.New()
	_, err := s.client.Insert(ctx, store.TablePermits, store.PermitRow(&models.Permit{
		ID:           permitID,
		ApplicantID:  s.citizen,
		PermitTypeID: s.types[models.KindBusiness],
		Status:       models.StatusPending,
		Details:      json.RawMessage(`{"business_permit":{"business_name":"Old Store","tax_year":2019}}`),
		CreatedAt:    s.t0,
		UpdatedAt:    s.t0,
	}))
	s.Require().NoError(err)

	view, err := s.service.GetByID(ctx, permitID)
	s.Require().NoError(err)
	s.Nil(view.Business)
	legacy, ok := view.LegacyDetails.(*models.BusinessPayload)
	s.Require().True(ok, "got %T", view.LegacyDetails)
	s.Equal(models.Field("Old Store"), legacy.BusinessName)
	s.Equal(models.Field("2019"), legacy.TaxYear)
}

func (s *ServiceSuite) TestGetByIDAccess() {
	p := s.createBuilding(0)

	s.Run("missing permit", func() {
		_, err := s.service.GetByID(s.as(s.citizen, 0), uuid.New())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("another citizen cannot see it", func() {
		_, err := s.service.GetByID(s.as(s.neighbour, 0), p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("admin can", func() {
		view, err := s.service.GetByID(s.as(s.admin, 0), p.ID)
		s.Require().NoError(err)
		s.Equal(p.ID, view.ID)
	})
}

// =============================================================================
// Update
// =============================================================================

func (s *ServiceSuite) TestUpdateResyncsInPlace() {
	p := s.createBuilding(0)
	before, err := s.service.GetByID(s.as(s.citizen, 0), p.ID)
	s.Require().NoError(err)

	payload := buildingPayload()
	payload.Barangay = "San Isidro"
	payload.FloorArea = ""
	updated, err := s.service.Update(s.as(s.citizen, time.Hour), p.ID, models.PermitInput{
		Address: "Purok 7",
		Details: details(models.DetailsKeyBuilding, payload, nil),
	})
	s.Require().NoError(err)
	s.Equal("Purok 7", updated.Address)
	s.Equal(s.t0.Add(time.Hour), updated.UpdatedAt)

	after, err := s.service.GetByID(s.as(s.citizen, time.Hour), p.ID)
	s.Require().NoError(err)
	s.Equal(before.Building.Details.ID, after.Building.Details.ID)
	s.Equal(before.Building.Construction.ID, after.Building.Construction.ID)
	s.Equal("San Isidro", after.Building.Construction.Barangay)
	s.Nil(after.Building.Construction.FloorArea)
	s.Equal(1, s.count(store.TableBuildingConstructions, p.ID))
}

func (s *ServiceSuite) TestUpdateRejectedOnceReviewed() {
	p := s.createBuilding(0)
	s.setStatus(p.ID, models.StatusApproved)
	before, err := s.service.GetByID(s.as(s.citizen, 0), p.ID)
	s.Require().NoError(err)

	payload := buildingPayload()
	payload.Barangay = "San Isidro"
	_, err = s.service.Update(s.as(s.citizen, time.Hour), p.ID, models.PermitInput{
		Address: "elsewhere",
		Details: details(models.DetailsKeyBuilding, payload, nil),
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeEditNotAllowed))

	after, err := s.service.GetByID(s.as(s.citizen, 0), p.ID)
	s.Require().NoError(err)
	s.Equal(before.Address, after.Address)
	s.Equal(before.UpdatedAt, after.UpdatedAt)
	s.Equal(*before.Building, *after.Building)
}

func (s *ServiceSuite) TestUpdateGuards() {
	p := s.createBuilding(0)

	s.Run("only the applicant", func() {
		_, err := s.service.Update(s.as(s.neighbour, 0), p.ID, models.PermitInput{
			Details: details(models.DetailsKeyBuilding, buildingPayload(), nil),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("kind cannot change", func() {
		_, err := s.service.Update(s.as(s.citizen, 0), p.ID, models.PermitInput{
			PermitTypeID: s.types[models.KindMotorela],
			Details:      details(models.DetailsKeyMotorela, map[string]string{"plate_no": "X"}, nil),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("payload still required", func() {
		_, err := s.service.Update(s.as(s.citizen, 0), p.ID, models.PermitInput{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Sync modes
// =============================================================================

func (s *ServiceSuite) TestAtomicCreateRollsBackPermit() {
	boom := errors.New("connection reset")
	failing := storetest.NewFailing(s.client).FailWrites(store.TableBuildingInspectors, boom)
	svc := s.newService(failing, subtype.ModeAtomic)

	p, err := svc.Create(s.as(s.citizen, 0), models.PermitInput{
		ApplicantID:  s.citizen,
		PermitTypeID: s.types[models.KindBuilding],
		Details:      details(models.DetailsKeyBuilding, buildingPayload(), nil),
	})
	s.Require().Error(err)
	s.Nil(p)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	rows, err := s.client.SelectMany(context.Background(), store.TablePermits, nil)
	s.Require().NoError(err)
	s.Empty(rows)
	applicants, err := s.client.SelectMany(context.Background(), store.TableBuildingApplicants, nil)
	s.Require().NoError(err)
	s.Empty(applicants)
}

func (s *ServiceSuite) TestBestEffortCreateKeepsPermit() {
	boom := errors.New("connection reset")
	failing := storetest.NewFailing(s.client).FailWrites(store.TableBuildingInspectors, boom)
	svc := s.newService(failing, subtype.ModeBestEffort)

	p, err := svc.Create(s.as(s.citizen, 0), models.PermitInput{
		ApplicantID:  s.citizen,
		PermitTypeID: s.types[models.KindBuilding],
		Details:      details(models.DetailsKeyBuilding, buildingPayload(), nil),
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePartialWrite))
	s.Require().NotNil(p)

	_, err = s.client.SelectOne(context.Background(), store.TablePermits, store.Filter{"id": p.ID})
	s.NoError(err)
	s.Equal(1, s.count(store.TableBuildingApplicants, p.ID))
	s.Equal(0, s.count(store.TableBuildingDetails, p.ID))
}

// =============================================================================
// Delete
// =============================================================================

func (s *ServiceSuite) TestDelete() {
	s.Run("removes the permit and its records", func() {
		p := s.createBuilding(0)
		ctx := s.as(s.citizen, time.Minute)
		_, err := s.service.AddDocument(ctx, p.ID, "docs/plan.pdf")
		s.Require().NoError(err)
		_, err = s.service.RecordPayment(ctx, p.ID, PaymentInput{Amount: 1500, Method: "gcash"})
		s.Require().NoError(err)

		s.Require().NoError(s.service.Delete(ctx, p.ID))

		_, err = s.service.GetByID(ctx, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		for _, table := range cascade.Plan {
			s.Equal(0, s.count(table, p.ID), "table %s", table)
		}
	})

	s.Run("only while pending", func() {
		p := s.createBuilding(0)
		s.setStatus(p.ID, models.StatusUnderReview)
		err := s.service.Delete(s.as(s.citizen, 0), p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeEditNotAllowed))
	})

	s.Run("only by the applicant", func() {
		p := s.createBuilding(0)
		err := s.service.Delete(s.as(s.admin, 0), p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("status change after the check keeps the permit", func() {
		p := s.createBuilding(0)
		ctx := s.as(s.citizen, time.Minute)
		_, err := s.service.AddDocument(ctx, p.ID, "docs/plan.pdf")
		s.Require().NoError(err)

		svc := New(s.client, s.client,
			subtype.New(s.client, s.client),
			&approveFirst{Engine: cascade.New(s.client, cascade.WithTransaction(s.client)), approve: func() {
				s.setStatus(p.ID, models.StatusApproved)
			}},
		)
		err = svc.Delete(ctx, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeEditNotAllowed), "got %v", err)

		view, err := s.service.Load(ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, view.Status)
		s.Len(view.Documents, 1)
		s.NotNil(view.Building)
	})
}

// approveFirst moves the permit on between the service's status check and
// the cascade.
type approveFirst struct {
	*cascade.Engine
	approve func()
}

func (a *approveFirst) DeleteIf(ctx context.Context, permitID uuid.UUID, guard store.Filter) error {
	a.approve()
	return a.Engine.DeleteIf(ctx, permitID, guard)
}

// =============================================================================
// Listing
// =============================================================================

func (s *ServiceSuite) TestListing() {
	older := s.createBuilding(0)
	newer := s.createBuilding(time.Hour)
	_, err := s.service.Create(s.as(s.neighbour, 2*time.Hour), models.PermitInput{
		ApplicantID:  s.neighbour,
		PermitTypeID: s.types[models.KindGeneric],
	})
	s.Require().NoError(err)

	s.Run("for user newest first", func() {
		list, err := s.service.ListForUser(s.as(s.citizen, 0), s.citizen)
		s.Require().NoError(err)
		s.Require().Len(list, 2)
		s.Equal(newer.ID, list[0].ID)
		s.Equal(older.ID, list[1].ID)
		s.Equal(models.KindBuilding, list[0].PermitType.Kind)
		s.Nil(list[0].Applicant)
	})

	s.Run("all with applicant profiles", func() {
		list, err := s.service.ListAll(s.as(s.admin, 0))
		s.Require().NoError(err)
		s.Require().Len(list, 3)
		s.Equal(s.neighbour, list[0].ApplicantID)
		s.Nil(list[0].Applicant, "no profile on file")
		s.Require().NotNil(list[1].Applicant)
		s.Equal("Ana Reyes", list[1].Applicant.FullName)
	})

	s.Run("all is admin only", func() {
		_, err := s.service.ListAll(s.as(s.citizen, 0))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestSeedIsIdempotent() {
	s.Require().NoError(s.service.SeedPermitTypes(context.Background(), DefaultPermitTypes))
	types, err := s.service.ListPermitTypes(context.Background())
	s.Require().NoError(err)
	s.Len(types, len(DefaultPermitTypes))
	s.Equal("Barangay Clearance", types[0].Title)
}

// =============================================================================
// Documents, payments and images
// =============================================================================

func (s *ServiceSuite) TestDocumentReview() {
	p := s.createBuilding(0)
	doc, err := s.service.AddDocument(s.as(s.citizen, time.Minute), p.ID, " docs/lot-plan.pdf ")
	s.Require().NoError(err)
	s.Equal(models.DocumentPending, doc.Status)
	s.Equal(s.citizen, doc.UploaderID)
	s.Equal("docs/lot-plan.pdf", doc.FilePath)

	s.Run("citizen cannot review", func() {
		_, err := s.service.ReviewDocument(s.as(s.citizen, 0), doc.ID, models.DocumentApproved, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejection stamps reviewer", func() {
		got, err := s.service.ReviewDocument(s.as(s.admin, 2*time.Minute), doc.ID, models.DocumentRejected, "blurred scan")
		s.Require().NoError(err)
		s.Equal(models.DocumentRejected, got.Status)
		s.Require().NotNil(got.RejectionReason)
		s.Equal("blurred scan", *got.RejectionReason)
		s.Require().NotNil(got.RejectedBy)
		s.Equal(s.admin, *got.RejectedBy)
		s.Require().NotNil(got.RejectedAt)
		s.True(s.t0.Add(2 * time.Minute).Equal(*got.RejectedAt))
	})

	s.Run("approval clears rejection", func() {
		got, err := s.service.ReviewDocument(s.as(s.admin, 3*time.Minute), doc.ID, models.DocumentApproved, "")
		s.Require().NoError(err)
		s.Equal(models.DocumentApproved, got.Status)
		s.Nil(got.RejectionReason)
		s.Nil(got.RejectedBy)
		s.Nil(got.RejectedAt)
	})

	s.Run("unknown document", func() {
		_, err := s.service.ReviewDocument(s.as(s.admin, 0), uuid.New(), models.DocumentApproved, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("pending is not a review outcome", func() {
		_, err := s.service.ReviewDocument(s.as(s.admin, 0), doc.ID, models.DocumentPending, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestPayments() {
	p := s.createBuilding(0)

	s.Run("validation", func() {
		_, err := s.service.RecordPayment(s.as(s.citizen, 0), p.ID, PaymentInput{Amount: 0, Method: "gcash"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.RecordPayment(s.as(s.citizen, 0), p.ID, PaymentInput{Amount: 10, Method: " "})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("other citizens cannot pay into it", func() {
		_, err := s.service.RecordPayment(s.as(s.neighbour, 0), p.ID, PaymentInput{Amount: 10, Method: "gcash"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	first, err := s.service.RecordPayment(s.as(s.citizen, time.Minute), p.ID, PaymentInput{Amount: 500, Method: "gcash", Reference: "GC-1"})
	s.Require().NoError(err)
	second, err := s.service.RecordPayment(s.as(s.citizen, 2*time.Minute), p.ID, PaymentInput{Amount: 750, Method: "cash"})
	s.Require().NoError(err)
	s.Equal(models.PaymentPending, first.PaymentStatus)

	completed, err := s.service.SetPaymentStatus(s.as(s.admin, 0), first.ID, models.PaymentCompleted)
	s.Require().NoError(err)
	s.Equal(models.PaymentCompleted, completed.PaymentStatus)

	view, err := s.service.GetByID(s.as(s.citizen, 0), p.ID)
	s.Require().NoError(err)
	s.Require().Len(view.Payments, 2)
	s.Equal(second.ID, view.Payments[0].ID, "newest first")
	s.True(view.HasCompletedPayment())
	s.Equal(second.ID, view.PendingPayment().ID)

	_, err = s.service.SetPaymentStatus(s.as(s.admin, 0), first.ID, models.PaymentStatus("refunded"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestImagesAndAuditTrail() {
	p := s.createBuilding(0)
	img, err := s.service.AddImage(s.as(s.citizen, time.Minute), p.ID, ImageInput{
		FileName: "site.jpg", FilePath: "images/site.jpg", MimeType: "image/jpeg", SizeBytes: 2048,
	})
	s.Require().NoError(err)

	_, err = s.service.AddImage(s.as(s.citizen, 0), p.ID, ImageInput{FileName: "x.jpg"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	view, err := s.service.GetByID(s.as(s.citizen, 0), p.ID)
	s.Require().NoError(err)
	s.Require().Len(view.Images, 1)
	s.Equal(img.ID, view.Images[0].ID)
	s.Equal(int64(2048), view.Images[0].SizeBytes)

	s.Require().Len(view.AuditEntries, 2)
	s.Equal(models.AuditActionImageAdded, view.AuditEntries[0].Action)
	s.Equal(models.AuditActionCreated, view.AuditEntries[1].Action)
}
