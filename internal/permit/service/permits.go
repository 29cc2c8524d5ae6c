package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"permitflow/internal/permit/cascade"
	"permitflow/internal/permit/models"
	"permitflow/internal/permit/store"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/platform/sentinel"
	"permitflow/pkg/requestcontext"
)

// Create files a new pending permit and stores its subtype aggregate.
//
// In best-effort sync mode a failed child write still returns the saved
// permit, together with a partial write error naming the failed categories.
func (s *Service) Create(ctx context.Context, in models.PermitInput) (_ *models.Permit, err error) {
	ctx, span := s.tracer.Start(ctx, "permit.Create")
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("create", time.Now())

	if in.ApplicantID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "applicant_id is required")
	}
	permitType, err := s.submittedType(ctx, in.PermitTypeID)
	if err != nil {
		return nil, err
	}
	details, extra, err := s.prepareDetails(in.Details, permitType.Kind)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	permit := &models.Permit{
		ID:           uuid.New(),
		ApplicantID:  in.ApplicantID,
		PermitTypeID: permitType.ID,
		Address:      strings.TrimSpace(in.Address),
		Status:       models.StatusPending,
		Details:      extra,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	span.SetAttributes(attribute.String("permit.id", permit.ID.String()), attribute.String("permit.kind", string(permitType.Kind)))

	err = s.write(ctx, func(ctx context.Context) error {
		if _, err := s.client.Insert(ctx, store.TablePermits, store.PermitRow(permit)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create permit")
		}
		_, err := s.sync.Sync(ctx, permit.ID, details)
		return err
	})
	if err != nil && !dErrors.HasCode(err, dErrors.CodePartialWrite) {
		return nil, err
	}
	if err != nil {
		s.logger.WarnContext(ctx, "permit saved with incomplete details",
			"permit_id", permit.ID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}

	s.metrics.IncrementPermitsCreated()
	s.logAudit(ctx, permit.ID, models.AuditActionCreated, "")
	return permit, err
}

// Update replaces a pending permit's address and details and re-syncs its
// subtype aggregate in place. A nil PermitTypeID keeps the current type; a
// new one must declare the same kind.
func (s *Service) Update(ctx context.Context, permitID uuid.UUID, in models.PermitInput) (_ *models.Permit, err error) {
	ctx, span := s.tracer.Start(ctx, "permit.Update", trace.WithAttributes(attribute.String("permit.id", permitID.String())))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("update", time.Now())

	current, err := s.editable(ctx, permitID)
	if err != nil {
		return nil, err
	}
	currentType, err := s.storedType(ctx, current.PermitTypeID)
	if err != nil {
		return nil, err
	}
	typeID := current.PermitTypeID
	if in.PermitTypeID != uuid.Nil && in.PermitTypeID != typeID {
		next, err := s.submittedType(ctx, in.PermitTypeID)
		if err != nil {
			return nil, err
		}
		if next.Kind != currentType.Kind {
			return nil, dErrors.New(dErrors.CodeValidation, "permit type cannot change from "+string(currentType.Kind)+" to "+string(next.Kind))
		}
		typeID = next.ID
	}
	details, extra, err := s.prepareDetails(in.Details, currentType.Kind)
	if err != nil {
		return nil, err
	}

	patch := store.Row{
		"permit_type_id": typeID,
		"address":        strings.TrimSpace(in.Address),
		"details":        extra,
		"updated_at":     requestcontext.Now(ctx),
	}
	var updated *models.Permit
	err = s.write(ctx, func(ctx context.Context) error {
		// The status filter closes the window between the check above and
		// an admin moving the permit on.
		row, err := s.client.Update(ctx, store.TablePermits, store.Filter{"id": permitID, "status": string(models.StatusPending)}, patch)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeEditNotAllowed, "permit can only be changed while pending")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update permit")
		}
		updated = store.ToPermit(row)
		_, err = s.sync.Sync(ctx, permitID, details)
		return err
	})
	if err != nil && (updated == nil || !dErrors.HasCode(err, dErrors.CodePartialWrite)) {
		return nil, err
	}
	if err != nil {
		s.logger.WarnContext(ctx, "permit updated with incomplete details",
			"permit_id", permitID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}

	s.logAudit(ctx, permitID, models.AuditActionUpdated, "")
	return updated, err
}

// Delete removes a pending permit the caller owns, with every record that
// depends on it.
func (s *Service) Delete(ctx context.Context, permitID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "permit.Delete", trace.WithAttributes(attribute.String("permit.id", permitID.String())))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("delete", time.Now())

	if _, err := s.editable(ctx, permitID); err != nil {
		return err
	}
	err = s.cascade.DeleteIf(ctx, permitID, store.Filter{"status": string(models.StatusPending)})
	if errors.Is(err, cascade.ErrGuardRejected) {
		return dErrors.New(dErrors.CodeEditNotAllowed, "permit can only be changed while pending")
	}
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "permit deleted",
		"permit_id", permitID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// GetByID returns the assembled view of a permit the caller may read.
func (s *Service) GetByID(ctx context.Context, permitID uuid.UUID) (*models.PermitView, error) {
	if _, err := s.readable(ctx, permitID); err != nil {
		return nil, err
	}
	return s.Load(ctx, permitID)
}

// Load assembles a permit's read view without an access check. Background
// workers read through it.
//
// The subtype aggregate comes from the normalized tables when a details
// root exists and from the permit's details blob otherwise.
func (s *Service) Load(ctx context.Context, permitID uuid.UUID) (_ *models.PermitView, err error) {
	ctx, span := s.tracer.Start(ctx, "permit.Load", trace.WithAttributes(attribute.String("permit.id", permitID.String())))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("load", time.Now())

	permit, err := s.permit(ctx, permitID)
	if err != nil {
		return nil, err
	}
	permitType, err := s.storedType(ctx, permit.PermitTypeID)
	if err != nil {
		return nil, err
	}
	view := &models.PermitView{Permit: *permit, PermitType: permitType}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile, err := s.profile(gctx, permit.ApplicantID)
		view.Applicant = profile
		return err
	})
	g.Go(func() error {
		rows, err := s.newest(gctx, store.TableDocuments, permitID)
		view.Documents = mapRows(rows, store.ToDocument)
		return err
	})
	g.Go(func() error {
		rows, err := s.newest(gctx, store.TablePayments, permitID)
		view.Payments = mapRows(rows, store.ToPayment)
		return err
	})
	g.Go(func() error {
		rows, err := s.newest(gctx, store.TableUploadedImages, permitID)
		view.Images = mapRows(rows, store.ToUploadedImage)
		return err
	})
	if s.audit != nil {
		g.Go(func() error {
			entries, err := s.audit.List(gctx, permitID)
			view.AuditEntries = entries
			return err
		})
	}
	if permitType.Kind.Normalized() {
		g.Go(func() error {
			return s.loadDetails(gctx, view, permitType.Kind)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load permit")
	}
	if view.AuditEntries == nil {
		view.AuditEntries = []*models.AuditEntry{}
	}
	return view, nil
}

func (s *Service) loadDetails(ctx context.Context, view *models.PermitView, kind models.Kind) error {
	agg, err := s.sync.Load(ctx, view.ID, kind)
	if err != nil {
		return err
	}
	if !agg.Empty() {
		view.Building, view.Business, view.Motorela = agg.Building, agg.Business, agg.Motorela
		return nil
	}
	legacy, err := models.LegacyDetails(view.Details, kind)
	if err != nil {
		s.logger.WarnContext(ctx, "unreadable legacy details",
			"permit_id", view.ID,
			"error", err,
		)
		return nil
	}
	view.LegacyDetails = legacy
	return nil
}

// ListForUser returns userID's permits, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.PermitSummary, error) {
	rows, err := s.client.SelectMany(ctx, store.TablePermits, store.Filter{"applicant_id": userID}, store.Newest)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list permits")
	}
	return s.summaries(ctx, rows, false)
}

// ListAll returns every permit with its applicant profile, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*models.PermitSummary, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	rows, err := s.client.SelectMany(ctx, store.TablePermits, nil, store.Newest)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list permits")
	}
	return s.summaries(ctx, rows, true)
}

func (s *Service) summaries(ctx context.Context, rows []store.Row, withApplicant bool) ([]*models.PermitSummary, error) {
	types, err := s.typesByID(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.PermitSummary, len(rows))
	var applicantIDs []uuid.UUID
	for i, row := range rows {
		p := store.ToPermit(row)
		out[i] = &models.PermitSummary{Permit: *p, PermitType: types[p.PermitTypeID]}
		applicantIDs = append(applicantIDs, p.ApplicantID)
	}
	if !withApplicant || len(out) == 0 {
		return out, nil
	}

	profileRows, err := s.client.SelectMany(ctx, store.TableProfiles, store.Filter{"id": applicantIDs})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applicants")
	}
	profiles := make(map[uuid.UUID]*models.Profile, len(profileRows))
	for _, row := range profileRows {
		p := store.ToProfile(row)
		profiles[p.ID] = p
	}
	for _, summary := range out {
		summary.Applicant = profiles[summary.ApplicantID]
	}
	return out, nil
}

// prepareDetails parses and validates a details object for kind before any
// write happens. It returns the free-form keys the permit row keeps.
func (s *Service) prepareDetails(raw json.RawMessage, kind models.Kind) (models.Details, json.RawMessage, error) {
	d, err := models.ParseDetails(raw)
	if err != nil {
		return models.Details{}, nil, err
	}
	if err := d.ForType(kind); err != nil {
		return models.Details{}, nil, err
	}
	if err := s.sync.Validate(d); err != nil {
		return models.Details{}, nil, err
	}
	extra, err := d.ExtraJSON()
	if err != nil {
		return models.Details{}, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode details")
	}
	return d, extra, nil
}

func (s *Service) profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	row, err := s.client.SelectOne(ctx, store.TableProfiles, store.Filter{"id": userID})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return store.ToProfile(row), nil
}

func (s *Service) newest(ctx context.Context, table store.Table, permitID uuid.UUID) ([]store.Row, error) {
	return s.client.SelectMany(ctx, table, store.Filter{"permit_id": permitID}, store.Newest)
}

// mapRows converts rows and never returns nil, so views encode empty lists.
func mapRows[T any](rows []store.Row, fn func(store.Row) *T) []*T {
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		out = append(out, fn(row))
	}
	return out
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
