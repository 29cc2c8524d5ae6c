// Package subtype keeps a permit's normalized subtype aggregate in step with
// the payload submitted for it.
//
// Every child record is upserted by its permit_id: an existing row is updated
// in place, an absent one is inserted, so repeated syncs never duplicate rows.
// The details root is written last and points at the child ids.
package subtype

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"permitflow/internal/permit/models"
	"permitflow/internal/permit/store"
	"permitflow/internal/platform/metrics"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/platform/sentinel"
	"permitflow/pkg/requestcontext"
)

// Mode selects the failure policy for multi-table writes.
type Mode string

const (
	// ModeAtomic writes the whole aggregate in one transaction.
	ModeAtomic Mode = "atomic"
	// ModeBestEffort continues past failed child writes and reports them
	// as a partial write.
	ModeBestEffort Mode = "best_effort"
)

// ParseMode reads a configured mode. Empty selects ModeAtomic.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAtomic:
		return ModeAtomic, nil
	case ModeBestEffort:
		return ModeBestEffort, nil
	}
	return "", fmt.Errorf("unknown sync mode %q", s)
}

// Child categories, used as ChildIDs keys and PartialWriteError categories.
const (
	CategoryDetails       = "details"
	CategoryApplicant     = "applicant"
	CategoryConstruction  = "construction"
	CategoryInspector     = "inspector"
	CategoryEngineer      = "engineer"
	CategoryTaxpayer      = "taxpayer"
	CategoryEstablishment = "establishment"
	CategoryEmployment    = "employment"
	CategoryLessor        = "lessor"
	CategoryMotorela      = "motorela"
)

var errMissingChild = errors.New("skipped: a required child record was not saved")

// Result identifies the rows a sync wrote or reused.
type Result struct {
	RootID   uuid.UUID
	ChildIDs map[string]uuid.UUID
}

// Synchronizer writes subtype aggregates through the aggregate store.
type Synchronizer struct {
	client   store.Client
	tx       store.Transactor
	mode     Mode
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Synchronizer)

func WithMode(mode Mode) Option {
	return func(s *Synchronizer) {
		if mode != "" {
			s.mode = mode
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synchronizer) {
		s.metrics = m
	}
}

// New constructs a Synchronizer. tx is only used in ModeAtomic.
func New(client store.Client, tx store.Transactor, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		client:   client,
		tx:       tx,
		mode:     ModeAtomic,
		validate: newValidator(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode reports the configured failure policy.
func (s *Synchronizer) Mode() Mode {
	return s.mode
}

// Sync validates the normalized payload in d and upserts its aggregate for
// permitID. Generic details write nothing and return a nil Result.
//
// In ModeAtomic any failed write rolls the aggregate back. In ModeBestEffort
// sibling writes continue and the failures come back as a partial write
// error alongside the Result.
func (s *Synchronizer) Sync(ctx context.Context, permitID uuid.UUID, d models.Details) (*Result, error) {
	p, err := s.prepare(d)
	if err != nil {
		return nil, err
	}
	if p.kind == models.KindGeneric {
		return nil, nil
	}

	if s.mode == ModeBestEffort {
		w := s.newWriter(permitID)
		res := w.write(ctx, p)
		return res, dErrors.NewPartialWrite(w.failures)
	}

	var res *Result
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		w := s.newWriter(permitID)
		res = w.write(txCtx, p)
		return w.err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "subtype sync rolled back",
			"permit_id", permitID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save permit details")
	}
	return res, nil
}

func (s *Synchronizer) newWriter(permitID uuid.UUID) *writer {
	return &writer{
		s:        s,
		permitID: permitID,
		failures: make(map[string]error),
	}
}

// writer carries one sync run. In atomic mode it stops at the first error.
type writer struct {
	s        *Synchronizer
	permitID uuid.UUID
	failures map[string]error
	err      error
}

func (w *writer) atomic() bool {
	return w.s.mode == ModeAtomic
}

func (w *writer) stopped() bool {
	return w.atomic() && w.err != nil
}

func (w *writer) fail(ctx context.Context, category string, err error) {
	if w.atomic() {
		if w.err == nil {
			w.err = fmt.Errorf("%s: %w", category, err)
		}
		return
	}
	w.failures[category] = err
	w.s.metrics.IncrementSyncWriteFailure(category)
	w.s.logger.ErrorContext(ctx, "subtype write failed",
		"permit_id", w.permitID,
		"category", category,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

func (w *writer) write(ctx context.Context, p *prepared) *Result {
	res := &Result{ChildIDs: make(map[string]uuid.UUID)}
	switch p.kind {
	case models.KindBuilding:
		w.writeBuilding(ctx, p.building, res)
	case models.KindBusiness:
		w.writeBusiness(ctx, p.business, res)
	case models.KindMotorela:
		id := w.upsert(ctx, CategoryMotorela, store.TableMotorela, store.MotorelaRow(p.motorela))
		if id != uuid.Nil {
			res.ChildIDs[CategoryMotorela] = id
			res.RootID = id
		}
	}
	return res
}

func (w *writer) writeBuilding(ctx context.Context, agg *models.BuildingAggregate, res *Result) {
	children := []struct {
		category string
		table    store.Table
		row      store.Row
	}{
		{CategoryApplicant, store.TableBuildingApplicants, store.BuildingApplicantRow(&agg.Applicant)},
		{CategoryConstruction, store.TableBuildingConstructions, store.BuildingConstructionRow(&agg.Construction)},
		{CategoryInspector, store.TableBuildingInspectors, store.ProfessionalRow(&agg.Inspector, store.TableBuildingInspectors)},
		{CategoryEngineer, store.TableBuildingEngineers, store.ProfessionalRow(&agg.Engineer, store.TableBuildingEngineers)},
	}
	for _, c := range children {
		if id := w.upsert(ctx, c.category, c.table, c.row); id != uuid.Nil {
			res.ChildIDs[c.category] = id
		}
	}
	if !w.haveAll(ctx, res, CategoryApplicant, CategoryConstruction, CategoryInspector, CategoryEngineer) {
		return
	}

	root := agg.Details
	root.ApplicantID = res.ChildIDs[CategoryApplicant]
	root.ConstructionID = res.ChildIDs[CategoryConstruction]
	root.InspectorID = res.ChildIDs[CategoryInspector]
	root.EngineerID = res.ChildIDs[CategoryEngineer]
	res.RootID = w.upsert(ctx, CategoryDetails, store.TableBuildingDetails, store.BuildingDetailsRow(&root))
}

func (w *writer) writeBusiness(ctx context.Context, agg *models.BusinessAggregate, res *Result) {
	children := []struct {
		category string
		table    store.Table
		row      store.Row
	}{
		{CategoryTaxpayer, store.TableBusinessTaxpayers, store.BusinessTaxpayerRow(&agg.Taxpayer)},
		{CategoryEstablishment, store.TableBusinessEstablishments, store.BusinessEstablishmentRow(&agg.Establishment)},
		{CategoryEmployment, store.TableBusinessEmployments, store.BusinessEmploymentRow(&agg.Employment)},
	}
	for _, c := range children {
		if id := w.upsert(ctx, c.category, c.table, c.row); id != uuid.Nil {
			res.ChildIDs[c.category] = id
		}
	}

	var lessorID *uuid.UUID
	if agg.Lessor != nil {
		if id := w.upsert(ctx, CategoryLessor, store.TableBusinessLessors, store.BusinessLessorRow(agg.Lessor)); id != uuid.Nil {
			lessorID = &id
		}
	} else if !w.stopped() {
		// A blank lessor section keeps the lessor already on file.
		existing, err := w.s.client.SelectOne(ctx, store.TableBusinessLessors, store.Filter{"permit_id": w.permitID})
		switch {
		case err == nil:
			id := existing.UUID("id")
			lessorID = &id
		case !errors.Is(err, sentinel.ErrNotFound):
			w.fail(ctx, CategoryLessor, err)
		}
	}
	if lessorID != nil {
		res.ChildIDs[CategoryLessor] = *lessorID
	}
	if !w.haveAll(ctx, res, CategoryTaxpayer, CategoryEstablishment, CategoryEmployment) {
		return
	}

	root := agg.Details
	root.TaxpayerID = res.ChildIDs[CategoryTaxpayer]
	root.EstablishmentID = res.ChildIDs[CategoryEstablishment]
	root.EmploymentID = res.ChildIDs[CategoryEmployment]
	root.LessorID = lessorID
	res.RootID = w.upsert(ctx, CategoryDetails, store.TableBusinessDetails, store.BusinessDetailsRow(&root))
}

// haveAll reports whether every required child has an id. The details root
// is skipped otherwise, since it may only reference rows that exist.
func (w *writer) haveAll(ctx context.Context, res *Result, categories ...string) bool {
	if w.stopped() {
		return false
	}
	for _, c := range categories {
		if _, ok := res.ChildIDs[c]; !ok {
			w.fail(ctx, CategoryDetails, errMissingChild)
			return false
		}
	}
	return true
}

// upsert writes row keyed by permit_id and returns the row's id. When the
// write fails but a row already exists, its id is still returned so the
// details root keeps pointing at it.
func (w *writer) upsert(ctx context.Context, category string, table store.Table, row store.Row) uuid.UUID {
	if w.stopped() {
		return uuid.Nil
	}
	now := requestcontext.Now(ctx)
	stamped := slices.Contains(store.Columns(table), "updated_at")

	existing, err := w.s.client.SelectOne(ctx, table, store.Filter{"permit_id": w.permitID})
	switch {
	case err == nil:
		id := existing.UUID("id")
		patch := row
		delete(patch, "id")
		delete(patch, "permit_id")
		delete(patch, "created_at")
		if stamped {
			patch["updated_at"] = now
		}
		if _, err := w.s.client.Update(ctx, table, store.Filter{"id": id}, patch); err != nil {
			w.fail(ctx, category, err)
		}
		return id

	case errors.Is(err, sentinel.ErrNotFound):
		id := uuid.New()
		row["id"] = id
		row["permit_id"] = w.permitID
		if stamped {
			row["created_at"] = now
			row["updated_at"] = now
		}
		if _, err := w.s.client.Insert(ctx, table, row); err != nil {
			w.fail(ctx, category, err)
			return uuid.Nil
		}
		return id

	default:
		w.fail(ctx, category, err)
		return uuid.Nil
	}
}
