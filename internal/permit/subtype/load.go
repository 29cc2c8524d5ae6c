package subtype

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"permitflow/internal/permit/models"
	"permitflow/internal/permit/store"
	"permitflow/pkg/platform/sentinel"
)

// Aggregate is one loaded subtype. At most one field is set.
type Aggregate struct {
	Building *models.BuildingAggregate
	Business *models.BusinessAggregate
	Motorela *models.Motorela
}

// Empty reports whether no normalized rows were found.
func (a Aggregate) Empty() bool {
	return a.Building == nil && a.Business == nil && a.Motorela == nil
}

// Load reads the normalized aggregate of kind for permitID. A permit with no
// details root yields an empty Aggregate so callers can fall back to the
// legacy details blob.
func (s *Synchronizer) Load(ctx context.Context, permitID uuid.UUID, kind models.Kind) (Aggregate, error) {
	var (
		agg Aggregate
		err error
	)
	switch kind {
	case models.KindBuilding:
		agg.Building, err = s.loadBuilding(ctx, permitID)
	case models.KindBusiness:
		agg.Business, err = s.loadBusiness(ctx, permitID)
	case models.KindMotorela:
		var row store.Row
		row, err = s.client.SelectOne(ctx, store.TableMotorela, store.Filter{"permit_id": permitID})
		if err == nil {
			agg.Motorela = store.ToMotorela(row)
		}
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return Aggregate{}, nil
	}
	if err != nil {
		return Aggregate{}, fmt.Errorf("load %s details: %w", kind, err)
	}
	return agg, nil
}

func (s *Synchronizer) loadBuilding(ctx context.Context, permitID uuid.UUID) (*models.BuildingAggregate, error) {
	root, err := s.client.SelectOne(ctx, store.TableBuildingDetails, store.Filter{"permit_id": permitID})
	if err != nil {
		return nil, err
	}
	agg := &models.BuildingAggregate{Details: store.ToBuildingDetails(root)}

	applicant, err := s.byID(ctx, store.TableBuildingApplicants, agg.Details.ApplicantID)
	if err != nil {
		return nil, err
	}
	construction, err := s.byID(ctx, store.TableBuildingConstructions, agg.Details.ConstructionID)
	if err != nil {
		return nil, err
	}
	inspector, err := s.byID(ctx, store.TableBuildingInspectors, agg.Details.InspectorID)
	if err != nil {
		return nil, err
	}
	engineer, err := s.byID(ctx, store.TableBuildingEngineers, agg.Details.EngineerID)
	if err != nil {
		return nil, err
	}
	agg.Applicant = store.ToBuildingApplicant(applicant)
	agg.Construction = store.ToBuildingConstruction(construction)
	agg.Inspector = store.ToProfessional(inspector)
	agg.Engineer = store.ToProfessional(engineer)
	return agg, nil
}

func (s *Synchronizer) loadBusiness(ctx context.Context, permitID uuid.UUID) (*models.BusinessAggregate, error) {
	root, err := s.client.SelectOne(ctx, store.TableBusinessDetails, store.Filter{"permit_id": permitID})
	if err != nil {
		return nil, err
	}
	agg := &models.BusinessAggregate{Details: store.ToBusinessDetails(root)}

	taxpayer, err := s.byID(ctx, store.TableBusinessTaxpayers, agg.Details.TaxpayerID)
	if err != nil {
		return nil, err
	}
	establishment, err := s.byID(ctx, store.TableBusinessEstablishments, agg.Details.EstablishmentID)
	if err != nil {
		return nil, err
	}
	employment, err := s.byID(ctx, store.TableBusinessEmployments, agg.Details.EmploymentID)
	if err != nil {
		return nil, err
	}
	agg.Taxpayer = store.ToBusinessTaxpayer(taxpayer)
	agg.Establishment = store.ToBusinessEstablishment(establishment)
	agg.Employment = store.ToBusinessEmployment(employment)

	if agg.Details.LessorID != nil {
		lessor, err := s.byID(ctx, store.TableBusinessLessors, *agg.Details.LessorID)
		if err != nil {
			return nil, err
		}
		agg.Lessor = store.ToBusinessLessor(lessor)
	}
	return agg, nil
}

// byID reads a child the root references. A dangling reference is a broken
// aggregate, not a missing one, so it is not reported as sentinel.ErrNotFound.
func (s *Synchronizer) byID(ctx context.Context, table store.Table, id uuid.UUID) (store.Row, error) {
	row, err := s.client.SelectOne(ctx, table, store.Filter{"id": id})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("%s %s referenced by details root is missing", table, id)
	}
	return row, err
}
