package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"permitflow/internal/permit/models"
	"permitflow/internal/permit/store"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/platform/sentinel"
)

// DefaultPermitTypes is the catalogue a fresh deployment starts with.
var DefaultPermitTypes = []models.PermitType{
	{Slug: "building-permit", Title: "Building Permit", Kind: models.KindBuilding},
	{Slug: "business-permit", Title: "Business Permit", Kind: models.KindBusiness},
	{Slug: "motorela", Title: "Motorela", Kind: models.KindMotorela},
	{Slug: "barangay-clearance", Title: "Barangay Clearance", Kind: models.KindGeneric},
}

// ListPermitTypes returns the catalogue ordered by title.
func (s *Service) ListPermitTypes(ctx context.Context) ([]*models.PermitType, error) {
	rows, err := s.client.SelectMany(ctx, store.TablePermitTypes, nil, store.Order{Column: "title"})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list permit types")
	}
	return mapRows(rows, store.ToPermitType), nil
}

// SeedPermitTypes inserts each type whose slug is not yet present. It is
// safe to run on every start.
func (s *Service) SeedPermitTypes(ctx context.Context, types []models.PermitType) error {
	for _, t := range types {
		_, err := s.client.SelectOne(ctx, store.TablePermitTypes, store.Filter{"slug": t.Slug})
		if err == nil {
			continue
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed permit types")
		}
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		if t.Kind == "" {
			t.Kind = models.KindGeneric
		}
		_, err = s.client.Insert(ctx, store.TablePermitTypes, store.PermitTypeRow(&t))
		if err != nil && !errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed permit type "+t.Slug)
		}
		s.logger.InfoContext(ctx, "permit type seeded", "slug", t.Slug, "kind", t.Kind)
	}
	return nil
}

// submittedType resolves a type id a caller sent. Unknown ids are the
// caller's mistake.
func (s *Service) submittedType(ctx context.Context, id uuid.UUID) (*models.PermitType, error) {
	if id == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "permit_type_id is required")
	}
	t, err := s.lookupType(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeValidation, "permit_type_id does not name a permit type")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load permit type")
	}
	return t, nil
}

// storedType resolves the type of a stored permit.
func (s *Service) storedType(ctx context.Context, id uuid.UUID) (*models.PermitType, error) {
	t, err := s.lookupType(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load permit type")
	}
	return t, nil
}

func (s *Service) lookupType(ctx context.Context, id uuid.UUID) (*models.PermitType, error) {
	row, err := s.client.SelectOne(ctx, store.TablePermitTypes, store.Filter{"id": id})
	if err != nil {
		return nil, err
	}
	t := store.ToPermitType(row)
	if strings.TrimSpace(string(t.Kind)) == "" {
		t.Kind = models.KindGeneric
	}
	return t, nil
}

func (s *Service) typesByID(ctx context.Context) (map[uuid.UUID]*models.PermitType, error) {
	rows, err := s.client.SelectMany(ctx, store.TablePermitTypes, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load permit types")
	}
	out := make(map[uuid.UUID]*models.PermitType, len(rows))
	for _, row := range rows {
		t := store.ToPermitType(row)
		out[t.ID] = t
	}
	return out, nil
}
