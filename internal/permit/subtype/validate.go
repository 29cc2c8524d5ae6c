package subtype

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"permitflow/internal/permit/models"
	dErrors "permitflow/pkg/domain-errors"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Field is a string kind, so "required" alone would accept whitespace.
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if field, ok := f.Interface().(models.Field); ok {
			return field.Trimmed()
		}
		return nil
	}, models.Field(""))
	return v
}

// validationError turns the first failed rule into a ValidationError naming
// the form key.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid permit details")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return dErrors.New(dErrors.CodeValidation, fe.Field()+" is required")
	case "email":
		return dErrors.New(dErrors.CodeValidation, fe.Field()+" must be a valid email address")
	}
	return dErrors.New(dErrors.CodeValidation, fe.Field()+" is invalid")
}

// Validate checks the normalized payload in d without writing anything.
func (s *Synchronizer) Validate(d models.Details) error {
	_, err := s.prepare(d)
	return err
}

// prepared is a validated payload parsed into records.
type prepared struct {
	kind     models.Kind
	building *models.BuildingAggregate
	business *models.BusinessAggregate
	motorela *models.Motorela
}

func (s *Synchronizer) prepare(d models.Details) (*prepared, error) {
	kind, err := d.Kind()
	if err != nil {
		return nil, err
	}
	p := &prepared{kind: kind}
	switch kind {
	case models.KindBuilding:
		if err := s.validate.Struct(d.Building); err != nil {
			return nil, validationError(err)
		}
		p.building, err = d.Building.Records()
	case models.KindBusiness:
		if err := s.validate.Struct(d.Business); err != nil {
			return nil, validationError(err)
		}
		p.business, err = d.Business.Records()
	case models.KindMotorela:
		if err := s.validate.Struct(d.Motorela); err != nil {
			return nil, validationError(err)
		}
		p.motorela = d.Motorela.Record()
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
