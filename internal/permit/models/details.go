package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	dErrors "permitflow/pkg/domain-errors"
)

// Keys that carry a normalized subtype payload inside a permit's details object.
const (
	DetailsKeyBuilding = "building_permit"
	DetailsKeyBusiness = "business_permit"
	DetailsKeyMotorela = "motorela"
)

// Field is a form value. Clients send numbers, booleans and strings
// interchangeably; Field keeps the submitted text verbatim.
type Field string

func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Field(s)
		return nil
	default:
		// numbers and booleans
		*f = Field(string(data))
		return nil
	}
}

// Trimmed returns the value without surrounding whitespace.
func (f Field) Trimmed() string {
	return strings.TrimSpace(string(f))
}

// Empty reports whether the field carries no value.
func (f Field) Empty() bool {
	return f.Trimmed() == ""
}

// Details is the tagged permit details variant. At most one of Building,
// Business and Motorela is set; Extra holds the free-form keys.
type Details struct {
	Building *BuildingPayload
	Business *BusinessPayload
	Motorela *MotorelaPayload
	Extra    map[string]json.RawMessage
}

// ParseDetails decodes a details object. Empty input yields zero Details.
func ParseDetails(raw json.RawMessage) (Details, error) {
	var d Details
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return d, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return d, dErrors.Wrap(err, dErrors.CodeValidation, "details must be a JSON object")
	}
	for key, value := range fields {
		var err error
		switch key {
		case DetailsKeyBuilding:
			d.Building = &BuildingPayload{}
			err = json.Unmarshal(value, d.Building)
		case DetailsKeyBusiness:
			d.Business = &BusinessPayload{}
			err = json.Unmarshal(value, d.Business)
		case DetailsKeyMotorela:
			d.Motorela = &MotorelaPayload{}
			err = json.Unmarshal(value, d.Motorela)
		default:
			if d.Extra == nil {
				d.Extra = make(map[string]json.RawMessage)
			}
			d.Extra[key] = value
		}
		if err != nil {
			return Details{}, dErrors.Wrap(err, dErrors.CodeValidation, key+" must be an object of form values")
		}
	}
	if _, err := d.Kind(); err != nil {
		return Details{}, err
	}
	return d, nil
}

// Kind returns the kind of the normalized payload present, or KindGeneric.
func (d Details) Kind() (Kind, error) {
	var kinds []Kind
	if d.Building != nil {
		kinds = append(kinds, KindBuilding)
	}
	if d.Business != nil {
		kinds = append(kinds, KindBusiness)
	}
	if d.Motorela != nil {
		kinds = append(kinds, KindMotorela)
	}
	switch len(kinds) {
	case 0:
		return KindGeneric, nil
	case 1:
		return kinds[0], nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "details may carry only one permit subtype")
}

// ForType checks the payload against the permit type's declared kind.
func (d Details) ForType(kind Kind) error {
	present, err := d.Kind()
	if err != nil {
		return err
	}
	if !kind.Normalized() {
		if present != KindGeneric {
			return dErrors.New(dErrors.CodeValidation, "permit type does not accept "+present.DetailsKey()+" details")
		}
		return nil
	}
	if present == KindGeneric {
		return dErrors.New(dErrors.CodeValidation, kind.DetailsKey()+" details are required")
	}
	if present != kind {
		return dErrors.New(dErrors.CodeValidation, present.DetailsKey()+" details do not match the permit type")
	}
	return nil
}

// ExtraJSON encodes the free-form keys for the permit's details column.
func (d Details) ExtraJSON() (json.RawMessage, error) {
	if len(d.Extra) == 0 {
		return json.RawMessage(`{}`), nil
	}
	b, err := json.Marshal(d.Extra)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// LegacyDetails decodes the subtype payload of kind from a details blob written
// before normalization. It returns nil when the blob has none.
func LegacyDetails(raw json.RawMessage, kind Kind) (any, error) {
	d, err := ParseDetails(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindBuilding:
		if d.Building != nil {
			return d.Building, nil
		}
	case KindBusiness:
		if d.Business != nil {
			return d.Business, nil
		}
	case KindMotorela:
		if d.Motorela != nil {
			return d.Motorela, nil
		}
	}
	return nil, nil
}

// FormatNumber renders a stored number back into form text.
func FormatNumber(v *float64) Field {
	if v == nil {
		return ""
	}
	return Field(strconv.FormatFloat(*v, 'f', -1, 64))
}

// FormatInt renders a stored count back into form text.
func FormatInt(v *int64) Field {
	if v == nil {
		return ""
	}
	return Field(strconv.FormatInt(*v, 10))
}
