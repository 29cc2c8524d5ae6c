package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the subtype a PermitType declares. It selects which Subtype Detail
// Aggregate, if any, a permit carries.
type Kind string

const (
	KindBuilding Kind = "building"
	KindBusiness Kind = "business"
	KindMotorela Kind = "motorela"
	KindGeneric  Kind = "generic"
)

// Normalized reports whether the kind is stored in per-subtype tables.
func (k Kind) Normalized() bool {
	return k == KindBuilding || k == KindBusiness || k == KindMotorela
}

// DetailsKey is the key the kind's payload uses inside the details object.
func (k Kind) DetailsKey() string {
	switch k {
	case KindBuilding:
		return DetailsKeyBuilding
	case KindBusiness:
		return DetailsKeyBusiness
	case KindMotorela:
		return DetailsKeyMotorela
	}
	return ""
}

// PermitType is the catalogue entry an application is filed under.
type PermitType struct {
	ID    uuid.UUID `json:"id"`
	Slug  string    `json:"slug"`
	Title string    `json:"title"`
	Kind  Kind      `json:"kind"`
}

// DisplayName renders the type for notification copy, e.g. "Motorela Permit".
func (t *PermitType) DisplayName() string {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return "Permit"
	}
	if strings.HasSuffix(strings.ToLower(title), "permit") {
		return title
	}
	return title + " Permit"
}

// Permit is the root application record. Details holds only free-form keys;
// normalized subtype payloads live in their own tables.
type Permit struct {
	ID           uuid.UUID       `json:"id"`
	ApplicantID  uuid.UUID       `json:"applicant_id"`
	PermitTypeID uuid.UUID       `json:"permit_type_id"`
	Address      string          `json:"address"`
	Status       Status          `json:"status"`
	AdminComment *string         `json:"admin_comment"`
	Details      json.RawMessage `json:"details"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// OwnedBy reports whether userID filed the permit.
func (p *Permit) OwnedBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && p.ApplicantID == userID
}

// PermitInput carries the fields a citizen submits on create and update.
// On update a nil PermitTypeID keeps the current type.
type PermitInput struct {
	ApplicantID  uuid.UUID
	PermitTypeID uuid.UUID
	Address      string
	Details      json.RawMessage
}
