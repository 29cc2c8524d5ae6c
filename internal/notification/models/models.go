package models

import (
	"time"

	"github.com/google/uuid"

	permitmodels "permitflow/internal/permit/models"
)

// Type selects how a client renders a notification.
type Type string

const (
	TypePermitReady         Type = "permit_ready"
	TypePaymentRequired     Type = "payment_required"
	TypeGeneral             Type = "general"
	TypeApplicationRejected Type = "application_rejected"
)

func (t Type) IsValid() bool {
	switch t {
	case TypePermitReady, TypePaymentRequired, TypeGeneral, TypeApplicationRejected:
		return true
	}
	return false
}

// Notification is a message shown to one user, optionally about a permit.
type Notification struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	PermitID       *uuid.UUID `json:"permit_id"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Type           Type       `json:"type"`
	IsRead         bool       `json:"is_read"`
	GcashQRCodeURL *string    `json:"gcash_qr_code_url"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Message is what a sender asks to deliver.
type Message struct {
	UserID    uuid.UUID
	PermitID  *uuid.UUID
	Title     string
	Message   string
	Type      Type
	QRCodeURL string
}

// Job asks the dispatcher to announce a terminal status change. It carries
// the state the status writer already knows so the dispatcher can tell a
// stale read from the real outcome.
type Job struct {
	ID           uuid.UUID           `json:"id"`
	PermitID     uuid.UUID           `json:"permit_id"`
	Outcome      permitmodels.Status `json:"outcome"`
	AdminComment string              `json:"admin_comment,omitempty"`
	ActorID      uuid.UUID           `json:"actor_id"`
	RequestedAt  time.Time           `json:"requested_at"`
	Attempt      int                 `json:"attempt,omitempty"`
}
