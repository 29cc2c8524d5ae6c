package models

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

func (s DocumentStatus) IsValid() bool {
	return s == DocumentPending || s == DocumentApproved || s == DocumentRejected
}

// Document is an uploaded requirement attached to a permit.
type Document struct {
	ID              uuid.UUID      `json:"id"`
	PermitID        uuid.UUID      `json:"permit_id"`
	UploaderID      uuid.UUID      `json:"uploader_id"`
	FilePath        string         `json:"file_path"`
	Status          DocumentStatus `json:"status"`
	RejectionReason *string        `json:"rejection_reason"`
	RejectedAt      *time.Time     `json:"rejected_at"`
	RejectedBy      *uuid.UUID     `json:"rejected_by"`
	CreatedAt       time.Time      `json:"created_at"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) IsValid() bool {
	return s == PaymentPending || s == PaymentCompleted || s == PaymentFailed
}

// Payment is a fee record against a permit.
type Payment struct {
	ID               uuid.UUID     `json:"id"`
	PermitID         uuid.UUID     `json:"permit_id"`
	Amount           float64       `json:"amount"`
	PaymentMethod    string        `json:"payment_method"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	PaymentReference string        `json:"payment_reference"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Audit actions recorded against a permit.
const (
	AuditActionCreated        = "permit_created"
	AuditActionUpdated        = "permit_updated"
	AuditActionStatusChanged  = "status_changed"
	AuditActionDocumentAdded  = "document_added"
	AuditActionDocumentReview = "document_reviewed"
	AuditActionPaymentAdded   = "payment_recorded"
	AuditActionPaymentStatus  = "payment_status_changed"
	AuditActionImageAdded     = "image_uploaded"
)

// AuditEntry is one line of a permit's history. Actor is filled in on reads.
type AuditEntry struct {
	ID        uuid.UUID  `json:"id"`
	PermitID  uuid.UUID  `json:"permit_id"`
	Action    string     `json:"action"`
	ActorID   *uuid.UUID `json:"actor_id"`
	Note      string     `json:"note"`
	CreatedAt time.Time  `json:"created_at"`
	Actor     *Profile   `json:"actor,omitempty"`
}

// Profile is the public face of a user account.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadedImage is metadata for a photo attached to a permit.
type UploadedImage struct {
	ID         uuid.UUID `json:"id"`
	PermitID   uuid.UUID `json:"permit_id"`
	UploaderID uuid.UUID `json:"uploader_id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"file_path"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}
