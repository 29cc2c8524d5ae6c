package handler

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"permitflow/internal/permit/models"
	dErrors "permitflow/pkg/domain-errors"
)

// PermitRequest is the body of POST /permits and PUT /permits/{id}.
type PermitRequest struct {
	PermitTypeID string          `json:"permit_type_id"`
	Address      string          `json:"address"`
	Details      json.RawMessage `json:"details"`

	parsedTypeID uuid.UUID
}

func (r *PermitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if raw := strings.TrimSpace(r.PermitTypeID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "permit_type_id must be a UUID")
		}
		r.parsedTypeID = id
	}
	r.Address = strings.TrimSpace(r.Address)
	if len(r.Address) > 500 {
		return dErrors.New(dErrors.CodeValidation, "address must be at most 500 characters")
	}
	if d := bytes.TrimSpace(r.Details); len(d) > 0 && d[0] != '{' && !bytes.Equal(d, []byte("null")) {
		return dErrors.New(dErrors.CodeValidation, "details must be an object")
	}
	return nil
}

// Input maps the request onto the repository input for applicantID.
func (r *PermitRequest) Input(applicantID uuid.UUID) models.PermitInput {
	return models.PermitInput{
		ApplicantID:  applicantID,
		PermitTypeID: r.parsedTypeID,
		Address:      r.Address,
		Details:      r.Details,
	}
}

// StatusRequest is the body of PATCH /admin/permits/{id}/status.
type StatusRequest struct {
	Status       string  `json:"status"`
	AdminComment *string `json:"admin_comment"`

	parsedStatus models.Status
}

func (r *StatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	status, err := models.ParseStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.parsedStatus = status
	return nil
}

// DocumentRequest registers an uploaded requirement.
type DocumentRequest struct {
	FilePath string `json:"file_path"`
}

func (r *DocumentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.FilePath = strings.TrimSpace(r.FilePath)
	if r.FilePath == "" {
		return dErrors.New(dErrors.CodeValidation, "file_path is required")
	}
	return nil
}

// ReviewRequest is the body of PATCH /admin/documents/{id}.
type ReviewRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason"`
}

func (r *ReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Status = strings.TrimSpace(r.Status)
	if !models.DocumentStatus(r.Status).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid document status: "+r.Status)
	}
	return nil
}

// PaymentRequest records a payment attempt.
type PaymentRequest struct {
	Amount           float64 `json:"amount"`
	PaymentMethod    string  `json:"payment_method"`
	PaymentReference string  `json:"payment_reference"`
}

func (r *PaymentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be greater than zero")
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		return dErrors.New(dErrors.CodeValidation, "payment_method is required")
	}
	return nil
}

// PaymentStatusRequest is the body of PATCH /admin/payments/{id}.
type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

func (r *PaymentStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if !models.PaymentStatus(strings.TrimSpace(r.PaymentStatus)).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid payment status: "+r.PaymentStatus)
	}
	return nil
}

// ImageRequest registers uploaded image metadata.
type ImageRequest struct {
	FileName  string `json:"file_name"`
	FilePath  string `json:"file_path"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

func (r *ImageRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.FilePath = strings.TrimSpace(r.FilePath)
	if r.FilePath == "" {
		return dErrors.New(dErrors.CodeValidation, "file_path is required")
	}
	if r.SizeBytes < 0 {
		return dErrors.New(dErrors.CodeValidation, "size_bytes must not be negative")
	}
	return nil
}
