package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"permitflow/internal/permit/models"
	"permitflow/internal/permit/store"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/platform/sentinel"
	"permitflow/pkg/requestcontext"
)

// PaymentInput is a fee payment a citizen reports against a permit.
type PaymentInput struct {
	Amount    float64
	Method    string
	Reference string
}

// ImageInput is metadata for a photo already uploaded to object storage.
type ImageInput struct {
	FileName  string
	FilePath  string
	MimeType  string
	SizeBytes int64
}

// AddDocument registers an uploaded requirement for review.
func (s *Service) AddDocument(ctx context.Context, permitID uuid.UUID, filePath string) (*models.Document, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "file_path is required")
	}
	if _, err := s.readable(ctx, permitID); err != nil {
		return nil, err
	}
	doc := &models.Document{
		ID:         uuid.New(),
		PermitID:   permitID,
		UploaderID: requestcontext.UserID(ctx),
		FilePath:   filePath,
		Status:     models.DocumentPending,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if _, err := s.client.Insert(ctx, store.TableDocuments, store.DocumentRow(doc)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save document")
	}
	s.logAudit(ctx, permitID, models.AuditActionDocumentAdded, filePath)
	return doc, nil
}

// ReviewDocument approves or rejects a document. Rejection stamps the
// reviewer and time; approval clears them.
func (s *Service) ReviewDocument(ctx context.Context, documentID uuid.UUID, status models.DocumentStatus, reason string) (*models.Document, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if status != models.DocumentApproved && status != models.DocumentRejected {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be approved or rejected")
	}

	patch := store.Row{"status": string(status), "rejection_reason": nil, "rejected_at": nil, "rejected_by": nil}
	if status == models.DocumentRejected {
		reviewer := requestcontext.UserID(ctx)
		if r := strings.TrimSpace(reason); r != "" {
			patch["rejection_reason"] = r
		}
		patch["rejected_at"] = requestcontext.Now(ctx)
		patch["rejected_by"] = reviewer
	}
	row, err := s.client.Update(ctx, store.TableDocuments, store.Filter{"id": documentID}, patch)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to review document")
	}
	doc := store.ToDocument(row)
	s.logAudit(ctx, doc.PermitID, models.AuditActionDocumentReview, fmt.Sprintf("%s %s", doc.FilePath, status))
	return doc, nil
}

// RecordPayment adds a pending payment to a permit the caller may read.
func (s *Service) RecordPayment(ctx context.Context, permitID uuid.UUID, in PaymentInput) (*models.Payment, error) {
	if in.Amount <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be greater than zero")
	}
	method := strings.TrimSpace(in.Method)
	if method == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "payment_method is required")
	}
	if _, err := s.readable(ctx, permitID); err != nil {
		return nil, err
	}
	payment := &models.Payment{
		ID:               uuid.New(),
		PermitID:         permitID,
		Amount:           in.Amount,
		PaymentMethod:    method,
		PaymentStatus:    models.PaymentPending,
		PaymentReference: strings.TrimSpace(in.Reference),
		CreatedAt:        requestcontext.Now(ctx),
	}
	if _, err := s.client.Insert(ctx, store.TablePayments, store.PaymentRow(payment)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment")
	}
	s.logAudit(ctx, permitID, models.AuditActionPaymentAdded, fmt.Sprintf("%.2f via %s", payment.Amount, method))
	return payment, nil
}

// SetPaymentStatus marks a payment completed, failed or back to pending.
func (s *Service) SetPaymentStatus(ctx context.Context, paymentID uuid.UUID, status models.PaymentStatus) (*models.Payment, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid payment status: "+string(status))
	}
	row, err := s.client.Update(ctx, store.TablePayments, store.Filter{"id": paymentID}, store.Row{"payment_status": string(status)})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "payment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update payment")
	}
	payment := store.ToPayment(row)
	s.logAudit(ctx, payment.PermitID, models.AuditActionPaymentStatus, string(status))
	return payment, nil
}

// AddImage registers metadata for an uploaded photo.
func (s *Service) AddImage(ctx context.Context, permitID uuid.UUID, in ImageInput) (*models.UploadedImage, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	in.FilePath = strings.TrimSpace(in.FilePath)
	if in.FileName == "" || in.FilePath == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "file_name and file_path are required")
	}
	if in.SizeBytes < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "size_bytes cannot be negative")
	}
	if _, err := s.readable(ctx, permitID); err != nil {
		return nil, err
	}
	img := &models.UploadedImage{
		ID:         uuid.New(),
		PermitID:   permitID,
		UploaderID: requestcontext.UserID(ctx),
		FileName:   in.FileName,
		FilePath:   in.FilePath,
		MimeType:   strings.TrimSpace(in.MimeType),
		SizeBytes:  in.SizeBytes,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if _, err := s.client.Insert(ctx, store.TableUploadedImages, store.UploadedImageRow(img)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save image")
	}
	s.logAudit(ctx, permitID, models.AuditActionImageAdded, in.FileName)
	return img, nil
}
