// Package events publishes permit status changes for downstream consumers
// such as reporting and SMS gateways.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"permitflow/internal/permit/models"
)

// StatusChanged is emitted after a status write commits.
type StatusChanged struct {
	PermitID     uuid.UUID     `json:"permit_id"`
	ApplicantID  uuid.UUID     `json:"applicant_id"`
	From         models.Status `json:"from"`
	To           models.Status `json:"to"`
	AdminComment *string       `json:"admin_comment,omitempty"`
	ActorID      uuid.UUID     `json:"actor_id"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

// Publisher delivers status events. Delivery is best-effort; callers log
// failures and move on.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChanged) error
}

// Noop discards events. It stands in when no broker is configured.
type Noop struct{}

func (Noop) PublishStatusChanged(context.Context, StatusChanged) error { return nil }
