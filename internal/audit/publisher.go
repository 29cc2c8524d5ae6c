package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"permitflow/internal/permit/models"
	"permitflow/internal/permit/store"
	"permitflow/pkg/requestcontext"
)

// Publisher appends permit audit entries. It is append-only and writes
// through the aggregate store, so entries join any transaction in ctx.
type Publisher struct {
	client store.Client
}

func NewPublisher(client store.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx)
	}
	if base.ActorID == nil {
		if userID, ok := requestcontext.CurrentUser(ctx); ok {
			base.ActorID = &userID
		}
	}
	entry := &models.AuditEntry{
		ID:        uuid.New(),
		PermitID:  base.PermitID,
		Action:    base.Action,
		ActorID:   base.ActorID,
		Note:      base.Note,
		CreatedAt: base.Timestamp,
	}
	if _, err := p.client.Insert(ctx, store.TableAuditLogs, store.AuditEntryRow(entry)); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// List returns a permit's entries newest first, each with its actor profile
// when one is on file.
func (p *Publisher) List(ctx context.Context, permitID uuid.UUID) ([]*models.AuditEntry, error) {
	rows, err := p.client.SelectMany(ctx, store.TableAuditLogs, store.Filter{"permit_id": permitID}, store.Newest)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	entries := make([]*models.AuditEntry, len(rows))
	var actorIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for i, row := range rows {
		entries[i] = store.ToAuditEntry(row)
		if a := entries[i].ActorID; a != nil && !seen[*a] {
			seen[*a] = true
			actorIDs = append(actorIDs, *a)
		}
	}
	if len(actorIDs) == 0 {
		return entries, nil
	}

	profileRows, err := p.client.SelectMany(ctx, store.TableProfiles, store.Filter{"id": actorIDs})
	if err != nil {
		return nil, fmt.Errorf("load audit actors: %w", err)
	}
	profiles := make(map[uuid.UUID]*models.Profile, len(profileRows))
	for _, row := range profileRows {
		profile := store.ToProfile(row)
		profiles[profile.ID] = profile
	}
	for _, e := range entries {
		if e.ActorID != nil {
			e.Actor = profiles[*e.ActorID]
		}
	}
	return entries, nil
}
