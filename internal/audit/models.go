package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is one line of a permit's history as emitted by domain logic.
// ActorID defaults to the authenticated caller when left nil.
type Event struct {
	PermitID  uuid.UUID
	Action    string
	ActorID   *uuid.UUID
	Note      string
	Timestamp time.Time
}
