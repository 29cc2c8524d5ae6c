package models

import (
	"strings"

	dErrors "permitflow/pkg/domain-errors"
)

// Status is the permit workflow state.
//
// Transitions are admin-driven and the store accepts any of them. Approved and
// rejected are terminal for notification purposes: entering either schedules
// exactly one outcome notification.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid status: "+raw)
	}
	return s, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether s ends the review for notification purposes.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Editable reports whether the applicant may still edit or delete the permit.
func (s Status) Editable() bool {
	return s == StatusPending
}

// TransitionWarning describes a transition that is persisted but suspicious.
// An empty string means the transition is ordinary.
func (s Status) TransitionWarning(next Status) string {
	switch {
	case s == next:
		return "permit is already " + string(next)
	case s.IsTerminal():
		return "permit was already " + string(s) + "; moving it to " + string(next)
	}
	return ""
}

func (s Status) String() string {
	return string(s)
}
