package models

// PermitView is the assembled read view of one permit.
//
// Exactly one of Building, Business, Motorela and LegacyDetails is set for a
// normalized permit type. LegacyDetails is the subtype payload recovered from
// the details blob when no normalized rows exist.
type PermitView struct {
	Permit
	PermitType    *PermitType        `json:"permit_type"`
	Applicant     *Profile           `json:"applicant"`
	Documents     []*Document        `json:"documents"`
	Payments      []*Payment         `json:"payments"`
	AuditEntries  []*AuditEntry      `json:"audit_logs"`
	Images        []*UploadedImage   `json:"uploaded_images"`
	Building      *BuildingAggregate `json:"building_permit,omitempty"`
	Business      *BusinessAggregate `json:"business_permit,omitempty"`
	Motorela      *Motorela          `json:"motorela,omitempty"`
	LegacyDetails any                `json:"legacy_details,omitempty"`
}

// HasCompletedPayment reports whether any payment has cleared.
func (v *PermitView) HasCompletedPayment() bool {
	for _, p := range v.Payments {
		if p.PaymentStatus == PaymentCompleted {
			return true
		}
	}
	return false
}

// PendingPayment returns the newest pending payment, or nil.
func (v *PermitView) PendingPayment() *Payment {
	for _, p := range v.Payments {
		if p.PaymentStatus == PaymentPending {
			return p
		}
	}
	return nil
}

// PermitSummary is a list row. Applicant is populated on the admin listing.
type PermitSummary struct {
	Permit
	PermitType *PermitType `json:"permit_type"`
	Applicant  *Profile    `json:"applicant,omitempty"`
}
