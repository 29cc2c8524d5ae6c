// Package store is the generic aggregate store client used by every permit
// component. Records travel as column maps so the subtype synchronizer,
// cascade engine and read paths share one narrow surface that both the
// in-memory and PostgreSQL backends implement.
//
// Filters are equality conjunctions. A nil filter value matches NULL and a
// []string value matches any of its members.
package store

import (
	"context"
	"fmt"
	"slices"
)

// Table names a relation in the aggregate store.
type Table string

const (
	TablePermits                Table = "permits"
	TablePermitTypes            Table = "permit_types"
	TableProfiles               Table = "profiles"
	TableBuildingDetails        Table = "building_permit_details"
	TableBuildingApplicants     Table = "building_applicants"
	TableBuildingConstructions  Table = "building_constructions"
	TableBuildingInspectors     Table = "building_inspectors"
	TableBuildingEngineers      Table = "building_engineers"
	TableBusinessDetails        Table = "business_permit_details"
	TableBusinessTaxpayers      Table = "business_taxpayers"
	TableBusinessEstablishments Table = "business_establishments"
	TableBusinessEmployments    Table = "business_employments"
	TableBusinessLessors        Table = "business_lessors"
	TableMotorela               Table = "motorela_permits"
	TableDocuments              Table = "documents"
	TablePayments               Table = "payments"
	TableAuditLogs              Table = "permit_audit_logs"
	TableUploadedImages         Table = "uploaded_images"
	TableNotifications          Table = "notifications"
)

// Row is one record keyed by column name.
type Row map[string]any

// Filter selects rows whose columns equal the given values.
type Filter map[string]any

// Order sorts SelectMany results by one column.
type Order struct {
	Column string
	Desc   bool
}

// Newest orders rows by created_at, most recent first.
var Newest = Order{Column: "created_at", Desc: true}

// Client is the aggregate store surface.
type Client interface {
	// Insert writes row and returns it as stored.
	Insert(ctx context.Context, table Table, row Row) (Row, error)
	// Update patches the rows matching key and returns the first one.
	// Returns sentinel.ErrNotFound when nothing matched.
	Update(ctx context.Context, table Table, key Filter, patch Row) (Row, error)
	// Delete removes the rows matching key. Matching nothing is not an error.
	Delete(ctx context.Context, table Table, key Filter) error
	// SelectOne returns the first matching row or sentinel.ErrNotFound.
	SelectOne(ctx context.Context, table Table, filter Filter) (Row, error)
	SelectMany(ctx context.Context, table Table, filter Filter, order ...Order) ([]Row, error)
}

// Transactor runs fn so that every Client call made with the context it
// receives commits or rolls back together.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// columns is the allowlist of writable and filterable columns per table.
var columns = map[Table][]string{
	TablePermits: {"id", "applicant_id", "permit_type_id", "address", "status", "admin_comment", "details", "created_at", "updated_at"},
	TablePermitTypes: {"id", "slug", "title", "kind"},
	TableProfiles:    {"id", "full_name", "email", "role", "created_at"},
	TableBuildingDetails: {"id", "permit_id", "application_no", "bp_no", "owner_signature_date",
		"applicant_id", "construction_id", "inspector_id", "engineer_id", "created_at", "updated_at"},
	TableBuildingApplicants: {"id", "permit_id", "last_name", "first_name", "middle_initial", "tin",
		"owner_address", "contact_no", "form_of_ownership"},
	TableBuildingConstructions: {"id", "permit_id", "location_street", "lot_no", "block_no", "tct_no",
		"tax_dec_no", "barangay", "scope_of_work", "use_or_character", "occupancy_classified",
		"number_of_units", "lot_area", "floor_area", "estimated_cost", "proposed_construction_date",
		"expected_completion_date"},
	TableBuildingInspectors: {"id", "permit_id", "full_name", "prc_no", "ptr_no", "tin", "address", "date_issued"},
	TableBuildingEngineers:  {"id", "permit_id", "full_name", "prc_no", "ptr_no", "tin", "address", "date_issued", "validity"},
	TableBusinessDetails: {"id", "permit_id", "tax_year", "control_no", "mode_of_payment",
		"application_type", "amendment", "org_type", "taxpayer_id", "establishment_id",
		"employment_id", "lessor_id", "created_at", "updated_at"},
	TableBusinessTaxpayers: {"id", "permit_id", "last_name", "first_name", "middle_name", "business_name",
		"trade_name", "tin", "registration_no", "registration_date", "address", "contact_no", "email"},
	TableBusinessEstablishments: {"id", "permit_id", "business_address", "postal_code", "telephone_no",
		"email", "business_area", "line_of_business", "no_of_units", "capitalization", "gross_sales",
		"property_owned"},
	TableBusinessEmployments: {"id", "permit_id", "total_employees", "employees_residing_in_lgu",
		"delivery_vans", "delivery_motorcycles"},
	TableBusinessLessors: {"id", "permit_id", "full_name", "address", "contact_no", "email", "monthly_rental"},
	TableMotorela: {"id", "permit_id", "plate_no", "operator", "operator_address", "driver_name",
		"driver_license_no", "make", "motor_no", "chassis_no", "body_no", "route", "contact_no",
		"created_at", "updated_at"},
	TableDocuments: {"id", "permit_id", "uploader_id", "file_path", "status", "rejection_reason",
		"rejected_at", "rejected_by", "created_at"},
	TablePayments:  {"id", "permit_id", "amount", "payment_method", "payment_status", "payment_reference", "created_at"},
	TableAuditLogs: {"id", "permit_id", "action", "actor_id", "note", "created_at"},
	TableUploadedImages: {"id", "permit_id", "uploader_id", "file_name", "file_path", "mime_type",
		"size_bytes", "created_at"},
	TableNotifications: {"id", "user_id", "permit_id", "title", "message", "type", "is_read",
		"gcash_qr_code_url", "created_at"},
}

// Columns returns the column catalogue of table in declaration order.
func Columns(table Table) []string {
	return slices.Clone(columns[table])
}

func checkColumns(table Table, keys ...map[string]any) error {
	known, ok := columns[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	for _, m := range keys {
		for col := range m {
			if !slices.Contains(known, col) {
				return fmt.Errorf("unknown column %q on %s", col, table)
			}
		}
	}
	return nil
}

// reference is a foreign key from column on a table to another table's id.
type reference struct {
	table  Table
	column string
}

// references lists, for each referenced table, the rows that point at it.
// Deleting a referenced row fails with sentinel.ErrReferenced.
var references = map[Table][]reference{
	TableBuildingApplicants:     {{TableBuildingDetails, "applicant_id"}},
	TableBuildingConstructions:  {{TableBuildingDetails, "construction_id"}},
	TableBuildingInspectors:     {{TableBuildingDetails, "inspector_id"}},
	TableBuildingEngineers:      {{TableBuildingDetails, "engineer_id"}},
	TableBusinessTaxpayers:      {{TableBusinessDetails, "taxpayer_id"}},
	TableBusinessEstablishments: {{TableBusinessDetails, "establishment_id"}},
	TableBusinessEmployments:    {{TableBusinessDetails, "employment_id"}},
	TableBusinessLessors:        {{TableBusinessDetails, "lessor_id"}},
	TablePermits: {
		{TableBuildingDetails, "permit_id"}, {TableBuildingApplicants, "permit_id"},
		{TableBuildingConstructions, "permit_id"}, {TableBuildingInspectors, "permit_id"},
		{TableBuildingEngineers, "permit_id"}, {TableBusinessDetails, "permit_id"},
		{TableBusinessTaxpayers, "permit_id"}, {TableBusinessEstablishments, "permit_id"},
		{TableBusinessEmployments, "permit_id"}, {TableBusinessLessors, "permit_id"},
		{TableMotorela, "permit_id"}, {TableDocuments, "permit_id"}, {TablePayments, "permit_id"},
		{TableAuditLogs, "permit_id"}, {TableUploadedImages, "permit_id"},
		{TableNotifications, "permit_id"},
	},
}

// perPermit lists the tables holding at most one row per permit.
var perPermit = map[Table]bool{
	TableBuildingDetails:        true,
	TableBuildingApplicants:     true,
	TableBuildingConstructions:  true,
	TableBuildingInspectors:     true,
	TableBuildingEngineers:      true,
	TableBusinessDetails:        true,
	TableBusinessTaxpayers:      true,
	TableBusinessEstablishments: true,
	TableBusinessEmployments:    true,
	TableBusinessLessors:        true,
	TableMotorela:               true,
}
