package store

import _ "embed"

// Schema creates every table the aggregate store reads and writes. It is
// idempotent and safe to apply on every start.
//
//go:embed schema.sql
var Schema string

// TruncateOrder lists every table children first, for test cleanup.
var TruncateOrder = []Table{
	TableBuildingDetails, TableBuildingApplicants, TableBuildingConstructions,
	TableBuildingInspectors, TableBuildingEngineers,
	TableBusinessDetails, TableBusinessTaxpayers, TableBusinessEstablishments,
	TableBusinessEmployments, TableBusinessLessors,
	TableMotorela, TableDocuments, TablePayments, TableAuditLogs,
	TableUploadedImages, TableNotifications,
	TablePermits, TablePermitTypes, TableProfiles,
}
