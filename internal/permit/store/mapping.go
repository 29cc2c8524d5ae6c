package store

import (
	"permitflow/internal/permit/models"
)

// Permit roots

func PermitRow(p *models.Permit) Row {
	details := p.Details
	if len(details) == 0 {
		details = []byte(`{}`)
	}
	return Row{
		"id":             p.ID,
		"applicant_id":   p.ApplicantID,
		"permit_type_id": p.PermitTypeID,
		"address":        p.Address,
		"status":         string(p.Status),
		"admin_comment":  p.AdminComment,
		"details":        details,
		"created_at":     p.CreatedAt,
		"updated_at":     p.UpdatedAt,
	}
}

func ToPermit(r Row) *models.Permit {
	return &models.Permit{
		ID:           r.UUID("id"),
		ApplicantID:  r.UUID("applicant_id"),
		PermitTypeID: r.UUID("permit_type_id"),
		Address:      r.String("address"),
		Status:       models.Status(r.String("status")),
		AdminComment: r.StringPtr("admin_comment"),
		Details:      r.JSON("details"),
		CreatedAt:    r.Time("created_at"),
		UpdatedAt:    r.Time("updated_at"),
	}
}

func PermitTypeRow(t *models.PermitType) Row {
	return Row{"id": t.ID, "slug": t.Slug, "title": t.Title, "kind": string(t.Kind)}
}

func ToPermitType(r Row) *models.PermitType {
	return &models.PermitType{
		ID:    r.UUID("id"),
		Slug:  r.String("slug"),
		Title: r.String("title"),
		Kind:  models.Kind(r.String("kind")),
	}
}

func ProfileRow(p *models.Profile) Row {
	return Row{
		"id":         p.ID,
		"full_name":  p.FullName,
		"email":      p.Email,
		"role":       p.Role,
		"created_at": p.CreatedAt,
	}
}

func ToProfile(r Row) *models.Profile {
	return &models.Profile{
		ID:        r.UUID("id"),
		FullName:  r.String("full_name"),
		Email:     r.String("email"),
		Role:      r.String("role"),
		CreatedAt: r.Time("created_at"),
	}
}

// Building subtype

func BuildingDetailsRow(d *models.BuildingDetails) Row {
	return Row{
		"id":                   d.ID,
		"permit_id":            d.PermitID,
		"application_no":       d.ApplicationNo,
		"bp_no":                d.BPNo,
		"owner_signature_date": d.OwnerSignatureDate,
		"applicant_id":         d.ApplicantID,
		"construction_id":      d.ConstructionID,
		"inspector_id":         d.InspectorID,
		"engineer_id":          d.EngineerID,
		"created_at":           d.CreatedAt,
		"updated_at":           d.UpdatedAt,
	}
}

func ToBuildingDetails(r Row) models.BuildingDetails {
	return models.BuildingDetails{
		ID:                 r.UUID("id"),
		PermitID:           r.UUID("permit_id"),
		ApplicationNo:      r.String("application_no"),
		BPNo:               r.String("bp_no"),
		OwnerSignatureDate: r.String("owner_signature_date"),
		ApplicantID:        r.UUID("applicant_id"),
		ConstructionID:     r.UUID("construction_id"),
		InspectorID:        r.UUID("inspector_id"),
		EngineerID:         r.UUID("engineer_id"),
		CreatedAt:          r.Time("created_at"),
		UpdatedAt:          r.Time("updated_at"),
	}
}

func BuildingApplicantRow(a *models.BuildingApplicant) Row {
	return Row{
		"id":                a.ID,
		"permit_id":         a.PermitID,
		"last_name":         a.LastName,
		"first_name":        a.FirstName,
		"middle_initial":    a.MiddleInitial,
		"tin":               a.TIN,
		"owner_address":     a.OwnerAddress,
		"contact_no":        a.ContactNo,
		"form_of_ownership": a.FormOfOwnership,
	}
}

func ToBuildingApplicant(r Row) models.BuildingApplicant {
	return models.BuildingApplicant{
		ID:              r.UUID("id"),
		PermitID:        r.UUID("permit_id"),
		LastName:        r.String("last_name"),
		FirstName:       r.String("first_name"),
		MiddleInitial:   r.String("middle_initial"),
		TIN:             r.String("tin"),
		OwnerAddress:    r.String("owner_address"),
		ContactNo:       r.String("contact_no"),
		FormOfOwnership: r.String("form_of_ownership"),
	}
}

func BuildingConstructionRow(c *models.BuildingConstruction) Row {
	return Row{
		"id":                         c.ID,
		"permit_id":                  c.PermitID,
		"location_street":            c.LocationStreet,
		"lot_no":                     c.LotNo,
		"block_no":                   c.BlockNo,
		"tct_no":                     c.TCTNo,
		"tax_dec_no":                 c.TaxDecNo,
		"barangay":                   c.Barangay,
		"scope_of_work":              c.ScopeOfWork,
		"use_or_character":           c.UseOrCharacter,
		"occupancy_classified":       c.OccupancyClassified,
		"number_of_units":            c.NumberOfUnits,
		"lot_area":                   c.LotArea,
		"floor_area":                 c.FloorArea,
		"estimated_cost":             c.EstimatedCost,
		"proposed_construction_date": c.ProposedConstructionDate,
		"expected_completion_date":   c.ExpectedCompletionDate,
	}
}

func ToBuildingConstruction(r Row) models.BuildingConstruction {
	return models.BuildingConstruction{
		ID:                       r.UUID("id"),
		PermitID:                 r.UUID("permit_id"),
		LocationStreet:           r.String("location_street"),
		LotNo:                    r.String("lot_no"),
		BlockNo:                  r.String("block_no"),
		TCTNo:                    r.String("tct_no"),
		TaxDecNo:                 r.String("tax_dec_no"),
		Barangay:                 r.String("barangay"),
		ScopeOfWork:              r.String("scope_of_work"),
		UseOrCharacter:           r.String("use_or_character"),
		OccupancyClassified:      r.String("occupancy_classified"),
		NumberOfUnits:            r.Int64Ptr("number_of_units"),
		LotArea:                  r.Float64Ptr("lot_area"),
		FloorArea:                r.Float64Ptr("floor_area"),
		EstimatedCost:            r.Float64Ptr("estimated_cost"),
		ProposedConstructionDate: r.String("proposed_construction_date"),
		ExpectedCompletionDate:   r.String("expected_completion_date"),
	}
}

// ProfessionalRow maps an inspector or engineer. Only engineers carry validity.
func ProfessionalRow(p *models.Professional, table Table) Row {
	row := Row{
		"id":          p.ID,
		"permit_id":   p.PermitID,
		"full_name":   p.FullName,
		"prc_no":      p.PRCNo,
		"ptr_no":      p.PTRNo,
		"tin":         p.TIN,
		"address":     p.Address,
		"date_issued": p.DateIssued,
	}
	if table == TableBuildingEngineers {
		row["validity"] = p.Validity
	}
	return row
}

func ToProfessional(r Row) models.Professional {
	return models.Professional{
		ID:         r.UUID("id"),
		PermitID:   r.UUID("permit_id"),
		FullName:   r.String("full_name"),
		PRCNo:      r.String("prc_no"),
		PTRNo:      r.String("ptr_no"),
		TIN:        r.String("tin"),
		Address:    r.String("address"),
		DateIssued: r.String("date_issued"),
		Validity:   r.String("validity"),
	}
}

// Business subtype

func BusinessDetailsRow(d *models.BusinessDetails) Row {
	return Row{
		"id":               d.ID,
		"permit_id":        d.PermitID,
		"tax_year":         d.TaxYear,
		"control_no":       d.ControlNo,
		"mode_of_payment":  d.ModeOfPayment,
		"application_type": d.ApplicationType,
		"amendment":        d.Amendment,
		"org_type":         d.OrgType,
		"taxpayer_id":      d.TaxpayerID,
		"establishment_id": d.EstablishmentID,
		"employment_id":    d.EmploymentID,
		"lessor_id":        d.LessorID,
		"created_at":       d.CreatedAt,
		"updated_at":       d.UpdatedAt,
	}
}

func ToBusinessDetails(r Row) models.BusinessDetails {
	return models.BusinessDetails{
		ID:              r.UUID("id"),
		PermitID:        r.UUID("permit_id"),
		TaxYear:         r.String("tax_year"),
		ControlNo:       r.String("control_no"),
		ModeOfPayment:   r.String("mode_of_payment"),
		ApplicationType: r.String("application_type"),
		Amendment:       r.String("amendment"),
		OrgType:         r.String("org_type"),
		TaxpayerID:      r.UUID("taxpayer_id"),
		EstablishmentID: r.UUID("establishment_id"),
		EmploymentID:    r.UUID("employment_id"),
		LessorID:        r.UUIDPtr("lessor_id"),
		CreatedAt:       r.Time("created_at"),
		UpdatedAt:       r.Time("updated_at"),
	}
}

func BusinessTaxpayerRow(t *models.BusinessTaxpayer) Row {
	return Row{
		"id":                t.ID,
		"permit_id":         t.PermitID,
		"last_name":         t.LastName,
		"first_name":        t.FirstName,
		"middle_name":       t.MiddleName,
		"business_name":     t.BusinessName,
		"trade_name":        t.TradeName,
		"tin":               t.TIN,
		"registration_no":   t.RegistrationNo,
		"registration_date": t.RegistrationDate,
		"address":           t.Address,
		"contact_no":        t.ContactNo,
		"email":             t.Email,
	}
}

func ToBusinessTaxpayer(r Row) models.BusinessTaxpayer {
	return models.BusinessTaxpayer{
		ID:               r.UUID("id"),
		PermitID:         r.UUID("permit_id"),
		LastName:         r.String("last_name"),
		FirstName:        r.String("first_name"),
		MiddleName:       r.String("middle_name"),
		BusinessName:     r.String("business_name"),
		TradeName:        r.String("trade_name"),
		TIN:              r.String("tin"),
		RegistrationNo:   r.String("registration_no"),
		RegistrationDate: r.String("registration_date"),
		Address:          r.String("address"),
		ContactNo:        r.String("contact_no"),
		Email:            r.String("email"),
	}
}

func BusinessEstablishmentRow(e *models.BusinessEstablishment) Row {
	return Row{
		"id":               e.ID,
		"permit_id":        e.PermitID,
		"business_address": e.BusinessAddress,
		"postal_code":      e.PostalCode,
		"telephone_no":     e.TelephoneNo,
		"email":            e.Email,
		"business_area":    e.BusinessArea,
		"line_of_business": e.LineOfBusiness,
		"no_of_units":      e.NoOfUnits,
		"capitalization":   e.Capitalization,
		"gross_sales":      e.GrossSales,
		"property_owned":   e.PropertyOwned,
	}
}

func ToBusinessEstablishment(r Row) models.BusinessEstablishment {
	return models.BusinessEstablishment{
		ID:              r.UUID("id"),
		PermitID:        r.UUID("permit_id"),
		BusinessAddress: r.String("business_address"),
		PostalCode:      r.String("postal_code"),
		TelephoneNo:     r.String("telephone_no"),
		Email:           r.String("email"),
		BusinessArea:    r.Float64Ptr("business_area"),
		LineOfBusiness:  r.String("line_of_business"),
		NoOfUnits:       r.Int64Ptr("no_of_units"),
		Capitalization:  r.Float64Ptr("capitalization"),
		GrossSales:      r.Float64Ptr("gross_sales"),
		PropertyOwned:   r.BoolPtr("property_owned"),
	}
}

func BusinessEmploymentRow(e *models.BusinessEmployment) Row {
	return Row{
		"id":                        e.ID,
		"permit_id":                 e.PermitID,
		"total_employees":           e.TotalEmployees,
		"employees_residing_in_lgu": e.EmployeesResidingInLGU,
		"delivery_vans":             e.DeliveryVans,
		"delivery_motorcycles":      e.DeliveryMotorcycles,
	}
}

func ToBusinessEmployment(r Row) models.BusinessEmployment {
	return models.BusinessEmployment{
		ID:                     r.UUID("id"),
		PermitID:               r.UUID("permit_id"),
		TotalEmployees:         r.Int64Ptr("total_employees"),
		EmployeesResidingInLGU: r.Int64Ptr("employees_residing_in_lgu"),
		DeliveryVans:           r.Int64Ptr("delivery_vans"),
		DeliveryMotorcycles:    r.Int64Ptr("delivery_motorcycles"),
	}
}

func BusinessLessorRow(l *models.BusinessLessor) Row {
	return Row{
		"id":             l.ID,
		"permit_id":      l.PermitID,
		"full_name":      l.FullName,
		"address":        l.Address,
		"contact_no":     l.ContactNo,
		"email":          l.Email,
		"monthly_rental": l.MonthlyRental,
	}
}

func ToBusinessLessor(r Row) *models.BusinessLessor {
	return &models.BusinessLessor{
		ID:            r.UUID("id"),
		PermitID:      r.UUID("permit_id"),
		FullName:      r.String("full_name"),
		Address:       r.String("address"),
		ContactNo:     r.String("contact_no"),
		Email:         r.String("email"),
		MonthlyRental: r.Float64Ptr("monthly_rental"),
	}
}

// Motorela subtype

func MotorelaRow(m *models.Motorela) Row {
	return Row{
		"id":                m.ID,
		"permit_id":         m.PermitID,
		"plate_no":          m.PlateNo,
		"operator":          m.Operator,
		"operator_address":  m.OperatorAddress,
		"driver_name":       m.DriverName,
		"driver_license_no": m.DriverLicenseNo,
		"make":              m.Make,
		"motor_no":          m.MotorNo,
		"chassis_no":        m.ChassisNo,
		"body_no":           m.BodyNo,
		"route":             m.Route,
		"contact_no":        m.ContactNo,
		"created_at":        m.CreatedAt,
		"updated_at":        m.UpdatedAt,
	}
}

func ToMotorela(r Row) *models.Motorela {
	return &models.Motorela{
		ID:              r.UUID("id"),
		PermitID:        r.UUID("permit_id"),
		PlateNo:         r.String("plate_no"),
		Operator:        r.String("operator"),
		OperatorAddress: r.String("operator_address"),
		DriverName:      r.String("driver_name"),
		DriverLicenseNo: r.String("driver_license_no"),
		Make:            r.String("make"),
		MotorNo:         r.String("motor_no"),
		ChassisNo:       r.String("chassis_no"),
		BodyNo:          r.String("body_no"),
		Route:           r.String("route"),
		ContactNo:       r.String("contact_no"),
		CreatedAt:       r.Time("created_at"),
		UpdatedAt:       r.Time("updated_at"),
	}
}

// Side records

func DocumentRow(d *models.Document) Row {
	return Row{
		"id":               d.ID,
		"permit_id":        d.PermitID,
		"uploader_id":      d.UploaderID,
		"file_path":        d.FilePath,
		"status":           string(d.Status),
		"rejection_reason": d.RejectionReason,
		"rejected_at":      d.RejectedAt,
		"rejected_by":      d.RejectedBy,
		"created_at":       d.CreatedAt,
	}
}

func ToDocument(r Row) *models.Document {
	return &models.Document{
		ID:              r.UUID("id"),
		PermitID:        r.UUID("permit_id"),
		UploaderID:      r.UUID("uploader_id"),
		FilePath:        r.String("file_path"),
		Status:          models.DocumentStatus(r.String("status")),
		RejectionReason: r.StringPtr("rejection_reason"),
		RejectedAt:      r.TimePtr("rejected_at"),
		RejectedBy:      r.UUIDPtr("rejected_by"),
		CreatedAt:       r.Time("created_at"),
	}
}

func PaymentRow(p *models.Payment) Row {
	return Row{
		"id":                p.ID,
		"permit_id":         p.PermitID,
		"amount":            p.Amount,
		"payment_method":    p.PaymentMethod,
		"payment_status":    string(p.PaymentStatus),
		"payment_reference": p.PaymentReference,
		"created_at":        p.CreatedAt,
	}
}

func ToPayment(r Row) *models.Payment {
	return &models.Payment{
		ID:               r.UUID("id"),
		PermitID:         r.UUID("permit_id"),
		Amount:           r.Float64("amount"),
		PaymentMethod:    r.String("payment_method"),
		PaymentStatus:    models.PaymentStatus(r.String("payment_status")),
		PaymentReference: r.String("payment_reference"),
		CreatedAt:        r.Time("created_at"),
	}
}

func AuditEntryRow(e *models.AuditEntry) Row {
	return Row{
		"id":         e.ID,
		"permit_id":  e.PermitID,
		"action":     e.Action,
		"actor_id":   e.ActorID,
		"note":       e.Note,
		"created_at": e.CreatedAt,
	}
}

func ToAuditEntry(r Row) *models.AuditEntry {
	return &models.AuditEntry{
		ID:        r.UUID("id"),
		PermitID:  r.UUID("permit_id"),
		Action:    r.String("action"),
		ActorID:   r.UUIDPtr("actor_id"),
		Note:      r.String("note"),
		CreatedAt: r.Time("created_at"),
	}
}

func UploadedImageRow(i *models.UploadedImage) Row {
	return Row{
		"id":          i.ID,
		"permit_id":   i.PermitID,
		"uploader_id": i.UploaderID,
		"file_name":   i.FileName,
		"file_path":   i.FilePath,
		"mime_type":   i.MimeType,
		"size_bytes":  i.SizeBytes,
		"created_at":  i.CreatedAt,
	}
}

func ToUploadedImage(r Row) *models.UploadedImage {
	return &models.UploadedImage{
		ID:         r.UUID("id"),
		PermitID:   r.UUID("permit_id"),
		UploaderID: r.UUID("uploader_id"),
		FileName:   r.String("file_name"),
		FilePath:   r.String("file_path"),
		MimeType:   r.String("mime_type"),
		SizeBytes:  r.Int64("size_bytes"),
		CreatedAt:  r.Time("created_at"),
	}
}
