package models

import (
	"time"

	"github.com/google/uuid"
)

// BusinessPayload is the flat business permit form. Taxpayer, establishment
// and employment are required children; lessor is created only when any
// lessor field is filled in.
type BusinessPayload struct {
	TaxYear         Field `json:"tax_year" validate:"required"`
	ControlNo       Field `json:"control_no"`
	ModeOfPayment   Field `json:"mode_of_payment" validate:"required"`
	ApplicationType Field `json:"application_type" validate:"required"`
	Amendment       Field `json:"amendment"`
	OrgType         Field `json:"org_type" validate:"required"`

	TaxpayerLastName   Field `json:"taxpayer_last_name" validate:"required"`
	TaxpayerFirstName  Field `json:"taxpayer_first_name" validate:"required"`
	TaxpayerMiddleName Field `json:"taxpayer_middle_name"`
	BusinessName       Field `json:"business_name" validate:"required"`
	TradeName          Field `json:"trade_name"`
	TIN                Field `json:"tin"`
	RegistrationNo     Field `json:"registration_no"`
	RegistrationDate   Field `json:"registration_date"`
	TaxpayerAddress    Field `json:"taxpayer_address"`
	TaxpayerContactNo  Field `json:"taxpayer_contact_no"`
	TaxpayerEmail      Field `json:"taxpayer_email" validate:"omitempty,email"`

	BusinessAddress   Field `json:"business_address" validate:"required"`
	PostalCode        Field `json:"postal_code"`
	BusinessTelephone Field `json:"business_telephone"`
	BusinessEmail     Field `json:"business_email" validate:"omitempty,email"`
	BusinessArea      Field `json:"business_area"`
	LineOfBusiness    Field `json:"line_of_business" validate:"required"`
	NoOfUnits         Field `json:"no_of_units"`
	Capitalization    Field `json:"capitalization"`
	GrossSales        Field `json:"gross_sales"`
	PropertyOwned     Field `json:"property_owned"`

	TotalEmployees         Field `json:"total_employees"`
	EmployeesResidingInLGU Field `json:"employees_residing_in_lgu"`
	DeliveryVans           Field `json:"delivery_vans"`
	DeliveryMotorcycles    Field `json:"delivery_motorcycles"`

	LessorFullName  Field `json:"lessor_full_name"`
	LessorAddress   Field `json:"lessor_address"`
	LessorContactNo Field `json:"lessor_contact_no"`
	LessorEmail     Field `json:"lessor_email" validate:"omitempty,email"`
	MonthlyRental   Field `json:"monthly_rental"`
}

// HasLessor reports whether any lessor field carries a value.
func (p *BusinessPayload) HasLessor() bool {
	for _, f := range []Field{p.LessorFullName, p.LessorAddress, p.LessorContactNo, p.LessorEmail, p.MonthlyRental} {
		if !f.Empty() {
			return true
		}
	}
	return false
}

// BusinessDetails is the business "details" root. LessorID is nil when the
// permit has no lessor.
type BusinessDetails struct {
	ID              uuid.UUID  `json:"id"`
	PermitID        uuid.UUID  `json:"permit_id"`
	TaxYear         string     `json:"tax_year"`
	ControlNo       string     `json:"control_no"`
	ModeOfPayment   string     `json:"mode_of_payment"`
	ApplicationType string     `json:"application_type"`
	Amendment       string     `json:"amendment"`
	OrgType         string     `json:"org_type"`
	TaxpayerID      uuid.UUID  `json:"taxpayer_id"`
	EstablishmentID uuid.UUID  `json:"establishment_id"`
	EmploymentID    uuid.UUID  `json:"employment_id"`
	LessorID        *uuid.UUID `json:"lessor_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type BusinessTaxpayer struct {
	ID               uuid.UUID `json:"id"`
	PermitID         uuid.UUID `json:"permit_id"`
	LastName         string    `json:"last_name"`
	FirstName        string    `json:"first_name"`
	MiddleName       string    `json:"middle_name"`
	BusinessName     string    `json:"business_name"`
	TradeName        string    `json:"trade_name"`
	TIN              string    `json:"tin"`
	RegistrationNo   string    `json:"registration_no"`
	RegistrationDate string    `json:"registration_date"`
	Address          string    `json:"address"`
	ContactNo        string    `json:"contact_no"`
	Email            string    `json:"email"`
}

type BusinessEstablishment struct {
	ID              uuid.UUID `json:"id"`
	PermitID        uuid.UUID `json:"permit_id"`
	BusinessAddress string    `json:"business_address"`
	PostalCode      string    `json:"postal_code"`
	TelephoneNo     string    `json:"telephone_no"`
	Email           string    `json:"email"`
	BusinessArea    *float64  `json:"business_area"`
	LineOfBusiness  string    `json:"line_of_business"`
	NoOfUnits       *int64    `json:"no_of_units"`
	Capitalization  *float64  `json:"capitalization"`
	GrossSales      *float64  `json:"gross_sales"`
	PropertyOwned   *bool     `json:"property_owned"`
}

type BusinessEmployment struct {
	ID                     uuid.UUID `json:"id"`
	PermitID               uuid.UUID `json:"permit_id"`
	TotalEmployees         *int64    `json:"total_employees"`
	EmployeesResidingInLGU *int64    `json:"employees_residing_in_lgu"`
	DeliveryVans           *int64    `json:"delivery_vans"`
	DeliveryMotorcycles    *int64    `json:"delivery_motorcycles"`
}

type BusinessLessor struct {
	ID            uuid.UUID `json:"id"`
	PermitID      uuid.UUID `json:"permit_id"`
	FullName      string    `json:"full_name"`
	Address       string    `json:"address"`
	ContactNo     string    `json:"contact_no"`
	Email         string    `json:"email"`
	MonthlyRental *float64  `json:"monthly_rental"`
}

// BusinessAggregate is the full normalized business subtype of one permit.
type BusinessAggregate struct {
	Details       BusinessDetails       `json:"details"`
	Taxpayer      BusinessTaxpayer      `json:"taxpayer"`
	Establishment BusinessEstablishment `json:"establishment"`
	Employment    BusinessEmployment    `json:"employment"`
	Lessor        *BusinessLessor       `json:"lessor"`
}

// Records parses the payload into child records without ids. Lessor is nil
// when the payload leaves every lessor field blank.
func (p *BusinessPayload) Records() (*BusinessAggregate, error) {
	area, err := ParseDecimal("business_area", p.BusinessArea)
	if err != nil {
		return nil, err
	}
	units, err := ParseCount("no_of_units", p.NoOfUnits)
	if err != nil {
		return nil, err
	}
	capital, err := ParseDecimal("capitalization", p.Capitalization)
	if err != nil {
		return nil, err
	}
	gross, err := ParseDecimal("gross_sales", p.GrossSales)
	if err != nil {
		return nil, err
	}
	owned, err := ParseYesNo("property_owned", p.PropertyOwned)
	if err != nil {
		return nil, err
	}
	total, err := ParseCount("total_employees", p.TotalEmployees)
	if err != nil {
		return nil, err
	}
	residing, err := ParseCount("employees_residing_in_lgu", p.EmployeesResidingInLGU)
	if err != nil {
		return nil, err
	}
	vans, err := ParseCount("delivery_vans", p.DeliveryVans)
	if err != nil {
		return nil, err
	}
	motorcycles, err := ParseCount("delivery_motorcycles", p.DeliveryMotorcycles)
	if err != nil {
		return nil, err
	}

	agg := &BusinessAggregate{
		Details: BusinessDetails{
			TaxYear:         p.TaxYear.Trimmed(),
			ControlNo:       p.ControlNo.Trimmed(),
			ModeOfPayment:   p.ModeOfPayment.Trimmed(),
			ApplicationType: p.ApplicationType.Trimmed(),
			Amendment:       p.Amendment.Trimmed(),
			OrgType:         p.OrgType.Trimmed(),
		},
		Taxpayer: BusinessTaxpayer{
			LastName:         p.TaxpayerLastName.Trimmed(),
			FirstName:        p.TaxpayerFirstName.Trimmed(),
			MiddleName:       p.TaxpayerMiddleName.Trimmed(),
			BusinessName:     p.BusinessName.Trimmed(),
			TradeName:        p.TradeName.Trimmed(),
			TIN:              p.TIN.Trimmed(),
			RegistrationNo:   p.RegistrationNo.Trimmed(),
			RegistrationDate: p.RegistrationDate.Trimmed(),
			Address:          p.TaxpayerAddress.Trimmed(),
			ContactNo:        p.TaxpayerContactNo.Trimmed(),
			Email:            p.TaxpayerEmail.Trimmed(),
		},
		Establishment: BusinessEstablishment{
			BusinessAddress: p.BusinessAddress.Trimmed(),
			PostalCode:      p.PostalCode.Trimmed(),
			TelephoneNo:     p.BusinessTelephone.Trimmed(),
			Email:           p.BusinessEmail.Trimmed(),
			BusinessArea:    area,
			LineOfBusiness:  p.LineOfBusiness.Trimmed(),
			NoOfUnits:       units,
			Capitalization:  capital,
			GrossSales:      gross,
			PropertyOwned:   owned,
		},
		Employment: BusinessEmployment{
			TotalEmployees:         total,
			EmployeesResidingInLGU: residing,
			DeliveryVans:           vans,
			DeliveryMotorcycles:    motorcycles,
		},
	}

	if p.HasLessor() {
		rental, err := ParseDecimal("monthly_rental", p.MonthlyRental)
		if err != nil {
			return nil, err
		}
		agg.Lessor = &BusinessLessor{
			FullName:      p.LessorFullName.Trimmed(),
			Address:       p.LessorAddress.Trimmed(),
			ContactNo:     p.LessorContactNo.Trimmed(),
			Email:         p.LessorEmail.Trimmed(),
			MonthlyRental: rental,
		}
	}
	return agg, nil
}

// Payload flattens the aggregate back into the form it was submitted as.
func (a *BusinessAggregate) Payload() *BusinessPayload {
	p := &BusinessPayload{
		TaxYear:         Field(a.Details.TaxYear),
		ControlNo:       Field(a.Details.ControlNo),
		ModeOfPayment:   Field(a.Details.ModeOfPayment),
		ApplicationType: Field(a.Details.ApplicationType),
		Amendment:       Field(a.Details.Amendment),
		OrgType:         Field(a.Details.OrgType),

		TaxpayerLastName:   Field(a.Taxpayer.LastName),
		TaxpayerFirstName:  Field(a.Taxpayer.FirstName),
		TaxpayerMiddleName: Field(a.Taxpayer.MiddleName),
		BusinessName:       Field(a.Taxpayer.BusinessName),
		TradeName:          Field(a.Taxpayer.TradeName),
		TIN:                Field(a.Taxpayer.TIN),
		RegistrationNo:     Field(a.Taxpayer.RegistrationNo),
		RegistrationDate:   Field(a.Taxpayer.RegistrationDate),
		TaxpayerAddress:    Field(a.Taxpayer.Address),
		TaxpayerContactNo:  Field(a.Taxpayer.ContactNo),
		TaxpayerEmail:      Field(a.Taxpayer.Email),

		BusinessAddress:   Field(a.Establishment.BusinessAddress),
		PostalCode:        Field(a.Establishment.PostalCode),
		BusinessTelephone: Field(a.Establishment.TelephoneNo),
		BusinessEmail:     Field(a.Establishment.Email),
		BusinessArea:      FormatNumber(a.Establishment.BusinessArea),
		LineOfBusiness:    Field(a.Establishment.LineOfBusiness),
		NoOfUnits:         FormatInt(a.Establishment.NoOfUnits),
		Capitalization:    FormatNumber(a.Establishment.Capitalization),
		GrossSales:        FormatNumber(a.Establishment.GrossSales),
		PropertyOwned:     FormatYesNo(a.Establishment.PropertyOwned),

		TotalEmployees:         FormatInt(a.Employment.TotalEmployees),
		EmployeesResidingInLGU: FormatInt(a.Employment.EmployeesResidingInLGU),
		DeliveryVans:           FormatInt(a.Employment.DeliveryVans),
		DeliveryMotorcycles:    FormatInt(a.Employment.DeliveryMotorcycles),
	}
	if a.Lessor != nil {
		p.LessorFullName = Field(a.Lessor.FullName)
		p.LessorAddress = Field(a.Lessor.Address)
		p.LessorContactNo = Field(a.Lessor.ContactNo)
		p.LessorEmail = Field(a.Lessor.Email)
		p.MonthlyRental = FormatNumber(a.Lessor.MonthlyRental)
	}
	return p
}
