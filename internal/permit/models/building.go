package models

import (
	"time"

	"github.com/google/uuid"
)

// BuildingPayload is the flat building permit form. One payload fans out into
// the applicant, construction, inspector and engineer child records.
type BuildingPayload struct {
	ApplicationNo      Field `json:"application_no"`
	BPNo               Field `json:"bp_no"`
	OwnerSignatureDate Field `json:"owner_signature_date"`

	LastName        Field `json:"last_name" validate:"required"`
	FirstName       Field `json:"first_name" validate:"required"`
	MiddleInitial   Field `json:"middle_initial"`
	TIN             Field `json:"tin"`
	OwnerAddress    Field `json:"owner_address" validate:"required"`
	ContactNo       Field `json:"contact_no"`
	FormOfOwnership Field `json:"form_of_ownership"`

	LocationStreet           Field `json:"location_street"`
	LotNo                    Field `json:"lot_no"`
	BlockNo                  Field `json:"block_no"`
	TCTNo                    Field `json:"tct_no"`
	TaxDecNo                 Field `json:"tax_dec_no"`
	Barangay                 Field `json:"barangay" validate:"required"`
	ScopeOfWork              Field `json:"scope_of_work" validate:"required"`
	UseOrCharacter           Field `json:"use_or_character" validate:"required"`
	OccupancyClassified      Field `json:"occupancy_classified"`
	NumberOfUnits            Field `json:"number_of_units"`
	LotArea                  Field `json:"lot_area"`
	FloorArea                Field `json:"floor_area"`
	EstimatedCost            Field `json:"estimated_cost"`
	ProposedConstructionDate Field `json:"proposed_construction_date"`
	ExpectedCompletionDate   Field `json:"expected_completion_date"`

	InspectorName       Field `json:"inspector_name" validate:"required"`
	InspectorPRCNo      Field `json:"inspector_prc_no"`
	InspectorPTRNo      Field `json:"inspector_ptr_no"`
	InspectorTIN        Field `json:"inspector_tin"`
	InspectorAddress    Field `json:"inspector_address"`
	InspectorDateIssued Field `json:"inspector_date_issued"`

	EngineerName       Field `json:"engineer_name" validate:"required"`
	EngineerPRCNo      Field `json:"engineer_prc_no"`
	EngineerPTRNo      Field `json:"engineer_ptr_no"`
	EngineerTIN        Field `json:"engineer_tin"`
	EngineerAddress    Field `json:"engineer_address"`
	EngineerDateIssued Field `json:"engineer_date_issued"`
	EngineerValidity   Field `json:"engineer_validity"`
}

// BuildingDetails is the building "details" root. It references exactly one
// of each child, all sharing its permit_id.
type BuildingDetails struct {
	ID                 uuid.UUID `json:"id"`
	PermitID           uuid.UUID `json:"permit_id"`
	ApplicationNo      string    `json:"application_no"`
	BPNo               string    `json:"bp_no"`
	OwnerSignatureDate string    `json:"owner_signature_date"`
	ApplicantID        uuid.UUID `json:"applicant_id"`
	ConstructionID     uuid.UUID `json:"construction_id"`
	InspectorID        uuid.UUID `json:"inspector_id"`
	EngineerID         uuid.UUID `json:"engineer_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type BuildingApplicant struct {
	ID              uuid.UUID `json:"id"`
	PermitID        uuid.UUID `json:"permit_id"`
	LastName        string    `json:"last_name"`
	FirstName       string    `json:"first_name"`
	MiddleInitial   string    `json:"middle_initial"`
	TIN             string    `json:"tin"`
	OwnerAddress    string    `json:"owner_address"`
	ContactNo       string    `json:"contact_no"`
	FormOfOwnership string    `json:"form_of_ownership"`
}

type BuildingConstruction struct {
	ID                       uuid.UUID `json:"id"`
	PermitID                 uuid.UUID `json:"permit_id"`
	LocationStreet           string    `json:"location_street"`
	LotNo                    string    `json:"lot_no"`
	BlockNo                  string    `json:"block_no"`
	TCTNo                    string    `json:"tct_no"`
	TaxDecNo                 string    `json:"tax_dec_no"`
	Barangay                 string    `json:"barangay"`
	ScopeOfWork              string    `json:"scope_of_work"`
	UseOrCharacter           string    `json:"use_or_character"`
	OccupancyClassified      string    `json:"occupancy_classified"`
	NumberOfUnits            *int64    `json:"number_of_units"`
	LotArea                  *float64  `json:"lot_area"`
	FloorArea                *float64  `json:"floor_area"`
	EstimatedCost            *float64  `json:"estimated_cost"`
	ProposedConstructionDate string    `json:"proposed_construction_date"`
	ExpectedCompletionDate   string    `json:"expected_completion_date"`
}

// Professional is an inspector or engineer of record.
type Professional struct {
	ID         uuid.UUID `json:"id"`
	PermitID   uuid.UUID `json:"permit_id"`
	FullName   string    `json:"full_name"`
	PRCNo      string    `json:"prc_no"`
	PTRNo      string    `json:"ptr_no"`
	TIN        string    `json:"tin"`
	Address    string    `json:"address"`
	DateIssued string    `json:"date_issued"`
	Validity   string    `json:"validity,omitempty"`
}

// BuildingAggregate is the full normalized building subtype of one permit.
type BuildingAggregate struct {
	Details      BuildingDetails      `json:"details"`
	Applicant    BuildingApplicant    `json:"applicant"`
	Construction BuildingConstruction `json:"construction"`
	Inspector    Professional         `json:"inspector"`
	Engineer     Professional         `json:"engineer"`
}

// Records parses the payload into child records without ids. Numeric parse
// failures are validation errors.
func (p *BuildingPayload) Records() (*BuildingAggregate, error) {
	units, err := ParseCount("number_of_units", p.NumberOfUnits)
	if err != nil {
		return nil, err
	}
	lotArea, err := ParseDecimal("lot_area", p.LotArea)
	if err != nil {
		return nil, err
	}
	floorArea, err := ParseDecimal("floor_area", p.FloorArea)
	if err != nil {
		return nil, err
	}
	cost, err := ParseDecimal("estimated_cost", p.EstimatedCost)
	if err != nil {
		return nil, err
	}
	return &BuildingAggregate{
		Details: BuildingDetails{
			ApplicationNo:      p.ApplicationNo.Trimmed(),
			BPNo:               p.BPNo.Trimmed(),
			OwnerSignatureDate: p.OwnerSignatureDate.Trimmed(),
		},
		Applicant: BuildingApplicant{
			LastName:        p.LastName.Trimmed(),
			FirstName:       p.FirstName.Trimmed(),
			MiddleInitial:   p.MiddleInitial.Trimmed(),
			TIN:             p.TIN.Trimmed(),
			OwnerAddress:    p.OwnerAddress.Trimmed(),
			ContactNo:       p.ContactNo.Trimmed(),
			FormOfOwnership: p.FormOfOwnership.Trimmed(),
		},
		Construction: BuildingConstruction{
			LocationStreet:           p.LocationStreet.Trimmed(),
			LotNo:                    p.LotNo.Trimmed(),
			BlockNo:                  p.BlockNo.Trimmed(),
			TCTNo:                    p.TCTNo.Trimmed(),
			TaxDecNo:                 p.TaxDecNo.Trimmed(),
			Barangay:                 p.Barangay.Trimmed(),
			ScopeOfWork:              p.ScopeOfWork.Trimmed(),
			UseOrCharacter:           p.UseOrCharacter.Trimmed(),
			OccupancyClassified:      p.OccupancyClassified.Trimmed(),
			NumberOfUnits:            units,
			LotArea:                  lotArea,
			FloorArea:                floorArea,
			EstimatedCost:            cost,
			ProposedConstructionDate: p.ProposedConstructionDate.Trimmed(),
			ExpectedCompletionDate:   p.ExpectedCompletionDate.Trimmed(),
		},
		Inspector: Professional{
			FullName:   p.InspectorName.Trimmed(),
			PRCNo:      p.InspectorPRCNo.Trimmed(),
			PTRNo:      p.InspectorPTRNo.Trimmed(),
			TIN:        p.InspectorTIN.Trimmed(),
			Address:    p.InspectorAddress.Trimmed(),
			DateIssued: p.InspectorDateIssued.Trimmed(),
		},
		Engineer: Professional{
			FullName:   p.EngineerName.Trimmed(),
			PRCNo:      p.EngineerPRCNo.Trimmed(),
			PTRNo:      p.EngineerPTRNo.Trimmed(),
			TIN:        p.EngineerTIN.Trimmed(),
			Address:    p.EngineerAddress.Trimmed(),
			DateIssued: p.EngineerDateIssued.Trimmed(),
			Validity:   p.EngineerValidity.Trimmed(),
		},
	}, nil
}

// Payload flattens the aggregate back into the form it was submitted as.
func (a *BuildingAggregate) Payload() *BuildingPayload {
	return &BuildingPayload{
		ApplicationNo:      Field(a.Details.ApplicationNo),
		BPNo:               Field(a.Details.BPNo),
		OwnerSignatureDate: Field(a.Details.OwnerSignatureDate),

		LastName:        Field(a.Applicant.LastName),
		FirstName:       Field(a.Applicant.FirstName),
		MiddleInitial:   Field(a.Applicant.MiddleInitial),
		TIN:             Field(a.Applicant.TIN),
		OwnerAddress:    Field(a.Applicant.OwnerAddress),
		ContactNo:       Field(a.Applicant.ContactNo),
		FormOfOwnership: Field(a.Applicant.FormOfOwnership),

		LocationStreet:           Field(a.Construction.LocationStreet),
		LotNo:                    Field(a.Construction.LotNo),
		BlockNo:                  Field(a.Construction.BlockNo),
		TCTNo:                    Field(a.Construction.TCTNo),
		TaxDecNo:                 Field(a.Construction.TaxDecNo),
		Barangay:                 Field(a.Construction.Barangay),
		ScopeOfWork:              Field(a.Construction.ScopeOfWork),
		UseOrCharacter:           Field(a.Construction.UseOrCharacter),
		OccupancyClassified:      Field(a.Construction.OccupancyClassified),
		NumberOfUnits:            FormatInt(a.Construction.NumberOfUnits),
		LotArea:                  FormatNumber(a.Construction.LotArea),
		FloorArea:                FormatNumber(a.Construction.FloorArea),
		EstimatedCost:            FormatNumber(a.Construction.EstimatedCost),
		ProposedConstructionDate: Field(a.Construction.ProposedConstructionDate),
		ExpectedCompletionDate:   Field(a.Construction.ExpectedCompletionDate),

		InspectorName:       Field(a.Inspector.FullName),
		InspectorPRCNo:      Field(a.Inspector.PRCNo),
		InspectorPTRNo:      Field(a.Inspector.PTRNo),
		InspectorTIN:        Field(a.Inspector.TIN),
		InspectorAddress:    Field(a.Inspector.Address),
		InspectorDateIssued: Field(a.Inspector.DateIssued),

		EngineerName:       Field(a.Engineer.FullName),
		EngineerPRCNo:      Field(a.Engineer.PRCNo),
		EngineerPTRNo:      Field(a.Engineer.PTRNo),
		EngineerTIN:        Field(a.Engineer.TIN),
		EngineerAddress:    Field(a.Engineer.Address),
		EngineerDateIssued: Field(a.Engineer.DateIssued),
		EngineerValidity:   Field(a.Engineer.Validity),
	}
}
