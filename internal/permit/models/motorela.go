package models

import (
	"time"

	"github.com/google/uuid"
)

// MotorelaPayload is the motorela (motorized tricycle) franchise form. It maps
// onto a single flat record.
type MotorelaPayload struct {
	PlateNo         Field `json:"plate_no" validate:"required"`
	Operator        Field `json:"operator" validate:"required"`
	OperatorAddress Field `json:"operator_address" validate:"required"`
	ContactNo       Field `json:"contact_no"`
	DriverName      Field `json:"driver_name"`
	DriverLicenseNo Field `json:"driver_license_no"`
	Make            Field `json:"make" validate:"required"`
	MotorNo         Field `json:"motor_no" validate:"required"`
	ChassisNo       Field `json:"chassis_no" validate:"required"`
	BodyNo          Field `json:"body_no"`
	Route           Field `json:"route"`
}

// Motorela is the single motorela record of a permit.
type Motorela struct {
	ID              uuid.UUID `json:"id"`
	PermitID        uuid.UUID `json:"permit_id"`
	PlateNo         string    `json:"plate_no"`
	Operator        string    `json:"operator"`
	OperatorAddress string    `json:"operator_address"`
	ContactNo       string    `json:"contact_no"`
	DriverName      string    `json:"driver_name"`
	DriverLicenseNo string    `json:"driver_license_no"`
	Make            string    `json:"make"`
	MotorNo         string    `json:"motor_no"`
	ChassisNo       string    `json:"chassis_no"`
	BodyNo          string    `json:"body_no"`
	Route           string    `json:"route"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Record maps the payload onto a record without ids.
func (p *MotorelaPayload) Record() *Motorela {
	return &Motorela{
		PlateNo:         p.PlateNo.Trimmed(),
		Operator:        p.Operator.Trimmed(),
		OperatorAddress: p.OperatorAddress.Trimmed(),
		ContactNo:       p.ContactNo.Trimmed(),
		DriverName:      p.DriverName.Trimmed(),
		DriverLicenseNo: p.DriverLicenseNo.Trimmed(),
		Make:            p.Make.Trimmed(),
		MotorNo:         p.MotorNo.Trimmed(),
		ChassisNo:       p.ChassisNo.Trimmed(),
		BodyNo:          p.BodyNo.Trimmed(),
		Route:           p.Route.Trimmed(),
	}
}

// Payload flattens the record back into the form it was submitted as.
func (m *Motorela) Payload() *MotorelaPayload {
	return &MotorelaPayload{
		PlateNo:         Field(m.PlateNo),
		Operator:        Field(m.Operator),
		OperatorAddress: Field(m.OperatorAddress),
		ContactNo:       Field(m.ContactNo),
		DriverName:      Field(m.DriverName),
		DriverLicenseNo: Field(m.DriverLicenseNo),
		Make:            Field(m.Make),
		MotorNo:         Field(m.MotorNo),
		ChassisNo:       Field(m.ChassisNo),
		BodyNo:          Field(m.BodyNo),
		Route:           Field(m.Route),
	}
}
