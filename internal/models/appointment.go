package models

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. A booked appointment is PAYED whether it was
// covered by the free quota or by a checkout payment.
const (
	AppointmentPayed    = "PAYED"
	AppointmentCanceled = "CANCELED"
)

// AppointmentSlot is the fixed length of a consultation.
const AppointmentSlot = 30 * time.Minute

// MedicalAppointment is a booked consultation slot.
type MedicalAppointment struct {
	ID             uuid.UUID `json:"medical_appointment_id" gorm:"column:medical_appointment_id;type:uuid;primary_key"`
	ContractorID   uuid.UUID `json:"contractor_id" gorm:"type:uuid;index;not null"`
	CollaboratorID uuid.UUID `json:"collaborator_id" gorm:"type:uuid;index;not null"`
	Date           time.Time `json:"medical_appointment_date" gorm:"column:medical_appointment_date;index;not null"`
	CreationDate   time.Time `json:"creation_date" gorm:"not null"`
	Status         string    `json:"status" gorm:"not null" validate:"oneof=PAYED CANCELED"`
	Price          int64     `json:"price" gorm:"not null"`
	BillFile       string    `json:"bill_file" gorm:"uniqueIndex;not null"`
	Place          string    `json:"place" gorm:"not null" validate:"oneof=incall outcall"`
	Note           *int      `json:"note" validate:"omitempty,min=0,max=5"`
}

func (MedicalAppointment) TableName() string { return "medical_appointments" }

// End returns the exclusive end of the appointment's slot.
func (a *MedicalAppointment) End() time.Time {
	return a.Date.Add(AppointmentSlot)
}

// CalendarUnavailability is a contractor-declared blackout window.
type CalendarUnavailability struct {
	ID           uuid.UUID `json:"calendar_id" gorm:"column:calendar_id;type:uuid;primary_key"`
	ContractorID uuid.UUID `json:"contractor_id" gorm:"type:uuid;index;not null"`
	Begin        time.Time `json:"unavailable_begin_date" gorm:"column:unavailable_begin_date;not null"`
	End          time.Time `json:"unavailable_end_date" gorm:"column:unavailable_end_date;not null"`
}

func (CalendarUnavailability) TableName() string { return "calendar_unavailabilities" }

// Interval is a half-open busy window [Begin, End). Touching endpoints do
// not overlap.
type Interval struct {
	Begin time.Time `json:"beginning"`
	End   time.Time `json:"end"`
}

// Overlaps applies the open-interval test: a.Begin < b.End && b.Begin < a.End.
func (i Interval) Overlaps(other Interval) bool {
	return i.Begin.Before(other.End) && other.Begin.Before(i.End)
}
