package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus is a closed set; any status may move to any other.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCompleted:
		return true
	}
	return false
}

// Appointment is one booked slot. (doctor_id, date_time) is unique.
type Appointment struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	DoctorID  uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_appointments_doctor_slot,priority:1" json:"doctor_id"`
	DateTime  time.Time         `gorm:"not null;uniqueIndex:idx_appointments_doctor_slot,priority:2;index" json:"date_time"`
	PatientID uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	Status    AppointmentStatus `gorm:"type:varchar(20);not null;default:'CONFIRMED';index" json:"status"`
	Diagnosis string            `gorm:"type:varchar(1000)" json:"diagnosis,omitempty"`
	Treatment string            `gorm:"type:varchar(1000)" json:"treatment,omitempty"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor  Doctor  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Patient Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// IsCompleted checks if the consultation has finished
func (a *Appointment) IsCompleted() bool {
	return a.Status == AppointmentStatusCompleted
}

// HasDiagnosis reports whether a non-blank diagnosis was recorded.
func (a *Appointment) HasDiagnosis() bool {
	return strings.TrimSpace(a.Diagnosis) != ""
}

// HasTreatment reports whether a non-blank treatment was recorded.
func (a *Appointment) HasTreatment() bool {
	return strings.TrimSpace(a.Treatment) != ""
}
