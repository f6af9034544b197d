package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAppointmentRequest struct {
	DoctorID     uuid.UUID `json:"doctor_id" validate:"required"`
	DateTime     string    `json:"date_time" validate:"required"` // RFC 3339 or 2006-01-02T15:04
	PatientName  string    `json:"patient_name" validate:"required,max=200"`
	PatientEmail string    `json:"patient_email" validate:"required,email"`
}

// BookForMeRequest omits the patient fields, which come from the caller's account.
type BookForMeRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" validate:"required"`
	DateTime string    `json:"date_time" validate:"required"`
}

type UpdateDiagnosisRequest struct {
	Diagnosis string `json:"diagnosis" validate:"max=1000"`
	Treatment string `json:"treatment" validate:"max=1000"`
}

// Response DTOs

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	DateTime        time.Time `json:"date_time"`
	Status          string    `json:"status"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	DoctorSpecialty string    `json:"doctor_specialty"`
	PatientID       uuid.UUID `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	PatientEmail    string    `json:"patient_email"`
	Diagnosis       string    `json:"diagnosis,omitempty"`
	Treatment       string    `json:"treatment,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

type TakenSlotsResponse struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Slots    []string  `json:"slots"`
}
