package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type PatientRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
	DNI       string `json:"dni" validate:"omitempty,max=30"`
	BirthDate string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"` // Format: YYYY-MM-DD
	Allergies string `json:"allergies" validate:"omitempty,max=2000"`
	BloodType string `json:"blood_type" validate:"omitempty,max=5"`
}

// Response DTOs

type PatientResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	DNI       string    `json:"dni,omitempty"`
	BirthDate string    `json:"birth_date,omitempty"`
	Allergies string    `json:"allergies,omitempty"`
	BloodType string    `json:"blood_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PatientListResponse struct {
	Patients []PatientResponse `json:"patients"`
	Total    int               `json:"total"`
}
