package dto

import (
	"time"

	"medibook/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

// DoctorRequest is used for both create and full update. Empty hours fall back to the defaults.
type DoctorRequest struct {
	FirstName         string          `json:"first_name" validate:"required,max=100"`
	LastName          string          `json:"last_name" validate:"required,max=100"`
	Specialty         string          `json:"specialty" validate:"required,max=100"`
	Email             string          `json:"email" validate:"required,email"`
	Bio               string          `json:"bio" validate:"omitempty,max=2000"`
	ConsultationPrice decimal.Decimal `json:"consultation_price"`
	WorkStart         string          `json:"work_start" validate:"omitempty,timeofday"` // Format: HH:MM
	WorkEnd           string          `json:"work_end" validate:"omitempty,timeofday"`   // Format: HH:MM
}

// Response DTOs

type DoctorResponse struct {
	ID                uuid.UUID        `json:"id"`
	FirstName         string           `json:"first_name"`
	LastName          string           `json:"last_name"`
	FullName          string           `json:"full_name"`
	Specialty         string           `json:"specialty"`
	Email             string           `json:"email"`
	Bio               string           `json:"bio,omitempty"`
	ConsultationPrice decimal.Decimal  `json:"consultation_price"`
	WorkStart         entity.TimeOfDay `json:"work_start"`
	WorkEnd           entity.TimeOfDay `json:"work_end"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}
