package converter

import (
	"medibook/internal/delivery/dto"
	"medibook/internal/domain/entity"
)

// DoctorToResponse converts a Doctor entity to DoctorResponse DTO
func DoctorToResponse(doctor *entity.Doctor) *dto.DoctorResponse {
	if doctor == nil {
		return nil
	}

	return &dto.DoctorResponse{
		ID:                doctor.ID,
		FirstName:         doctor.FirstName,
		LastName:          doctor.LastName,
		FullName:          doctor.FullName(),
		Specialty:         doctor.Specialty,
		Email:             doctor.Email,
		Bio:               doctor.Bio,
		ConsultationPrice: doctor.ConsultationPrice,
		WorkStart:         doctor.WorkStart,
		WorkEnd:           doctor.WorkEnd,
		CreatedAt:         doctor.CreatedAt,
		UpdatedAt:         doctor.UpdatedAt,
	}
}

func DoctorsToResponses(doctors []entity.Doctor) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(doctors))
	for i := range doctors {
		responses[i] = *DoctorToResponse(&doctors[i])
	}
	return responses
}
