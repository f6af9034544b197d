package converter

import (
	"medibook/internal/delivery/dto"
	"medibook/internal/domain/entity"
)

const birthDateLayout = "2006-01-02"

func PatientToResponse(patient *entity.Patient) *dto.PatientResponse {
	if patient == nil {
		return nil
	}

	response := &dto.PatientResponse{
		ID:        patient.ID,
		FirstName: patient.FirstName,
		LastName:  patient.LastName,
		FullName:  patient.FullName(),
		Email:     patient.Email,
		Phone:     patient.Phone,
		DNI:       patient.DNI,
		Allergies: patient.Allergies,
		BloodType: patient.BloodType,
		CreatedAt: patient.CreatedAt,
		UpdatedAt: patient.UpdatedAt,
	}
	if patient.BirthDate != nil {
		response.BirthDate = patient.BirthDate.Format(birthDateLayout)
	}

	return response
}

func PatientsToResponses(patients []entity.Patient) []dto.PatientResponse {
	responses := make([]dto.PatientResponse, len(patients))
	for i := range patients {
		responses[i] = *PatientToResponse(&patients[i])
	}
	return responses
}
