package converter

import (
	"medibook/internal/delivery/dto"
	"medibook/internal/domain/entity"

	"github.com/google/uuid"
)

// AppointmentToResponse flattens the doctor and patient. Relations must be preloaded
// for the names to be filled in.
func AppointmentToResponse(appt *entity.Appointment) *dto.AppointmentResponse {
	if appt == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:        appt.ID,
		DateTime:  appt.DateTime,
		Status:    string(appt.Status),
		DoctorID:  appt.DoctorID,
		PatientID: appt.PatientID,
		Diagnosis: appt.Diagnosis,
		Treatment: appt.Treatment,
		CreatedAt: appt.CreatedAt,
	}

	if appt.Doctor.ID != uuid.Nil {
		response.DoctorName = "Dr. " + appt.Doctor.FullName()
		response.DoctorSpecialty = appt.Doctor.Specialty
	}
	if appt.Patient.ID != uuid.Nil {
		response.PatientName = appt.Patient.FullName()
		response.PatientEmail = appt.Patient.Email
	}

	return response
}

func AppointmentsToResponses(appts []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appts))
	for i := range appts {
		responses[i] = *AppointmentToResponse(&appts[i])
	}
	return responses
}
