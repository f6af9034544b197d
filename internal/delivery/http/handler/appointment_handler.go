package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"medibook/internal/delivery/dto"
	"medibook/internal/delivery/http/middleware"
	"medibook/internal/usecase"
	"medibook/pkg/response"
	"medibook/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
	loc                *time.Location
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator, loc *time.Location) *AppointmentHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
		loc:                loc,
	}
}

// CreateAppointment books on behalf of a named patient (front desk)
// @Summary Create appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateAppointmentRequest true "Appointment"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments [post]
func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.CreateAppointment(r.Context(), &req, callerFromRequest(r))
	if err != nil {
		respondUsecaseError(w, err, "Failed to create appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", appointment)
}

// BookForMe books for the patient linked to the logged-in account
// @Router /appointments/book-me [post]
func (h *AppointmentHandler) BookForMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.BookForMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.BookForUser(r.Context(), userID, &req)
	if err != nil {
		respondUsecaseError(w, err, "Failed to create appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", appointment)
}

func (h *AppointmentHandler) GetMyAppointments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	appointments, err := h.appointmentUsecase.GetMyAppointments(r.Context(), userID)
	if err != nil {
		respondUsecaseError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetAllAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.appointmentUsecase.GetAll(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetPatientHistory(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	if email == "" {
		response.Error(w, http.StatusBadRequest, "Patient email is required", nil)
		return
	}

	appointments, err := h.appointmentUsecase.GetPatientHistory(r.Context(), email)
	if err != nil {
		response.InternalServerError(w, "Failed to get patient history")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

// GetDoctorAppointments lists a doctor's appointments between ?start= and ?end=, both inclusive.
func (h *AppointmentHandler) GetDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := parseUUIDVar(w, r, "doctorId", "doctor")
	if !ok {
		return
	}

	query := r.URL.Query()
	start, err := usecase.ParseDateTime(query.Get("start"), h.loc)
	if err != nil {
		respondUsecaseError(w, err, "Invalid start")
		return
	}
	end, err := usecase.ParseDateTime(query.Get("end"), h.loc)
	if err != nil {
		respondUsecaseError(w, err, "Invalid end")
		return
	}
	if end.Before(start) {
		response.BadRequest(w, "end must not be before start")
		return
	}

	appointments, err := h.appointmentUsecase.ListByDoctorAndRange(r.Context(), doctorID, start, end)
	if err != nil {
		response.InternalServerError(w, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

// GetTakenSlots is public so the booking form can grey out busy times.
func (h *AppointmentHandler) GetTakenSlots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	doctorID, err := uuid.Parse(query.Get("doctorId"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	slots, err := h.appointmentUsecase.GetTakenSlots(r.Context(), doctorID, query.Get("date"))
	if err != nil {
		respondUsecaseError(w, err, "Failed to get taken slots")
		return
	}

	response.Success(w, http.StatusOK, "Taken slots retrieved successfully", slots)
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseUUIDVar(w, r, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.UpdateStatus(r.Context(), appointmentID, r.URL.Query().Get("status"), callerFromRequest(r))
	if err != nil {
		respondUsecaseError(w, err, "Failed to update appointment status")
		return
	}

	response.Success(w, http.StatusOK, "Appointment status updated successfully", appointment)
}

func (h *AppointmentHandler) UpdateDiagnosis(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseUUIDVar(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.UpdateDiagnosisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.UpdateDiagnosis(r.Context(), appointmentID, &req, callerFromRequest(r))
	if err != nil {
		respondUsecaseError(w, err, "Failed to update diagnosis")
		return
	}

	response.Success(w, http.StatusOK, "Diagnosis updated successfully", appointment)
}

// GetPrescription streams the prescription PDF as an attachment
// @Produce application/pdf
// @Router /appointments/{id}/pdf [get]
func (h *AppointmentHandler) GetPrescription(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseUUIDVar(w, r, "id", "appointment")
	if !ok {
		return
	}

	pdf, err := h.appointmentUsecase.GetPrescription(r.Context(), appointmentID, callerFromRequest(r))
	if err != nil {
		respondUsecaseError(w, err, "Failed to generate prescription")
		return
	}

	response.Attachment(w, "application/pdf", fmt.Sprintf("prescription_%s.pdf", appointmentID), pdf)
}
