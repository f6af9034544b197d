package handler

import (
	"errors"
	"net/http"

	"medibook/internal/delivery/http/middleware"
	"medibook/internal/usecase"
	"medibook/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// respondUsecaseError maps usecase sentinels to a status. Known errors carry
// their own message, anything else becomes a 500 with fallback.
func respondUsecaseError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrDoctorNotFound),
		errors.Is(err, usecase.ErrAppointmentNotFound),
		errors.Is(err, usecase.ErrPatientNotFound),
		errors.Is(err, usecase.ErrUserNotFound),
		errors.Is(err, usecase.ErrAuditLogNotFound):
		response.NotFound(w, err.Error())

	case errors.Is(err, usecase.ErrSlotTaken),
		errors.Is(err, usecase.ErrEmailAlreadyExists),
		errors.Is(err, usecase.ErrDoctorEmailExists),
		errors.Is(err, usecase.ErrPatientEmailExists),
		errors.Is(err, usecase.ErrDoctorHasAppointments):
		response.Conflict(w, err.Error())

	case errors.Is(err, usecase.ErrPastDate),
		errors.Is(err, usecase.ErrOutOfHours),
		errors.Is(err, usecase.ErrAppointmentNotCompleted),
		errors.Is(err, usecase.ErrInvalidStatus),
		errors.Is(err, usecase.ErrInvalidDateTime),
		errors.Is(err, usecase.ErrInvalidDateFormat),
		errors.Is(err, usecase.ErrInvalidWorkingHours),
		errors.Is(err, usecase.ErrInvalidConsultationPrice),
		errors.Is(err, usecase.ErrUserNotLinkedToPatient):
		response.BadRequest(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, usecase.ErrInvalidToken),
		errors.Is(err, usecase.ErrTokenRevoked):
		response.Unauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden):
		response.Forbidden(w, err.Error())

	default:
		response.InternalServerError(w, fallback)
	}
}

// parseUUIDVar reads a path variable. On failure it writes the 400 and returns false.
func parseUUIDVar(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+label+" ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// callerFromRequest is nil on public routes.
func callerFromRequest(r *http.Request) *usecase.Caller {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	role, _ := middleware.GetRoleFromContext(r.Context())
	return &usecase.Caller{UserID: userID, Role: role}
}
