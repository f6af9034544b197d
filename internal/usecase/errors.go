package usecase

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Booking
var (
	ErrPastDate                = errors.New("cannot book an appointment in the past")
	ErrSlotTaken               = errors.New("the doctor already has an appointment at that time")
	ErrOutOfHours              = errors.New("the requested time is outside the doctor's working hours")
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrAppointmentNotCompleted = errors.New("the prescription is only available for completed appointments")
	ErrInvalidStatus           = errors.New("invalid status, use PENDING, CONFIRMED or COMPLETED")
	ErrInvalidDateTime         = errors.New("invalid date time, use RFC 3339 or YYYY-MM-DDTHH:MM")
	ErrInvalidDateFormat       = errors.New("invalid date format, use YYYY-MM-DD")
	ErrUserNotLinkedToPatient  = errors.New("user is not linked to a patient record")
	ErrForbidden               = errors.New("you do not have access to this resource")
)

// Doctors and patients
var (
	ErrDoctorNotFound           = errors.New("doctor not found")
	ErrDoctorEmailExists        = errors.New("a doctor with that email already exists")
	ErrDoctorHasAppointments    = errors.New("doctor has appointments and cannot be deleted")
	ErrInvalidWorkingHours      = errors.New("invalid working hours, use HH:MM with start before end")
	ErrInvalidConsultationPrice = errors.New("consultation price cannot be negative")
	ErrPatientNotFound          = errors.New("patient not found")
	ErrPatientEmailExists       = errors.New("a patient with that email already exists")
)

// Auth
var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrUserNotFound       = errors.New("user not found")
)

// Audit
var (
	ErrAuditLogNotFound = errors.New("audit log not found")
)

// isDuplicateKeyError reports a unique constraint violation, either raw from
// PostgreSQL (23505) or translated by gorm.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
