package usecase

import (
	"fmt"
	"time"

	"medibook/internal/domain/entity"
	"medibook/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingValidator decides whether a doctor can take an appointment at a given instant.
// It only reads.
type BookingValidator struct {
	doctorRepo      repository.DoctorRepository
	appointmentRepo repository.AppointmentRepository
	loc             *time.Location
	now             func() time.Time
}

func NewBookingValidator(
	doctorRepo repository.DoctorRepository,
	appointmentRepo repository.AppointmentRepository,
	loc *time.Location,
	now func() time.Time,
) *BookingValidator {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &BookingValidator{
		doctorRepo:      doctorRepo,
		appointmentRepo: appointmentRepo,
		loc:             loc,
		now:             now,
	}
}

// Validate runs the checks in order: past, doctor exists, slot free, working hours.
// The first failure wins. On success the loaded doctor is returned.
func (v *BookingValidator) Validate(db *gorm.DB, doctorID uuid.UUID, dateTime time.Time) (*entity.Doctor, error) {
	if dateTime.Before(v.now()) {
		return nil, ErrPastDate
	}

	doctor, err := v.doctorRepo.FindByID(db, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	taken, err := v.appointmentRepo.ExistsByDoctorAndDateTime(db, doctorID, dateTime)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return nil, ErrSlotTaken
	}

	if !doctor.WorksAt(entity.TimeOfDayOf(dateTime.In(v.loc))) {
		return nil, fmt.Errorf("%w: Dr. %s works from %s to %s", ErrOutOfHours, doctor.LastName, doctor.WorkStart, doctor.WorkEnd)
	}

	return doctor, nil
}
