package repository

import (
	"time"

	"medibook/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	Update(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	ExistsByDoctorAndDateTime(db *gorm.DB, doctorID uuid.UUID, dateTime time.Time) (bool, error)
	// FindByDoctorAndRange returns appointments with start <= date_time <= end, ascending.
	FindByDoctorAndRange(db *gorm.DB, doctorID uuid.UUID, start, end time.Time) ([]entity.Appointment, error)
	// FindByPatientEmail returns the patient's appointments, most recent first.
	FindByPatientEmail(db *gorm.DB, email string) ([]entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error)
	FindAll(db *gorm.DB) ([]entity.Appointment, error)
	CountByDoctor(db *gorm.DB, doctorID uuid.UUID) (int64, error)
}
