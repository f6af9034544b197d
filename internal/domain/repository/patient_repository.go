package repository

import (
	"medibook/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(db *gorm.DB, patient *entity.Patient) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Patient, error)
	FindByEmail(db *gorm.DB, email string) (*entity.Patient, error)
	FindByDNI(db *gorm.DB, dni string) (*entity.Patient, error)
	FindAll(db *gorm.DB) ([]entity.Patient, error)
	// Search matches name, email or dni, case-insensitively.
	Search(db *gorm.DB, query string) ([]entity.Patient, error)
	Update(db *gorm.DB, patient *entity.Patient) error
}
