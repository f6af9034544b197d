package repository

import (
	"errors"
	"strings"

	"medibook/internal/domain/entity"
	domainRepo "medibook/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type patientRepository struct{}

func NewPatientRepository() domainRepo.PatientRepository {
	return &patientRepository{}
}

func (r *patientRepository) Create(db *gorm.DB, patient *entity.Patient) error {
	return db.Create(patient).Error
}

func (r *patientRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Patient, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *patientRepository) FindByEmail(db *gorm.DB, email string) (*entity.Patient, error) {
	return r.findOne(db, "email = ?", email)
}

func (r *patientRepository) FindByDNI(db *gorm.DB, dni string) (*entity.Patient, error) {
	return r.findOne(db, "dni = ?", dni)
}

func (r *patientRepository) findOne(db *gorm.DB, cond string, arg interface{}) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.Where(cond, arg).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindAll(db *gorm.DB) ([]entity.Patient, error) {
	var patients []entity.Patient
	err := db.Order("last_name ASC").Order("first_name ASC").Find(&patients).Error
	if err != nil {
		return nil, err
	}
	return patients, nil
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (r *patientRepository) Search(db *gorm.DB, query string) ([]entity.Patient, error) {
	var patients []entity.Patient
	like := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
	err := db.
		Where(`LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(dni) LIKE ? ESCAPE '\'`, like, like, like, like).
		Order("last_name ASC").
		Find(&patients).Error
	if err != nil {
		return nil, err
	}
	return patients, nil
}

func (r *patientRepository) Update(db *gorm.DB, patient *entity.Patient) error {
	return db.Save(patient).Error
}
