package usecase

import (
	"context"
	"strings"
	"time"

	"medibook/internal/converter"
	"medibook/internal/delivery/dto"
	"medibook/internal/domain/entity"
	"medibook/internal/domain/repository"
	"medibook/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PatientUsecase interface {
	GetAllPatients(ctx context.Context) (*dto.PatientListResponse, error)
	SearchPatients(ctx context.Context, query string) (*dto.PatientListResponse, error)
	GetPatient(ctx context.Context, patientID uuid.UUID) (*dto.PatientResponse, error)
	CreatePatient(ctx context.Context, req *dto.PatientRequest, caller *Caller) (*dto.PatientResponse, error)
	UpdatePatient(ctx context.Context, patientID uuid.UUID, req *dto.PatientRequest, caller *Caller) (*dto.PatientResponse, error)
}

type patientUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	patientRepo  repository.PatientRepository
	auditService service.AuditService
}

func NewPatientUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	patientRepo repository.PatientRepository,
	auditService service.AuditService,
) PatientUsecase {
	return &patientUsecase{
		db:           db,
		log:          log,
		patientRepo:  patientRepo,
		auditService: auditService,
	}
}

func applyPatientRequest(patient *entity.Patient, req *dto.PatientRequest) error {
	var birthDate *time.Time
	if s := strings.TrimSpace(req.BirthDate); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return ErrInvalidDateFormat
		}
		birthDate = &t
	}

	patient.FirstName = strings.TrimSpace(req.FirstName)
	patient.LastName = strings.TrimSpace(req.LastName)
	patient.Email = strings.TrimSpace(req.Email)
	patient.Phone = req.Phone
	patient.DNI = strings.TrimSpace(req.DNI)
	patient.BirthDate = birthDate
	patient.Allergies = req.Allergies
	patient.BloodType = req.BloodType
	return nil
}

func (u *patientUsecase) GetAllPatients(ctx context.Context) (*dto.PatientListResponse, error) {
	patients, err := u.patientRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find all patients: %+v", err)
		return nil, err
	}

	return &dto.PatientListResponse{
		Patients: converter.PatientsToResponses(patients),
		Total:    len(patients),
	}, nil
}

// SearchPatients matches name, email or dni. A blank query lists everyone.
func (u *patientUsecase) SearchPatients(ctx context.Context, query string) (*dto.PatientListResponse, error) {
	if strings.TrimSpace(query) == "" {
		return u.GetAllPatients(ctx)
	}

	patients, err := u.patientRepo.Search(u.db.WithContext(ctx), query)
	if err != nil {
		u.log.Warnf("Failed to search patients: %+v", err)
		return nil, err
	}

	return &dto.PatientListResponse{
		Patients: converter.PatientsToResponses(patients),
		Total:    len(patients),
	}, nil
}

func (u *patientUsecase) GetPatient(ctx context.Context, patientID uuid.UUID) (*dto.PatientResponse, error) {
	patient, err := u.patientRepo.FindByID(u.db.WithContext(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	return converter.PatientToResponse(patient), nil
}

func (u *patientUsecase) CreatePatient(ctx context.Context, req *dto.PatientRequest, caller *Caller) (*dto.PatientResponse, error) {
	patient := &entity.Patient{}
	if err := applyPatientRequest(patient, req); err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	existing, err := u.patientRepo.FindByEmail(tx, patient.Email)
	if err != nil {
		u.log.Warnf("Failed to find patient by email: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrPatientEmailExists
	}

	if err := u.patientRepo.Create(tx, patient); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrPatientEmailExists
		}
		u.log.Warnf("Failed to create patient: %+v", err)
		return nil, err
	}

	response := converter.PatientToResponse(patient)
	if err := u.auditService.Record(ctx, tx, service.AuditEntry{
		UserID:   caller.actorID(),
		Action:   entity.AuditActionPatientCreate,
		Entity:   "patient",
		EntityID: patient.ID.String(),
		New:      response,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return response, nil
}

func (u *patientUsecase) UpdatePatient(ctx context.Context, patientID uuid.UUID, req *dto.PatientRequest, caller *Caller) (*dto.PatientResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	patient, err := u.patientRepo.FindByID(tx, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	oldValue := converter.PatientToResponse(patient)
	if err := applyPatientRequest(patient, req); err != nil {
		return nil, err
	}

	if patient.Email != oldValue.Email {
		existing, err := u.patientRepo.FindByEmail(tx, patient.Email)
		if err != nil {
			u.log.Warnf("Failed to find patient by email: %+v", err)
			return nil, err
		}
		if existing != nil && existing.ID != patient.ID {
			return nil, ErrPatientEmailExists
		}
	}

	if err := u.patientRepo.Update(tx, patient); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrPatientEmailExists
		}
		u.log.Warnf("Failed to update patient: %+v", err)
		return nil, err
	}

	response := converter.PatientToResponse(patient)
	if err := u.auditService.Record(ctx, tx, service.AuditEntry{
		UserID:   caller.actorID(),
		Action:   entity.AuditActionPatientUpdate,
		Entity:   "patient",
		EntityID: patient.ID.String(),
		Old:      oldValue,
		New:      response,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return response, nil
}
