package usecase

import (
	"context"
	"strings"

	"medibook/internal/converter"
	"medibook/internal/delivery/dto"
	"medibook/internal/domain/entity"
	"medibook/internal/domain/repository"
	"medibook/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DoctorUsecase interface {
	CreateDoctor(ctx context.Context, req *dto.DoctorRequest, caller *Caller) (*dto.DoctorResponse, error)
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
	GetAllDoctors(ctx context.Context, specialty string) (*dto.DoctorListResponse, error)
	UpdateDoctor(ctx context.Context, doctorID uuid.UUID, req *dto.DoctorRequest, caller *Caller) (*dto.DoctorResponse, error)
	DeleteDoctor(ctx context.Context, doctorID uuid.UUID, caller *Caller) error
}

type doctorUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	doctorRepo      repository.DoctorRepository
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		db:              db,
		log:             log,
		doctorRepo:      doctorRepo,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
	}
}

// applyDoctorRequest copies req onto doctor. Empty hours keep the doctor's
// current ones; the merged pair must still be a valid range.
func applyDoctorRequest(doctor *entity.Doctor, req *dto.DoctorRequest) error {
	start, end := doctor.WorkStart, doctor.WorkEnd
	var err error
	if strings.TrimSpace(req.WorkStart) != "" {
		if start, err = entity.ParseTimeOfDay(req.WorkStart); err != nil {
			return ErrInvalidWorkingHours
		}
	}
	if strings.TrimSpace(req.WorkEnd) != "" {
		if end, err = entity.ParseTimeOfDay(req.WorkEnd); err != nil {
			return ErrInvalidWorkingHours
		}
	}
	if !start.Valid() || !end.Valid() || !start.Before(end) {
		return ErrInvalidWorkingHours
	}
	if req.ConsultationPrice.IsNegative() {
		return ErrInvalidConsultationPrice
	}

	doctor.FirstName = strings.TrimSpace(req.FirstName)
	doctor.LastName = strings.TrimSpace(req.LastName)
	doctor.Specialty = strings.TrimSpace(req.Specialty)
	doctor.Email = strings.TrimSpace(req.Email)
	doctor.Bio = req.Bio
	doctor.ConsultationPrice = req.ConsultationPrice
	doctor.WorkStart = start
	doctor.WorkEnd = end
	return nil
}

func (u *doctorUsecase) CreateDoctor(ctx context.Context, req *dto.DoctorRequest, caller *Caller) (*dto.DoctorResponse, error) {
	doctor := &entity.Doctor{
		WorkStart: entity.DefaultWorkStart,
		WorkEnd:   entity.DefaultWorkEnd,
	}
	if err := applyDoctorRequest(doctor, req); err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	existing, err := u.doctorRepo.FindByEmail(tx, doctor.Email)
	if err != nil {
		u.log.Warnf("Failed to find doctor by email: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrDoctorEmailExists
	}

	if err := u.doctorRepo.Create(tx, doctor); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDoctorEmailExists
		}
		u.log.Warnf("Failed to create doctor: %+v", err)
		return nil, err
	}

	response := converter.DoctorToResponse(doctor)
	if err := u.auditService.Record(ctx, tx, service.AuditEntry{
		UserID:   caller.actorID(),
		Action:   entity.AuditActionDoctorCreate,
		Entity:   "doctor",
		EntityID: doctor.ID.String(),
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

func (u *doctorUsecase) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	doctor, err := u.doctorRepo.FindByID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) GetAllDoctors(ctx context.Context, specialty string) (*dto.DoctorListResponse, error) {
	doctors, err := u.doctorRepo.FindAll(u.db.WithContext(ctx), strings.TrimSpace(specialty))
	if err != nil {
		u.log.Warnf("Failed to find all doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   len(doctors),
	}, nil
}

func (u *doctorUsecase) UpdateDoctor(ctx context.Context, doctorID uuid.UUID, req *dto.DoctorRequest, caller *Caller) (*dto.DoctorResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	doctor, err := u.doctorRepo.FindByID(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	oldValue := converter.DoctorToResponse(doctor)
	if err := applyDoctorRequest(doctor, req); err != nil {
		return nil, err
	}

	if doctor.Email != oldValue.Email {
		existing, err := u.doctorRepo.FindByEmail(tx, doctor.Email)
		if err != nil {
			u.log.Warnf("Failed to find doctor by email: %+v", err)
			return nil, err
		}
		if existing != nil && existing.ID != doctor.ID {
			return nil, ErrDoctorEmailExists
		}
	}

	if err := u.doctorRepo.Update(tx, doctor); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDoctorEmailExists
		}
		u.log.Warnf("Failed to update doctor: %+v", err)
		return nil, err
	}

	response := converter.DoctorToResponse(doctor)
	if err := u.auditService.Record(ctx, tx, service.AuditEntry{
		UserID:   caller.actorID(),
		Action:   entity.AuditActionDoctorUpdate,
		Entity:   "doctor",
		EntityID: doctor.ID.String(),
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

// DeleteDoctor refuses to remove a doctor that still has appointments.
func (u *doctorUsecase) DeleteDoctor(ctx context.Context, doctorID uuid.UUID, caller *Caller) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	doctor, err := u.doctorRepo.FindByID(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return err
	}
	if doctor == nil {
		return ErrDoctorNotFound
	}

	count, err := u.appointmentRepo.CountByDoctor(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to count appointments for doctor %s: %+v", doctorID, err)
		return err
	}
	if count > 0 {
		return ErrDoctorHasAppointments
	}

	if err := u.doctorRepo.Delete(tx, doctorID); err != nil {
		u.log.Warnf("Failed to delete doctor: %+v", err)
		return err
	}

	if err := u.auditService.Record(ctx, tx, service.AuditEntry{
		UserID:   caller.actorID(),
		Action:   entity.AuditActionDoctorDelete,
		Entity:   "doctor",
		EntityID: doctorID.String(),
		Old:      converter.DoctorToResponse(doctor),
	}); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	return nil
}
