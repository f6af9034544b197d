package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medibook/internal/converter"
	"medibook/internal/delivery/dto"
	"medibook/internal/domain/entity"
	"medibook/internal/domain/repository"
	"medibook/internal/service"
	"medibook/pkg/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	slotLayout         = "15:04"
	dateLayout         = "2006-01-02"
	confirmationLayout = "02/01/2006 15:04"
)

// NotificationTimeout bounds how long a booking waits on its confirmation.
const NotificationTimeout = 5 * time.Second

var localDateTimeLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

type AppointmentUsecase interface {
	CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest, caller *Caller) (*dto.AppointmentResponse, error)
	BookForUser(ctx context.Context, userID uuid.UUID, req *dto.BookForMeRequest) (*dto.AppointmentResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, caller *Caller) (*dto.AppointmentResponse, error)
	UpdateDiagnosis(ctx context.Context, id uuid.UUID, req *dto.UpdateDiagnosisRequest, caller *Caller) (*dto.AppointmentResponse, error)
	GetPatientHistory(ctx context.Context, email string) (*dto.AppointmentListResponse, error)
	GetMyAppointments(ctx context.Context, userID uuid.UUID) (*dto.AppointmentListResponse, error)
	ListByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (*dto.AppointmentListResponse, error)
	GetTakenSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.TakenSlotsResponse, error)
	GetAll(ctx context.Context) (*dto.AppointmentListResponse, error)
	GetPrescription(ctx context.Context, id uuid.UUID, caller *Caller) ([]byte, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	patientRepo     repository.PatientRepository
	userRepo        repository.UserRepository
	validator       *BookingValidator
	slotLocker      service.SlotLocker
	notifier        service.Notifier
	prescriptions   *service.PrescriptionService
	auditService    service.AuditService
	metrics         *metrics.Collector
	loc             *time.Location
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	userRepo repository.UserRepository,
	validator *BookingValidator,
	slotLocker service.SlotLocker,
	notifier service.Notifier,
	prescriptions *service.PrescriptionService,
	auditService service.AuditService,
	collector *metrics.Collector,
	loc *time.Location,
) AppointmentUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		userRepo:        userRepo,
		validator:       validator,
		slotLocker:      slotLocker,
		notifier:        notifier,
		prescriptions:   prescriptions,
		auditService:    auditService,
		metrics:         collector,
		loc:             loc,
	}
}

// ParseDateTime accepts RFC 3339, or a local date time interpreted in loc.
// The result is in UTC, truncated to the second.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Truncate(time.Second), nil
	}
	for _, layout := range localDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, ErrInvalidDateTime
}

// patientResolver finds the patient a new appointment belongs to, inside the booking transaction.
type patientResolver func(tx *gorm.DB) (*entity.Patient, error)

// CreateAppointment books a slot for the patient named in the request.
//
// Flow:
// 1. Lock the (doctor, instant) slot
// 2. Validate inside a transaction (past, doctor, conflict, hours)
// 3. Find or create the patient by email
// 4. Insert the appointment; the unique slot index is the final guard
// 5. Commit and release the lock, then send exactly one confirmation
func (u *appointmentUsecase) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest, caller *Caller) (*dto.AppointmentResponse, error) {
	dateTime, err := ParseDateTime(req.DateTime, u.loc)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(req.PatientEmail)
	resolve := func(tx *gorm.DB) (*entity.Patient, error) {
		return u.findOrCreatePatient(tx, email, req.PatientName)
	}

	return u.book(ctx, req.DoctorID, dateTime, resolve, caller)
}

// BookForUser books a slot for the patient linked to userID.
func (u *appointmentUsecase) BookForUser(ctx context.Context, userID uuid.UUID, req *dto.BookForMeRequest) (*dto.AppointmentResponse, error) {
	dateTime, err := ParseDateTime(req.DateTime, u.loc)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to find user %s: %+v", userID, err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.PatientID == nil {
		return nil, ErrUserNotLinkedToPatient
	}

	patientID := *user.PatientID
	resolve := func(tx *gorm.DB) (*entity.Patient, error) {
		patient, err := u.patientRepo.FindByID(tx, patientID)
		if err != nil {
			return nil, err
		}
		if patient == nil {
			return nil, ErrPatientNotFound
		}
		return patient, nil
	}

	return u.book(ctx, req.DoctorID, dateTime, resolve, &Caller{UserID: user.ID, Role: user.Role})
}

func (u *appointmentUsecase) book(ctx context.Context, doctorID uuid.UUID, dateTime time.Time, resolve patientResolver, caller *Caller) (*dto.AppointmentResponse, error) {
	release, err := u.slotLocker.Acquire(ctx, doctorID, dateTime)
	if err != nil {
		if errors.Is(err, service.ErrSlotLocked) {
			u.metrics.ObserveBooking(metrics.OutcomeConflict)
			return nil, ErrSlotTaken
		}
		u.log.Warnf("Failed to lock slot for doctor %s: %+v", doctorID, err)
		u.metrics.ObserveBooking(metrics.OutcomeFailed)
		return nil, err
	}
	defer release()

	appointment, err := u.insertAppointment(ctx, doctorID, dateTime, resolve, caller)
	// Committed or rolled back by now; free the slot before notifying.
	release()
	if err != nil {
		u.metrics.ObserveBooking(bookingOutcome(err))
		return nil, err
	}
	u.metrics.ObserveBooking(metrics.OutcomeCreated)

	u.log.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"doctor_id":      doctorID,
		"patient_email":  appointment.Patient.Email,
	}).Info("Appointment created")

	u.sendConfirmation(ctx, appointment)

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) insertAppointment(ctx context.Context, doctorID uuid.UUID, dateTime time.Time, resolve patientResolver, caller *Caller) (*entity.Appointment, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	doctor, err := u.validator.Validate(tx, doctorID, dateTime)
	if err != nil {
		return nil, err
	}

	patient, err := resolve(tx)
	if err != nil {
		if !errors.Is(err, ErrPatientNotFound) {
			u.log.Warnf("Failed to resolve patient: %+v", err)
		}
		return nil, err
	}

	appointment := &entity.Appointment{
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		DateTime:  dateTime,
		Status:    entity.AppointmentStatusConfirmed,
	}

	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrSlotTaken
		}
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}

	if err := u.auditService.Record(ctx, tx, service.AuditEntry{
		UserID:   caller.actorID(),
		Action:   entity.AuditActionAppointmentCreate,
		Entity:   "appointment",
		EntityID: appointment.ID.String(),
		New: map[string]interface{}{
			"doctor_id":  doctor.ID,
			"patient_id": patient.ID,
			"date_time":  appointment.DateTime,
			"status":     appointment.Status,
		},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrSlotTaken
		}
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	appointment.Doctor = *doctor
	appointment.Patient = *patient
	return appointment, nil
}

const newPatientSavePoint = "new_patient"

// findOrCreatePatient looks the patient up by email, creating one from the
// booking name when none exists. The name is split on the first space.
func (u *appointmentUsecase) findOrCreatePatient(tx *gorm.DB, email, fullName string) (*entity.Patient, error) {
	patient, err := u.patientRepo.FindByEmail(tx, email)
	if err != nil {
		return nil, err
	}
	if patient != nil {
		return patient, nil
	}

	first, last := entity.SplitFullName(fullName)
	patient = &entity.Patient{
		FirstName: first,
		LastName:  last,
		Email:     email,
	}
	if err := tx.SavePoint(newPatientSavePoint).Error; err != nil {
		return nil, err
	}
	if err := u.patientRepo.Create(tx, patient); err != nil {
		if !isDuplicateKeyError(err) {
			return nil, err
		}
		// A concurrent booking created the same email first; book against that record.
		if err := tx.RollbackTo(newPatientSavePoint).Error; err != nil {
			return nil, err
		}
		existing, err := u.patientRepo.FindByEmail(tx, email)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrPatientEmailExists
		}
		return existing, nil
	}
	return patient, nil
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, ErrSlotTaken):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrPastDate), errors.Is(err, ErrOutOfHours),
		errors.Is(err, ErrDoctorNotFound), errors.Is(err, ErrPatientNotFound):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}

// sendConfirmation runs after commit. Failures are logged and never retried.
func (u *appointmentUsecase) sendConfirmation(ctx context.Context, appointment *entity.Appointment) {
	body := fmt.Sprintf("Hello %s, your appointment with Dr. %s is confirmed for %s.",
		appointment.Patient.FirstName,
		appointment.Doctor.FullName(),
		appointment.DateTime.In(u.loc).Format(confirmationLayout),
	)

	// Outlives a cancelled request, bounded by NotificationTimeout.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), NotificationTimeout)
	defer cancel()

	err := u.notifier.Send(sendCtx, appointment.Patient.Email, service.ConfirmationSubject, body)
	u.metrics.ObserveNotification(err)
	if err != nil {
		u.log.Warnf("Failed to send confirmation for appointment %s: %+v", appointment.ID, err)
	}
}

func (u *appointmentUsecase) UpdateStatus(ctx context.Context, id uuid.UUID, status string, caller *Caller) (*dto.AppointmentResponse, error) {
	newStatus := entity.AppointmentStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !newStatus.IsValid() {
		return nil, ErrInvalidStatus
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.findAppointment(tx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := appointment.Status
	appointment.Status = newStatus

	if err := u.appointmentRepo.Update(tx, appointment); err != nil {
		u.log.Warnf("Failed to update appointment status: %+v", err)
		return nil, err
	}

	if err := u.auditService.Record(ctx, tx, service.AuditEntry{
		UserID:   caller.actorID(),
		Action:   entity.AuditActionAppointmentStatus,
		Entity:   "appointment",
		EntityID: appointment.ID.String(),
		Old:      map[string]interface{}{"status": oldStatus},
		New:      map[string]interface{}{"status": newStatus},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.AppointmentToResponse(appointment), nil
}

// UpdateDiagnosis overwrites both fields regardless of status.
func (u *appointmentUsecase) UpdateDiagnosis(ctx context.Context, id uuid.UUID, req *dto.UpdateDiagnosisRequest, caller *Caller) (*dto.AppointmentResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.findAppointment(tx, id)
	if err != nil {
		return nil, err
	}

	old := map[string]interface{}{"diagnosis": appointment.Diagnosis, "treatment": appointment.Treatment}
	appointment.Diagnosis = req.Diagnosis
	appointment.Treatment = req.Treatment

	if err := u.appointmentRepo.Update(tx, appointment); err != nil {
		u.log.Warnf("Failed to update appointment diagnosis: %+v", err)
		return nil, err
	}

	if err := u.auditService.Record(ctx, tx, service.AuditEntry{
		UserID:   caller.actorID(),
		Action:   entity.AuditActionAppointmentDiagnose,
		Entity:   "appointment",
		EntityID: appointment.ID.String(),
		Old:      old,
		New:      map[string]interface{}{"diagnosis": req.Diagnosis, "treatment": req.Treatment},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) findAppointment(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return appointment, nil
}

func listResponse(appointments []entity.Appointment) *dto.AppointmentListResponse {
	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}
}

// GetPatientHistory returns the patient's appointments, most recent first.
func (u *appointmentUsecase) GetPatientHistory(ctx context.Context, email string) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByPatientEmail(u.db.WithContext(ctx), strings.TrimSpace(email))
	if err != nil {
		u.log.Warnf("Failed to find appointments for %s: %+v", email, err)
		return nil, err
	}
	return listResponse(appointments), nil
}

func (u *appointmentUsecase) GetMyAppointments(ctx context.Context, userID uuid.UUID) (*dto.AppointmentListResponse, error) {
	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to find user %s: %+v", userID, err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	email := user.Username
	if user.Patient != nil {
		email = user.Patient.Email
	}

	return u.GetPatientHistory(ctx, email)
}

func (u *appointmentUsecase) ListByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByDoctorAndRange(u.db.WithContext(ctx), doctorID, start, end)
	if err != nil {
		u.log.Warnf("Failed to find appointments for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	return listResponse(appointments), nil
}

// GetTakenSlots lists the booked times of day ("HH:MM", clinic time) for one calendar date.
func (u *appointmentUsecase) GetTakenSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.TakenSlotsResponse, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), u.loc)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	end := day.AddDate(0, 0, 1).Add(-time.Second)

	appointments, err := u.appointmentRepo.FindByDoctorAndRange(u.db.WithContext(ctx), doctorID, day, end)
	if err != nil {
		u.log.Warnf("Failed to find taken slots for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	slots := make([]string, len(appointments))
	for i, a := range appointments {
		slots[i] = a.DateTime.In(u.loc).Format(slotLayout)
	}

	return &dto.TakenSlotsResponse{
		DoctorID: doctorID,
		Date:     day.Format(dateLayout),
		Slots:    slots,
	}, nil
}

func (u *appointmentUsecase) GetAll(ctx context.Context) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find all appointments: %+v", err)
		return nil, err
	}
	return listResponse(appointments), nil
}

// GetPrescription renders the PDF for a completed appointment. Patients may only
// fetch their own.
func (u *appointmentUsecase) GetPrescription(ctx context.Context, id uuid.UUID, caller *Caller) ([]byte, error) {
	db := u.db.WithContext(ctx)

	appointment, err := u.findAppointment(db, id)
	if err != nil {
		return nil, err
	}

	if caller.isPatient() {
		user, err := u.userRepo.FindByID(db, caller.UserID)
		if err != nil {
			u.log.Warnf("Failed to find user %s: %+v", caller.UserID, err)
			return nil, err
		}
		if user == nil || user.PatientID == nil || *user.PatientID != appointment.PatientID {
			return nil, ErrForbidden
		}
	}

	if !appointment.IsCompleted() {
		return nil, ErrAppointmentNotCompleted
	}

	pdf, err := u.prescriptions.Generate(appointment)
	if err != nil {
		u.log.Warnf("Failed to generate prescription for %s: %+v", id, err)
		return nil, err
	}
	u.metrics.ObservePrescription()

	return pdf, nil
}
