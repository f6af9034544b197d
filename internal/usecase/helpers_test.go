package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medibook/internal/domain/entity"
	domainRepo "medibook/internal/domain/repository"
	"medibook/internal/infrastructure/database"
	repoImpl "medibook/internal/repository"
	"medibook/internal/service"
	"medibook/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixedNow is the clock every booking test runs against.
var fixedNow = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

type sentMessage struct {
	To, Subject, Body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{To: to, Subject: subject, Body: body})
	return n.err
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type bookingFixture struct {
	db        *gorm.DB
	log       *logrus.Logger
	hook      *test.Hook
	notifier  *recordingNotifier
	collector *metrics.Collector
	usecase   AppointmentUsecase
	validator *BookingValidator
	doctor    *entity.Doctor
	loc       *time.Location

	doctorRepo      domainRepo.DoctorRepository
	appointmentRepo domainRepo.AppointmentRepository
	patientRepo     domainRepo.PatientRepository
	userRepo        domainRepo.UserRepository
	auditService    service.AuditService
	locker          service.SlotLocker
}

// bookingDeps overrides parts of the fixture wiring. Nil fields keep the fixture's.
type bookingDeps struct {
	locker          service.SlotLocker
	notifier        service.Notifier
	appointmentRepo domainRepo.AppointmentRepository
	patientRepo     domainRepo.PatientRepository
}

// with builds a second usecase over the same database.
func (f *bookingFixture) with(d bookingDeps) AppointmentUsecase {
	if d.locker == nil {
		d.locker = f.locker
	}
	if d.notifier == nil {
		d.notifier = f.notifier
	}
	if d.appointmentRepo == nil {
		d.appointmentRepo = f.appointmentRepo
	}
	if d.patientRepo == nil {
		d.patientRepo = f.patientRepo
	}

	validator := NewBookingValidator(f.doctorRepo, d.appointmentRepo, f.loc, func() time.Time { return fixedNow })
	return NewAppointmentUsecase(
		f.db, f.log,
		d.appointmentRepo, d.patientRepo, f.userRepo,
		validator,
		d.locker,
		d.notifier,
		service.NewPrescriptionService("MediBook - Private Clinic", f.loc, false),
		f.auditService,
		f.collector,
		f.loc,
	)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteConnection(database.InMemory, logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func newBookingFixture(t *testing.T, loc *time.Location) *bookingFixture {
	t.Helper()
	if loc == nil {
		loc = time.UTC
	}

	db := newTestDB(t)
	log, hook := test.NewNullLogger()

	doctorRepo := repoImpl.NewDoctorRepository()
	appointmentRepo := repoImpl.NewAppointmentRepository()
	patientRepo := repoImpl.NewPatientRepository()
	userRepo := repoImpl.NewUserRepository()
	auditService := service.NewAuditService(log, repoImpl.NewAuditLogRepository())

	validator := NewBookingValidator(doctorRepo, appointmentRepo, loc, func() time.Time { return fixedNow })
	notifier := &recordingNotifier{}
	collector := metrics.NewCollector("medibook", prometheus.NewRegistry())
	locker := service.NewLocalSlotLocker()

	uc := NewAppointmentUsecase(
		db, log,
		appointmentRepo, patientRepo, userRepo,
		validator,
		locker,
		notifier,
		service.NewPrescriptionService("MediBook - Private Clinic", loc, false),
		auditService,
		collector,
		loc,
	)

	doctor := &entity.Doctor{
		FirstName:         "Meredith",
		LastName:          "Grey",
		Specialty:         "General Surgery",
		Email:             "grey@medibook.com",
		ConsultationPrice: decimal.NewFromInt(200),
		WorkStart:         entity.NewTimeOfDay(9, 0),
		WorkEnd:           entity.NewTimeOfDay(17, 0),
	}
	if err := doctorRepo.Create(db, doctor); err != nil {
		t.Fatalf("create doctor: %v", err)
	}

	return &bookingFixture{
		db:        db,
		log:       log,
		hook:      hook,
		notifier:  notifier,
		collector: collector,
		usecase:   uc,
		validator: validator,
		doctor:    doctor,
		loc:       loc,

		doctorRepo:      doctorRepo,
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		userRepo:        userRepo,
		auditService:    auditService,
		locker:          locker,
	}
}

func assertErrorIs(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
}
