package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medibook/config"
	"medibook/internal/delivery/http/handler"
	"medibook/internal/delivery/http/middleware"
	"medibook/internal/domain/entity"
	"medibook/internal/infrastructure/database"
	"medibook/internal/repository"
	"medibook/internal/service"
	"medibook/internal/usecase"
	"medibook/pkg/jwt"
	"medibook/pkg/metrics"
	"medibook/pkg/validator"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

type apiFixture struct {
	router *mux.Router
	db     *gorm.DB
	doctor *entity.Doctor
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db, err := database.NewSQLiteConnection(database.InMemory, logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	log, _ := test.NewNullLogger()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: 15 * time.Minute, RefreshExpiry: time.Hour})
	v := validator.NewValidator()
	collector := metrics.NewCollector("medibook", prometheus.NewRegistry())

	userRepo := repository.NewUserRepository()
	doctorRepo := repository.NewDoctorRepository()
	patientRepo := repository.NewPatientRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	auditLogRepo := repository.NewAuditLogRepository()
	auditService := service.NewAuditService(log, auditLogRepo)

	appointmentUsecase := usecase.NewAppointmentUsecase(
		db, log,
		appointmentRepo, patientRepo, userRepo,
		usecase.NewBookingValidator(doctorRepo, appointmentRepo, time.UTC, func() time.Time { return testNow }),
		service.NewRedisSlotLocker(redisClient, log, service.DefaultSlotLockTTL),
		service.NewLogNotifier(log),
		service.NewPrescriptionService("MediBook", time.UTC, true),
		auditService,
		collector,
		time.UTC,
	)

	r := NewRouter(
		handler.NewAuthHandler(usecase.NewAuthUsecase(db, log, userRepo, patientRepo, auditService, jwtService, redisClient), v, jwtService),
		handler.NewDoctorHandler(usecase.NewDoctorUsecase(db, log, doctorRepo, appointmentRepo, auditService), v),
		handler.NewPatientHandler(usecase.NewPatientUsecase(db, log, patientRepo, auditService), v),
		handler.NewAppointmentHandler(appointmentUsecase, v, time.UTC),
		handler.NewAuditLogHandler(usecase.NewAuditLogUsecase(db, log, auditLogRepo), v),
		middleware.NewAuthMiddleware(jwtService, redisClient),
		middleware.NewCORSMiddleware(),
		middleware.NewMetricsMiddleware(collector),
		collector.Handler(),
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

	return &apiFixture{router: r.Setup(), db: db, doctor: doctor}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (f *apiFixture) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	rec, _ := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"first_name": "Alfredo",
		"last_name":  "García",
		"email":      email,
		"password":   "s3cret-pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": email,
		"password": "s3cret-pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}

	var tokens struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(env.Data, &tokens); err != nil || tokens.Token == "" || tokens.Role != "PATIENT" {
		t.Fatalf("tokens = %+v, %v", tokens, err)
	}
	return tokens.Token
}

func TestPublicRoutes(t *testing.T) {
	f := newAPIFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health = %d", rec.Code)
	}

	rec, env := f.do(t, http.MethodGet, "/api/v1/doctors?specialty=general%20surgery", "", nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("doctors = %d", rec.Code)
	}
	var list struct {
		Total int `json:"total"`
	}
	json.Unmarshal(env.Data, &list)
	if list.Total != 1 {
		t.Errorf("doctors total = %d", list.Total)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/v1/doctors/not-a-uuid", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/v1/appointments/taken-slots?doctorId="+f.doctor.ID.String()+"&date=2026-01-10", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("taken slots = %d", rec.Code)
	}
}

func TestAuthorization(t *testing.T) {
	f := newAPIFixture(t)
	token := f.registerAndLogin(t, "alfredo@example.com")

	rec, _ := f.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me without token = %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("me = %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodPost, "/api/v1/doctors", token, map[string]string{"first_name": "X"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient creating doctor = %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/v1/patients", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient listing patients = %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/v1/admin/audit-logs", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient reading audit = %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout = %d", rec.Code)
	}
	rec, env := f.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusUnauthorized || env.Message != "Token has been revoked" {
		t.Errorf("me after logout = %d %q", rec.Code, env.Message)
	}
}

func TestBookForMeFlow(t *testing.T) {
	f := newAPIFixture(t)
	token := f.registerAndLogin(t, "alfredo@example.com")

	body := map[string]string{"doctor_id": f.doctor.ID.String(), "date_time": "2026-01-10T10:00"}

	rec, env := f.do(t, http.MethodPost, "/api/v1/appointments/book-me", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("book = %d: %s", rec.Code, rec.Body.String())
	}
	var appt struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	json.Unmarshal(env.Data, &appt)
	if appt.Status != "CONFIRMED" {
		t.Errorf("status = %q", appt.Status)
	}

	rec, _ = f.do(t, http.MethodPost, "/api/v1/appointments/book-me", token, body)
	if rec.Code != http.StatusConflict {
		t.Errorf("double booking = %d", rec.Code)
	}

	rec, env = f.do(t, http.MethodPost, "/api/v1/appointments/book-me", token,
		map[string]string{"doctor_id": f.doctor.ID.String(), "date_time": "2026-01-10T18:00"})
	if rec.Code != http.StatusBadRequest || !strings.Contains(env.Message, "works from 09:00 to 17:00") {
		t.Errorf("out of hours = %d %q", rec.Code, env.Message)
	}

	rec, env = f.do(t, http.MethodGet, "/api/v1/appointments/taken-slots?doctorId="+f.doctor.ID.String()+"&date=2026-01-10", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"10:00"`) {
		t.Errorf("taken slots = %d %s", rec.Code, env.Data)
	}

	rec, env = f.do(t, http.MethodGet, "/api/v1/appointments/my-appointments", token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), appt.ID) {
		t.Errorf("my appointments = %d %s", rec.Code, env.Data)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/v1/appointments/"+appt.ID+"/pdf", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("pdf before completion = %d", rec.Code)
	}

	// patients may not change status
	rec, _ = f.do(t, http.MethodPatch, "/api/v1/appointments/"+appt.ID+"/status?status=COMPLETED", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient status change = %d", rec.Code)
	}

	if err := f.db.Model(&entity.Appointment{}).Where("id = ?", appt.ID).Update("status", entity.AppointmentStatusCompleted).Error; err != nil {
		t.Fatalf("complete: %v", err)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/v1/appointments/"+appt.ID+"/pdf", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf = %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "application/pdf" ||
		!strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment; filename=\"prescription_") ||
		!bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("pdf headers = %v", rec.Header())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	f.do(t, http.MethodGet, "/api/v1/doctors/"+f.doctor.ID.String(), "", nil)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `medibook_http_requests_total{method="GET",path="/api/v1/doctors/{id}",status="200"} 1`) {
		t.Errorf("route template series missing:\n%s", rec.Body.String())
	}
}
