package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medibook/config"
	deliveryHttp "medibook/internal/delivery/http"
	"medibook/internal/delivery/http/handler"
	"medibook/internal/delivery/http/middleware"
	"medibook/internal/infrastructure/cache"
	"medibook/internal/infrastructure/database"
	"medibook/internal/repository"
	"medibook/internal/service"
	"medibook/internal/usecase"
	"medibook/pkg/jwt"
	"medibook/pkg/metrics"
	"medibook/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	serviceName           = "medibook"
	breakerOpenTimeout    = 30 * time.Second
	shutdownTimeout       = 10 * time.Second
	serverReadHeaderLimit = 10 * time.Second
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server

	closers []io.Closer
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	SetupLogger(cfg.Log)
	logrus.Info("Configuration loaded successfully")

	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	app.DB = db
	logrus.Infof("Database connected successfully (%s)", cfg.DB.Driver)

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	logrus.Info("Redis connected successfully")

	notifier, err := app.newNotifier(cfg.Notification)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Server = initializeServer(cfg, db, redisClient, notifier)

	return app, nil
}

// SetupLogger configures the logrus logger
func SetupLogger(cfg config.LogConfig) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// OpenDatabase connects to the configured driver and brings the schema up to date.
// PostgreSQL is migrated with the embedded SQL files, SQLite with AutoMigrate.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.App.Env == "development" {
		logLevel = logger.Info
	}

	switch cfg.DB.Driver {
	case config.DBDriverSQLite:
		db, err := database.NewSQLiteConnection(cfg.DB.SQLitePath, logLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return db, nil

	case config.DBDriverPostgres:
		db, err := database.NewPostgresConnection(cfg.DB, logLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.RunMigrations(db); err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				sqlDB.Close()
			}
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DB.Driver)
	}
}

// newNotifier picks the confirmation sink. Every sink sits behind a circuit breaker.
func (app *App) newNotifier(cfg config.NotificationConfig) (service.Notifier, error) {
	log := logrus.StandardLogger()

	var sink service.Notifier
	switch cfg.Driver {
	case config.NotifyDriverLog:
		sink = service.NewLogNotifier(log)
	case config.NotifyDriverKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("NOTIFY_KAFKA_BROKERS is required for the kafka notifier")
		}
		kafkaNotifier := service.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		app.closers = append(app.closers, kafkaNotifier)
		sink = kafkaNotifier
	default:
		return nil, fmt.Errorf("unknown NOTIFY_DRIVER %q", cfg.Driver)
	}

	return service.NewBreakerNotifier(sink, log, breakerOpenTimeout), nil
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, notifier service.Notifier) *http.Server {
	loc := cfg.App.Location()

	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(serviceName, registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	doctorRepo := repository.NewDoctorRepository()
	patientRepo := repository.NewPatientRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	log := logrus.StandardLogger()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	slotLocker := service.NewRedisSlotLocker(redisClient, log, service.DefaultSlotLockTTL)
	prescriptions := service.NewPrescriptionService(cfg.App.ClinicName, loc, cfg.PDF.Compress)
	bookingValidator := usecase.NewBookingValidator(doctorRepo, appointmentRepo, loc, time.Now)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, patientRepo, auditService, jwtService, redisClient)
	doctorUsecase := usecase.NewDoctorUsecase(db, log, doctorRepo, appointmentRepo, auditService)
	patientUsecase := usecase.NewPatientUsecase(db, log, patientRepo, auditService)
	appointmentUsecase := usecase.NewAppointmentUsecase(
		db, log,
		appointmentRepo, patientRepo, userRepo,
		bookingValidator, slotLocker, notifier, prescriptions, auditService,
		collector, loc,
	)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator, jwtService)
	doctorHandler := handler.NewDoctorHandler(doctorUsecase, customValidator)
	patientHandler := handler.NewPatientHandler(patientUsecase, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, customValidator, loc)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase, customValidator)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient)
	corsMiddleware := middleware.NewCORSMiddleware()
	metricsMiddleware := middleware.NewMetricsMiddleware(collector)

	router := deliveryHttp.NewRouter(
		authHandler, doctorHandler, patientHandler, appointmentHandler, auditLogHandler,
		authMiddleware, corsMiddleware, metricsMiddleware, collector.Handler(),
	)
	httpRouter := router.Setup()

	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: serverReadHeaderLimit,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s, clinic timezone: %s", app.Config.App.Env, app.Config.App.Location())
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, kafka writer)
func (app *App) Close() {
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			logrus.Warnf("Failed to close resource: %v", err)
		}
	}

	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
