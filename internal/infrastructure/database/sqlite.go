package database

import (
	"fmt"

	"medibook/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InMemory is the SQLite path for a private, throwaway database.
const InMemory = ":memory:"

// NewSQLiteConnection opens a SQLite database and brings its schema up to date with AutoMigrate.
// SQLite allows a single writer, so the pool is pinned to one connection.
func NewSQLiteConnection(path string, logLevel logger.LogLevel) (*gorm.DB, error) {
	dsn := path
	if path != InMemory {
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if path == InMemory {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	logrus.Infof("Successfully opened SQLite database at %s", path)

	return db, nil
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.Doctor{},
		&entity.Patient{},
		&entity.User{},
		&entity.Appointment{},
		&entity.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate schema: %w", err)
	}
	return nil
}
