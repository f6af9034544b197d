package database

import (
	"context"
	"fmt"
	"time"

	"medibook/config"
	"medibook/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder loads the demo data set. Every record is keyed by email, so running it again is a no-op.
type Seeder struct {
	db  *gorm.DB
	log *logrus.Logger
	cfg config.SeedConfig
}

func NewSeeder(db *gorm.DB, log *logrus.Logger, cfg config.SeedConfig) *Seeder {
	return &Seeder{db: db, log: log, cfg: cfg}
}

func demoDoctors() []entity.Doctor {
	return []entity.Doctor{
		{
			FirstName:         "Gregory",
			LastName:          "House",
			Specialty:         "Diagnostics",
			Email:             "house@medibook.com",
			Bio:               "Infectious disease and nephrology specialist.",
			ConsultationPrice: decimal.NewFromInt(200),
			WorkStart:         entity.NewTimeOfDay(8, 0),
			WorkEnd:           entity.NewTimeOfDay(14, 0),
		},
		{
			FirstName:         "Meredith",
			LastName:          "Grey",
			Specialty:         "General Surgery",
			Email:             "grey@medibook.com",
			Bio:               "Chief of general surgery.",
			ConsultationPrice: decimal.NewFromInt(150),
			WorkStart:         entity.NewTimeOfDay(9, 0),
			WorkEnd:           entity.NewTimeOfDay(17, 0),
		},
		{
			FirstName:         "Derek",
			LastName:          "Shepherd",
			Specialty:         "Neurosurgery",
			Email:             "shepherd@medibook.com",
			Bio:               "Brain tumour specialist.",
			ConsultationPrice: decimal.NewFromInt(300),
			WorkStart:         entity.NewTimeOfDay(10, 0),
			WorkEnd:           entity.NewTimeOfDay(16, 0),
		},
	}
}

func demoPatients() []entity.Patient {
	birth := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return []entity.Patient{
		{
			FirstName: "Alfredo",
			LastName:  "García",
			Email:     "alfredo@email.com",
			Phone:     "555-0011",
			DNI:       "12345678A",
			BirthDate: birth(1980, time.May, 20),
			Allergies: "Penicillin",
			BloodType: "O+",
		},
		{
			FirstName: "María",
			LastName:  "López",
			Email:     "maria@email.com",
			Phone:     "555-0022",
			DNI:       "87654321B",
			BirthDate: birth(1992, time.November, 15),
			Allergies: "None",
			BloodType: "A-",
		},
	}
}

// Seed creates whatever part of the demo data set is missing.
func (s *Seeder) Seed(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	created := 0

	for _, doctor := range demoDoctors() {
		ok, err := createIfAbsent(tx, &entity.Doctor{}, doctor.Email, &doctor)
		if err != nil {
			return fmt.Errorf("seed doctor %s: %w", doctor.Email, err)
		}
		if ok {
			created++
		}
	}

	for _, patient := range demoPatients() {
		ok, err := createIfAbsent(tx, &entity.Patient{}, patient.Email, &patient)
		if err != nil {
			return fmt.Errorf("seed patient %s: %w", patient.Email, err)
		}
		if ok {
			created++
		}
	}

	if s.cfg.AdminEmail != "" && s.cfg.AdminPassword != "" {
		var count int64
		if err := tx.Model(&entity.User{}).Where("username = ?", s.cfg.AdminEmail).Count(&count).Error; err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if count == 0 {
			hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.AdminPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			admin := &entity.User{Username: s.cfg.AdminEmail, Password: string(hash), Role: entity.RoleAdmin}
			if err := tx.Create(admin).Error; err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			created++
		}
	} else {
		s.log.Warn("SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set, skipping admin user")
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	s.log.WithField("created", created).Info("Seed completed")
	return nil
}

func createIfAbsent(tx *gorm.DB, model interface{}, email string, record interface{}) (bool, error) {
	var count int64
	if err := tx.Model(model).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	return true, tx.Create(record).Error
}
