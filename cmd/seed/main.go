package main

import (
	"context"
	"time"

	"medibook/cmd/bootstrap"
	"medibook/config"
	"medibook/internal/infrastructure/database"

	"github.com/sirupsen/logrus"
)

// Loads the demo doctors, patients and the admin account. Safe to run repeatedly.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	bootstrap.SetupLogger(cfg.Log)

	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.NewSeeder(db, logrus.StandardLogger(), cfg.Seed).Seed(ctx); err != nil {
		logrus.Fatalf("Seed failed: %v", err)
	}

	logrus.Info("Seed complete")
}
