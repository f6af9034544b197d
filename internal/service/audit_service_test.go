package service

import (
	"context"
	"testing"

	"medibook/internal/domain/entity"
	"medibook/internal/infrastructure/database"
	"medibook/internal/repository"

	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm/logger"
)

func TestAuditServiceRollsBackWithTransaction(t *testing.T) {
	db, err := database.NewSQLiteConnection(database.InMemory, logger.Silent)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	log, _ := test.NewNullLogger()
	svc := NewAuditService(log, repository.NewAuditLogRepository())
	ctx := context.Background()

	tx := db.Begin()
	if err := svc.Record(ctx, tx, AuditEntry{Action: entity.AuditActionDoctorCreate, Entity: "doctor", EntityID: "1", New: map[string]string{"email": "a@b.c"}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	tx.Rollback()

	var count int64
	db.Model(&entity.AuditLog{}).Count(&count)
	if count != 0 {
		t.Fatalf("rolled back entry persisted: %d", count)
	}

	tx = db.Begin()
	if err := svc.Record(ctx, tx, AuditEntry{Action: entity.AuditActionDoctorDelete, Entity: "doctor", EntityID: "2", Old: "x"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	var saved entity.AuditLog
	if err := db.First(&saved).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if saved.Action != entity.AuditActionDoctorDelete || saved.Metadata["entity_id"] != "2" || saved.Metadata["new_value"] != nil {
		t.Errorf("saved = %+v", saved)
	}
}
