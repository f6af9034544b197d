package service

import (
	"context"

	"medibook/internal/domain/entity"
	"medibook/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditEntry describes one change. Old is nil for creations, New is nil for deletions.
type AuditEntry struct {
	UserID   *uuid.UUID
	Action   string
	Entity   string
	EntityID string
	Old      interface{}
	New      interface{}
}

type AuditService interface {
	// Record writes the entry through tx so it commits or rolls back with the change.
	Record(ctx context.Context, tx *gorm.DB, entry AuditEntry) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) Record(ctx context.Context, tx *gorm.DB, entry AuditEntry) error {
	auditLog := &entity.AuditLog{
		UserID: entry.UserID,
		Action: entry.Action,
		Metadata: entity.JSON{
			"entity":    entry.Entity,
			"entity_id": entry.EntityID,
			"old_value": entry.Old,
			"new_value": entry.New,
		},
	}

	if err := s.auditRepo.Create(tx.WithContext(ctx), auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}
