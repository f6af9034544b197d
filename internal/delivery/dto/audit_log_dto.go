package dto

import (
	"time"

	"medibook/internal/domain/entity"
)

// Request DTOs

type AuditLogQuery struct {
	Action string `validate:"omitempty,max=100"`
	Limit  int    `validate:"omitempty,min=1,max=500"`
	Offset int    `validate:"omitempty,min=0"`
}

// Response DTOs

type AuditLogResponse struct {
	ID        int64         `json:"id"`
	User      *UserResponse `json:"user,omitempty"`
	Action    string        `json:"action"`
	Metadata  entity.JSON   `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int64              `json:"total"`
}
