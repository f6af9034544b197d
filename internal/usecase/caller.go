package usecase

import (
	"medibook/internal/domain/entity"

	"github.com/google/uuid"
)

// Caller is the authenticated user behind a request. A nil *Caller means the system itself.
type Caller struct {
	UserID uuid.UUID
	Role   entity.Role
}

func (c *Caller) actorID() *uuid.UUID {
	if c == nil {
		return nil
	}
	id := c.UserID
	return &id
}

func (c *Caller) isPatient() bool {
	return c != nil && c.Role == entity.RolePatient
}
