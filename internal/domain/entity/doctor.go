package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Default working hours applied when a doctor is created without them.
var (
	DefaultWorkStart = NewTimeOfDay(9, 0)
	DefaultWorkEnd   = NewTimeOfDay(17, 0)
)

// Doctor is a bookable practitioner with daily working hours
type Doctor struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName         string          `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName          string          `gorm:"type:varchar(100);not null" json:"last_name"`
	Specialty         string          `gorm:"type:varchar(100);not null;index" json:"specialty"`
	Email             string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Bio               string          `gorm:"type:text" json:"bio,omitempty"`
	ConsultationPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"consultation_price"`
	WorkStart         TimeOfDay       `gorm:"type:varchar(8);not null" json:"work_start"`
	WorkEnd           TimeOfDay       `gorm:"type:varchar(8);not null" json:"work_end"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Appointments []Appointment `gorm:"foreignKey:DoctorID" json:"appointments,omitempty"`
}

func (Doctor) TableName() string {
	return "doctors"
}

func (d *Doctor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}

// WorksAt reports whether tod falls inside [WorkStart, WorkEnd], both ends inclusive.
func (d *Doctor) WorksAt(tod TimeOfDay) bool {
	return !tod.Before(d.WorkStart) && !tod.After(d.WorkEnd)
}
