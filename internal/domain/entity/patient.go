package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MissingLastName is stored when a booking only supplies a single-word name.
const MissingLastName = "-"

// Patient represents a person that can hold appointments
type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName string     `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string     `gorm:"type:varchar(100);not null" json:"last_name"`
	Email     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string     `gorm:"type:varchar(30)" json:"phone,omitempty"`
	DNI       string     `gorm:"column:dni;type:varchar(30);index" json:"dni,omitempty"`
	BirthDate *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	Allergies string     `gorm:"type:text" json:"allergies,omitempty"`
	BloodType string     `gorm:"type:varchar(5)" json:"blood_type,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Appointments []Appointment `gorm:"foreignKey:PatientID" json:"appointments,omitempty"`
}

func (Patient) TableName() string {
	return "patients"
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// SplitFullName splits on the first space. A single word yields MissingLastName.
func SplitFullName(name string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	first = parts[0]
	last = MissingLastName
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		last = strings.TrimSpace(parts[1])
	}
	return first, last
}
