package expos

import (
	"time"

	"github.com/google/uuid"
)

// Expo is a listing on the platform. Only the fields the reservation and
// refund engine reads are modelled here; descriptive metadata CRUD lives in
// the admin surface.
type Expo struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	OrganizerID uuid.UUID `gorm:"type:uuid;index;not null" json:"organizer_id"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`
	Status      Status    `gorm:"type:varchar(20);default:'PENDING_APPROVAL'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Expo) TableName() string {
	return "expos"
}

// DaysUntilStart returns whole days from now until the expo start date,
// truncating both ends to midnight so a partial day counts as the lower bound.
func (e *Expo) DaysUntilStart(now time.Time) int {
	start := time.Date(e.StartDate.Year(), e.StartDate.Month(), e.StartDate.Day(), 0, 0, 0, 0, e.StartDate.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(start.Sub(today).Hours() / 24)
}

// Advertisement is a paid banner placement with its own smaller lifecycle.
type Advertisement struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ExpoID      uuid.UUID `gorm:"type:uuid;index;not null" json:"expo_id"`
	Title       string    `gorm:"not null;size:255" json:"title"`
	Status      AdStatus  `gorm:"type:varchar(20);default:'PENDING_APPROVAL'" json:"status"`
	DisplayFrom time.Time `json:"display_from"`
	DisplayTo   time.Time `json:"display_to"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Advertisement) TableName() string {
	return "advertisements"
}
