package reservations

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is the durable record of a ticket purchase. It is created only
// once a payment attempt is being finalized; the pre-payment state lives in
// the hold session store.
type Reservation struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ExpoID          uuid.UUID  `gorm:"type:uuid;index;not null" json:"expo_id"`
	TicketID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"ticket_id"`
	Quantity        int        `gorm:"not null;check:quantity > 0" json:"quantity"`
	MemberID        *uuid.UUID `gorm:"type:uuid;index" json:"member_id,omitempty"`
	GuestEmail      string     `gorm:"size:255" json:"guest_email,omitempty"`
	ReservationCode string     `gorm:"unique;not null" json:"reservation_code"`
	Status          Status     `gorm:"type:varchar(20);check:status IN ('CONFIRMED_PENDING', 'CONFIRMED', 'CANCELLED');default:'CONFIRMED_PENDING'" json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`

	Attendees []Attendee `json:"attendees,omitempty" gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE;"`
}

func (Reservation) TableName() string {
	return "reservations"
}

// Attendee is one admitted person under a reservation. QR credentials hang
// off attendees, not reservations, because one reservation may cover several
// people.
type Attendee struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ReservationID uuid.UUID `gorm:"type:uuid;index;not null" json:"reservation_id"`
	Name          string    `gorm:"size:255" json:"name"`
	CreatedAt     time.Time `json:"created_at"`

	Reservation *Reservation `json:"reservation,omitempty" gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE;"`
}

func (Attendee) TableName() string {
	return "attendees"
}

func (r *Reservation) IsGuest() bool {
	return r.MemberID == nil
}

func (r *Reservation) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}

func (r *Reservation) IsCancelled() bool {
	return r.Status == StatusCancelled
}
