package holds

import (
	"time"

	"github.com/google/uuid"
)

// HoldSession is the ephemeral placeholder for a not-yet-paid reservation.
// It lives only in redis under a TTL; expiry without consumption leaves no
// durable trace.
type HoldSession struct {
	SessionID       string     `json:"session_id"`
	ExpoID          uuid.UUID  `json:"expo_id"`
	TicketID        uuid.UUID  `json:"ticket_id"`
	Quantity        int        `json:"quantity"`
	MemberID        *uuid.UUID `json:"member_id,omitempty"`
	GuestEmail      string     `json:"guest_email,omitempty"`
	ReservationCode string     `json:"reservation_code"`
	CreatedAt       time.Time  `json:"created_at"`
}

// IsGuest reports whether the hold was created without a member identity.
func (h *HoldSession) IsGuest() bool {
	return h.MemberID == nil
}

// CreateHoldRequest is the checkout entry payload.
type CreateHoldRequest struct {
	ExpoID     string `json:"expo_id" binding:"required,uuid"`
	TicketID   string `json:"ticket_id" binding:"required,uuid"`
	Quantity   int    `json:"quantity" binding:"required,min=1,max=20"`
	MemberID   string `json:"member_id" binding:"omitempty,uuid"`
	GuestEmail string `json:"guest_email" binding:"omitempty,email"`
}

// CreateHoldResponse returns the stable ids the checkout UI carries through
// to payment completion.
type CreateHoldResponse struct {
	SessionID       string    `json:"session_id"`
	ReservationCode string    `json:"reservation_code"`
	ExpiresAt       time.Time `json:"expires_at"`
	TTLSeconds      int       `json:"ttl_seconds"`
}
