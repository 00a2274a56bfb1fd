package qrcredentials

import (
	"time"

	"github.com/google/uuid"
)

// QrCredential is the time-bound entry token for one attendee. One row per
// attendee; a reissue replaces the row wholesale so old tokens stop
// resolving.
type QrCredential struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AttendeeID  uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"attendee_id"`
	Token       string     `gorm:"uniqueIndex;not null" json:"token"`
	ImageRef    string     `gorm:"not null" json:"image_ref"`
	Status      Status     `gorm:"type:varchar(10);check:status IN ('APPROVED', 'ACTIVE', 'USED', 'EXPIRED');default:'APPROVED'" json:"status"`
	ActivatedAt time.Time  `gorm:"not null" json:"activated_at"`
	ExpiredAt   time.Time  `gorm:"not null" json:"expired_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (QrCredential) TableName() string {
	return "qr_credentials"
}

// EffectiveStatus is the credential's state as of now, with window
// activation and expiry applied lazily.
func (q *QrCredential) EffectiveStatus(now time.Time) Status {
	return effectiveStatus(q.Status, q.ActivatedAt, q.ExpiredAt, now)
}
