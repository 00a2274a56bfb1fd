package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecord is the verified external transaction. Attendee purchases
// link a reservation, organizer publishing payments link an expo. It is
// immutable once written; refunds are recorded separately and never mutate
// this row.
type PaymentRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ReservationID *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"reservation_id,omitempty"`
	ExpoID        *uuid.UUID      `gorm:"type:uuid;index" json:"expo_id,omitempty"`
	ExternalRef   string          `gorm:"uniqueIndex;not null" json:"external_ref"`
	MerchantRef   string          `gorm:"not null" json:"merchant_ref"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Method        string          `gorm:"size:50;not null" json:"method"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}

// PaymentInfo is the per-reservation financial summary: what the buyer paid,
// what mileage they spent and earned, and where settlement stands.
type PaymentInfo struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ReservationID uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"reservation_id"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	UsedMileage   int64           `gorm:"not null;default:0" json:"used_mileage"`
	SavedMileage  int64           `gorm:"not null;default:0" json:"saved_mileage"`
	Status        InfoStatus      `gorm:"type:varchar(20);check:status IN ('PENDING', 'SUCCESS', 'PARTIAL_REFUNDED', 'REFUNDED');default:'PENDING'" json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (PaymentInfo) TableName() string {
	return "payment_infos"
}
