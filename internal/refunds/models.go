package refunds

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BasisDaysBeforeStart is the only tier basis currently in use: thresholds
// count whole days between now and the expo's first day.
const BasisDaysBeforeStart = "DAYS_BEFORE_EVENT_START"

// RefundFeeSetting is one tier of the fee schedule: reservations refunded
// with at least ThresholdDays remaining pay FeeRatePercent of the original
// amount. Settings carry a validity window so schedules can be rotated
// without rewriting history; windows for the same basis and threshold must
// not overlap.
type RefundFeeSetting struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Basis          string          `gorm:"size:50;not null;default:'DAYS_BEFORE_EVENT_START'" json:"basis"`
	ThresholdDays  int             `gorm:"not null;check:threshold_days >= 0" json:"threshold_days"`
	FeeRatePercent decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"fee_rate_percent"`
	ValidFrom      time.Time       `gorm:"not null" json:"valid_from"`
	ValidUntil     time.Time       `gorm:"not null" json:"valid_until"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (RefundFeeSetting) TableName() string {
	return "refund_fee_settings"
}

// ActiveAt reports whether the setting applies at the given instant.
func (s *RefundFeeSetting) ActiveAt(at time.Time) bool {
	return !at.Before(s.ValidFrom) && at.Before(s.ValidUntil)
}

type RecordStatus string

const (
	RecordStatusPending  RecordStatus = "PENDING"
	RecordStatusRefunded RecordStatus = "REFUNDED"
)

// RefundRecord is the audit row for a refund. Reservation refunds execute
// the PSP call synchronously and are written directly REFUNDED; expo-level
// (organizer) refunds are requested as PENDING and flipped once the PSP
// confirms.
type RefundRecord struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PaymentRecordID uuid.UUID       `gorm:"type:uuid;index;not null" json:"payment_record_id"`
	ReservationID   *uuid.UUID      `gorm:"type:uuid;index" json:"reservation_id,omitempty"`
	ExpoID          *uuid.UUID      `gorm:"type:uuid;index" json:"expo_id,omitempty"`
	RefundedAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"refunded_amount"`
	Reason          string          `gorm:"size:500" json:"reason"`
	Status          RecordStatus    `gorm:"type:varchar(10);check:status IN ('PENDING', 'REFUNDED');default:'PENDING'" json:"status"`
	Partial         bool            `gorm:"not null;default:false" json:"partial"`
	CreatedAt       time.Time       `json:"created_at"`
	RefundedAt      *time.Time      `json:"refunded_at,omitempty"`
}

func (RefundRecord) TableName() string {
	return "refund_records"
}

// Quote is the refund engine's answer for one reservation: what goes back
// to the buyer and what mileage movement must be reversed.
type Quote struct {
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	Fee              decimal.Decimal `json:"fee"`
	NetRefund        decimal.Decimal `json:"net_refund"`
	FeeRatePercent   decimal.Decimal `json:"fee_rate_percent"`
	ThresholdDays    int             `json:"threshold_days"`
	DaysUntilStart   int             `json:"days_until_start"`
	MileageToRestore int64           `json:"mileage_to_restore"`
	MileageToRevoke  int64           `json:"mileage_to_revoke"`
}
