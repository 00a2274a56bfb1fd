package tickets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ticket is a sellable ticket type for one expo. RemainingQuantity is the
// only hot shared mutable field in the engine; it is mutated exclusively
// through the inventory ledger (Decrement/Restore).
type Ticket struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ExpoID            uuid.UUID       `gorm:"type:uuid;index;not null" json:"expo_id"`
	Name              string          `gorm:"not null;size:255" json:"name"`
	Price             decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	TotalQuantity     int             `gorm:"not null;check:total_quantity > 0" json:"total_quantity"`
	RemainingQuantity int             `gorm:"not null;check:remaining_quantity >= 0" json:"remaining_quantity"`
	SaleStart         time.Time       `gorm:"not null" json:"sale_start"`
	SaleEnd           time.Time       `gorm:"not null" json:"sale_end"`
	UseStart          time.Time       `gorm:"not null" json:"use_start"`
	UseEnd            time.Time       `gorm:"not null" json:"use_end"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// OnSale reports whether the ticket can currently be held for purchase.
func (t *Ticket) OnSale(now time.Time) bool {
	return !now.Before(t.SaleStart) && !now.After(t.SaleEnd)
}
