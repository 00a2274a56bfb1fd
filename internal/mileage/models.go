package mileage

import (
	"time"

	"github.com/google/uuid"
)

type Tier string

const (
	TierBronze Tier = "BRONZE"
	TierSilver Tier = "SILVER"
	TierGold   Tier = "GOLD"
	TierVIP    Tier = "VIP"
)

// MemberMileage tracks a member's spendable point balance alongside the
// lifetime total that drives loyalty tier placement. One row per member.
type MemberMileage struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MemberID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"member_id"`
	Balance     int64     `gorm:"not null;default:0;check:balance >= 0" json:"balance"`
	TotalEarned int64     `gorm:"not null;default:0" json:"total_earned"`
	Tier        Tier      `gorm:"type:varchar(10);default:'BRONZE'" json:"tier"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (MemberMileage) TableName() string {
	return "member_mileages"
}

// TierFor maps lifetime earned points onto a loyalty tier.
func TierFor(totalEarned int64) Tier {
	switch {
	case totalEarned >= 100000:
		return TierVIP
	case totalEarned >= 30000:
		return TierGold
	case totalEarned >= 10000:
		return TierSilver
	default:
		return TierBronze
	}
}
