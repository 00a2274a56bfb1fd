package mileage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service applies and reverses mileage movements for member buyers. Guest
// purchases never touch mileage, so callers skip this service entirely for
// guests.
type Service interface {
	Apply(ctx context.Context, memberID uuid.UUID, used, earned int64) error
	Revert(ctx context.Context, memberID uuid.UUID, used, earned int64) error
	GetBalance(ctx context.Context, memberID uuid.UUID) (*MemberMileage, error)
}

type service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) Service {
	return &service{db: db}
}

// Apply deducts points spent on a purchase and credits points earned by it,
// then recomputes the loyalty tier from the new lifetime total. The whole
// movement is one transaction with the row locked.
func (s *service) Apply(ctx context.Context, memberID uuid.UUID, used, earned int64) error {
	if used < 0 || earned < 0 {
		return fmt.Errorf("mileage amounts must be non-negative: used=%d earned=%d", used, earned)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockRow(tx, memberID)
		if err != nil {
			return err
		}

		if row.Balance < used {
			return fmt.Errorf("insufficient mileage: balance=%d used=%d", row.Balance, used)
		}

		row.Balance = row.Balance - used + earned
		row.TotalEarned += earned
		row.Tier = TierFor(row.TotalEarned)

		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("failed to apply mileage: %w", err)
		}
		return nil
	})
}

// Revert undoes a prior Apply with the same arguments: spent points return
// to the balance and earned points are revoked. The balance never drops
// below zero even if the member already spent the earned points elsewhere.
func (s *service) Revert(ctx context.Context, memberID uuid.UUID, used, earned int64) error {
	if used < 0 || earned < 0 {
		return fmt.Errorf("mileage amounts must be non-negative: used=%d earned=%d", used, earned)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockRow(tx, memberID)
		if err != nil {
			return err
		}

		row.Balance += used - earned
		if row.Balance < 0 {
			row.Balance = 0
		}
		row.TotalEarned -= earned
		if row.TotalEarned < 0 {
			row.TotalEarned = 0
		}
		row.Tier = TierFor(row.TotalEarned)

		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("failed to revert mileage: %w", err)
		}
		return nil
	})
}

func (s *service) GetBalance(ctx context.Context, memberID uuid.UUID) (*MemberMileage, error) {
	var row MemberMileage
	err := s.db.WithContext(ctx).Where("member_id = ?", memberID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &MemberMileage{MemberID: memberID, Tier: TierBronze}, nil
		}
		return nil, fmt.Errorf("failed to get mileage: %w", err)
	}
	return &row, nil
}

// lockRow fetches the member's mileage row FOR UPDATE, creating it lazily on
// first movement.
func lockRow(tx *gorm.DB, memberID uuid.UUID) (*MemberMileage, error) {
	var row MemberMileage
	err := tx.Set("gorm:query_option", "FOR UPDATE").
		Where("member_id = ?", memberID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = MemberMileage{MemberID: memberID, Tier: TierBronze}
			if cerr := tx.Create(&row).Error; cerr != nil {
				return nil, fmt.Errorf("failed to create mileage row: %w", cerr)
			}
			return &row, nil
		}
		return nil, fmt.Errorf("failed to lock mileage row: %w", err)
	}
	return &row, nil
}
