package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expopass/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateRecordAndInfo(ctx context.Context, record *PaymentRecord, info *PaymentInfo) error
	GetRecordByID(ctx context.Context, id uuid.UUID) (*PaymentRecord, error)
	GetRecordByExternalRef(ctx context.Context, externalRef string) (*PaymentRecord, error)
	GetRecordByReservation(ctx context.Context, reservationID uuid.UUID) (*PaymentRecord, error)
	GetRecordByExpo(ctx context.Context, expoID uuid.UUID) (*PaymentRecord, error)
	GetInfoByReservation(ctx context.Context, reservationID uuid.UUID) (*PaymentInfo, error)
	UpdateInfoStatus(ctx context.Context, reservationID uuid.UUID, from, to InfoStatus) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateRecordAndInfo writes both payment rows in one transaction. The
// unique index on external_ref turns a replayed completion call into a
// Duplicate error instead of a second sale.
func (r *repository) CreateRecordAndInfo(ctx context.Context, record *PaymentRecord, info *PaymentInfo) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		if err := tx.Create(info).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("payment %s already recorded: %w", record.ExternalRef, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to persist payment: %w", err)
	}
	return nil
}

func (r *repository) GetRecordByID(ctx context.Context, id uuid.UUID) (*PaymentRecord, error) {
	var record PaymentRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment record %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}
	return &record, nil
}

func (r *repository) GetRecordByExternalRef(ctx context.Context, externalRef string) (*PaymentRecord, error) {
	var record PaymentRecord
	err := r.db.WithContext(ctx).Where("external_ref = ?", externalRef).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %s: %w", externalRef, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}
	return &record, nil
}

func (r *repository) GetRecordByReservation(ctx context.Context, reservationID uuid.UUID) (*PaymentRecord, error) {
	var record PaymentRecord
	err := r.db.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment for reservation %s: %w", reservationID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}
	return &record, nil
}

// GetRecordByExpo returns the most recent publishing payment for a listing.
func (r *repository) GetRecordByExpo(ctx context.Context, expoID uuid.UUID) (*PaymentRecord, error) {
	var record PaymentRecord
	err := r.db.WithContext(ctx).
		Where("expo_id = ?", expoID).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment for expo %s: %w", expoID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}
	return &record, nil
}

func (r *repository) GetInfoByReservation(ctx context.Context, reservationID uuid.UUID) (*PaymentInfo, error) {
	var info PaymentInfo
	err := r.db.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&info).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment info for reservation %s: %w", reservationID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment info: %w", err)
	}
	return &info, nil
}

// UpdateInfoStatus is a compare-and-set so a replayed webhook cannot settle
// the same payment twice.
func (r *repository) UpdateInfoStatus(ctx context.Context, reservationID uuid.UUID, from, to InfoStatus) error {
	result := r.db.WithContext(ctx).
		Model(&PaymentInfo{}).
		Where("reservation_id = ? AND status = ?", reservationID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update payment info status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("payment info for reservation %s is not %s: %w", reservationID, from, apperrors.ErrInvalidStateTransition)
	}
	return nil
}
