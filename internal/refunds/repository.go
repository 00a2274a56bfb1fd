package refunds

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
	CreateSetting(ctx context.Context, setting *RefundFeeSetting) error
	ListSettings(ctx context.Context) ([]RefundFeeSetting, error)
	ListActiveSettings(ctx context.Context, at time.Time) ([]RefundFeeSetting, error)

	CreateRecord(ctx context.Context, record *RefundRecord) error
	GetRecordByID(ctx context.Context, id uuid.UUID) (*RefundRecord, error)
	HasPendingForExpo(ctx context.Context, expoID uuid.UUID) (bool, error)
	MarkRecordRefunded(ctx context.Context, id uuid.UUID, refundedAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateSetting inserts a tier after proving its validity window does not
// overlap an existing window for the same basis and threshold. The check and
// insert share a transaction so two concurrent writers cannot both pass.
func (r *repository) CreateSetting(ctx context.Context, setting *RefundFeeSetting) error {
	if !setting.ValidUntil.After(setting.ValidFrom) {
		return fmt.Errorf("validity window is empty: %s >= %s", setting.ValidFrom, setting.ValidUntil)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var overlapping int64
		err := tx.Model(&RefundFeeSetting{}).
			Where("basis = ? AND threshold_days = ? AND valid_from < ? AND valid_until > ?",
				setting.Basis, setting.ThresholdDays, setting.ValidUntil, setting.ValidFrom).
			Count(&overlapping).Error
		if err != nil {
			return fmt.Errorf("failed to check fee setting overlap: %w", err)
		}
		if overlapping > 0 {
			return fmt.Errorf("fee setting window overlaps an existing %s tier at %d days: %w",
				setting.Basis, setting.ThresholdDays, apperrors.ErrDuplicate)
		}

		if err := tx.Create(setting).Error; err != nil {
			return fmt.Errorf("failed to create fee setting: %w", err)
		}
		return nil
	})
}

func (r *repository) ListSettings(ctx context.Context) ([]RefundFeeSetting, error) {
	var settings []RefundFeeSetting
	err := r.db.WithContext(ctx).
		Order("threshold_days DESC, valid_from DESC").
		Find(&settings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list fee settings: %w", err)
	}
	return settings, nil
}

func (r *repository) ListActiveSettings(ctx context.Context, at time.Time) ([]RefundFeeSetting, error) {
	var settings []RefundFeeSetting
	err := r.db.WithContext(ctx).
		Where("valid_from <= ? AND valid_until > ?", at, at).
		Order("threshold_days DESC").
		Find(&settings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active fee settings: %w", err)
	}
	return settings, nil
}

func (r *repository) CreateRecord(ctx context.Context, record *RefundRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create refund record: %w", err)
	}
	return nil
}

func (r *repository) GetRecordByID(ctx context.Context, id uuid.UUID) (*RefundRecord, error) {
	var record RefundRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("refund record %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get refund record: %w", err)
	}
	return &record, nil
}

func (r *repository) HasPendingForExpo(ctx context.Context, expoID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RefundRecord{}).
		Where("expo_id = ? AND status = ?", expoID, RecordStatusPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending expo refunds: %w", err)
	}
	return count > 0, nil
}

// MarkRecordRefunded is a compare-and-set from PENDING so a double confirm
// cannot refund twice.
func (r *repository) MarkRecordRefunded(ctx context.Context, id uuid.UUID, refundedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&RefundRecord{}).
		Where("id = ? AND status = ?", id, RecordStatusPending).
		Updates(map[string]interface{}{
			"status":      RecordStatusRefunded,
			"refunded_at": refundedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark refund record refunded: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("refund record %s is not PENDING: %w", id, apperrors.ErrInvalidStateTransition)
	}
	return nil
}
