package qrcredentials

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
	Create(ctx context.Context, credential *QrCredential) error
	GetByAttendee(ctx context.Context, attendeeID uuid.UUID) (*QrCredential, error)
	GetByToken(ctx context.Context, token string) (*QrCredential, error)
	DeleteByAttendee(ctx context.Context, attendeeID uuid.UUID) error
	// MarkUsed flips the credential to USED only if it is still usable.
	// Returns false without error when another check-in already won.
	MarkUsed(ctx context.Context, token string, usedAt time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, credential *QrCredential) error {
	if err := r.db.WithContext(ctx).Create(credential).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("credential for attendee %s: %w", credential.AttendeeID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to create QR credential: %w", err)
	}
	return nil
}

func (r *repository) GetByAttendee(ctx context.Context, attendeeID uuid.UUID) (*QrCredential, error) {
	var credential QrCredential
	err := r.db.WithContext(ctx).Where("attendee_id = ?", attendeeID).First(&credential).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("credential for attendee %s: %w", attendeeID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get QR credential: %w", err)
	}
	return &credential, nil
}

func (r *repository) GetByToken(ctx context.Context, token string) (*QrCredential, error) {
	var credential QrCredential
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&credential).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("credential token: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get QR credential: %w", err)
	}
	return &credential, nil
}

func (r *repository) DeleteByAttendee(ctx context.Context, attendeeID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("attendee_id = ?", attendeeID).Delete(&QrCredential{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete QR credential: %w", result.Error)
	}
	return nil
}

func (r *repository) MarkUsed(ctx context.Context, token string, usedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&QrCredential{}).
		Where("token = ? AND status IN ?", token, []Status{StatusApproved, StatusActive}).
		Updates(map[string]interface{}{
			"status":     StatusUsed,
			"used_at":    usedAt,
			"updated_at": usedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark QR credential used: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
