package expos

import (
	"context"
	"errors"
	"time"

	"expopass/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	GetExpoByID(ctx context.Context, id uuid.UUID) (*Expo, error)
	UpdateExpoStatus(ctx context.Context, id uuid.UUID, status Status) error
	GetAdvertisementByID(ctx context.Context, id uuid.UUID) (*Advertisement, error)
	UpdateAdvertisementStatus(ctx context.Context, id uuid.UUID, status AdStatus) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetExpoByID(ctx context.Context, id uuid.UUID) (*Expo, error) {
	var expo Expo
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&expo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &expo, nil
}

func (r *repository) UpdateExpoStatus(ctx context.Context, id uuid.UUID, status Status) error {
	return r.db.WithContext(ctx).
		Model(&Expo{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *repository) GetAdvertisementByID(ctx context.Context, id uuid.UUID) (*Advertisement, error) {
	var ad Advertisement
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ad).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &ad, nil
}

func (r *repository) UpdateAdvertisementStatus(ctx context.Context, id uuid.UUID, status AdStatus) error {
	return r.db.WithContext(ctx).
		Model(&Advertisement{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}
