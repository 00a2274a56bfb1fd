package reservations

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
	Create(ctx context.Context, reservation *Reservation) error
	CreateAttendees(ctx context.Context, attendees []Attendee) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	GetByCode(ctx context.Context, code string) (*Reservation, error)
	GetAttendee(ctx context.Context, attendeeID uuid.UUID) (*Attendee, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]Reservation, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]Reservation, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, reservation *Reservation) error {
	if err := r.db.WithContext(ctx).Create(reservation).Error; err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *repository) CreateAttendees(ctx context.Context, attendees []Attendee) error {
	if len(attendees) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&attendees).Error; err != nil {
		return fmt.Errorf("failed to create attendees: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	var reservation Reservation
	err := r.db.WithContext(ctx).Preload("Attendees").Where("id = ?", id).First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reservation %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &reservation, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Reservation, error) {
	var reservation Reservation
	err := r.db.WithContext(ctx).Preload("Attendees").Where("reservation_code = ?", code).First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reservation code %s: %w", code, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &reservation, nil
}

func (r *repository) GetAttendee(ctx context.Context, attendeeID uuid.UUID) (*Attendee, error) {
	var attendee Attendee
	err := r.db.WithContext(ctx).Preload("Reservation").Where("id = ?", attendeeID).First(&attendee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("attendee %s: %w", attendeeID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get attendee: %w", err)
	}
	return &attendee, nil
}

// UpdateStatus performs a compare-and-set on the status column so two
// concurrent settles (or a settle racing the sweeper) cannot both win.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if to == StatusCancelled {
		now := time.Now()
		updates["cancelled_at"] = &now
	}

	result := r.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update reservation status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("reservation %s is not %s: %w", id, from, apperrors.ErrInvalidStateTransition)
	}
	return nil
}

func (r *repository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]Reservation, error) {
	var stale []Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", StatusConfirmedPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&stale).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending reservations: %w", err)
	}
	return stale, nil
}

func (r *repository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]Reservation, error) {
	var list []Reservation
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return list, nil
}
