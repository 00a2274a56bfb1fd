package tickets

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
	GetTicketByID(ctx context.Context, id uuid.UUID) (*Ticket, error)

	// Decrement atomically subtracts quantity from the ticket's remaining
	// stock. It is the single serialization point for oversell prevention.
	Decrement(ctx context.Context, ticketID uuid.UUID, quantity int) error

	// Restore adds quantity back, clamped so remaining never exceeds total.
	Restore(ctx context.Context, ticketID uuid.UUID, quantity int) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetTicketByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	var ticket Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// Decrement locks the ticket row FOR UPDATE inside a transaction so that
// concurrent confirmations for the same ticket serialize here and cannot both
// succeed when only one unit remains.
func (r *repository) Decrement(ctx context.Context, ticketID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("decrement quantity must be positive, got %d", quantity)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ticket struct {
			ID                uuid.UUID `gorm:"column:id"`
			RemainingQuantity int       `gorm:"column:remaining_quantity"`
		}

		err := tx.Table("tickets").
			Select("id, remaining_quantity").
			Where("id = ?", ticketID).
			Set("gorm:query_option", "FOR UPDATE").
			First(&ticket).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to lock ticket: %w", err)
		}

		if ticket.RemainingQuantity < quantity {
			return fmt.Errorf("%w: %d remaining, %d requested",
				apperrors.ErrInventoryExhausted, ticket.RemainingQuantity, quantity)
		}

		return tx.Model(&Ticket{}).
			Where("id = ?", ticketID).
			Updates(map[string]interface{}{
				"remaining_quantity": ticket.RemainingQuantity - quantity,
				"updated_at":         time.Now(),
			}).Error
	})
}

// Restore is additive and clamped with LEAST so a duplicate refund call can
// never push remaining above total.
func (r *repository) Restore(ctx context.Context, ticketID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("restore quantity must be positive, got %d", quantity)
	}

	result := r.db.WithContext(ctx).
		Model(&Ticket{}).
		Where("id = ?", ticketID).
		Updates(map[string]interface{}{
			"remaining_quantity": gorm.Expr("LEAST(remaining_quantity + ?, total_quantity)", quantity),
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to restore inventory: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
