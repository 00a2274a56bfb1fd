package reservations

import (
	"context"
	"errors"
	"time"

	"expopass/internal/shared/apperrors"
	"expopass/pkg/logger"

	"github.com/google/uuid"
)

// InventoryRestorer is the slice of the ticket repository the sweeper needs
// to hand capacity back when a pending reservation times out. Decrement is
// only used to compensate when a late settle wins the cancel race.
type InventoryRestorer interface {
	Restore(ctx context.Context, ticketID uuid.UUID, quantity int) error
	Decrement(ctx context.Context, ticketID uuid.UUID, quantity int) error
}

// SweeperConfig contains configuration for the pending reservation sweeper.
type SweeperConfig struct {
	Interval      time.Duration
	PendingMaxAge time.Duration
	BatchSize     int
}

func DefaultSweeperConfig() *SweeperConfig {
	return &SweeperConfig{
		Interval:      5 * time.Minute,
		PendingMaxAge: 24 * time.Hour,
		BatchSize:     100,
	}
}

// Sweeper cancels CONFIRMED_PENDING reservations whose payment never
// arrived. Deferred payments decrement inventory up front, so a reservation
// abandoned mid-payment would otherwise pin capacity forever.
type Sweeper struct {
	repo    Repository
	tickets InventoryRestorer
	config  *SweeperConfig
	done    chan struct{}
}

func NewSweeper(repo Repository, tickets InventoryRestorer, config *SweeperConfig) *Sweeper {
	if config == nil {
		config = DefaultSweeperConfig()
	}

	return &Sweeper{
		repo:    repo,
		tickets: tickets,
		config:  config,
		done:    make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or the context ends.
func (s *Sweeper) Start(ctx context.Context) {
	log := logger.GetDefault().WithComponent("reservation-sweeper")
	log.Info("Starting pending reservation sweeper",
		"interval", s.config.Interval.String(),
		"pending_max_age", s.config.PendingMaxAge.String())

	go s.run(ctx)
}

func (s *Sweeper) Stop() {
	close(s.done)
	logger.GetDefault().WithComponent("reservation-sweeper").Info("Pending reservation sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweep expires one batch of stale pending reservations. Inventory is
// restored before the cancel: cancelling first risks leaking capacity
// forever on a crash, while re-restoring on a retry is bounded by the
// clamp at totalQuantity.
func (s *Sweeper) sweep(ctx context.Context) {
	log := logger.GetDefault().WithComponent("reservation-sweeper")

	cutoff := time.Now().Add(-s.config.PendingMaxAge)
	stale, err := s.repo.ListStalePending(ctx, cutoff, s.config.BatchSize)
	if err != nil {
		log.WithError(err).Error("Failed to list stale pending reservations")
		return
	}

	if len(stale) == 0 {
		return
	}

	expired := 0
	for _, reservation := range stale {
		if err := s.expire(ctx, &reservation); err != nil {
			log.WithError(err).Error("Failed to expire pending reservation",
				"reservation_id", reservation.ID)
			continue
		}
		expired++
	}

	log.Info("Expired stale pending reservations", "count", expired, "candidates", len(stale))
}

func (s *Sweeper) expire(ctx context.Context, reservation *Reservation) error {
	if err := s.tickets.Restore(ctx, reservation.TicketID, reservation.Quantity); err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, reservation.ID, StatusConfirmedPending, StatusCancelled); err != nil {
		// Lost the race against a late webhook settle. Take the restored
		// capacity back so the confirmed sale still holds its seats.
		if errors.Is(err, apperrors.ErrInvalidStateTransition) {
			if derr := s.tickets.Decrement(ctx, reservation.TicketID, reservation.Quantity); derr != nil {
				logger.GetDefault().WithComponent("reservation-sweeper").
					WithError(derr).Error("Failed to reclaim inventory after settle race",
					"reservation_id", reservation.ID, "ticket_id", reservation.TicketID)
			}
			return nil
		}
		return err
	}

	return nil
}
