package reservations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"expopass/internal/shared/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, reservation *Reservation) error {
	args := m.Called(ctx, reservation)
	return args.Error(0)
}

func (m *MockRepository) CreateAttendees(ctx context.Context, attendees []Attendee) error {
	args := m.Called(ctx, attendees)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *MockRepository) GetByCode(ctx context.Context, code string) (*Reservation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *MockRepository) GetAttendee(ctx context.Context, attendeeID uuid.UUID) (*Attendee, error) {
	args := m.Called(ctx, attendeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Attendee), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]Reservation, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Reservation), args.Error(1)
}

func (m *MockRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]Reservation, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Reservation), args.Error(1)
}

type MockInventoryRestorer struct {
	mock.Mock
}

func (m *MockInventoryRestorer) Restore(ctx context.Context, ticketID uuid.UUID, quantity int) error {
	args := m.Called(ctx, ticketID, quantity)
	return args.Error(0)
}

func (m *MockInventoryRestorer) Decrement(ctx context.Context, ticketID uuid.UUID, quantity int) error {
	args := m.Called(ctx, ticketID, quantity)
	return args.Error(0)
}

func stalePending() Reservation {
	return Reservation{
		ID:       uuid.New(),
		ExpoID:   uuid.New(),
		TicketID: uuid.New(),
		Quantity: 3,
		Status:   StatusConfirmedPending,
	}
}

func TestSweep_RestoresInventoryBeforeCancelling(t *testing.T) {
	repo := &MockRepository{}
	inventory := &MockInventoryRestorer{}
	sweeper := NewSweeper(repo, inventory, nil)

	reservation := stalePending()
	repo.On("ListStalePending", mock.Anything, mock.AnythingOfType("time.Time"), 100).
		Return([]Reservation{reservation}, nil)

	restored := false
	inventory.On("Restore", mock.Anything, reservation.TicketID, 3).
		Run(func(mock.Arguments) { restored = true }).
		Return(nil)
	repo.On("UpdateStatus", mock.Anything, reservation.ID, StatusConfirmedPending, StatusCancelled).
		Run(func(mock.Arguments) {
			require.True(t, restored, "cancel must not run before the inventory restore")
		}).
		Return(nil)

	sweeper.sweep(context.Background())

	inventory.AssertExpectations(t)
	repo.AssertExpectations(t)
	inventory.AssertNotCalled(t, "Decrement", mock.Anything, mock.Anything, mock.Anything)
}

func TestSweep_RestoreFailureLeavesReservationPending(t *testing.T) {
	repo := &MockRepository{}
	inventory := &MockInventoryRestorer{}
	sweeper := NewSweeper(repo, inventory, nil)

	reservation := stalePending()
	repo.On("ListStalePending", mock.Anything, mock.AnythingOfType("time.Time"), 100).
		Return([]Reservation{reservation}, nil)
	inventory.On("Restore", mock.Anything, reservation.TicketID, 3).
		Return(fmt.Errorf("db down"))

	sweeper.sweep(context.Background())

	// The reservation stays CONFIRMED_PENDING and is retried next tick.
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSweep_LateSettleWinsCancelRace(t *testing.T) {
	repo := &MockRepository{}
	inventory := &MockInventoryRestorer{}
	sweeper := NewSweeper(repo, inventory, nil)

	reservation := stalePending()
	repo.On("ListStalePending", mock.Anything, mock.AnythingOfType("time.Time"), 100).
		Return([]Reservation{reservation}, nil)
	inventory.On("Restore", mock.Anything, reservation.TicketID, 3).Return(nil)
	// A webhook settled the reservation between the listing and the cancel.
	repo.On("UpdateStatus", mock.Anything, reservation.ID, StatusConfirmedPending, StatusCancelled).
		Return(fmt.Errorf("reservation is not pending: %w", apperrors.ErrInvalidStateTransition))
	// The sweeper must take its restored units back for the confirmed sale.
	inventory.On("Decrement", mock.Anything, reservation.TicketID, 3).Return(nil).Once()

	sweeper.sweep(context.Background())

	inventory.AssertExpectations(t)
}

func TestSweep_EmptyBatchIsQuiet(t *testing.T) {
	repo := &MockRepository{}
	inventory := &MockInventoryRestorer{}
	sweeper := NewSweeper(repo, inventory, nil)

	repo.On("ListStalePending", mock.Anything, mock.AnythingOfType("time.Time"), 100).
		Return([]Reservation{}, nil)

	sweeper.sweep(context.Background())

	inventory.AssertNotCalled(t, "Restore", mock.Anything, mock.Anything, mock.Anything)
}

func TestDefaultSweeperConfig(t *testing.T) {
	config := DefaultSweeperConfig()
	assert.Equal(t, 5*time.Minute, config.Interval)
	assert.Equal(t, 24*time.Hour, config.PendingMaxAge)
	assert.Equal(t, 100, config.BatchSize)
}
