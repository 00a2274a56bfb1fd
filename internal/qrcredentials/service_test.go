package qrcredentials

import (
	"context"
	"testing"
	"time"

	"expopass/internal/reservations"
	"expopass/internal/shared/apperrors"
	"expopass/internal/tickets"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, credential *QrCredential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockRepository) GetByAttendee(ctx context.Context, attendeeID uuid.UUID) (*QrCredential, error) {
	args := m.Called(ctx, attendeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*QrCredential), args.Error(1)
}

func (m *MockRepository) GetByToken(ctx context.Context, token string) (*QrCredential, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*QrCredential), args.Error(1)
}

func (m *MockRepository) DeleteByAttendee(ctx context.Context, attendeeID uuid.UUID) error {
	args := m.Called(ctx, attendeeID)
	return args.Error(0)
}

func (m *MockRepository) MarkUsed(ctx context.Context, token string, usedAt time.Time) (bool, error) {
	args := m.Called(ctx, token, usedAt)
	return args.Bool(0), args.Error(1)
}

type MockAttendeeReader struct {
	mock.Mock
}

func (m *MockAttendeeReader) GetAttendee(ctx context.Context, attendeeID uuid.UUID) (*reservations.Attendee, error) {
	args := m.Called(ctx, attendeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservations.Attendee), args.Error(1)
}

type MockTicketReader struct {
	mock.Mock
}

func (m *MockTicketReader) GetTicketByID(ctx context.Context, id uuid.UUID) (*tickets.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tickets.Ticket), args.Error(1)
}

func newTestService() (Service, *MockRepository, *MockAttendeeReader, *MockTicketReader) {
	repo := &MockRepository{}
	attendees := &MockAttendeeReader{}
	ticketReader := &MockTicketReader{}
	svc := NewService(repo, attendees, ticketReader, NewPathRenderer("/media/qr"))
	return svc, repo, attendees, ticketReader
}

func activeCredential(token string) *QrCredential {
	now := time.Now()
	return &QrCredential{
		ID:          uuid.New(),
		AttendeeID:  uuid.New(),
		Token:       token,
		Status:      StatusApproved,
		ActivatedAt: now.Add(-time.Hour),
		ExpiredAt:   now.Add(time.Hour),
	}
}

func TestEffectiveStatus(t *testing.T) {
	open := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	close := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		stored Status
		now    time.Time
		want   Status
	}{
		{"before window", StatusApproved, open.Add(-time.Hour), StatusApproved},
		{"window just opened", StatusApproved, open, StatusActive},
		{"inside window", StatusApproved, open.Add(36 * time.Hour), StatusActive},
		{"window just closed", StatusApproved, close, StatusExpired},
		{"long past window", StatusActive, close.Add(240 * time.Hour), StatusExpired},
		{"used stays used", StatusUsed, open.Add(time.Hour), StatusUsed},
		{"used stays used after window", StatusUsed, close.Add(time.Hour), StatusUsed},
		{"expired stays expired", StatusExpired, open.Add(time.Hour), StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, effectiveStatus(tt.stored, open, close, tt.now))
		})
	}
}

func TestValidityWindow(t *testing.T) {
	useStart := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	useEnd := time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC)

	activatedAt, expiredAt := validityWindow(useStart, useEnd)

	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), activatedAt)
	assert.Equal(t, time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), expiredAt)
}

func TestIssue_RejectsExistingCredential(t *testing.T) {
	svc, repo, _, _ := newTestService()

	attendeeID := uuid.New()
	repo.On("GetByAttendee", mock.Anything, attendeeID).Return(activeCredential("tok"), nil)

	_, err := svc.Issue(context.Background(), attendeeID)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func confirmedAttendee(attendeeID, ticketID uuid.UUID) *reservations.Attendee {
	return &reservations.Attendee{
		ID:            attendeeID,
		ReservationID: uuid.New(),
		Reservation: &reservations.Reservation{
			TicketID: ticketID,
			Status:   reservations.StatusConfirmed,
		},
	}
}

func TestIssue_DerivesWindowFromTicket(t *testing.T) {
	svc, repo, attendees, ticketReader := newTestService()

	attendeeID := uuid.New()
	ticketID := uuid.New()
	ticket := &tickets.Ticket{
		ID:       ticketID,
		UseStart: time.Now().Add(48 * time.Hour),
		UseEnd:   time.Now().Add(96 * time.Hour),
	}

	repo.On("GetByAttendee", mock.Anything, attendeeID).Return(nil, apperrors.ErrNotFound)
	attendees.On("GetAttendee", mock.Anything, attendeeID).Return(confirmedAttendee(attendeeID, ticketID), nil)
	ticketReader.On("GetTicketByID", mock.Anything, ticketID).Return(ticket, nil)

	var created *QrCredential
	repo.On("Create", mock.Anything, mock.AnythingOfType("*qrcredentials.QrCredential")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*QrCredential)
		}).
		Return(nil)

	credential, err := svc.Issue(context.Background(), attendeeID)
	require.NoError(t, err)
	require.NotNil(t, created)

	// Issued two days before the window opens.
	assert.Equal(t, StatusApproved, credential.Status)
	assert.Equal(t, midnight(ticket.UseStart), created.ActivatedAt)
	assert.Equal(t, midnight(ticket.UseEnd).Add(24*time.Hour), created.ExpiredAt)
	assert.Len(t, created.Token, 64)
	assert.Contains(t, created.ImageRef, "/media/qr/")
}

func TestIssue_ActiveWhenWindowAlreadyOpen(t *testing.T) {
	svc, repo, attendees, ticketReader := newTestService()

	attendeeID := uuid.New()
	ticketID := uuid.New()
	ticket := &tickets.Ticket{
		ID:       ticketID,
		UseStart: time.Now().Add(-24 * time.Hour),
		UseEnd:   time.Now().Add(24 * time.Hour),
	}

	repo.On("GetByAttendee", mock.Anything, attendeeID).Return(nil, apperrors.ErrNotFound)
	attendees.On("GetAttendee", mock.Anything, attendeeID).Return(confirmedAttendee(attendeeID, ticketID), nil)
	ticketReader.On("GetTicketByID", mock.Anything, ticketID).Return(ticket, nil)

	var created *QrCredential
	repo.On("Create", mock.Anything, mock.AnythingOfType("*qrcredentials.QrCredential")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*QrCredential)
		}).
		Return(nil)

	credential, err := svc.Issue(context.Background(), attendeeID)
	require.NoError(t, err)

	// The entry window opened yesterday, so both the stored row and the
	// returned credential read ACTIVE, not APPROVED.
	assert.Equal(t, StatusActive, credential.Status)
	assert.Equal(t, StatusActive, created.Status)
}

func TestIssue_RequiresConfirmedReservation(t *testing.T) {
	svc, repo, attendees, _ := newTestService()

	attendeeID := uuid.New()
	attendee := &reservations.Attendee{
		ID: attendeeID,
		Reservation: &reservations.Reservation{
			Status: reservations.StatusConfirmedPending,
		},
	}

	repo.On("GetByAttendee", mock.Anything, attendeeID).Return(nil, apperrors.ErrNotFound)
	attendees.On("GetAttendee", mock.Anything, attendeeID).Return(attendee, nil)

	_, err := svc.Issue(context.Background(), attendeeID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestMarkUsed_AppliesOnceOnly(t *testing.T) {
	svc, repo, _, _ := newTestService()

	credential := activeCredential("scan-me")
	repo.On("GetByToken", mock.Anything, "scan-me").Return(credential, nil).Once()
	repo.On("MarkUsed", mock.Anything, "scan-me", mock.AnythingOfType("time.Time")).Return(true, nil).Once()

	applied, err := svc.MarkUsed(context.Background(), "scan-me")
	require.NoError(t, err)
	assert.True(t, applied)

	// Second scan: the row is USED now, so the service reports not applied
	// without touching the repository update.
	used := *credential
	used.Status = StatusUsed
	repo.On("GetByToken", mock.Anything, "scan-me").Return(&used, nil).Once()

	applied, err = svc.MarkUsed(context.Background(), "scan-me")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestMarkUsed_OutsideWindowNotApplied(t *testing.T) {
	svc, repo, _, _ := newTestService()

	early := activeCredential("early")
	early.ActivatedAt = time.Now().Add(time.Hour)
	early.ExpiredAt = time.Now().Add(48 * time.Hour)
	repo.On("GetByToken", mock.Anything, "early").Return(early, nil)

	applied, err := svc.MarkUsed(context.Background(), "early")
	require.NoError(t, err)
	assert.False(t, applied)
	repo.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkUsed_UnknownToken(t *testing.T) {
	svc, repo, _, _ := newTestService()

	repo.On("GetByToken", mock.Anything, "ghost").Return(nil, apperrors.ErrNotFound)

	_, err := svc.MarkUsed(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReissue_InvalidatesOldToken(t *testing.T) {
	svc, repo, attendees, ticketReader := newTestService()

	attendeeID := uuid.New()
	ticketID := uuid.New()
	old := activeCredential("old-token")
	old.AttendeeID = attendeeID

	ticket := &tickets.Ticket{
		ID:       ticketID,
		UseStart: time.Now().Add(-24 * time.Hour),
		UseEnd:   time.Now().Add(24 * time.Hour),
	}

	repo.On("GetByAttendee", mock.Anything, attendeeID).Return(old, nil).Once()
	repo.On("DeleteByAttendee", mock.Anything, attendeeID).Return(nil).Once()
	attendees.On("GetAttendee", mock.Anything, attendeeID).Return(confirmedAttendee(attendeeID, ticketID), nil)
	ticketReader.On("GetTicketByID", mock.Anything, ticketID).Return(ticket, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*qrcredentials.QrCredential")).Return(nil)

	credential, err := svc.Reissue(context.Background(), attendeeID)
	require.NoError(t, err)

	repo.AssertCalled(t, "DeleteByAttendee", mock.Anything, attendeeID)
	assert.NotEqual(t, "old-token", credential.Token)
	assert.Len(t, credential.Token, 64)

	// The old token's row is gone, so scanning it is a miss.
	repo.On("GetByToken", mock.Anything, "old-token").Return(nil, apperrors.ErrNotFound)

	_, err = svc.MarkUsed(context.Background(), "old-token")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReissue_RejectsUsedCredential(t *testing.T) {
	svc, repo, _, _ := newTestService()

	attendeeID := uuid.New()
	used := activeCredential("done")
	used.Status = StatusUsed
	repo.On("GetByAttendee", mock.Anything, attendeeID).Return(used, nil)

	_, err := svc.Reissue(context.Background(), attendeeID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	repo.AssertNotCalled(t, "DeleteByAttendee", mock.Anything, mock.Anything)
}

func TestManualCheckIn_RefusesExpired(t *testing.T) {
	svc, repo, _, _ := newTestService()

	attendeeID := uuid.New()
	expired := activeCredential("old")
	expired.ExpiredAt = time.Now().Add(-time.Hour)
	repo.On("GetByAttendee", mock.Anything, attendeeID).Return(expired, nil)

	_, err := svc.ManualCheckIn(context.Background(), attendeeID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestManualCheckIn_ConsumesExisting(t *testing.T) {
	svc, repo, _, _ := newTestService()

	attendeeID := uuid.New()
	credential := activeCredential("walk-up")
	repo.On("GetByAttendee", mock.Anything, attendeeID).Return(credential, nil)
	repo.On("MarkUsed", mock.Anything, "walk-up", mock.AnythingOfType("time.Time")).Return(true, nil)

	got, err := svc.ManualCheckIn(context.Background(), attendeeID)
	require.NoError(t, err)
	assert.Equal(t, StatusUsed, got.Status)
	assert.NotNil(t, got.UsedAt)
}
