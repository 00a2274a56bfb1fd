package qrcredentials

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"expopass/internal/reservations"
	"expopass/internal/shared/apperrors"
	"expopass/internal/tickets"
	"expopass/pkg/metrics"

	"github.com/google/uuid"
)

// AttendeeReader resolves an attendee together with its reservation.
type AttendeeReader interface {
	GetAttendee(ctx context.Context, attendeeID uuid.UUID) (*reservations.Attendee, error)
}

// TicketReader resolves the ticket whose use window bounds the credential.
type TicketReader interface {
	GetTicketByID(ctx context.Context, id uuid.UUID) (*tickets.Ticket, error)
}

type Service interface {
	Issue(ctx context.Context, attendeeID uuid.UUID) (*QrCredential, error)
	Reissue(ctx context.Context, attendeeID uuid.UUID) (*QrCredential, error)
	GetByAttendee(ctx context.Context, attendeeID uuid.UUID) (*QrCredential, error)
	// MarkUsed records an entry scan. The bool reports whether this call
	// performed the check-in; a second scan of the same token returns false
	// without error.
	MarkUsed(ctx context.Context, token string) (bool, error)
	ManualCheckIn(ctx context.Context, attendeeID uuid.UUID) (*QrCredential, error)
}

type service struct {
	repo      Repository
	attendees AttendeeReader
	tickets   TicketReader
	renderer  ImageRenderer
}

func NewService(repo Repository, attendees AttendeeReader, ticketReader TicketReader, renderer ImageRenderer) Service {
	return &service{
		repo:      repo,
		attendees: attendees,
		tickets:   ticketReader,
		renderer:  renderer,
	}
}

// Issue creates the one credential an attendee may hold. The validity window
// derives from the ticket: opens at midnight of the first use day, closes at
// midnight after the last.
func (s *service) Issue(ctx context.Context, attendeeID uuid.UUID) (*QrCredential, error) {
	if existing, err := s.repo.GetByAttendee(ctx, attendeeID); err == nil && existing != nil {
		return nil, fmt.Errorf("attendee %s already has a credential: %w", attendeeID, apperrors.ErrDuplicate)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	return s.create(ctx, attendeeID)
}

// Reissue invalidates the current credential and mints a fresh token and
// image. Only usable credentials can be reissued; a USED or EXPIRED one
// stays on record.
func (s *service) Reissue(ctx context.Context, attendeeID uuid.UUID) (*QrCredential, error) {
	existing, err := s.repo.GetByAttendee(ctx, attendeeID)
	if err != nil {
		return nil, err
	}

	switch existing.EffectiveStatus(time.Now()) {
	case StatusApproved, StatusActive:
	default:
		return nil, fmt.Errorf("credential for attendee %s is %s: %w",
			attendeeID, existing.EffectiveStatus(time.Now()), apperrors.ErrInvalidStateTransition)
	}

	if err := s.repo.DeleteByAttendee(ctx, attendeeID); err != nil {
		return nil, err
	}

	return s.create(ctx, attendeeID)
}

func (s *service) GetByAttendee(ctx context.Context, attendeeID uuid.UUID) (*QrCredential, error) {
	return s.repo.GetByAttendee(ctx, attendeeID)
}

func (s *service) MarkUsed(ctx context.Context, token string) (bool, error) {
	credential, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.TrackCheckin("not_found")
		}
		return false, err
	}

	now := time.Now()
	if credential.EffectiveStatus(now) != StatusActive {
		metrics.TrackCheckin("not_applied")
		return false, nil
	}

	applied, err := s.repo.MarkUsed(ctx, token, now)
	if err != nil {
		return false, err
	}
	if !applied {
		// Lost a concurrent scan of the same token.
		metrics.TrackCheckin("not_applied")
		return false, nil
	}

	metrics.TrackCheckin("applied")
	return true, nil
}

// ManualCheckIn is the operator fallback for a broken phone or a failed
// issuance: missing credential gets issued and immediately consumed, a
// usable one is consumed, anything else is refused.
func (s *service) ManualCheckIn(ctx context.Context, attendeeID uuid.UUID) (*QrCredential, error) {
	credential, err := s.repo.GetByAttendee(ctx, attendeeID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		credential, err = s.create(ctx, attendeeID)
		if err != nil {
			return nil, err
		}
	} else {
		switch credential.EffectiveStatus(time.Now()) {
		case StatusApproved, StatusActive:
		default:
			return nil, fmt.Errorf("credential for attendee %s is %s: %w",
				attendeeID, credential.EffectiveStatus(time.Now()), apperrors.ErrInvalidStateTransition)
		}
	}

	now := time.Now()
	applied, err := s.repo.MarkUsed(ctx, credential.Token, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("credential for attendee %s could not be consumed: %w",
			attendeeID, apperrors.ErrInvalidStateTransition)
	}

	metrics.TrackCheckin("manual")
	credential.Status = StatusUsed
	credential.UsedAt = &now
	return credential, nil
}

func (s *service) create(ctx context.Context, attendeeID uuid.UUID) (*QrCredential, error) {
	attendee, err := s.attendees.GetAttendee(ctx, attendeeID)
	if err != nil {
		return nil, err
	}
	if attendee.Reservation == nil || !attendee.Reservation.IsConfirmed() {
		return nil, fmt.Errorf("reservation for attendee %s is not confirmed: %w",
			attendeeID, apperrors.ErrInvalidStateTransition)
	}

	ticket, err := s.tickets.GetTicketByID(ctx, attendee.Reservation.TicketID)
	if err != nil {
		return nil, err
	}

	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	imageRef, err := s.renderer.RenderQr(token)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR image: %w", err)
	}

	// The stored status matches the window at issue time: ACTIVE when the
	// entry window is already open, APPROVED before it.
	activatedAt, expiredAt := validityWindow(ticket.UseStart, ticket.UseEnd)
	credential := &QrCredential{
		ID:          uuid.New(),
		AttendeeID:  attendeeID,
		Token:       token,
		ImageRef:    imageRef,
		Status:      effectiveStatus(StatusApproved, activatedAt, expiredAt, time.Now()),
		ActivatedAt: activatedAt,
		ExpiredAt:   expiredAt,
	}

	if err := s.repo.Create(ctx, credential); err != nil {
		return nil, err
	}
	return credential, nil
}

// validityWindow spans whole days: entry opens at midnight of the first use
// day and closes at midnight after the last use day.
func validityWindow(useStart, useEnd time.Time) (time.Time, time.Time) {
	activatedAt := midnight(useStart)
	expiredAt := midnight(useEnd).Add(24 * time.Hour)
	return activatedAt, expiredAt
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NewToken returns a 64-hex-char entry token.
func NewToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate QR token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
