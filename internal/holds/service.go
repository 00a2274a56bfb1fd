package holds

import (
	"context"
	"fmt"
	"time"

	"expopass/internal/tickets"

	"github.com/google/uuid"
)

// TicketReader is the narrow slice of the ticket repository the hold flow
// needs (avoids a package cycle with the payments reconciler).
type TicketReader interface {
	GetTicketByID(ctx context.Context, id uuid.UUID) (*tickets.Ticket, error)
}

type Service interface {
	CreateHold(ctx context.Context, req CreateHoldRequest) (*CreateHoldResponse, error)
}

type service struct {
	store   Store
	tickets TicketReader
	ttl     time.Duration
}

func NewService(store Store, ticketReader TicketReader, ttl time.Duration) Service {
	return &service{
		store:   store,
		tickets: ticketReader,
		ttl:     ttl,
	}
}

// CreateHold validates the requested ticket and parks the prospective
// reservation in redis. The hold is advisory only: it reserves nothing, so a
// scarce ticket can still sell out between hold and confirmation. Oversell
// is prevented by the decrement at confirmation time, not here.
func (s *service) CreateHold(ctx context.Context, req CreateHoldRequest) (*CreateHoldResponse, error) {
	expoID, err := uuid.Parse(req.ExpoID)
	if err != nil {
		return nil, fmt.Errorf("invalid expo ID: %w", err)
	}

	ticketID, err := uuid.Parse(req.TicketID)
	if err != nil {
		return nil, fmt.Errorf("invalid ticket ID: %w", err)
	}

	if req.MemberID == "" && req.GuestEmail == "" {
		return nil, fmt.Errorf("buyer identity required: member_id or guest_email")
	}

	ticket, err := s.tickets.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	if ticket.ExpoID != expoID {
		return nil, fmt.Errorf("ticket %s does not belong to expo %s", ticketID, expoID)
	}

	now := time.Now()
	if !ticket.OnSale(now) {
		return nil, fmt.Errorf("ticket is not on sale")
	}

	code, err := GenerateReservationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reservation code: %w", err)
	}

	session := &HoldSession{
		SessionID:       NewSessionID(),
		ExpoID:          expoID,
		TicketID:        ticketID,
		Quantity:        req.Quantity,
		GuestEmail:      req.GuestEmail,
		ReservationCode: code,
		CreatedAt:       now,
	}

	if req.MemberID != "" {
		memberID, err := uuid.Parse(req.MemberID)
		if err != nil {
			return nil, fmt.Errorf("invalid member ID: %w", err)
		}
		session.MemberID = &memberID
	}

	if err := s.store.CreateHold(ctx, session); err != nil {
		return nil, err
	}

	return &CreateHoldResponse{
		SessionID:       session.SessionID,
		ReservationCode: session.ReservationCode,
		ExpiresAt:       now.Add(s.ttl),
		TTLSeconds:      int(s.ttl.Seconds()),
	}, nil
}
