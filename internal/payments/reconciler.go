package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expopass/internal/holds"
	"expopass/internal/notifications"
	"expopass/internal/payments/psp"
	"expopass/internal/qrcredentials"
	"expopass/internal/reservations"
	"expopass/internal/shared/apperrors"
	"expopass/internal/tickets"
	"expopass/pkg/logger"
	"expopass/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HoldConsumer is the single-use session read the reconciler needs.
type HoldConsumer interface {
	Consume(ctx context.Context, sessionID string) (*holds.HoldSession, error)
}

// InventoryLedger is the slice of the ticket repository used at settlement.
type InventoryLedger interface {
	GetTicketByID(ctx context.Context, id uuid.UUID) (*tickets.Ticket, error)
	Decrement(ctx context.Context, ticketID uuid.UUID, quantity int) error
}

// ReservationLedger is the slice of the reservation repository used here.
type ReservationLedger interface {
	Create(ctx context.Context, reservation *reservations.Reservation) error
	CreateAttendees(ctx context.Context, attendees []reservations.Attendee) error
	GetByID(ctx context.Context, id uuid.UUID) (*reservations.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to reservations.Status) error
}

// MileageApplier credits and debits member mileage after confirmation.
type MileageApplier interface {
	Apply(ctx context.Context, memberID uuid.UUID, used, earned int64) error
}

// CredentialIssuer issues QR credentials for confirmed attendees.
type CredentialIssuer interface {
	Issue(ctx context.Context, attendeeID uuid.UUID) (*qrcredentials.QrCredential, error)
}

// Reconciler drives a held checkout through payment verification, durable
// persistence, inventory decrement and reservation confirmation. Immediate
// payments settle inside the request; deferred payments settle when the PSP
// webhook arrives via ConfirmDeferred.
type Reconciler interface {
	CompleteImmediate(ctx context.Context, req CompletePaymentRequest) (*CompletePaymentResponse, error)
	CompleteDeferred(ctx context.Context, req CompletePaymentRequest) (*CompletePaymentResponse, error)
	ConfirmDeferred(ctx context.Context, pspRef string) error
}

type reconciler struct {
	sessions        HoldConsumer
	inventory       InventoryLedger
	ledger          ReservationLedger
	repo            Repository
	gateway         psp.Gateway
	mileage         MileageApplier
	credentials     CredentialIssuer
	notifier        notifications.Dispatcher
	earnRatePercent int64
}

func NewReconciler(
	sessions HoldConsumer,
	inventory InventoryLedger,
	ledger ReservationLedger,
	repo Repository,
	gateway psp.Gateway,
	mileageService MileageApplier,
	credentials CredentialIssuer,
	notifier notifications.Dispatcher,
	earnRatePercent int,
) Reconciler {
	return &reconciler{
		sessions:        sessions,
		inventory:       inventory,
		ledger:          ledger,
		repo:            repo,
		gateway:         gateway,
		mileage:         mileageService,
		credentials:     credentials,
		notifier:        notifier,
		earnRatePercent: int64(earnRatePercent),
	}
}

func (r *reconciler) CompleteImmediate(ctx context.Context, req CompletePaymentRequest) (*CompletePaymentResponse, error) {
	return r.complete(ctx, req, ModeImmediate)
}

func (r *reconciler) CompleteDeferred(ctx context.Context, req CompletePaymentRequest) (*CompletePaymentResponse, error) {
	return r.complete(ctx, req, ModeDeferred)
}

// complete is the shared entry path for both payment modes. Ordering is
// fixed: verify against the PSP before any durable write, then payment rows,
// then the inventory decrement, then (immediate mode only) confirmation.
// Consuming the hold session first makes the whole operation idempotent per
// session id: a replay finds no session and fails with SessionExpired.
func (r *reconciler) complete(ctx context.Context, req CompletePaymentRequest, mode Mode) (*CompletePaymentResponse, error) {
	session, err := r.sessions.Consume(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if session.IsGuest() && req.UsedMileage > 0 {
		return nil, fmt.Errorf("guest buyers cannot spend mileage: %w", apperrors.ErrPaymentMismatch)
	}

	ticket, err := r.inventory.GetTicketByID(ctx, session.TicketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket for session %s: %w", req.SessionID, err)
	}

	expected := ticket.Price.
		Mul(decimal.NewFromInt(int64(session.Quantity))).
		Sub(decimal.NewFromInt(req.UsedMileage))

	detail, err := r.gateway.GetPayment(ctx, req.PspRef)
	if err != nil {
		return nil, fmt.Errorf("payment verification failed: %w", err)
	}

	if !detail.Amount.Equal(req.ClaimedAmount) || !detail.Amount.Equal(expected) {
		return nil, fmt.Errorf("psp reports %s, client claimed %s, expected %s: %w",
			detail.Amount, req.ClaimedAmount, expected, apperrors.ErrPaymentMismatch)
	}

	reservation := &reservations.Reservation{
		ID:              uuid.New(),
		ExpoID:          session.ExpoID,
		TicketID:        session.TicketID,
		Quantity:        session.Quantity,
		MemberID:        session.MemberID,
		GuestEmail:      session.GuestEmail,
		ReservationCode: session.ReservationCode,
		Status:          reservations.StatusConfirmedPending,
	}
	if err := r.ledger.Create(ctx, reservation); err != nil {
		return nil, err
	}

	attendees := buildAttendees(reservation.ID, session.Quantity, req.AttendeeNames)
	if err := r.ledger.CreateAttendees(ctx, attendees); err != nil {
		return nil, err
	}
	reservation.Attendees = attendees

	record := &PaymentRecord{
		ID:            uuid.New(),
		ReservationID: &reservation.ID,
		ExternalRef:   req.PspRef,
		MerchantRef:   session.ReservationCode,
		Amount:        detail.Amount,
		Method:        detail.Method,
	}
	info := &PaymentInfo{
		ID:            uuid.New(),
		ReservationID: reservation.ID,
		TotalAmount:   detail.Amount,
		UsedMileage:   req.UsedMileage,
		SavedMileage:  r.earnedMileage(session, detail.Amount),
		Status:        InfoStatusPending,
	}
	if err := r.repo.CreateRecordAndInfo(ctx, record, info); err != nil {
		return nil, err
	}

	if err := r.inventory.Decrement(ctx, session.TicketID, session.Quantity); err != nil {
		if errors.Is(err, apperrors.ErrInventoryExhausted) {
			metrics.TrackInventoryConflict()
		}
		// The CONFIRMED_PENDING row and payment rows stay behind for the
		// expiry sweep and operator follow-up.
		return nil, err
	}

	if mode == ModeDeferred {
		return &CompletePaymentResponse{
			ReservationID:   reservation.ID,
			ReservationCode: reservation.ReservationCode,
			Status:          reservations.StatusConfirmedPending.String(),
			PaymentStatus:   InfoStatusPending,
			TotalAmount:     info.TotalAmount,
			SavedMileage:    info.SavedMileage,
		}, nil
	}

	if err := r.settle(ctx, reservation, info, mode); err != nil {
		return nil, err
	}

	return &CompletePaymentResponse{
		ReservationID:   reservation.ID,
		ReservationCode: reservation.ReservationCode,
		Status:          reservations.StatusConfirmed.String(),
		PaymentStatus:   InfoStatusSuccess,
		TotalAmount:     info.TotalAmount,
		SavedMileage:    info.SavedMileage,
	}, nil
}

// ConfirmDeferred is the webhook completion for the deferred path. The
// callback is untrusted, so the amount is re-verified against the PSP before
// settlement. Replays lose the compare-and-set and come back as Duplicate.
func (r *reconciler) ConfirmDeferred(ctx context.Context, pspRef string) error {
	record, err := r.repo.GetRecordByExternalRef(ctx, pspRef)
	if err != nil {
		return err
	}

	detail, err := r.gateway.GetPayment(ctx, pspRef)
	if err != nil {
		return fmt.Errorf("payment verification failed: %w", err)
	}
	if !detail.Amount.Equal(record.Amount) {
		return fmt.Errorf("psp reports %s, recorded %s: %w",
			detail.Amount, record.Amount, apperrors.ErrPaymentMismatch)
	}

	if record.ReservationID == nil {
		return fmt.Errorf("payment %s is not a reservation payment: %w", pspRef, apperrors.ErrNotFound)
	}

	reservation, err := r.ledger.GetByID(ctx, *record.ReservationID)
	if err != nil {
		return err
	}
	info, err := r.repo.GetInfoByReservation(ctx, *record.ReservationID)
	if err != nil {
		return err
	}

	return r.settle(ctx, reservation, info, ModeDeferred)
}

// settle flips both status machines to their confirmed states and then runs
// the post-confirmation side effects. The PaymentInfo compare-and-set is the
// single gate: whoever wins it owns confirmation, so double settlement is
// impossible across request/webhook/replay interleavings.
func (r *reconciler) settle(ctx context.Context, reservation *reservations.Reservation, info *PaymentInfo, mode Mode) error {
	if err := r.repo.UpdateInfoStatus(ctx, reservation.ID, InfoStatusPending, InfoStatusSuccess); err != nil {
		if errors.Is(err, apperrors.ErrInvalidStateTransition) {
			return fmt.Errorf("payment for reservation %s already settled: %w", reservation.ID, apperrors.ErrDuplicate)
		}
		return err
	}

	if err := r.ledger.UpdateStatus(ctx, reservation.ID, reservations.StatusConfirmedPending, reservations.StatusConfirmed); err != nil {
		return err
	}
	reservation.Status = reservations.StatusConfirmed

	metrics.TrackConfirmation(strings.ToLower(string(mode)))

	r.postConfirmation(ctx, reservation, info)
	return nil
}

// postConfirmation runs mileage, QR issuance and notification. Each step is
// isolated: a failure is logged for operator follow-up and never rolls back
// the confirmed sale.
func (r *reconciler) postConfirmation(ctx context.Context, reservation *reservations.Reservation, info *PaymentInfo) {
	log := logger.GetDefault().WithComponent("payment-reconciler")

	if !reservation.IsGuest() && (info.UsedMileage > 0 || info.SavedMileage > 0) {
		if err := r.mileage.Apply(ctx, *reservation.MemberID, info.UsedMileage, info.SavedMileage); err != nil {
			log.WithError(err).Error("Failed to apply mileage after confirmation",
				"reservation_id", reservation.ID, "member_id", reservation.MemberID)
		}
	}

	for _, attendee := range reservation.Attendees {
		if _, err := r.credentials.Issue(ctx, attendee.ID); err != nil {
			log.WithError(err).Error("Failed to issue QR credential after confirmation",
				"reservation_id", reservation.ID, "attendee_id", attendee.ID)
		}
	}

	err := r.notifier.Notify(ctx, reservation.MemberID, reservation.GuestEmail,
		notifications.TemplateReservationConfirmed, map[string]string{
			"reservation_code": reservation.ReservationCode,
			"total_amount":     info.TotalAmount.String(),
		})
	if err != nil {
		log.WithError(err).Error("Failed to dispatch confirmation notification",
			"reservation_id", reservation.ID)
	}
}

// earnedMileage computes the accrual for member buyers; guests earn nothing.
func (r *reconciler) earnedMileage(session *holds.HoldSession, amount decimal.Decimal) int64 {
	if session.IsGuest() || r.earnRatePercent <= 0 {
		return 0
	}
	return amount.
		Mul(decimal.NewFromInt(r.earnRatePercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

func buildAttendees(reservationID uuid.UUID, quantity int, names []string) []reservations.Attendee {
	attendees := make([]reservations.Attendee, 0, quantity)
	for i := 0; i < quantity; i++ {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		attendees = append(attendees, reservations.Attendee{
			ID:            uuid.New(),
			ReservationID: reservationID,
			Name:          name,
		})
	}
	return attendees
}
