package refunds

import (
	"context"
	"fmt"
	"time"

	"expopass/internal/expos"
	"expopass/internal/notifications"
	"expopass/internal/payments"
	"expopass/internal/payments/psp"
	"expopass/internal/reservations"
	"expopass/internal/shared/apperrors"
	"expopass/pkg/cache"
	"expopass/pkg/logger"
	"expopass/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const activeSettingsCacheKey = "refund_fee_settings:active"

// publishedRefundCutoffDays is the hard floor for organizer refunds on live
// listings: under this many days to the first day, no refund at all.
const publishedRefundCutoffDays = 7

// PaymentReader is the slice of the payment repository the refund engine
// consults and settles against.
type PaymentReader interface {
	GetRecordByID(ctx context.Context, id uuid.UUID) (*payments.PaymentRecord, error)
	GetRecordByReservation(ctx context.Context, reservationID uuid.UUID) (*payments.PaymentRecord, error)
	GetRecordByExpo(ctx context.Context, expoID uuid.UUID) (*payments.PaymentRecord, error)
	GetInfoByReservation(ctx context.Context, reservationID uuid.UUID) (*payments.PaymentInfo, error)
	UpdateInfoStatus(ctx context.Context, reservationID uuid.UUID, from, to payments.InfoStatus) error
}

// ReservationLedger is the slice of the reservation repository used here.
type ReservationLedger interface {
	GetByID(ctx context.Context, id uuid.UUID) (*reservations.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to reservations.Status) error
}

// ExpoLifecycle resolves listing state for refund policy and cancels the
// listing once an organizer refund lands.
type ExpoLifecycle interface {
	GetExpo(ctx context.Context, id uuid.UUID) (*expos.Expo, error)
	TransitionExpo(ctx context.Context, id uuid.UUID, next expos.Status) error
}

// InventoryRestorer hands reserved capacity back after a refund.
type InventoryRestorer interface {
	Restore(ctx context.Context, ticketID uuid.UUID, quantity int) error
}

// MileageReverter undoes the mileage movement of the refunded purchase.
type MileageReverter interface {
	Revert(ctx context.Context, memberID uuid.UUID, used, earned int64) error
}

type Service interface {
	CreateFeeSetting(ctx context.Context, req CreateFeeSettingRequest) (*RefundFeeSetting, error)
	ListFeeSettings(ctx context.Context) ([]RefundFeeSetting, error)

	// Calculate quotes a reservation refund without side effects.
	Calculate(ctx context.Context, reservationID uuid.UUID) (*Quote, error)
	ExecuteReservationRefund(ctx context.Context, reservationID uuid.UUID, reason string) (*RefundRecord, error)

	RequestExpoRefund(ctx context.Context, expoID uuid.UUID, reason string) (*RefundRecord, error)
	ConfirmExpoRefund(ctx context.Context, recordID uuid.UUID) (*RefundRecord, error)
}

type service struct {
	repo      Repository
	paymentsR PaymentReader
	ledger    ReservationLedger
	expos     ExpoLifecycle
	inventory InventoryRestorer
	mileage   MileageReverter
	gateway   psp.Gateway
	notifier  notifications.Dispatcher
	cache     cache.Service
	cacheTTL  time.Duration
}

func NewService(
	repo Repository,
	paymentReader PaymentReader,
	ledger ReservationLedger,
	expoLifecycle ExpoLifecycle,
	inventory InventoryRestorer,
	mileageReverter MileageReverter,
	gateway psp.Gateway,
	notifier notifications.Dispatcher,
	cacheService cache.Service,
	cacheTTL time.Duration,
) Service {
	return &service{
		repo:      repo,
		paymentsR: paymentReader,
		ledger:    ledger,
		expos:     expoLifecycle,
		inventory: inventory,
		mileage:   mileageReverter,
		gateway:   gateway,
		notifier:  notifier,
		cache:     cacheService,
		cacheTTL:  cacheTTL,
	}
}

// CreateFeeSetting writes a tier and drops the active-schedule cache so the
// next quote sees it.
func (s *service) CreateFeeSetting(ctx context.Context, req CreateFeeSettingRequest) (*RefundFeeSetting, error) {
	setting := &RefundFeeSetting{
		ID:             uuid.New(),
		Basis:          BasisDaysBeforeStart,
		ThresholdDays:  req.ThresholdDays,
		FeeRatePercent: decimal.NewFromFloat(req.FeeRatePercent),
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
	}

	if err := s.repo.CreateSetting(ctx, setting); err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, activeSettingsCacheKey); err != nil {
		logger.GetDefault().WithComponent("refunds").WithError(err).
			Warn("Failed to invalidate fee setting cache")
	}

	return setting, nil
}

func (s *service) ListFeeSettings(ctx context.Context) ([]RefundFeeSetting, error) {
	return s.repo.ListSettings(ctx)
}

func (s *service) Calculate(ctx context.Context, reservationID uuid.UUID) (*Quote, error) {
	reservation, info, _, err := s.loadRefundable(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	return s.quoteFor(ctx, reservation, info, time.Now())
}

// ExecuteReservationRefund runs the attendee refund end to end: recompute
// the quote, move funds back at the PSP, reverse mileage, restore inventory,
// cancel the reservation and record the refund. Steps after the PSP call
// cannot roll the money back, so their failures are logged for operator
// follow-up rather than aborting.
func (s *service) ExecuteReservationRefund(ctx context.Context, reservationID uuid.UUID, reason string) (*RefundRecord, error) {
	log := logger.GetDefault().WithComponent("refunds")

	reservation, info, payment, err := s.loadRefundable(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	quote, err := s.quoteFor(ctx, reservation, info, now)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.RequestRefund(ctx, payment.ExternalRef, quote.NetRefund, reason)
	if err != nil {
		return nil, fmt.Errorf("psp refund failed: %w", err)
	}

	if !reservation.IsGuest() && (quote.MileageToRestore > 0 || quote.MileageToRevoke > 0) {
		if err := s.mileage.Revert(ctx, *reservation.MemberID, quote.MileageToRestore, quote.MileageToRevoke); err != nil {
			log.WithError(err).Error("Failed to revert mileage during refund",
				"reservation_id", reservation.ID, "member_id", reservation.MemberID)
		}
	}

	if err := s.inventory.Restore(ctx, reservation.TicketID, reservation.Quantity); err != nil {
		log.WithError(err).Error("Failed to restore inventory during refund",
			"reservation_id", reservation.ID, "ticket_id", reservation.TicketID)
	}

	if err := s.ledger.UpdateStatus(ctx, reservation.ID, reservations.StatusConfirmed, reservations.StatusCancelled); err != nil {
		return nil, err
	}

	partial := quote.Fee.IsPositive()
	record := &RefundRecord{
		ID:              uuid.New(),
		PaymentRecordID: payment.ID,
		ReservationID:   &reservation.ID,
		RefundedAmount:  result.RefundedAmount,
		Reason:          reason,
		Status:          RecordStatusRefunded,
		Partial:         partial,
		RefundedAt:      &now,
	}
	if err := s.repo.CreateRecord(ctx, record); err != nil {
		return nil, err
	}

	target := payments.InfoStatusRefunded
	if partial {
		target = payments.InfoStatusPartialRefunded
	}
	if err := s.paymentsR.UpdateInfoStatus(ctx, reservation.ID, info.Status, target); err != nil {
		log.WithError(err).Error("Failed to update payment info after refund",
			"reservation_id", reservation.ID)
	}

	metrics.TrackRefund("reservation")

	nerr := s.notifier.Notify(ctx, reservation.MemberID, reservation.GuestEmail,
		notifications.TemplateRefundCompleted, map[string]string{
			"reservation_code": reservation.ReservationCode,
			"refunded_amount":  result.RefundedAmount.String(),
		})
	if nerr != nil {
		log.WithError(nerr).Error("Failed to dispatch refund notification",
			"reservation_id", reservation.ID)
	}

	return record, nil
}

// RequestExpoRefund registers an organizer refund request as PENDING. Policy
// hangs off the listing lifecycle: not yet live refunds in full, live
// listings get the tiered fee with a hard cutoff, everything else is
// refused.
func (s *service) RequestExpoRefund(ctx context.Context, expoID uuid.UUID, reason string) (*RefundRecord, error) {
	expo, err := s.expos.GetExpo(ctx, expoID)
	if err != nil {
		return nil, err
	}

	policy := expo.Status.RefundPolicy()
	if policy == expos.RefundDenied {
		return nil, fmt.Errorf("expo %s in state %s is not refundable: %w",
			expoID, expo.Status, apperrors.ErrInvalidStateTransition)
	}

	pending, err := s.repo.HasPendingForExpo(ctx, expoID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("expo %s already has a pending refund request: %w",
			expoID, apperrors.ErrDuplicate)
	}

	payment, err := s.paymentsR.GetRecordByExpo(ctx, expoID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	amount := payment.Amount
	fee := decimal.Zero

	if policy == expos.RefundTiered {
		days := expo.DaysUntilStart(now)
		if days < publishedRefundCutoffDays {
			return nil, fmt.Errorf("expo %s starts in %d days, refunds close %d days out: %w",
				expoID, days, publishedRefundCutoffDays, apperrors.ErrInvalidStateTransition)
		}

		settings, err := s.activeSettings(ctx, now)
		if err != nil {
			return nil, err
		}
		tier, err := selectTier(settings, days)
		if err != nil {
			return nil, err
		}
		fee = feeFor(amount, tier.FeeRatePercent)
	}

	net := amount.Sub(fee)
	if !net.IsPositive() {
		return nil, fmt.Errorf("net refund %s is not positive: %w", net, apperrors.ErrInvalidStateTransition)
	}

	record := &RefundRecord{
		ID:              uuid.New(),
		PaymentRecordID: payment.ID,
		ExpoID:          &expoID,
		RefundedAmount:  net,
		Reason:          reason,
		Status:          RecordStatusPending,
		Partial:         fee.IsPositive(),
	}
	if err := s.repo.CreateRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ConfirmExpoRefund executes a pending organizer refund: PSP call, record
// flip, listing cancelled.
func (s *service) ConfirmExpoRefund(ctx context.Context, recordID uuid.UUID) (*RefundRecord, error) {
	log := logger.GetDefault().WithComponent("refunds")

	record, err := s.repo.GetRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != RecordStatusPending || record.ExpoID == nil {
		return nil, fmt.Errorf("refund record %s is not a pending expo refund: %w",
			recordID, apperrors.ErrInvalidStateTransition)
	}

	payment, err := s.paymentsR.GetRecordByID(ctx, record.PaymentRecordID)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.RequestRefund(ctx, payment.ExternalRef, record.RefundedAmount, record.Reason)
	if err != nil {
		return nil, fmt.Errorf("psp refund failed: %w", err)
	}

	now := time.Now()
	if err := s.repo.MarkRecordRefunded(ctx, recordID, now); err != nil {
		return nil, err
	}
	record.Status = RecordStatusRefunded
	record.RefundedAt = &now
	record.RefundedAmount = result.RefundedAmount

	if err := s.expos.TransitionExpo(ctx, *record.ExpoID, expos.StatusCancelled); err != nil {
		log.WithError(err).Error("Failed to cancel expo after refund", "expo_id", record.ExpoID)
	}

	metrics.TrackRefund("expo")
	return record, nil
}

// loadRefundable fetches the reservation, its payment info and payment
// record, and rejects anything not in a refundable state.
func (s *service) loadRefundable(ctx context.Context, reservationID uuid.UUID) (*reservations.Reservation, *payments.PaymentInfo, *payments.PaymentRecord, error) {
	reservation, err := s.ledger.GetByID(ctx, reservationID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !reservation.IsConfirmed() {
		return nil, nil, nil, fmt.Errorf("reservation %s is %s, only confirmed reservations refund: %w",
			reservationID, reservation.Status, apperrors.ErrInvalidStateTransition)
	}

	info, err := s.paymentsR.GetInfoByReservation(ctx, reservationID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !info.Status.CanRefund() {
		return nil, nil, nil, fmt.Errorf("payment for reservation %s is %s: %w",
			reservationID, info.Status, apperrors.ErrInvalidStateTransition)
	}

	payment, err := s.paymentsR.GetRecordByReservation(ctx, reservationID)
	if err != nil {
		return nil, nil, nil, err
	}

	return reservation, info, payment, nil
}

func (s *service) quoteFor(ctx context.Context, reservation *reservations.Reservation, info *payments.PaymentInfo, now time.Time) (*Quote, error) {
	expo, err := s.expos.GetExpo(ctx, reservation.ExpoID)
	if err != nil {
		return nil, err
	}

	days := expo.DaysUntilStart(now)
	if days < 0 {
		return nil, fmt.Errorf("expo %s already started: %w", expo.ID, apperrors.ErrInvalidStateTransition)
	}

	settings, err := s.activeSettings(ctx, now)
	if err != nil {
		return nil, err
	}
	tier, err := selectTier(settings, days)
	if err != nil {
		return nil, err
	}

	fee := feeFor(info.TotalAmount, tier.FeeRatePercent)
	net := info.TotalAmount.Sub(fee)
	if !net.IsPositive() {
		return nil, fmt.Errorf("net refund %s is not positive: %w", net, apperrors.ErrInvalidStateTransition)
	}

	return &Quote{
		OriginalAmount:   info.TotalAmount,
		Fee:              fee,
		NetRefund:        net,
		FeeRatePercent:   tier.FeeRatePercent,
		ThresholdDays:    tier.ThresholdDays,
		DaysUntilStart:   days,
		MileageToRestore: info.UsedMileage,
		MileageToRevoke:  info.SavedMileage,
	}, nil
}

// activeSettings returns the schedule active right now, served from cache
// with a short TTL. The result is re-filtered by window after a cache hit so
// a tier expiring mid-TTL is never applied.
func (s *service) activeSettings(ctx context.Context, now time.Time) ([]RefundFeeSetting, error) {
	var settings []RefundFeeSetting
	err := s.cache.GetOrSet(ctx, activeSettingsCacheKey, s.cacheTTL, func() (interface{}, error) {
		fresh, err := s.repo.ListActiveSettings(ctx, now)
		if err != nil {
			return nil, err
		}
		return fresh, nil
	}, &settings)
	if err != nil {
		return nil, err
	}

	active := make([]RefundFeeSetting, 0, len(settings))
	for _, setting := range settings {
		if setting.Basis == BasisDaysBeforeStart && setting.ActiveAt(now) {
			active = append(active, setting)
		}
	}
	return active, nil
}

// selectTier picks the tier with the largest threshold not exceeding the
// remaining days. With no qualifying tier the most punitive active one
// applies. Settings arrive ordered by threshold descending.
func selectTier(settings []RefundFeeSetting, daysUntilStart int) (*RefundFeeSetting, error) {
	if len(settings) == 0 {
		return nil, fmt.Errorf("no active refund fee settings: %w", apperrors.ErrNotFound)
	}

	for i := range settings {
		if settings[i].ThresholdDays <= daysUntilStart {
			return &settings[i], nil
		}
	}

	punitive := &settings[0]
	for i := range settings {
		if settings[i].FeeRatePercent.GreaterThan(punitive.FeeRatePercent) {
			punitive = &settings[i]
		}
	}
	return punitive, nil
}

// feeFor computes the fee at 2 decimal places, rounding halves up.
func feeFor(amount decimal.Decimal, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
}
