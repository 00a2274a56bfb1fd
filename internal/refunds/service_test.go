package refunds

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"expopass/internal/expos"
	"expopass/internal/notifications"
	"expopass/internal/payments"
	"expopass/internal/payments/psp"
	"expopass/internal/reservations"
	"expopass/internal/shared/apperrors"
	"expopass/pkg/cache"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateSetting(ctx context.Context, setting *RefundFeeSetting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

func (m *MockRepository) ListSettings(ctx context.Context) ([]RefundFeeSetting, error) {
	args := m.Called(ctx)
	return args.Get(0).([]RefundFeeSetting), args.Error(1)
}

func (m *MockRepository) ListActiveSettings(ctx context.Context, at time.Time) ([]RefundFeeSetting, error) {
	args := m.Called(ctx, at)
	return args.Get(0).([]RefundFeeSetting), args.Error(1)
}

func (m *MockRepository) CreateRecord(ctx context.Context, record *RefundRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRepository) GetRecordByID(ctx context.Context, id uuid.UUID) (*RefundRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RefundRecord), args.Error(1)
}

func (m *MockRepository) HasPendingForExpo(ctx context.Context, expoID uuid.UUID) (bool, error) {
	args := m.Called(ctx, expoID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) MarkRecordRefunded(ctx context.Context, id uuid.UUID, refundedAt time.Time) error {
	args := m.Called(ctx, id, refundedAt)
	return args.Error(0)
}

type MockPaymentReader struct {
	mock.Mock
}

func (m *MockPaymentReader) GetRecordByID(ctx context.Context, id uuid.UUID) (*payments.PaymentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.PaymentRecord), args.Error(1)
}

func (m *MockPaymentReader) GetRecordByReservation(ctx context.Context, reservationID uuid.UUID) (*payments.PaymentRecord, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.PaymentRecord), args.Error(1)
}

func (m *MockPaymentReader) GetRecordByExpo(ctx context.Context, expoID uuid.UUID) (*payments.PaymentRecord, error) {
	args := m.Called(ctx, expoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.PaymentRecord), args.Error(1)
}

func (m *MockPaymentReader) GetInfoByReservation(ctx context.Context, reservationID uuid.UUID) (*payments.PaymentInfo, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.PaymentInfo), args.Error(1)
}

func (m *MockPaymentReader) UpdateInfoStatus(ctx context.Context, reservationID uuid.UUID, from, to payments.InfoStatus) error {
	args := m.Called(ctx, reservationID, from, to)
	return args.Error(0)
}

type MockReservationLedger struct {
	mock.Mock
}

func (m *MockReservationLedger) GetByID(ctx context.Context, id uuid.UUID) (*reservations.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservations.Reservation), args.Error(1)
}

func (m *MockReservationLedger) UpdateStatus(ctx context.Context, id uuid.UUID, from, to reservations.Status) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

type MockExpoLifecycle struct {
	mock.Mock
}

func (m *MockExpoLifecycle) GetExpo(ctx context.Context, id uuid.UUID) (*expos.Expo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expos.Expo), args.Error(1)
}

func (m *MockExpoLifecycle) TransitionExpo(ctx context.Context, id uuid.UUID, next expos.Status) error {
	args := m.Called(ctx, id, next)
	return args.Error(0)
}

type MockInventoryRestorer struct {
	mock.Mock
}

func (m *MockInventoryRestorer) Restore(ctx context.Context, ticketID uuid.UUID, quantity int) error {
	args := m.Called(ctx, ticketID, quantity)
	return args.Error(0)
}

type MockMileageReverter struct {
	mock.Mock
}

func (m *MockMileageReverter) Revert(ctx context.Context, memberID uuid.UUID, used, earned int64) error {
	args := m.Called(ctx, memberID, used, earned)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetPayment(ctx context.Context, externalRef string) (*psp.PaymentDetail, error) {
	args := m.Called(ctx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*psp.PaymentDetail), args.Error(1)
}

func (m *MockGateway) RequestRefund(ctx context.Context, externalRef string, amount decimal.Decimal, reason string) (*psp.RefundResult, error) {
	args := m.Called(ctx, externalRef, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*psp.RefundResult), args.Error(1)
}

// passthroughCache always misses and hands the fetched value straight back.
type passthroughCache struct{}

func (passthroughCache) Get(ctx context.Context, key string, dest interface{}) error {
	return cache.ErrCacheMiss
}
func (passthroughCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (passthroughCache) Delete(ctx context.Context, key string) error { return nil }
func (passthroughCache) Exists(ctx context.Context, key string) bool  { return false }
func (passthroughCache) Ping(ctx context.Context) error               { return nil }

func (passthroughCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	value, err := fetcher()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

type testEnv struct {
	svc       Service
	repo      *MockRepository
	payments  *MockPaymentReader
	ledger    *MockReservationLedger
	expos     *MockExpoLifecycle
	inventory *MockInventoryRestorer
	mileage   *MockMileageReverter
	gateway   *MockGateway
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:      &MockRepository{},
		payments:  &MockPaymentReader{},
		ledger:    &MockReservationLedger{},
		expos:     &MockExpoLifecycle{},
		inventory: &MockInventoryRestorer{},
		mileage:   &MockMileageReverter{},
		gateway:   &MockGateway{},
	}
	env.svc = NewService(
		env.repo, env.payments, env.ledger, env.expos,
		env.inventory, env.mileage, env.gateway,
		notifications.NopDispatcher{}, passthroughCache{}, time.Minute,
	)
	return env
}

func money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func rate(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// standardSchedule is the worked example: >=30 days 0%, >=14 days 20%,
// >=7 days 50%.
func standardSchedule(now time.Time) []RefundFeeSetting {
	window := func(threshold int, feeRate float64) RefundFeeSetting {
		return RefundFeeSetting{
			ID:             uuid.New(),
			Basis:          BasisDaysBeforeStart,
			ThresholdDays:  threshold,
			FeeRatePercent: rate(feeRate),
			ValidFrom:      now.Add(-24 * time.Hour),
			ValidUntil:     now.Add(24 * time.Hour),
		}
	}
	return []RefundFeeSetting{window(30, 0), window(14, 20), window(7, 50)}
}

func TestSelectTier(t *testing.T) {
	settings := standardSchedule(time.Now())

	tests := []struct {
		days          int
		wantThreshold int
		wantRate      float64
	}{
		{45, 30, 0},
		{30, 30, 0},
		{20, 14, 20},
		{14, 14, 20},
		{10, 7, 50},
		{7, 7, 50},
		// Below every threshold: the most punitive tier applies.
		{3, 7, 50},
		{0, 7, 50},
	}

	for _, tt := range tests {
		tier, err := selectTier(settings, tt.days)
		require.NoError(t, err, "days=%d", tt.days)
		assert.Equal(t, tt.wantThreshold, tier.ThresholdDays, "days=%d", tt.days)
		assert.True(t, tier.FeeRatePercent.Equal(rate(tt.wantRate)), "days=%d", tt.days)
	}
}

func TestSelectTier_NoSettings(t *testing.T) {
	_, err := selectTier(nil, 10)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFeeFor(t *testing.T) {
	tests := []struct {
		amount int64
		rate   float64
		want   string
	}{
		{100000, 50, "50000"},
		{100000, 20, "20000"},
		{100000, 0, "0"},
		{333, 33.33, "110.99"},
		{101, 0.5, "0.51"}, // 0.505 rounds half up
	}

	for _, tt := range tests {
		fee := feeFor(money(tt.amount), rate(tt.rate))
		assert.True(t, fee.Equal(decimal.RequireFromString(tt.want)),
			"amount=%d rate=%v got=%s want=%s", tt.amount, tt.rate, fee, tt.want)
	}
}

func TestCalculate_WorkedExample(t *testing.T) {
	env := newTestEnv()
	now := time.Now()

	reservationID := uuid.New()
	expoID := uuid.New()
	memberID := uuid.New()

	env.ledger.On("GetByID", mock.Anything, reservationID).Return(&reservations.Reservation{
		ID:       reservationID,
		ExpoID:   expoID,
		MemberID: &memberID,
		Quantity: 2,
		Status:   reservations.StatusConfirmed,
	}, nil)
	env.payments.On("GetInfoByReservation", mock.Anything, reservationID).Return(&payments.PaymentInfo{
		ReservationID: reservationID,
		TotalAmount:   money(100000),
		UsedMileage:   3000,
		SavedMileage:  1000,
		Status:        payments.InfoStatusSuccess,
	}, nil)
	env.payments.On("GetRecordByReservation", mock.Anything, reservationID).Return(&payments.PaymentRecord{
		ID:          uuid.New(),
		ExternalRef: "psp-123",
		Amount:      money(100000),
	}, nil)
	env.expos.On("GetExpo", mock.Anything, expoID).Return(&expos.Expo{
		ID:        expoID,
		StartDate: now.Add(10 * 24 * time.Hour),
		Status:    expos.StatusPublished,
	}, nil)
	env.repo.On("ListActiveSettings", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(standardSchedule(now), nil)

	quote, err := env.svc.Calculate(context.Background(), reservationID)
	require.NoError(t, err)

	assert.True(t, quote.OriginalAmount.Equal(money(100000)))
	assert.True(t, quote.Fee.Equal(money(50000)), "fee=%s", quote.Fee)
	assert.True(t, quote.NetRefund.Equal(money(50000)), "net=%s", quote.NetRefund)
	assert.Equal(t, 7, quote.ThresholdDays)
	assert.Equal(t, 10, quote.DaysUntilStart)
	assert.Equal(t, int64(3000), quote.MileageToRestore)
	assert.Equal(t, int64(1000), quote.MileageToRevoke)
}

func TestCalculate_RejectsUnconfirmedReservation(t *testing.T) {
	env := newTestEnv()

	reservationID := uuid.New()
	env.ledger.On("GetByID", mock.Anything, reservationID).Return(&reservations.Reservation{
		ID:     reservationID,
		Status: reservations.StatusCancelled,
	}, nil)

	_, err := env.svc.Calculate(context.Background(), reservationID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestCalculate_RejectsFullFeeQuote(t *testing.T) {
	env := newTestEnv()
	now := time.Now()

	reservationID := uuid.New()
	expoID := uuid.New()

	env.ledger.On("GetByID", mock.Anything, reservationID).Return(&reservations.Reservation{
		ID:     reservationID,
		ExpoID: expoID,
		Status: reservations.StatusConfirmed,
	}, nil)
	env.payments.On("GetInfoByReservation", mock.Anything, reservationID).Return(&payments.PaymentInfo{
		ReservationID: reservationID,
		TotalAmount:   money(100000),
		Status:        payments.InfoStatusSuccess,
	}, nil)
	env.payments.On("GetRecordByReservation", mock.Anything, reservationID).Return(&payments.PaymentRecord{
		ID:     uuid.New(),
		Amount: money(100000),
	}, nil)
	env.expos.On("GetExpo", mock.Anything, expoID).Return(&expos.Expo{
		ID:        expoID,
		StartDate: now.Add(5 * 24 * time.Hour),
		Status:    expos.StatusPublished,
	}, nil)

	fullFee := []RefundFeeSetting{{
		ID:             uuid.New(),
		Basis:          BasisDaysBeforeStart,
		ThresholdDays:  0,
		FeeRatePercent: rate(100),
		ValidFrom:      now.Add(-24 * time.Hour),
		ValidUntil:     now.Add(24 * time.Hour),
	}}
	env.repo.On("ListActiveSettings", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(fullFee, nil)

	_, err := env.svc.Calculate(context.Background(), reservationID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestExecuteReservationRefund_FullFlow(t *testing.T) {
	env := newTestEnv()
	now := time.Now()

	reservationID := uuid.New()
	expoID := uuid.New()
	ticketID := uuid.New()
	memberID := uuid.New()
	paymentID := uuid.New()

	env.ledger.On("GetByID", mock.Anything, reservationID).Return(&reservations.Reservation{
		ID:              reservationID,
		ExpoID:          expoID,
		TicketID:        ticketID,
		Quantity:        2,
		MemberID:        &memberID,
		ReservationCode: "RSV-20260829-ABCDEF",
		Status:          reservations.StatusConfirmed,
	}, nil)
	env.payments.On("GetInfoByReservation", mock.Anything, reservationID).Return(&payments.PaymentInfo{
		ReservationID: reservationID,
		TotalAmount:   money(100000),
		UsedMileage:   3000,
		SavedMileage:  1000,
		Status:        payments.InfoStatusSuccess,
	}, nil)
	env.payments.On("GetRecordByReservation", mock.Anything, reservationID).Return(&payments.PaymentRecord{
		ID:          paymentID,
		ExternalRef: "psp-123",
		Amount:      money(100000),
	}, nil)
	env.expos.On("GetExpo", mock.Anything, expoID).Return(&expos.Expo{
		ID:        expoID,
		StartDate: now.Add(10 * 24 * time.Hour),
		Status:    expos.StatusPublished,
	}, nil)
	env.repo.On("ListActiveSettings", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(standardSchedule(now), nil)

	env.gateway.On("RequestRefund", mock.Anything, "psp-123", mock.MatchedBy(func(amount decimal.Decimal) bool {
		return amount.Equal(money(50000))
	}), "changed plans").Return(&psp.RefundResult{
		ExternalRef:    "psp-123",
		RefundedAmount: money(50000),
	}, nil)
	env.mileage.On("Revert", mock.Anything, memberID, int64(3000), int64(1000)).Return(nil)
	env.inventory.On("Restore", mock.Anything, ticketID, 2).Return(nil)
	env.ledger.On("UpdateStatus", mock.Anything, reservationID,
		reservations.StatusConfirmed, reservations.StatusCancelled).Return(nil)
	env.repo.On("CreateRecord", mock.Anything, mock.AnythingOfType("*refunds.RefundRecord")).Return(nil)
	env.payments.On("UpdateInfoStatus", mock.Anything, reservationID,
		payments.InfoStatusSuccess, payments.InfoStatusPartialRefunded).Return(nil)

	record, err := env.svc.ExecuteReservationRefund(context.Background(), reservationID, "changed plans")
	require.NoError(t, err)

	assert.Equal(t, RecordStatusRefunded, record.Status)
	assert.True(t, record.Partial)
	assert.True(t, record.RefundedAmount.Equal(money(50000)))
	require.NotNil(t, record.ReservationID)
	assert.Equal(t, reservationID, *record.ReservationID)

	env.gateway.AssertExpectations(t)
	env.mileage.AssertExpectations(t)
	env.inventory.AssertExpectations(t)
	env.ledger.AssertExpectations(t)
}

func TestRequestExpoRefund_PendingPublishIsAlwaysFull(t *testing.T) {
	env := newTestEnv()
	now := time.Now()

	expoID := uuid.New()
	env.expos.On("GetExpo", mock.Anything, expoID).Return(&expos.Expo{
		ID: expoID,
		// 2 days out: would be rejected for a PUBLISHED listing.
		StartDate: now.Add(2 * 24 * time.Hour),
		Status:    expos.StatusPendingPublish,
	}, nil)
	env.repo.On("HasPendingForExpo", mock.Anything, expoID).Return(false, nil)
	env.payments.On("GetRecordByExpo", mock.Anything, expoID).Return(&payments.PaymentRecord{
		ID:          uuid.New(),
		ExpoID:      &expoID,
		ExternalRef: "psp-expo-1",
		Amount:      money(500000),
	}, nil)
	env.repo.On("CreateRecord", mock.Anything, mock.AnythingOfType("*refunds.RefundRecord")).Return(nil)

	record, err := env.svc.RequestExpoRefund(context.Background(), expoID, "venue unavailable")
	require.NoError(t, err)

	assert.Equal(t, RecordStatusPending, record.Status)
	assert.False(t, record.Partial)
	assert.True(t, record.RefundedAmount.Equal(money(500000)))
}

func TestRequestExpoRefund_PublishedCutoff(t *testing.T) {
	env := newTestEnv()
	now := time.Now()

	expoID := uuid.New()
	env.expos.On("GetExpo", mock.Anything, expoID).Return(&expos.Expo{
		ID:        expoID,
		StartDate: now.Add(5 * 24 * time.Hour),
		Status:    expos.StatusPublished,
	}, nil)
	env.repo.On("HasPendingForExpo", mock.Anything, expoID).Return(false, nil)
	env.payments.On("GetRecordByExpo", mock.Anything, expoID).Return(&payments.PaymentRecord{
		ID:     uuid.New(),
		ExpoID: &expoID,
		Amount: money(500000),
	}, nil)

	_, err := env.svc.RequestExpoRefund(context.Background(), expoID, "too late")
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	env.repo.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything)
}

func TestRequestExpoRefund_RejectedStates(t *testing.T) {
	for _, status := range []expos.Status{
		expos.StatusPublishEnded, expos.StatusCompleted,
		expos.StatusCancelled, expos.StatusRejected, expos.StatusPendingApproval,
	} {
		env := newTestEnv()
		expoID := uuid.New()
		env.expos.On("GetExpo", mock.Anything, expoID).Return(&expos.Expo{
			ID:        expoID,
			StartDate: time.Now().Add(60 * 24 * time.Hour),
			Status:    status,
		}, nil)

		_, err := env.svc.RequestExpoRefund(context.Background(), expoID, "nope")
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition, "status %s", status)
	}
}

func TestRequestExpoRefund_DuplicatePending(t *testing.T) {
	env := newTestEnv()

	expoID := uuid.New()
	env.expos.On("GetExpo", mock.Anything, expoID).Return(&expos.Expo{
		ID:        expoID,
		StartDate: time.Now().Add(60 * 24 * time.Hour),
		Status:    expos.StatusPublished,
	}, nil)
	env.repo.On("HasPendingForExpo", mock.Anything, expoID).Return(true, nil)

	_, err := env.svc.RequestExpoRefund(context.Background(), expoID, "again")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestConfirmExpoRefund(t *testing.T) {
	env := newTestEnv()

	recordID := uuid.New()
	expoID := uuid.New()
	paymentID := uuid.New()

	env.repo.On("GetRecordByID", mock.Anything, recordID).Return(&RefundRecord{
		ID:              recordID,
		PaymentRecordID: paymentID,
		ExpoID:          &expoID,
		RefundedAmount:  money(400000),
		Reason:          "venue unavailable",
		Status:          RecordStatusPending,
		Partial:         true,
	}, nil)
	env.payments.On("GetRecordByID", mock.Anything, paymentID).Return(&payments.PaymentRecord{
		ID:          paymentID,
		ExpoID:      &expoID,
		ExternalRef: "psp-expo-1",
		Amount:      money(500000),
	}, nil)
	env.gateway.On("RequestRefund", mock.Anything, "psp-expo-1", mock.MatchedBy(func(amount decimal.Decimal) bool {
		return amount.Equal(money(400000))
	}), "venue unavailable").Return(&psp.RefundResult{
		ExternalRef:    "psp-expo-1",
		RefundedAmount: money(400000),
	}, nil)
	env.repo.On("MarkRecordRefunded", mock.Anything, recordID, mock.AnythingOfType("time.Time")).Return(nil)
	env.expos.On("TransitionExpo", mock.Anything, expoID, expos.StatusCancelled).Return(nil)

	record, err := env.svc.ConfirmExpoRefund(context.Background(), recordID)
	require.NoError(t, err)

	assert.Equal(t, RecordStatusRefunded, record.Status)
	assert.NotNil(t, record.RefundedAt)
	env.expos.AssertExpectations(t)
}

func TestConfirmExpoRefund_RejectsNonPending(t *testing.T) {
	env := newTestEnv()

	recordID := uuid.New()
	expoID := uuid.New()
	env.repo.On("GetRecordByID", mock.Anything, recordID).Return(&RefundRecord{
		ID:     recordID,
		ExpoID: &expoID,
		Status: RecordStatusRefunded,
	}, nil)

	_, err := env.svc.ConfirmExpoRefund(context.Background(), recordID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	env.gateway.AssertNotCalled(t, "RequestRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
