package apperrors

import "errors"

// Sentinel errors for the reservation/payment/inventory engine. Services wrap
// these with fmt.Errorf("...: %w", err); controllers map them to HTTP codes
// with errors.Is.
var (
	// ErrPaymentMismatch means the claimed amount or merchant reference does
	// not match the PSP record. Fatal before any durable write.
	ErrPaymentMismatch = errors.New("payment verification mismatch")

	// ErrSessionExpired means the hold session was not found or was already
	// consumed. The buyer must restart checkout.
	ErrSessionExpired = errors.New("hold session expired or not found")

	// ErrInventoryExhausted means the atomic decrement found fewer remaining
	// units than requested.
	ErrInventoryExhausted = errors.New("ticket inventory exhausted")

	// ErrInvalidStateTransition covers QR, refund and lifecycle operations
	// attempted from a disallowed state.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrUpstreamUnavailable covers PSP or broker failures. Callers retry PSP
	// calls; post-confirmation side effects are logged instead.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate request")
)

// Code returns the stable machine-readable code for a known engine error,
// or "INTERNAL" for anything else.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrPaymentMismatch):
		return "PAYMENT_MISMATCH"
	case errors.Is(err, ErrSessionExpired):
		return "SESSION_EXPIRED"
	case errors.Is(err, ErrInventoryExhausted):
		return "INVENTORY_EXHAUSTED"
	case errors.Is(err, ErrInvalidStateTransition):
		return "INVALID_STATE"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDuplicate):
		return "DUPLICATE"
	default:
		return "INTERNAL"
	}
}
