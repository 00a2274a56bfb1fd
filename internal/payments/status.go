package payments

// InfoStatus is the settlement state of a reservation's financial detail.
type InfoStatus string

const (
	InfoStatusPending         InfoStatus = "PENDING"
	InfoStatusSuccess         InfoStatus = "SUCCESS"
	InfoStatusPartialRefunded InfoStatus = "PARTIAL_REFUNDED"
	InfoStatusRefunded        InfoStatus = "REFUNDED"
)

func (s InfoStatus) IsValid() bool {
	switch s {
	case InfoStatusPending, InfoStatusSuccess, InfoStatusPartialRefunded, InfoStatusRefunded:
		return true
	}
	return false
}

func (s InfoStatus) String() string {
	return string(s)
}

// CanSettle reports whether the info may flip to SUCCESS.
func (s InfoStatus) CanSettle() bool {
	return s == InfoStatusPending
}

// CanRefund reports whether a refund may be recorded against this info.
func (s InfoStatus) CanRefund() bool {
	return s == InfoStatusSuccess || s == InfoStatusPartialRefunded
}

// Mode tags which completion path a payment came through. Immediate (card)
// settles in the request; Deferred (virtual account) settles when the PSP
// webhook arrives.
type Mode string

const (
	ModeImmediate Mode = "IMMEDIATE"
	ModeDeferred  Mode = "DEFERRED"
)
