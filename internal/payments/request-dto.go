package payments

import "github.com/shopspring/decimal"

// CompletePaymentRequest finalizes a held checkout. ClaimedAmount is what
// the client believes it paid; it is cross-checked against the PSP before
// anything durable happens.
type CompletePaymentRequest struct {
	SessionID     string          `json:"session_id" binding:"required"`
	PspRef        string          `json:"psp_ref" binding:"required"`
	ClaimedAmount decimal.Decimal `json:"claimed_amount" binding:"required"`
	UsedMileage   int64           `json:"used_mileage" binding:"gte=0"`
	AttendeeNames []string        `json:"attendee_names,omitempty"`
}

// WebhookRequest is the PSP's deferred-settlement callback payload.
type WebhookRequest struct {
	PspRef string `json:"psp_ref" binding:"required"`
}
