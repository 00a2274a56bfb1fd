package psp

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentDetail is what the PSP reports for a settled (or settling)
// transaction, fetched by the external reference the client handed us.
type PaymentDetail struct {
	ExternalRef string          `json:"external_ref"`
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	PayerName   string          `json:"payer_name"`
}

// RefundResult is the PSP's acknowledgement of a refund call.
type RefundResult struct {
	ExternalRef    string          `json:"external_ref"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
}

// Gateway is the payment service provider contract. Callers must always
// pass the original external reference from the PSP, never one rebuilt
// locally.
type Gateway interface {
	GetPayment(ctx context.Context, externalRef string) (*PaymentDetail, error)
	RequestRefund(ctx context.Context, externalRef string, amount decimal.Decimal, reason string) (*RefundResult, error)
}
