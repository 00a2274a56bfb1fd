package refunds

import "time"

// CreateFeeSettingRequest adds one tier to the fee schedule.
type CreateFeeSettingRequest struct {
	ThresholdDays  int       `json:"threshold_days" binding:"gte=0"`
	FeeRatePercent float64   `json:"fee_rate_percent" binding:"feerate"`
	ValidFrom      time.Time `json:"valid_from" binding:"required"`
	ValidUntil     time.Time `json:"valid_until" binding:"required,afterfield=ValidFrom"`
}

// RefundRequest carries the operator- or buyer-supplied reason.
type RefundRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}
