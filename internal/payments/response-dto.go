package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CompletePaymentResponse struct {
	ReservationID   uuid.UUID       `json:"reservation_id"`
	ReservationCode string          `json:"reservation_code"`
	Status          string          `json:"status"`
	PaymentStatus   InfoStatus      `json:"payment_status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	SavedMileage    int64           `json:"saved_mileage"`
}
