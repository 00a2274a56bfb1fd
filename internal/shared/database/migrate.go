package database

import (
	"expopass/internal/expos"
	"expopass/internal/mileage"
	"expopass/internal/payments"
	"expopass/internal/qrcredentials"
	"expopass/internal/refunds"
	"expopass/internal/reservations"
	"expopass/internal/tickets"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&expos.Expo{},
		&expos.Advertisement{},
		&tickets.Ticket{},
		&reservations.Reservation{},
		&reservations.Attendee{},
		&payments.PaymentRecord{},
		&payments.PaymentInfo{},
		&qrcredentials.QrCredential{},
		&refunds.RefundFeeSetting{},
		&refunds.RefundRecord{},
		&mileage.MemberMileage{},
	)
}
