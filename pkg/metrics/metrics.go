package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservationsConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_confirmed_total",
			Help: "Reservations confirmed, by payment mode",
		},
		[]string{"mode"},
	)

	inventoryConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_conflicts_total",
			Help: "Confirmation attempts rejected because inventory was exhausted",
		},
	)

	refundsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refunds_executed_total",
			Help: "Refunds executed, by scope (reservation or expo)",
		},
		[]string{"scope"},
	)

	pspCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "psp_call_duration_seconds",
			Help:    "Latency of calls to the payment service provider",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"operation"},
	)

	qrCheckins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_checkins_total",
			Help: "QR check-in attempts, by outcome",
		},
		[]string{"outcome"},
	)
)

func TrackConfirmation(mode string) {
	reservationsConfirmed.WithLabelValues(mode).Inc()
}

func TrackInventoryConflict() {
	inventoryConflicts.Inc()
}

func TrackRefund(scope string) {
	refundsExecuted.WithLabelValues(scope).Inc()
}

func TrackPSPCall(operation string, duration time.Duration) {
	pspCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func TrackCheckin(outcome string) {
	qrCheckins.WithLabelValues(outcome).Inc()
}
