// Package monitoring exposes the Prometheus metrics for the ticketing
// core: reservation outcomes and latency, payment outcomes, resale
// activity and sweep recoveries. Handlers and services record through
// the package-level helpers; /metrics serves the default registry.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reserveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketing",
		Name:      "reservations_total",
		Help:      "Reservation attempts by outcome.",
	}, []string{"outcome"})

	reserveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ticketing",
		Name:      "reservation_duration_seconds",
		Help:      "Wall time of a reservation attempt, all outcomes.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	paymentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketing",
		Name:      "payments_total",
		Help:      "Payment confirmations by outcome.",
	}, []string{"outcome"})

	resaleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketing",
		Name:      "resale_actions_total",
		Help:      "Resale listing actions by outcome.",
	}, []string{"outcome"})

	expiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ticketing",
		Name:      "expired_reservations_total",
		Help:      "Pending transactions reclaimed by the expiry sweep.",
	})
)

// ObserveReserve records one reservation attempt.
func ObserveReserve(outcome string, d time.Duration) {
	reserveTotal.WithLabelValues(outcome).Inc()
	reserveDuration.Observe(d.Seconds())
}

// IncPayment records one payment confirmation outcome.
func IncPayment(outcome string) {
	paymentTotal.WithLabelValues(outcome).Inc()
}

// IncResale records one resale action outcome.
func IncResale(outcome string) {
	resaleTotal.WithLabelValues(outcome).Inc()
}

// AddExpired records transactions reclaimed by a sweep pass.
func AddExpired(n int) {
	if n > 0 {
		expiredTotal.Add(float64(n))
	}
}
