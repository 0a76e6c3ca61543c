package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "barbershop",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by payment method and payment status.",
		},
		[]string{"payment_method", "payment_status"},
	)

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "barbershop",
			Name:      "booking_status_changes_total",
			Help:      "Count of admin booking status changes by new status.",
		},
		[]string{"status"},
	)

	paymentAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "barbershop",
			Name:      "payment_attempts_total",
			Help:      "Count of payment attempts by method and result.",
		},
		[]string{"method", "result"},
	)

	paymentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "barbershop",
			Name:      "payment_duration_seconds",
			Help:      "Time spent waiting for the payment gateway.",
			Buckets:   []float64{.01, .1, .5, 1, 2, 3, 5, 10},
		},
		[]string{"method"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "barbershop",
			Name:      "http_requests_total",
			Help:      "Count of API requests by route pattern.",
		},
		[]string{"route"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, statusChanges, paymentAttempts, paymentDuration, httpRequests)
	})
}

func IncBookingCreated(method, paymentStatus string) {
	bookingCreated.WithLabelValues(method, paymentStatus).Inc()
}

func IncStatusChange(status string) {
	statusChanges.WithLabelValues(status).Inc()
}

func ObservePayment(method, result string, took time.Duration) {
	paymentAttempts.WithLabelValues(method, result).Inc()
	paymentDuration.WithLabelValues(method).Observe(took.Seconds())
}

func IncHTTP(route string) {
	httpRequests.WithLabelValues(route).Inc()
}
