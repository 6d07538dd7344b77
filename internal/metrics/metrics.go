package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_in_flight_requests", Help: "In-flight HTTP requests"},
	)
	GuestAccountsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "guest_accounts_created_total", Help: "Guest demo accounts created"},
	)
	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "rate_limited_requests_total", Help: "Requests rejected by the guest rate limiter"},
	)
)

func MustRegister() {
	prometheus.MustRegister(RequestsTotal, ReqDuration, InFlight, GuestAccountsCreated, RateLimitedTotal)
}
