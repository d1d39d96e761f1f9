// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Auth
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_auth_attempts_total",
			Help: "Admin authentication attempts by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	OTPIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_otp_issued_total",
			Help: "OTP challenges issued by purpose",
		},
		[]string{"purpose"},
	)

	OTPVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_otp_verifications_total",
			Help: "OTP verification results by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)

	// Notification gateway
	SMSSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_sms_sends_total",
			Help: "SMS gateway sends by result (sent, simulated, failed)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portfolio_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// HTTP
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "HTTP requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	// Visitor analytics
	VisitsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_visits_recorded_total",
			Help: "Page visits persisted",
		},
	)

	VisitRecordFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_visit_record_failures_total",
			Help: "Visit recording failures by stage (geo, store, loki)",
		},
		[]string{"stage"},
	)
)

// RecordAPIRequest observes one completed HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	APIRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	APIRequestsTotal.WithLabelValues(method, route, code).Inc()
}

// RecordAuth counts one auth operation outcome (e.g. "login", "success").
func RecordAuth(operation, outcome string) {
	AuthAttempts.WithLabelValues(operation, outcome).Inc()
}

// RecordOTPIssued counts an issued challenge.
func RecordOTPIssued(purpose string) {
	OTPIssued.WithLabelValues(purpose).Inc()
}

// RecordOTPVerification counts a verification outcome.
func RecordOTPVerification(purpose, outcome string) {
	OTPVerifications.WithLabelValues(purpose, outcome).Inc()
}

// RecordSMSSend counts a gateway send result.
func RecordSMSSend(status string) {
	SMSSends.WithLabelValues(status).Inc()
}

// SetCircuitBreakerState records the numeric state of the named breaker.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordVisit counts a persisted page visit.
func RecordVisit() {
	VisitsRecorded.Inc()
}

// RecordVisitFailure counts a failed recording stage ("geo", "store", "publish" or "dropped").
func RecordVisitFailure(stage string) {
	VisitRecordFailures.WithLabelValues(stage).Inc()
}
