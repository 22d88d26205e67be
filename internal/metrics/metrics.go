// Package metrics exposes Prometheus counters for the account lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "account_registrations_total",
		Help: "Total number of registration attempts by outcome",
	}, []string{"outcome"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "account_logins_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	passwordResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "account_password_resets_total",
		Help: "Total number of password reset steps by stage and outcome",
	}, []string{"stage", "outcome"})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "http_requests_throttled_total",
		Help: "Total number of requests rejected by the request throttle",
	})
)

// RecordRegistration counts a registration attempt
func RecordRegistration(outcome string) {
	registrations.WithLabelValues(outcome).Inc()
}

// RecordLogin counts a login attempt
func RecordLogin(outcome string) {
	logins.WithLabelValues(outcome).Inc()
}

// RecordResetRequest counts a forgot-password request
func RecordResetRequest(outcome string) {
	passwordResets.WithLabelValues("request", outcome).Inc()
}

// RecordResetComplete counts a reset-password attempt
func RecordResetComplete(outcome string) {
	passwordResets.WithLabelValues("complete", outcome).Inc()
}

// RecordThrottled counts a throttled request
func RecordThrottled() {
	rateLimited.Inc()
}
