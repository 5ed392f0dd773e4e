package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the security workflows.
type Metrics struct {
	UsersCreated   prometheus.Counter
	SessionsIssued *prometheus.CounterVec
	SessionsEnded  prometheus.Counter
	AuthFailures   *prometheus.CounterVec
	ChecksConsumed *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekey_users_created_total",
			Help: "Total number of users created through signup.",
		}),
		SessionsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekey_sessions_issued_total",
			Help: "Total number of session tokens issued, by originating flow.",
		}, []string{"flow"}),
		SessionsEnded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekey_sessions_ended_total",
			Help: "Total number of sessions revoked by logout.",
		}),
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekey_auth_failures_total",
			Help: "Total number of rejected credential presentations, by flow.",
		}, []string{"flow"}),
		ChecksConsumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekey_checks_consumed_total",
			Help: "Total number of security checks consumed, by type.",
		}, []string{"type"}),
	}
}

func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

func (m *Metrics) IncrementSessionsIssued(flow string) {
	m.SessionsIssued.WithLabelValues(flow).Inc()
}

func (m *Metrics) IncrementSessionsEnded() {
	m.SessionsEnded.Inc()
}

func (m *Metrics) IncrementAuthFailures(flow string) {
	m.AuthFailures.WithLabelValues(flow).Inc()
}

func (m *Metrics) IncrementChecksConsumed(checkType string) {
	m.ChecksConsumed.WithLabelValues(checkType).Inc()
}
