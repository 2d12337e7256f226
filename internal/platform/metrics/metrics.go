package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "headcount"

// Metrics groups the collectors the service exports.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	LoginAttempts       *prometheus.CounterVec
	RosterReplacements  *prometheus.CounterVec
	RosterRows          prometheus.Gauge
	AuditWritten        prometheus.Counter
	AuditFailed         prometheus.Counter
	AuditDropped        prometheus.Counter
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		RosterReplacements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roster_replacements_total",
			Help:      "Full roster replacements by operation (confirm, rollback) and result.",
		}, []string{"operation", "result"}),
		RosterRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "roster_rows",
			Help:      "Rows written by the last successful roster replacement.",
		}),
		AuditWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_written_total",
			Help:      "Audit entries persisted.",
		}),
		AuditFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_failed_total",
			Help:      "Audit entries whose write failed.",
		}),
		AuditDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_dropped_total",
			Help:      "Audit entries dropped because the buffer was full.",
		}),
	}
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveReplace records the outcome of a roster replacement.
func (m *Metrics) ObserveReplace(operation string, rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.RosterReplacements.WithLabelValues(operation, "error").Inc()
		return
	}
	m.RosterReplacements.WithLabelValues(operation, "ok").Inc()
	m.RosterRows.Set(float64(rows))
}

// ObserveLogin records a login attempt.
func (m *Metrics) ObserveLogin(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

// ObserveAudit counts an audit entry by outcome: written, failed or dropped.
func (m *Metrics) ObserveAudit(outcome string) {
	if m == nil {
		return
	}
	switch outcome {
	case "written":
		m.AuditWritten.Inc()
	case "failed":
		m.AuditFailed.Inc()
	case "dropped":
		m.AuditDropped.Inc()
	}
}
