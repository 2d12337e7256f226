package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveReplace(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.ObserveReplace("confirm", 12, nil)
	m.ObserveReplace("rollback", 0, errors.New("boom"))

	if got := testutil.ToFloat64(m.RosterReplacements.WithLabelValues("confirm", "ok")); got != 1 {
		t.Fatalf("expected one successful confirm, got %v", got)
	}
	if got := testutil.ToFloat64(m.RosterReplacements.WithLabelValues("rollback", "error")); got != 1 {
		t.Fatalf("expected one failed rollback, got %v", got)
	}
	if got := testutil.ToFloat64(m.RosterRows); got != 12 {
		t.Fatalf("expected roster rows gauge 12, got %v", got)
	}
}

func TestMetrics_ObserveHTTPAndLogin(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.ObserveHTTP("/headcount", "GET", 200, 15*time.Millisecond)
	m.ObserveLogin(nil)
	m.ObserveLogin(errors.New("invalid"))

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/headcount", "GET", "200")); got != 1 {
		t.Fatalf("expected one request, got %v", got)
	}
	if got := testutil.ToFloat64(m.LoginAttempts.WithLabelValues("rejected")); got != 1 {
		t.Fatalf("expected one rejected login, got %v", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveHTTP("/", "GET", 200, time.Millisecond)
	m.ObserveReplace("confirm", 1, nil)
	m.ObserveLogin(nil)
	m.ObserveAudit("written")
}

func TestMetrics_ObserveAudit(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.ObserveAudit("written")
	m.ObserveAudit("written")
	m.ObserveAudit("dropped")

	if got := testutil.ToFloat64(m.AuditWritten); got != 2 {
		t.Fatalf("expected two written entries, got %v", got)
	}
	if got := testutil.ToFloat64(m.AuditDropped); got != 1 {
		t.Fatalf("expected one dropped entry, got %v", got)
	}
	if got := testutil.ToFloat64(m.AuditFailed); got != 0 {
		t.Fatalf("expected no failed entries, got %v", got)
	}
}
