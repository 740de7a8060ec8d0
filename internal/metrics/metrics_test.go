package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountersAndHandler(t *testing.T) {
	m := New()
	m.AuthEvent("login_success")
	m.AuthEvent("login_success")
	m.RateLimited("login")
	m.TokensPurged(3)
	m.TokensPurged(-1)
	m.Request(http.MethodGet, "/api/health", http.StatusOK, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.authEvents.WithLabelValues("login_success")); got != 2 {
		t.Fatalf("auth events = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.rateLimited.WithLabelValues("login")); got != 1 {
		t.Fatalf("rate limited = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.tokensPurged); got != 3 {
		t.Fatalf("tokens purged = %v, want 3", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `estatehub_http_requests_total{method="GET",route="/api/health",status="200"} 1`) {
		t.Fatalf("request counter missing from exposition:\n%s", rec.Body.String())
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.AuthEvent("login_failure")
	m.Request(http.MethodGet, "", http.StatusOK, time.Millisecond)
	m.RateLimited("register")
	m.TokensPurged(1)
	if m.Registry() != nil {
		t.Fatalf("nil metrics must have nil registry")
	}
}
