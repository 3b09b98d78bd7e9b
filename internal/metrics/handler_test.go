package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func gatherSummary(t *testing.T, m *Metrics) Summary {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var s Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("summary is not JSON: %v", err)
	}
	return s
}

func TestSummaryCounters(t *testing.T) {
	m := New()
	m.IncAuthSuccess("password")
	m.IncAuthSuccess("google")
	m.IncAuthFailure("password")
	m.IncRateLimitRejection("auth")
	m.AddMemberLinks(3)
	m.AddMemberLinks(0) // no-op
	m.IncUpload("logo")
	m.IncUpload("poster")

	s := gatherSummary(t, m)

	if s.Mode != "live" {
		t.Errorf("expected live mode, got %q", s.Mode)
	}
	if s.Auth.Successes != 2 {
		t.Errorf("expected 2 auth successes, got %v", s.Auth.Successes)
	}
	if s.Auth.Failures != 1 {
		t.Errorf("expected 1 auth failure, got %v", s.Auth.Failures)
	}
	if s.RateLimit.Rejections != 1 {
		t.Errorf("expected 1 rejection, got %v", s.RateLimit.Rejections)
	}
	if s.Linking.MemberLinks != 3 {
		t.Errorf("expected 3 member links, got %v", s.Linking.MemberLinks)
	}
	if s.Uploads.Total != 2 {
		t.Errorf("expected 2 uploads, got %v", s.Uploads.Total)
	}
}

func TestSummaryHTTPRequests(t *testing.T) {
	m := New()
	m.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200").Inc()
	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/bands", "200").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/auth/login", "401").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/auth/login", "500").Inc()
	m.HTTPRequestDuration.WithLabelValues("GET", "/health").Observe(0.01)

	s := gatherSummary(t, m)

	if s.HTTP.TotalRequests != 4 {
		t.Errorf("expected 4 requests, got %v", s.HTTP.TotalRequests)
	}
	if s.HTTP.ErrorRate != 0.5 {
		t.Errorf("expected 0.5 error rate, got %v", s.HTTP.ErrorRate)
	}
}

func TestDBPoolCollector(t *testing.T) {
	m := New()
	m.RegisterDBPoolCollector(func() (total, idle, acquired int32) {
		return 10, 6, 4
	})

	s := gatherSummary(t, m)

	if s.DB.TotalConns != 10 || s.DB.IdleConns != 6 || s.DB.AcquiredConns != 4 {
		t.Errorf("unexpected pool stats: %+v", s.DB)
	}
}
