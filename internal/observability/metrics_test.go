package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	metrics.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestMiddlewareRecordsRequestByRoutePattern(t *testing.T) {
	metrics := NewMetrics()

	router := chi.NewRouter()
	router.Use(metrics.Middleware)
	router.Get("/quotations/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/quotations/abc", nil)
	router.ServeHTTP(rr, req)

	body := scrape(t, metrics)
	if !strings.Contains(body, `meridian_http_requests_total{code="200",route="/quotations/{id}"} 1`) {
		t.Fatalf("request counter missing from scrape:\n%s", body)
	}
	if !strings.Contains(body, "meridian_http_request_duration_seconds") {
		t.Fatalf("duration histogram missing from scrape")
	}
}

func TestCountApprovalDecision(t *testing.T) {
	metrics := NewMetrics()
	metrics.CountApprovalDecision("quotation", "approved")
	metrics.CountApprovalDecision("quotation", "approved")
	metrics.CountApprovalDecision("revision", "rejected")

	body := scrape(t, metrics)
	if !strings.Contains(body, `meridian_approval_decisions_total{entity="quotation",status="approved"} 2`) {
		t.Fatalf("approval counter missing from scrape:\n%s", body)
	}
	if !strings.Contains(body, `meridian_approval_decisions_total{entity="revision",status="rejected"} 1`) {
		t.Fatalf("rejection counter missing from scrape:\n%s", body)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", rr.Code)
	}

	metrics.CountApprovalDecision("quotation", "approved")

	rr = httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics handler, got %d", rr.Code)
	}
}

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rr.Body.String()
}
