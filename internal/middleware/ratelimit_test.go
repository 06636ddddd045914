package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"local-api-proxy/internal/metrics"
	"local-api-proxy/internal/middleware"
)

func TestRateLimit_Enabled(t *testing.T) {
	m := metrics.New("/api/")
	e := echo.New()

	// 1 request per second, burst of 1: the second request should be rejected.
	e.Use(middleware.RateLimit(1, m))
	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", rec.Code, http.StatusOK)
	}

	got429 := false
	for range 10 {
		req = httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			got429 = true
			break
		}
	}
	if !got429 {
		t.Fatal("expected at least one 429 response after burst, got none")
	}

	if v := testutil.ToFloat64(m.RequestsRejected.WithLabelValues("rate_limit")); v < 1 {
		t.Errorf("rejected{rate_limit} = %v, want >= 1", v)
	}
}

func TestRateLimit_NilMetrics(t *testing.T) {
	e := echo.New()
	e.Use(middleware.RateLimit(1, nil))
	e.GET("/test", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}
}
