package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"local-api-proxy/internal/metrics"
)

// RateLimit returns a per-IP token bucket limiter answering 429 once a
// client exceeds rps. The metrics parameter is optional.
func RateLimit(rps float64, m *metrics.Metrics) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStore(rate.Limit(rps)),
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			if m != nil {
				m.RequestsRejected.WithLabelValues("rate_limit").Inc()
			}
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}
