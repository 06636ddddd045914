package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"local-api-proxy/internal/metrics"
)

// ConcurrencyLimit caps the number of requests handled at once. Requests
// arriving while limit are in flight get 503 immediately; nothing queues.
// The metrics parameter is optional.
func ConcurrencyLimit(limit int64, m *metrics.Metrics) echo.MiddlewareFunc {
	sem := semaphore.NewWeighted(limit)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !sem.TryAcquire(1) {
				if m != nil {
					m.RequestsRejected.WithLabelValues("concurrency").Inc()
				}
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "server busy")
			}
			defer sem.Release(1)
			return next(c)
		}
	}
}
