package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"local-api-proxy/internal/config"
	"local-api-proxy/internal/metrics"
)

// Fixed introspection routes served next to the configurable CPU prefix.
const (
	HealthzPath = "/internal/healthz"
	StatusPath  = "/internal/status"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
//
// Echo prefers the longest static match, so the proxy and CPU prefixes win
// over the catch-all static routes regardless of registration order.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, proxy *ProxyHandler, info *IntrospectionHandler, static *StaticHandler) {
	e.GET(HealthzPath, info.Healthz)
	e.GET(StatusPath, info.Status)
	e.GET(cfg.Routes.IntrospectionPrefix+"*", info.CPU)

	// Every method reaches the proxy; it answers 405 for anything but GET and POST.
	e.Any(cfg.Routes.ProxyPrefix+"*", proxy.Handle)

	e.GET("/*", static.Serve)
	e.HEAD("/*", static.Serve)
	e.POST("/*", static.MethodNotAllowed)
}

// RegisterMetrics exposes the Prometheus registry when metrics are enabled.
func RegisterMetrics(e *echo.Echo, cfg *config.Config, m *metrics.Metrics) {
	if !cfg.Metrics.Enabled {
		return
	}
	e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
}
