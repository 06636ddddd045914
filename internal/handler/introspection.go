package handler

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	"local-api-proxy/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// IntrospectionHandler serves the host CPU, health and status endpoints.
type IntrospectionHandler struct {
	cfg     *config.Config
	version Version
	numCPU  func() int
}

// NewIntrospectionHandler creates an IntrospectionHandler reporting the
// logical CPUs usable by this process.
func NewIntrospectionHandler(cfg *config.Config, v Version) *IntrospectionHandler {
	return &IntrospectionHandler{cfg: cfg, version: v, numCPU: runtime.NumCPU}
}

// CPU returns {"cpu_count": N}. The body is written literally so existing
// clients that compare it byte-for-byte keep working.
func (h *IntrospectionHandler) CPU(c echo.Context) error {
	body := fmt.Sprintf(`{"cpu_count": %d}`, h.numCPU())
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(body))
}

// Healthz returns a simple OK response for liveness probes.
func (h *IntrospectionHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns proxy status information.
func (h *IntrospectionHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":       "ok",
		"version":      string(h.version),
		"upstream_url": h.cfg.Upstream.BaseURL,
		"static_root":  h.cfg.Static.Root,
	})
}
