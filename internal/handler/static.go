package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"local-api-proxy/internal/config"
)

// StaticHandler serves files below the configured static root.
type StaticHandler struct {
	serve echo.HandlerFunc
}

// NewStaticHandler creates a StaticHandler. Missing files yield 404;
// directories without an index file are listed unless browsing is disabled.
func NewStaticHandler(cfg *config.Config) *StaticHandler {
	files := echomw.StaticWithConfig(echomw.StaticConfig{
		Root:   cfg.Static.Root,
		Index:  cfg.Static.Index,
		Browse: !cfg.Static.DisableBrowse,
	})
	return &StaticHandler{serve: files(echo.NotFoundHandler)}
}

// Serve writes the file addressed by the request path.
func (h *StaticHandler) Serve(c echo.Context) error {
	return h.serve(c)
}

// MethodNotAllowed rejects writes to static paths.
func (h *StaticHandler) MethodNotAllowed(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderAllow, "GET, HEAD")
	return echo.NewHTTPError(http.StatusMethodNotAllowed)
}
