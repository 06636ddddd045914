package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"local-api-proxy/internal/client"
	"local-api-proxy/internal/metrics"
	"local-api-proxy/internal/model"
	"local-api-proxy/internal/service"
)

// ProxyHandler forwards API requests to the backend and streams the response back.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewProxyHandler creates a ProxyHandler. The metrics parameter is optional.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger, m *metrics.Metrics) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
		metrics: m,
	}
}

// Handle proxies the request to the backend and streams the response back.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	pr := &model.ProxyRequest{
		Ctx:           req.Context(),
		Method:        req.Method,
		Path:          req.URL.EscapedPath(),
		RawQuery:      req.URL.RawQuery,
		Header:        req.Header,
		Body:          req.Body,
		ContentLength: req.ContentLength,
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return h.mapError(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	res := c.Response()
	for key, vals := range resp.Header {
		res.Header()[key] = vals
	}
	res.WriteHeader(resp.StatusCode)

	// Headers are on the wire now. A failure past this point can only
	// truncate the body; the caller keeps the backend's status.
	n, err := relay(res, res.Flush, resp.Body)
	if h.metrics != nil {
		h.metrics.BytesRelayed.Add(float64(n))
	}
	if err != nil {
		if h.metrics != nil {
			h.metrics.StreamFailures.Inc()
		}
		h.logger.Error("streaming response body",
			"err", err,
			"path", req.URL.Path,
			"bytes_relayed", n,
		)
	}

	return nil
}

// mapError converts a Forward failure into the caller-visible response:
// 405 for unsupported methods, otherwise a plain-text 500 describing the error.
func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrMethodNotAllowed) {
		c.Response().Header().Set(echo.HeaderAllow, "GET, POST")
		return echo.NewHTTPError(http.StatusMethodNotAllowed)
	}

	h.logger.Error("proxy error",
		"err", err,
		"kind", client.ErrorKind(err),
		"path", c.Request().URL.Path,
	)

	return c.String(http.StatusInternalServerError, "Error: "+err.Error())
}
