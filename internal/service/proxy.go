// Package service implements the core proxy forwarding logic.
package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/textproto"
	"strings"

	"local-api-proxy/internal/client"
	"local-api-proxy/internal/config"
	"local-api-proxy/internal/model"
)

// ErrMethodNotAllowed is returned for proxy requests that are neither GET nor POST.
var ErrMethodNotAllowed = errors.New("method not allowed")

// hopByHopHeaders are connection-scoped request headers that are never forwarded.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// droppedResponseHeaders are backend response headers never relayed; the
// server computes its own framing for the caller.
var droppedResponseHeaders = map[string]bool{
	"Transfer-Encoding": true,
}

// ProxyService handles the forwarding logic for proxy requests.
type ProxyService struct {
	client  *client.BackendClient
	logger  *slog.Logger
	baseURL string
}

// NewProxyService creates a ProxyService forwarding to the configured backend.
func NewProxyService(c *client.BackendClient, cfg *config.Config, logger *slog.Logger) (*ProxyService, error) {
	u, err := cfg.Upstream.URL()
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream base_url %q must be absolute", cfg.Upstream.BaseURL)
	}

	return &ProxyService{
		client:  c,
		logger:  logger.With("component", "proxy_service"),
		baseURL: strings.TrimSuffix(u.String(), "/"),
	}, nil
}

// Forward sends a ProxyRequest to the backend and returns the response with
// its headers already filtered. The caller is responsible for closing the
// response body.
//
// Only GET and POST are proxied. A POST body is forwarded only when the
// request declares a positive Content-Length, and never beyond that length.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	if pr.Method != http.MethodGet && pr.Method != http.MethodPost {
		return nil, fmt.Errorf("%s %s: %w", pr.Method, pr.Path, ErrMethodNotAllowed)
	}

	upstreamURL := s.buildUpstreamURL(pr.Path, pr.RawQuery)
	header := s.filterRequestHeaders(pr.Header)

	var (
		body          io.Reader
		contentLength int64
	)
	if pr.Method == http.MethodPost && pr.ContentLength > 0 && pr.Body != nil {
		body = io.LimitReader(pr.Body, pr.ContentLength)
		contentLength = pr.ContentLength
	} else {
		header.Del("Content-Length")
	}

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"path", pr.Path,
		"content_length", contentLength,
	)

	resp, err := s.client.DoStream(pr.Ctx, pr.Method, upstreamURL, header, body, contentLength)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	resp.Header = s.filterResponseHeaders(resp.Header)
	return resp, nil
}

// buildUpstreamURL appends the caller's escaped path and raw query to the
// backend base URL. The query is carried exactly once and byte-for-byte.
func (s *ProxyService) buildUpstreamURL(path, rawQuery string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := s.baseURL + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

// filterRequestHeaders copies every inbound header except hop-by-hop ones,
// including any listed in the Connection header.
func (s *ProxyService) filterRequestHeaders(src http.Header) http.Header {
	dst := src.Clone()
	if dst == nil {
		dst = make(http.Header)
	}

	for _, field := range src.Values("Connection") {
		for _, name := range strings.Split(field, ",") {
			if name = textproto.TrimString(name); name != "" {
				dst.Del(name)
			}
		}
	}
	for _, h := range hopByHopHeaders {
		dst.Del(h)
	}
	// The outbound Host comes from the backend URL.
	dst.Del("Host")
	return dst
}

// filterResponseHeaders copies every backend header except Transfer-Encoding.
func (s *ProxyService) filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if droppedResponseHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[key] = vals
	}
	return dst
}
