// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
)

// ProxyRequest represents a caller request to be forwarded to the backend.
type ProxyRequest struct {
	Ctx    context.Context
	Method string
	// Path is the escaped request path, forwarded verbatim.
	Path string
	// RawQuery is the query string without the leading '?', forwarded verbatim.
	RawQuery string
	Header   http.Header
	Body     io.Reader
	// ContentLength is the declared body length; -1 when unknown.
	ContentLength int64
}

// ProxyResponse represents the backend response to be streamed back.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
