// Package httputil provides shared HTTP client construction for provider
// API clients.
package httputil

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds every upstream API call. A timed-out call is
	// surfaced to the caller like any other provider failure.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is used when no custom user agent is specified.
	DefaultUserAgent = "ddns-webhook/1.0"
)

// ClientConfig contains configuration for creating an HTTP client.
type ClientConfig struct {
	// Timeout is the per-request deadline. Defaults to DefaultTimeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header to set on requests.
	UserAgent string

	// Logger enables debug logging for HTTP requests. Nil disables it.
	Logger *slog.Logger
}

// loggingTransport adds the User-Agent header and optionally logs each
// round trip at debug level.
type loggingTransport struct {
	base      http.RoundTripper
	userAgent string
	logger    *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.base.RoundTrip(req)

	if t.logger != nil {
		attrs := []any{
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
		}
		if resp != nil {
			attrs = append(attrs, slog.Int("status", resp.StatusCode))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		t.logger.Debug("HTTP round trip", attrs...)
	}

	return resp, err
}

// NewClient creates an HTTP client with the specified configuration.
// If cfg is nil, defaults are used.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &loggingTransport{
			base:      http.DefaultTransport,
			userAgent: userAgent,
			logger:    cfg.Logger,
		},
	}
}

// DefaultClient returns a new HTTP client with default settings.
func DefaultClient() *http.Client {
	return NewClient(nil)
}
