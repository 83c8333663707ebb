// Package server implements the webhook's HTTP surface: the DynDNS2
// update endpoint and the TXT-record variant. It translates between the
// wire protocols and the resolver's outcome model.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nijave/ddns-webhook/internal/credentials"
	"github.com/nijave/ddns-webhook/internal/metrics"
	"github.com/nijave/ddns-webhook/internal/resolver"
)

// Server serves the webhook endpoints.
type Server struct {
	port     int
	mux      *http.ServeMux
	server   *http.Server
	store    *credentials.Store
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a webhook server on the given port.
func New(port int, store *credentials.Store, res *resolver.Resolver, opts ...Option) *Server {
	s := &Server{
		port:     port,
		mux:      http.NewServeMux(),
		store:    store,
		resolver: res,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	// DynDNS2 clients disagree on the path; serve both common ones.
	s.mux.HandleFunc("/nic/update", s.handleDynDNS)
	s.mux.HandleFunc("/update", s.handleDynDNS)
	s.mux.HandleFunc("/txt/{hostname}", s.handleTXT)
	return s
}

// Handler returns the server's route multiplexer, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the webhook server in a goroutine.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("webhook server starting", slog.Int("port", s.port))
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("webhook server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the webhook server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// authenticate verifies the request's Basic credentials against the secret
// registered for hostname. The Basic username must equal the target
// hostname: a credential authorizes updates to exactly one name, so a
// mismatched username is rejected before the secret is even considered.
//
// Unknown hostnames and wrong secrets are indistinguishable to the caller.
func (s *Server) authenticate(r *http.Request, hostname string) bool {
	username, secret, ok := r.BasicAuth()
	if !ok {
		s.logger.Info("request without credentials",
			slog.String("hostname", hostname),
			slog.String("remote", r.RemoteAddr),
		)
		return false
	}

	// Bounded disclosure for operator debugging: the 4-character prefix is
	// why secrets are expected to be 20+ characters.
	s.logger.Info("update request",
		slog.String("hostname", hostname),
		slog.String("username", username),
		slog.String("credential_prefix", credentialPrefix(secret)),
		slog.String("remote", r.RemoteAddr),
	)

	if username != hostname {
		return false
	}
	return s.store.Verify(hostname, secret)
}

// credentialPrefix returns the first 4 characters of a supplied credential.
func credentialPrefix(secret string) string {
	if len(secret) > 4 {
		return secret[:4]
	}
	return secret
}

// clientIP returns the caller's apparent address: the first X-Forwarded-For
// hop when present (the webhook is expected to sit behind a proxy), else
// the connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// observe records the per-request metrics shared by both endpoints.
func observe(endpoint, outcome string, start time.Time) {
	metrics.RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
