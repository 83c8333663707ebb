// Package health provides HTTP endpoints for health checks and Prometheus
// metrics, served separately from the webhook itself.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checker is a function that checks the health of a component.
// Returns an error if the component is unhealthy.
type Checker func(ctx context.Context) error

// ComponentStatus reports one component's readiness.
type ComponentStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Response is the body of /health and /ready responses.
type Response struct {
	Status     string            `json:"status"`
	Components []ComponentStatus `json:"components,omitempty"`
}

// Server provides /health, /ready, and /metrics endpoints.
type Server struct {
	port    int
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.RWMutex
	checkers map[string]Checker
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

// WithTimeout sets the deadline applied to each readiness check.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.timeout = timeout
	}
}

// New creates a health server listening on the given port once started.
func New(port int, opts ...Option) *Server {
	s := &Server{
		port:     port,
		mux:      http.NewServeMux(),
		logger:   slog.Default(),
		timeout:  5 * time.Second,
		checkers: make(map[string]Checker),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/ready", s.handleReady)
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

// RegisterChecker adds a readiness checker run by the /ready endpoint.
func (s *Server) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.logger.Debug("registered health checker", slog.String("name", name))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(Response{Status: "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for name, checker := range s.checkers {
		checkers[name] = checker
	}
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	var components []ComponentStatus
	ready := true
	for name, checker := range checkers {
		status := ComponentStatus{Name: name, Healthy: true}
		if err := checker(ctx); err != nil {
			status.Healthy = false
			status.Error = err.Error()
			ready = false
			s.logger.Warn("readiness check failed",
				slog.String("component", name),
				slog.String("error", err.Error()),
			)
		}
		components = append(components, status)
	}

	w.Header().Set("Content-Type", "application/json")
	resp := Response{Components: components}
	if ready {
		resp.Status = "ready"
		w.WriteHeader(http.StatusOK)
	} else {
		resp.Status = "not_ready"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// Handler returns the server's route multiplexer, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the health server in a goroutine.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("health server starting", slog.Int("port", s.port))
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("health server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the health server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
