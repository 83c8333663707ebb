package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nijave/ddns-webhook/internal/metrics"
	"github.com/nijave/ddns-webhook/internal/resolver"
	"github.com/nijave/ddns-webhook/pkg/provider"
)

// txtUpdateBody is the request body of a TXT upsert.
type txtUpdateBody struct {
	Content string `json:"content"`
}

// txtStatus is the success/failure body of the TXT endpoints.
type txtStatus struct {
	Status string `json:"status"`
}

// handleTXT serves the TXT-record variant: GET lists, POST upserts the
// literal text value, DELETE removes all matching records. The hostname is
// a path segment; credentials travel via Basic auth as on the DynDNS2
// endpoint.
func (s *Server) handleTXT(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	hostname := r.PathValue("hostname")
	if hostname == "" {
		s.renderTXTStatus(w, http.StatusBadRequest, "error", resolver.OutcomeMalformedRequest.String(), start)
		return
	}

	if !s.authenticate(r, hostname) {
		w.Header().Set("WWW-Authenticate", `Basic realm="ddns"`)
		s.renderTXTStatus(w, http.StatusUnauthorized, "unauthorized", resolver.OutcomeAuthFailed.String(), start)
		return
	}

	ctx := context.WithoutCancel(r.Context())

	switch r.Method {
	case http.MethodGet:
		s.handleTXTList(ctx, w, hostname, start)
	case http.MethodPost:
		s.handleTXTUpdate(ctx, w, r, hostname, start)
	case http.MethodDelete:
		s.handleTXTDelete(ctx, w, hostname, start)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTXTList(ctx context.Context, w http.ResponseWriter, hostname string, start time.Time) {
	records, err := s.resolver.List(ctx, hostname, provider.RecordTypeTXT)
	if err != nil {
		s.logger.Error("listing records failed",
			slog.String("hostname", hostname),
			slog.String("error", err.Error()),
		)
		metrics.ProviderErrorsTotal.WithLabelValues("list").Inc()
		s.renderTXTStatus(w, http.StatusInternalServerError, "error", resolver.OutcomeProviderError.String(), start)
		return
	}

	observe("txt", "listed", start)
	w.Header().Set("Content-Type", "application/json")
	if records == nil {
		records = []provider.Record{}
	}
	_ = json.NewEncoder(w).Encode(records)
}

func (s *Server) handleTXTUpdate(ctx context.Context, w http.ResponseWriter, r *http.Request, hostname string, start time.Time) {
	var body txtUpdateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		s.renderTXTStatus(w, http.StatusBadRequest, "error", resolver.OutcomeMalformedRequest.String(), start)
		return
	}

	outcome, err := s.resolver.Upsert(ctx, hostname, body.Content, provider.RecordTypeTXT)
	if err != nil {
		s.logger.Error("update failed",
			slog.String("hostname", hostname),
			slog.String("error", err.Error()),
		)
		metrics.ProviderErrorsTotal.WithLabelValues("upsert").Inc()
		s.renderTXTStatus(w, http.StatusInternalServerError, "error", outcome.String(), start)
		return
	}

	s.renderTXTStatus(w, http.StatusOK, "ok", outcome.String(), start)
}

func (s *Server) handleTXTDelete(ctx context.Context, w http.ResponseWriter, hostname string, start time.Time) {
	deleted, err := s.resolver.Delete(ctx, hostname, provider.RecordTypeTXT)
	if err != nil {
		s.logger.Error("delete failed",
			slog.String("hostname", hostname),
			slog.String("error", err.Error()),
		)
		metrics.ProviderErrorsTotal.WithLabelValues("delete").Inc()
		s.renderTXTStatus(w, http.StatusInternalServerError, "error", resolver.OutcomeProviderError.String(), start)
		return
	}

	s.logger.Info("records deleted",
		slog.String("hostname", hostname),
		slog.Int("count", deleted),
	)
	s.renderTXTStatus(w, http.StatusOK, "ok", "deleted", start)
}

// renderTXTStatus writes the simple status body and records metrics.
func (s *Server) renderTXTStatus(w http.ResponseWriter, code int, status, outcome string, start time.Time) {
	observe("txt", outcome, start)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(txtStatus{Status: status})
}
