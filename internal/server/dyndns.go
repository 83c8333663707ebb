package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nijave/ddns-webhook/internal/metrics"
	"github.com/nijave/ddns-webhook/internal/resolver"
	"github.com/nijave/ddns-webhook/pkg/provider"
)

// DynDNS2 response tokens. Routers and ddns agents switch on these, so the
// vocabulary matters more than the HTTP status.
const (
	tokenGood    = "good"    // record created or updated
	tokenNoChg   = "nochg"   // record already held the value
	tokenBadAuth = "badauth" // credentials rejected; also rendered for unknown hostnames
	tokenNotFQDN = "notfqdn" // hostname missing or request unparseable
	tokenServErr = "911"     // upstream provider failure, client may retry later
)

// handleDynDNS serves the DynDNS2 update protocol: hostname and optional
// myip query parameters, credentials via Basic auth.
func (s *Server) handleDynDNS(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	hostname := r.URL.Query().Get("hostname")
	if hostname == "" {
		s.renderDynDNS(w, resolver.OutcomeMalformedRequest, "", start)
		return
	}

	if !s.authenticate(r, hostname) {
		s.renderDynDNS(w, resolver.OutcomeAuthFailed, "", start)
		return
	}

	// Value defaults to the caller's apparent address; most router
	// firmwares omit myip entirely.
	value := r.URL.Query().Get("myip")
	if value == "" {
		value = clientIP(r)
	}
	ip := net.ParseIP(value)
	if ip == nil || ip.To4() == nil {
		// Only A records are managed on this endpoint.
		s.renderDynDNS(w, resolver.OutcomeMalformedRequest, "", start)
		return
	}

	// The provider call deliberately outlives the inbound connection: an
	// abandoned request must not leave a half-applied upstream mutation.
	// The provider client's own timeout keeps this bounded.
	ctx := context.WithoutCancel(r.Context())
	outcome, err := s.resolver.Upsert(ctx, hostname, ip.String(), provider.RecordTypeA)
	if err != nil {
		s.logger.Error("update failed",
			slog.String("hostname", hostname),
			slog.String("error", err.Error()),
		)
		metrics.ProviderErrorsTotal.WithLabelValues("upsert").Inc()
	}

	s.renderDynDNS(w, outcome, ip.String(), start)
}

// renderDynDNS maps an outcome to the DynDNS2 status line and token body.
func (s *Server) renderDynDNS(w http.ResponseWriter, outcome resolver.Outcome, ip string, start time.Time) {
	observe("dyndns", outcome.String(), start)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	switch outcome {
	case resolver.OutcomeCreated, resolver.OutcomeUpdated:
		fmt.Fprintf(w, "%s %s\n", tokenGood, ip)
	case resolver.OutcomeUnchanged:
		fmt.Fprintf(w, "%s %s\n", tokenNoChg, ip)
	case resolver.OutcomeAuthFailed:
		w.Header().Set("WWW-Authenticate", `Basic realm="ddns"`)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintln(w, tokenBadAuth)
	case resolver.OutcomeProviderError:
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, tokenServErr)
	default:
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(w, tokenNotFQDN)
	}
}
