package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	s := New(0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("expected status healthy, got %q", resp.Status)
	}
}

func TestReadyEndpoint_NoCheckers(t *testing.T) {
	s := New(0)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyEndpoint_AllHealthy(t *testing.T) {
	s := New(0)
	s.RegisterChecker("provider", func(ctx context.Context) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "ready" {
		t.Errorf("expected status ready, got %q", resp.Status)
	}
	if len(resp.Components) != 1 || !resp.Components[0].Healthy {
		t.Errorf("expected one healthy component, got %+v", resp.Components)
	}
}

func TestReadyEndpoint_FailingChecker(t *testing.T) {
	s := New(0)
	s.RegisterChecker("provider", func(ctx context.Context) error {
		return errors.New("api unreachable")
	})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "not_ready" {
		t.Errorf("expected status not_ready, got %q", resp.Status)
	}
	if len(resp.Components) != 1 {
		t.Fatalf("expected one component, got %d", len(resp.Components))
	}
	if resp.Components[0].Healthy || resp.Components[0].Error != "api unreachable" {
		t.Errorf("unexpected component status %+v", resp.Components[0])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(0)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected metrics output, got empty body")
	}
}
