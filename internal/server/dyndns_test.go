package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nijave/ddns-webhook/pkg/provider"
)

// dynRequest performs a DynDNS2 update request against the server's mux.
func dynRequest(s *Server, target, username, password string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if username != "" || password != "" {
		req.SetBasicAuth(username, password)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestDynDNS_CreateThenNoChange(t *testing.T) {
	client := &fakeClient{}
	s := newTestServer(t, client)

	rec := dynRequest(s, "/nic/update?hostname=home.example.com&myip=1.2.3.4", testHostname, testSecret)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "good 1.2.3.4" {
		t.Errorf("expected %q, got %q", "good 1.2.3.4", body)
	}
	if client.createCalls != 1 {
		t.Errorf("expected 1 create call, got %d", client.createCalls)
	}

	// The identical request again must not mutate anything upstream.
	rec = dynRequest(s, "/nic/update?hostname=home.example.com&myip=1.2.3.4", testHostname, testSecret)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "nochg 1.2.3.4" {
		t.Errorf("expected %q, got %q", "nochg 1.2.3.4", body)
	}
	if client.createCalls != 1 || client.updateCalls != 0 {
		t.Errorf("expected no second mutation, got create=%d update=%d", client.createCalls, client.updateCalls)
	}
}

func TestDynDNS_UpdateExisting(t *testing.T) {
	client := &fakeClient{records: []provider.Record{
		{ID: "1", Hostname: testHostname, Type: provider.RecordTypeA, Value: "1.2.3.4"},
	}}
	s := newTestServer(t, client)

	rec := dynRequest(s, "/nic/update?hostname=home.example.com&myip=5.6.7.8", testHostname, testSecret)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "good 5.6.7.8" {
		t.Errorf("expected %q, got %q", "good 5.6.7.8", body)
	}
	if client.updateCalls != 1 {
		t.Errorf("expected 1 update call, got %d", client.updateCalls)
	}
}

func TestDynDNS_DefaultsToClientAddress(t *testing.T) {
	client := &fakeClient{}
	s := newTestServer(t, client)

	// httptest.NewRequest sets RemoteAddr to 192.0.2.1:1234.
	rec := dynRequest(s, "/nic/update?hostname=home.example.com", testHostname, testSecret)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "good 192.0.2.1" {
		t.Errorf("expected %q, got %q", "good 192.0.2.1", body)
	}
}

func TestDynDNS_HonorsForwardedFor(t *testing.T) {
	client := &fakeClient{}
	s := newTestServer(t, client)

	req := httptest.NewRequest(http.MethodGet, "/nic/update?hostname=home.example.com", nil)
	req.SetBasicAuth(testHostname, testSecret)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if body := strings.TrimSpace(rec.Body.String()); body != "good 203.0.113.7" {
		t.Errorf("expected %q, got %q", "good 203.0.113.7", body)
	}
}

func TestDynDNS_AuthFailures(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		username string
		password string
	}{
		{"wrong secret", "/nic/update?hostname=home.example.com&myip=1.2.3.4", testHostname, "wrongsecretwrongsecret"},
		{"unknown hostname", "/nic/update?hostname=missing.example.com&myip=1.2.3.4", "missing.example.com", testSecret},
		{"no credentials", "/nic/update?hostname=home.example.com&myip=1.2.3.4", "", ""},
		// A valid credential for one hostname must not update another,
		// even though both hostnames are registered.
		{"cross-hostname secret", "/nic/update?hostname=other.example.com&myip=1.2.3.4", otherHostname, testSecret},
		{"username mismatch", "/nic/update?hostname=other.example.com&myip=1.2.3.4", testHostname, testSecret},
	}

	var bodies []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			s := newTestServer(t, client)

			rec := dynRequest(s, tt.target, tt.username, tt.password)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
			if body := strings.TrimSpace(rec.Body.String()); body != "badauth" {
				t.Errorf("expected badauth body, got %q", body)
			}
			if client.createCalls != 0 || client.updateCalls != 0 {
				t.Error("expected no provider mutation on auth failure")
			}
			bodies = append(bodies, rec.Body.String())
		})
	}

	// Unknown hostname and wrong secret must be indistinguishable.
	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Errorf("auth failure responses differ: %q vs %q", bodies[0], bodies[i])
		}
	}
}

func TestDynDNS_MalformedRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing hostname", "/nic/update?myip=1.2.3.4"},
		{"empty hostname", "/nic/update?hostname=&myip=1.2.3.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			s := newTestServer(t, client)

			rec := dynRequest(s, tt.target, testHostname, testSecret)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if body := strings.TrimSpace(rec.Body.String()); body != "notfqdn" {
				t.Errorf("expected notfqdn body, got %q", body)
			}
		})
	}
}

func TestDynDNS_RejectsNonIPv4Value(t *testing.T) {
	for _, myip := range []string{"not-an-ip", "2001:db8::1"} {
		client := &fakeClient{}
		s := newTestServer(t, client)

		rec := dynRequest(s, "/nic/update?hostname=home.example.com&myip="+myip, testHostname, testSecret)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("myip=%s: expected 400, got %d", myip, rec.Code)
		}
		if client.createCalls != 0 {
			t.Errorf("myip=%s: expected no create call", myip)
		}
	}
}

func TestDynDNS_AmbiguousRecords(t *testing.T) {
	client := &fakeClient{records: []provider.Record{
		{ID: "1", Hostname: testHostname, Type: provider.RecordTypeA, Value: "1.2.3.4"},
		{ID: "2", Hostname: testHostname, Type: provider.RecordTypeA, Value: "5.6.7.8"},
	}}
	s := newTestServer(t, client)

	rec := dynRequest(s, "/nic/update?hostname=home.example.com&myip=9.9.9.9", testHostname, testSecret)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "911" {
		t.Errorf("expected 911 body, got %q", body)
	}
	if client.updateCalls != 0 || client.createCalls != 0 {
		t.Error("expected no mutation on ambiguous provider state")
	}
}

func TestDynDNS_ProviderFailure(t *testing.T) {
	client := &fakeClient{listErr: errors.New("connection refused")}
	s := newTestServer(t, client)

	rec := dynRequest(s, "/nic/update?hostname=home.example.com&myip=1.2.3.4", testHostname, testSecret)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "911" {
		t.Errorf("expected 911 body, got %q", body)
	}
}

func TestDynDNS_AlternatePath(t *testing.T) {
	client := &fakeClient{}
	s := newTestServer(t, client)

	rec := dynRequest(s, "/update?hostname=home.example.com&myip=1.2.3.4", testHostname, testSecret)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 on /update, got %d", rec.Code)
	}
}

func TestDynDNS_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakeClient{})

	req := httptest.NewRequest(http.MethodDelete, "/nic/update?hostname=home.example.com", nil)
	req.SetBasicAuth(testHostname, testSecret)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
