package credentials

import (
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestNew_RejectsEmptyMap(t *testing.T) {
	_, err := New(map[string]string{}, testLogger())
	if err == nil {
		t.Fatal("expected error for empty credential map")
	}
}

func TestNew_RejectsEmptyHostname(t *testing.T) {
	_, err := New(map[string]string{"": "supersecretkey1234567890"}, testLogger())
	if err == nil {
		t.Fatal("expected error for empty hostname")
	}
}

func TestNew_RejectsEmptySecret(t *testing.T) {
	_, err := New(map[string]string{"home.example.com": ""}, testLogger())
	if err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestLookup(t *testing.T) {
	store, err := New(map[string]string{
		"home.example.com": "supersecretkey1234567890",
	}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	secret, ok := store.Lookup("home.example.com")
	if !ok {
		t.Fatal("expected hostname to be found")
	}
	if secret != "supersecretkey1234567890" {
		t.Errorf("unexpected secret %q", secret)
	}

	if _, ok := store.Lookup("other.example.com"); ok {
		t.Error("expected unknown hostname to not be found")
	}
}

func TestVerify(t *testing.T) {
	store, err := New(map[string]string{
		"home.example.com":  "supersecretkey1234567890",
		"other.example.com": "anotherlongsecret0987654321",
	}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		hostname string
		supplied string
		want     bool
	}{
		{"correct secret", "home.example.com", "supersecretkey1234567890", true},
		{"wrong secret", "home.example.com", "supersecretkey123456789X", false},
		{"one character short", "home.example.com", "supersecretkey123456789", false},
		{"empty secret", "home.example.com", "", false},
		{"unknown hostname", "missing.example.com", "supersecretkey1234567890", false},
		// A valid secret for one hostname must never authorize another.
		{"cross-hostname secret", "other.example.com", "supersecretkey1234567890", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := store.Verify(tt.hostname, tt.supplied); got != tt.want {
				t.Errorf("Verify(%q, %q) = %v, want %v", tt.hostname, tt.supplied, got, tt.want)
			}
		})
	}
}

func TestParseJSON(t *testing.T) {
	store, err := ParseJSON(`{"home.example.com": "supersecretkey1234567890"}`, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.Verify("home.example.com", "supersecretkey1234567890") {
		t.Error("expected parsed credential to verify")
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	if _, err := ParseJSON(`not json`, testLogger()); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
