package provider

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseRecordType(t *testing.T) {
	tests := []struct {
		in     string
		want   RecordType
		wantOK bool
	}{
		{"A", RecordTypeA, true},
		{"a", RecordTypeA, true},
		{"TXT", RecordTypeTXT, true},
		{"txt", RecordTypeTXT, true},
		{"AAAA", "", false},
		{"CNAME", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseRecordType(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseRecordType(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWrapError(t *testing.T) {
	if WrapError("list", nil) != nil {
		t.Error("expected nil for nil error")
	}

	wrapped := WrapError("list", ErrZoneNotFound)
	if !IsZoneNotFound(wrapped) {
		t.Error("expected wrapped error to match sentinel")
	}

	var pErr *Error
	if !errors.As(wrapped, &pErr) {
		t.Fatal("expected *Error")
	}
	if pErr.Operation != "list" {
		t.Errorf("expected operation list, got %q", pErr.Operation)
	}
}

func TestSentinelHelpers(t *testing.T) {
	tests := []struct {
		err   error
		check func(error) bool
	}{
		{ErrZoneNotFound, IsZoneNotFound},
		{ErrAmbiguousRecords, IsAmbiguous},
		{ErrUnauthorized, IsUnauthorized},
		{ErrProviderUnavailable, IsProviderUnavailable},
	}

	for _, tt := range tests {
		if !tt.check(tt.err) {
			t.Errorf("helper did not match its own sentinel %v", tt.err)
		}
		if !tt.check(fmt.Errorf("context: %w", tt.err)) {
			t.Errorf("helper did not match wrapped sentinel %v", tt.err)
		}
		if tt.check(errors.New("unrelated")) {
			t.Errorf("helper matched unrelated error for %v", tt.err)
		}
	}
}
