// Package provider defines the record model and the narrow client interface
// the webhook uses to talk to an upstream DNS provider.
package provider

import "context"

// RecordType represents the type of DNS record the webhook manages.
type RecordType string

const (
	RecordTypeA   RecordType = "A"
	RecordTypeTXT RecordType = "TXT"
)

// DefaultTTL is applied to records created by the webhook when no TTL is
// configured. Kept low on purpose: dynamic records change often.
const DefaultTTL = 60

// Record represents a DNS record as seen by the provider.
type Record struct {
	ID       string     `json:"id"`       // Provider-assigned record identifier, empty before creation
	Hostname string     `json:"hostname"` // Fully-qualified hostname
	Type     RecordType `json:"type"`
	Value    string     `json:"value"` // IP for A records, literal text for TXT
	TTL      int        `json:"ttl"`
}

// RecordClient is the record CRUD surface consumed by the resolver.
// Implementations wrap a single provider account; zone handling is the
// implementation's concern, callers only ever see hostnames.
type RecordClient interface {
	// ListRecords returns all records of the given type for the hostname.
	ListRecords(ctx context.Context, hostname string, recordType RecordType) ([]Record, error)

	// CreateRecord creates the record and returns the provider-assigned ID.
	CreateRecord(ctx context.Context, record Record) (string, error)

	// UpdateRecord replaces the value of an existing record. The record's
	// ID must be set.
	UpdateRecord(ctx context.Context, record Record, newValue string) error

	// DeleteRecord removes an existing record. The record's ID must be set.
	DeleteRecord(ctx context.Context, record Record) error

	// Ping checks connectivity to the provider API.
	Ping(ctx context.Context) error
}

// ParseRecordType converts a wire-format record type to a RecordType.
// Returns false for types the webhook does not manage.
func ParseRecordType(s string) (RecordType, bool) {
	switch s {
	case "A", "a":
		return RecordTypeA, true
	case "TXT", "txt":
		return RecordTypeTXT, true
	}
	return "", false
}
