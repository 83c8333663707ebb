// Package resolver decides the minimal provider mutation needed to make a
// DNS record reflect a requested update.
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nijave/ddns-webhook/pkg/provider"
)

// Outcome classifies the result of handling an update request. It drives
// the protocol-specific response the adapter renders.
type Outcome int

const (
	// OutcomeCreated means no record existed and one was created.
	OutcomeCreated Outcome = iota

	// OutcomeUpdated means an existing record's value was replaced.
	OutcomeUpdated

	// OutcomeUnchanged means the record already held the desired value and
	// no provider mutation was issued.
	OutcomeUnchanged

	// OutcomeAuthFailed means the request's credential did not match the
	// secret registered for the requested hostname.
	OutcomeAuthFailed

	// OutcomeProviderError means the upstream API call failed, or the
	// provider state was too ambiguous to mutate safely.
	OutcomeProviderError

	// OutcomeMalformedRequest means the request could not be parsed into a
	// hostname, value, and record type.
	OutcomeMalformedRequest
)

// String returns the outcome name for logging and metrics labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeAuthFailed:
		return "auth_failed"
	case OutcomeProviderError:
		return "provider_error"
	case OutcomeMalformedRequest:
		return "malformed_request"
	}
	return "unknown"
}

// Resolver performs idempotent record upserts through a RecordClient.
type Resolver struct {
	client provider.RecordClient
	ttl    int
	logger *slog.Logger
}

// Option is a functional option for configuring the Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTTL sets the TTL applied to created records.
func WithTTL(ttl int) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// New creates a Resolver backed by the given record client.
func New(client provider.RecordClient, opts ...Option) *Resolver {
	r := &Resolver{
		client: client,
		ttl:    provider.DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Upsert makes the record for (hostname, recordType) hold value, issuing
// the smallest provider mutation that gets there:
//
//   - no existing record: create, OutcomeCreated
//   - one record, same value: nothing, OutcomeUnchanged
//   - one record, different value: update by provider ID, OutcomeUpdated
//   - several records: refuse and report OutcomeProviderError; mutating an
//     arbitrary one could leave stale records serving
//
// Provider failures are never retried here; the webhook caller owns retry
// policy.
func (r *Resolver) Upsert(ctx context.Context, hostname, value string, recordType provider.RecordType) (Outcome, error) {
	records, err := r.client.ListRecords(ctx, hostname, recordType)
	if err != nil {
		return OutcomeProviderError, provider.WrapError("list records", err)
	}

	switch len(records) {
	case 0:
		id, err := r.client.CreateRecord(ctx, provider.Record{
			Hostname: hostname,
			Type:     recordType,
			Value:    value,
			TTL:      r.ttl,
		})
		if err != nil {
			return OutcomeProviderError, provider.WrapError("create record", err)
		}
		r.logger.Info("record created",
			slog.String("hostname", hostname),
			slog.String("type", string(recordType)),
			slog.String("record_id", id),
		)
		return OutcomeCreated, nil

	case 1:
		existing := records[0]
		if existing.Value == value {
			r.logger.Debug("record already current",
				slog.String("hostname", hostname),
				slog.String("type", string(recordType)),
			)
			return OutcomeUnchanged, nil
		}
		if err := r.client.UpdateRecord(ctx, existing, value); err != nil {
			return OutcomeProviderError, provider.WrapError("update record", err)
		}
		r.logger.Info("record updated",
			slog.String("hostname", hostname),
			slog.String("type", string(recordType)),
			slog.String("record_id", existing.ID),
		)
		return OutcomeUpdated, nil

	default:
		return OutcomeProviderError, provider.WrapError("resolve record",
			fmt.Errorf("%d records for %s/%s: %w", len(records), hostname, recordType, provider.ErrAmbiguousRecords))
	}
}

// List returns the provider's records for (hostname, recordType).
func (r *Resolver) List(ctx context.Context, hostname string, recordType provider.RecordType) ([]provider.Record, error) {
	records, err := r.client.ListRecords(ctx, hostname, recordType)
	if err != nil {
		return nil, provider.WrapError("list records", err)
	}
	return records, nil
}

// Delete removes every record matching (hostname, recordType). Deleting
// zero records is not an error.
func (r *Resolver) Delete(ctx context.Context, hostname string, recordType provider.RecordType) (int, error) {
	records, err := r.client.ListRecords(ctx, hostname, recordType)
	if err != nil {
		return 0, provider.WrapError("list records", err)
	}

	deleted := 0
	for _, record := range records {
		if err := r.client.DeleteRecord(ctx, record); err != nil {
			return deleted, provider.WrapError("delete record", err)
		}
		r.logger.Info("record deleted",
			slog.String("hostname", hostname),
			slog.String("type", string(recordType)),
			slog.String("record_id", record.ID),
		)
		deleted++
	}
	return deleted, nil
}
