package provider

import (
	"errors"
	"fmt"
)

// Common errors for provider operations.
var (
	// ErrZoneNotFound indicates no zone in the account covers the hostname.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrAmbiguousRecords indicates more than one record matched a
	// hostname/type pair. The webhook refuses to guess which one to mutate.
	ErrAmbiguousRecords = errors.New("multiple records match")

	// ErrUnauthorized indicates the provider rejected our API credentials.
	ErrUnauthorized = errors.New("provider rejected credentials")

	// ErrProviderUnavailable indicates the provider API is unreachable or
	// returned a server-side failure.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// Error wraps an error with the operation that produced it.
type Error struct {
	Operation string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider: %s: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with operation context.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Operation: operation, Err: err}
}

// IsZoneNotFound returns true if the error indicates no covering zone exists.
func IsZoneNotFound(err error) bool {
	return errors.Is(err, ErrZoneNotFound)
}

// IsAmbiguous returns true if the error indicates multiple matching records.
func IsAmbiguous(err error) bool {
	return errors.Is(err, ErrAmbiguousRecords)
}

// IsUnauthorized returns true if the error indicates the provider rejected
// our API credentials.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsProviderUnavailable returns true if the error indicates the provider is
// unreachable.
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
