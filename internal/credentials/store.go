// Package credentials holds the per-hostname credential map the webhook
// authenticates update requests against.
package credentials

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
)

// MinSecretLength is the recommended minimum secret length. The protocol
// adapter logs the first 4 characters of supplied credentials, so secrets
// need enough length behind the logged prefix to keep brute force
// impractical. Shorter secrets are accepted with a startup warning.
const MinSecretLength = 20

// Store maps authorized hostnames to their update secrets. It is built
// once at startup and never mutated, so concurrent handlers read it
// without locking.
type Store struct {
	secrets map[string]string
}

// New builds a Store from a hostname → secret map. It fails on empty
// hostnames or empty secrets; both indicate a broken configuration that
// would otherwise silently lock out (or worse, open up) a hostname.
func New(secrets map[string]string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(secrets) == 0 {
		return nil, fmt.Errorf("credential map is empty")
	}

	m := make(map[string]string, len(secrets))
	for hostname, secret := range secrets {
		if hostname == "" {
			return nil, fmt.Errorf("credential map contains an empty hostname")
		}
		if secret == "" {
			return nil, fmt.Errorf("credential map entry for %q has an empty secret", hostname)
		}
		if len(secret) < MinSecretLength {
			logger.Warn("secret shorter than recommended minimum",
				slog.String("hostname", hostname),
				slog.Int("length", len(secret)),
				slog.Int("recommended", MinSecretLength),
			)
		}
		m[hostname] = secret
	}

	return &Store{secrets: m}, nil
}

// ParseJSON builds a Store from a JSON object mapping hostnames to secrets,
// the shape carried in the AUTHENTICATION environment variable.
func ParseJSON(data string, logger *slog.Logger) (*Store, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("parsing credential map: %w", err)
	}
	return New(m, logger)
}

// Lookup returns the secret registered for hostname.
func (s *Store) Lookup(hostname string) (string, bool) {
	secret, ok := s.secrets[hostname]
	return secret, ok
}

// Len returns the number of registered hostnames.
func (s *Store) Len() int {
	return len(s.secrets)
}

// Verify reports whether supplied matches the secret registered for
// hostname. The comparison is always against the secret registered for the
// requested hostname, never a shared secret: a valid credential for one
// hostname must not authorize updates to another.
//
// Comparison is constant-time, and unknown hostnames burn an equivalent
// dummy comparison so response timing does not reveal whether a hostname
// is registered.
func (s *Store) Verify(hostname, supplied string) bool {
	secret, ok := s.secrets[hostname]
	if !ok {
		subtle.ConstantTimeCompare([]byte(supplied), []byte(supplied))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(supplied)) == 1
}
