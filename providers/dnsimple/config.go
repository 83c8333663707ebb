package dnsimple

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nijave/ddns-webhook/pkg/provider"
)

// Config holds DNSimple-specific configuration.
type Config struct {
	AccountID   string        // Numeric account identifier (required)
	APIKey      string        // API token (Bearer authentication, required)
	APIEndpoint string        // Base API URL (defaults to DefaultAPIEndpoint)
	Zone        string        // Optional: pin all hostnames to this zone, skipping discovery
	TTL         int           // TTL for created records (defaults to provider.DefaultTTL)
	Timeout     time.Duration // Per-call API timeout (defaults to httputil.DefaultTimeout)
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	if c.AccountID == "" {
		errs = append(errs, "ACCOUNT_ID is required")
	} else if _, err := strconv.ParseInt(c.AccountID, 10, 64); err != nil {
		errs = append(errs, fmt.Sprintf("ACCOUNT_ID must be numeric, got %q", c.AccountID))
	}
	if c.APIKey == "" {
		errs = append(errs, "API_KEY is required")
	}
	if c.TTL < 0 {
		errs = append(errs, "TTL must be non-negative")
	}
	if c.Timeout < 0 {
		errs = append(errs, "TIMEOUT must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("dnsimple config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ttlOrDefault returns the configured TTL, or the provider default.
func (c *Config) ttlOrDefault() int {
	if c.TTL > 0 {
		return c.TTL
	}
	return provider.DefaultTTL
}
