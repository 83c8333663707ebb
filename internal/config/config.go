// Package config handles loading and validation of webhook configuration
// from environment variables and an optional YAML or TOML file.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Configuration defaults.
const (
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultListenPort      = 8080
	DefaultHealthPort      = 9090
	DefaultRecordTTL       = 60
	DefaultProviderTimeout = 30 * time.Second
)

// EnvPrefix prefixes every environment variable the webhook reads.
const EnvPrefix = "DDNS_WEBHOOK_"

// Config holds the complete application configuration.
type Config struct {
	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// HTTP
	ListenPort int // webhook endpoints
	HealthPort int // health/metrics endpoints

	// Provider (DNSimple)
	AccountID       string        // numeric account identifier
	APIKey          string        // API token
	APIEndpoint     string        // override for tests/self-hosted proxies, empty = production API
	Zone            string        // optional: pin updates to one zone, skip discovery
	RecordTTL       int           // TTL for created records
	ProviderTimeout time.Duration // per upstream API call

	// Credentials maps authorized hostnames to their update secrets.
	Credentials map[string]string
}

// Load builds the configuration: file values first (if DDNS_WEBHOOK_CONFIG
// points at one), environment variables overriding, defaults filling the
// rest. Any validation problem is fatal and all problems are reported at
// once.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		ListenPort:      DefaultListenPort,
		HealthPort:      DefaultHealthPort,
		RecordTTL:       DefaultRecordTTL,
		ProviderTimeout: DefaultProviderTimeout,
		Credentials:     map[string]string{},
	}

	var errs []string

	if path := getEnv(EnvPrefix + "CONFIG"); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			errs = append(errs, "config file: "+err.Error())
		} else {
			fileCfg.apply(cfg)
		}
	}

	errs = append(errs, applyEnv(cfg)...)
	errs = append(errs, validate(cfg)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// applyEnv overrides cfg with any environment variables that are set.
func applyEnv(cfg *Config) []string {
	var errs []string

	if v := getEnv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getEnv(EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if v := getEnv(EnvPrefix + "LISTEN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.ListenPort = port
		} else {
			errs = append(errs, EnvPrefix+"LISTEN_PORT: invalid integer "+strconv.Quote(v))
		}
	}
	if v := getEnv(EnvPrefix + "HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HealthPort = port
		} else {
			errs = append(errs, EnvPrefix+"HEALTH_PORT: invalid integer "+strconv.Quote(v))
		}
	}

	if v := getEnv(EnvPrefix + "DNSIMPLE_ACCOUNT_ID"); v != "" {
		cfg.AccountID = v
	}
	if v := getEnvOrFile(EnvPrefix+"DNSIMPLE_API_KEY", EnvPrefix+"DNSIMPLE_API_KEY_FILE"); v != "" {
		cfg.APIKey = v
	}
	if v := getEnv(EnvPrefix + "DNSIMPLE_API_URL"); v != "" {
		cfg.APIEndpoint = v
	}
	if v := getEnv(EnvPrefix + "ZONE"); v != "" {
		cfg.Zone = v
	}

	if v := getEnv(EnvPrefix + "RECORD_TTL"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			cfg.RecordTTL = ttl
		} else {
			errs = append(errs, EnvPrefix+"RECORD_TTL: invalid integer "+strconv.Quote(v))
		}
	}
	if v := getEnv(EnvPrefix + "PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ProviderTimeout = d
		} else {
			errs = append(errs, EnvPrefix+"PROVIDER_TIMEOUT: invalid duration "+strconv.Quote(v))
		}
	}

	if v := getEnvOrFile(EnvPrefix+"AUTHENTICATION", EnvPrefix+"AUTHENTICATION_FILE"); v != "" {
		creds, err := parseCredentialJSON(v)
		if err != nil {
			errs = append(errs, EnvPrefix+"AUTHENTICATION: "+err.Error())
		} else {
			cfg.Credentials = creds
		}
	}

	return errs
}

// validate performs cross-field validation on the merged configuration.
func validate(cfg *Config) []string {
	var errs []string

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log level: invalid value %q (must be debug, info, warn, or error)", cfg.LogLevel))
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log format: invalid value %q (must be json or text)", cfg.LogFormat))
	}

	if cfg.ListenPort < 1 || cfg.ListenPort > 65535 {
		errs = append(errs, fmt.Sprintf("listen port: %d out of range", cfg.ListenPort))
	}
	if cfg.HealthPort < 1 || cfg.HealthPort > 65535 {
		errs = append(errs, fmt.Sprintf("health port: %d out of range", cfg.HealthPort))
	}
	if cfg.ListenPort == cfg.HealthPort {
		errs = append(errs, fmt.Sprintf("listen port and health port are both %d", cfg.ListenPort))
	}

	if cfg.AccountID == "" {
		errs = append(errs, EnvPrefix+"DNSIMPLE_ACCOUNT_ID is required")
	} else if _, err := strconv.ParseInt(cfg.AccountID, 10, 64); err != nil {
		errs = append(errs, fmt.Sprintf("account ID must be numeric, got %q", cfg.AccountID))
	}
	if cfg.APIKey == "" {
		errs = append(errs, EnvPrefix+"DNSIMPLE_API_KEY is required")
	}

	if cfg.RecordTTL < 1 {
		errs = append(errs, fmt.Sprintf("record TTL: %d must be positive", cfg.RecordTTL))
	}
	if cfg.ProviderTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("provider timeout: %s too short", cfg.ProviderTimeout))
	}

	if len(cfg.Credentials) == 0 {
		errs = append(errs, "no credentials configured: set "+EnvPrefix+"AUTHENTICATION or a credentials section in the config file")
	}
	for hostname, secret := range cfg.Credentials {
		if hostname == "" {
			errs = append(errs, "credentials: empty hostname")
		}
		if secret == "" {
			errs = append(errs, fmt.Sprintf("credentials: empty secret for %q", hostname))
		}
	}

	return errs
}
