package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileConfig is the configuration file structure. Files may be YAML or
// TOML, selected by extension.
type FileConfig struct {
	Logging     *FileLoggingConfig  `yaml:"logging,omitempty" toml:"logging,omitempty"`
	Server      *FileServerConfig   `yaml:"server,omitempty" toml:"server,omitempty"`
	Provider    *FileProviderConfig `yaml:"provider,omitempty" toml:"provider,omitempty"`
	Credentials map[string]string   `yaml:"credentials,omitempty" toml:"credentials,omitempty"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level,omitempty"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format,omitempty"` // json, text
}

// FileServerConfig holds HTTP listener settings.
type FileServerConfig struct {
	Port       int `yaml:"port,omitempty" toml:"port,omitempty"`               // webhook endpoints
	HealthPort int `yaml:"health_port,omitempty" toml:"health_port,omitempty"` // health/metrics endpoints
}

// FileProviderConfig holds DNSimple provider settings.
type FileProviderConfig struct {
	AccountID string `yaml:"account_id,omitempty" toml:"account_id,omitempty"`
	APIKey    string `yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	APIURL    string `yaml:"api_url,omitempty" toml:"api_url,omitempty"`
	Zone      string `yaml:"zone,omitempty" toml:"zone,omitempty"`
	TTL       int    `yaml:"ttl,omitempty" toml:"ttl,omitempty"`
	Timeout   string `yaml:"timeout,omitempty" toml:"timeout,omitempty"` // Go duration format
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable
// values. Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

func (c *FileConfig) interpolateEnvVars() {
	if c.Logging != nil {
		c.Logging.Level = InterpolateEnvVars(c.Logging.Level)
		c.Logging.Format = InterpolateEnvVars(c.Logging.Format)
	}
	if c.Provider != nil {
		c.Provider.AccountID = InterpolateEnvVars(c.Provider.AccountID)
		c.Provider.APIKey = InterpolateEnvVars(c.Provider.APIKey)
		c.Provider.APIURL = InterpolateEnvVars(c.Provider.APIURL)
		c.Provider.Zone = InterpolateEnvVars(c.Provider.Zone)
		c.Provider.Timeout = InterpolateEnvVars(c.Provider.Timeout)
	}
	for hostname, secret := range c.Credentials {
		c.Credentials[hostname] = InterpolateEnvVars(secret)
	}
}

// LoadFile reads and parses a configuration file. Files ending in .toml
// are parsed as TOML, everything else as YAML. Environment variables in
// ${VAR} format are interpolated after parsing.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	}

	cfg.interpolateEnvVars()
	return &cfg, nil
}

// apply copies the file's set values onto cfg. Environment variables are
// applied afterwards and take precedence.
func (c *FileConfig) apply(cfg *Config) {
	if c.Logging != nil {
		if c.Logging.Level != "" {
			cfg.LogLevel = strings.ToLower(c.Logging.Level)
		}
		if c.Logging.Format != "" {
			cfg.LogFormat = strings.ToLower(c.Logging.Format)
		}
	}

	if c.Server != nil {
		if c.Server.Port > 0 {
			cfg.ListenPort = c.Server.Port
		}
		if c.Server.HealthPort > 0 {
			cfg.HealthPort = c.Server.HealthPort
		}
	}

	if c.Provider != nil {
		if c.Provider.AccountID != "" {
			cfg.AccountID = c.Provider.AccountID
		}
		if c.Provider.APIKey != "" {
			cfg.APIKey = c.Provider.APIKey
		}
		if c.Provider.APIURL != "" {
			cfg.APIEndpoint = c.Provider.APIURL
		}
		if c.Provider.Zone != "" {
			cfg.Zone = c.Provider.Zone
		}
		if c.Provider.TTL > 0 {
			cfg.RecordTTL = c.Provider.TTL
		}
		if c.Provider.Timeout != "" {
			if d, err := time.ParseDuration(c.Provider.Timeout); err == nil && d >= time.Second {
				cfg.ProviderTimeout = d
			}
		}
	}

	if len(c.Credentials) > 0 {
		cfg.Credentials = c.Credentials
	}
}

// parseCredentialJSON parses the JSON hostname → secret map carried in the
// AUTHENTICATION environment variable.
func parseCredentialJSON(data string) (map[string]string, error) {
	var creds map[string]string
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("invalid JSON credential map: %w", err)
	}
	return creds, nil
}
