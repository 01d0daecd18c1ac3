// Package config loads the terminal's runtime configuration from an
// optional YAML file overlaid with environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigEnv   = "BILLING_CONFIG"
	defaultTimeout     = 15 * time.Second
	defaultTaxRate     = 0.1
	defaultLogLevel    = "info"
	defaultCredsSubdir = ".bagshop"
	defaultCredsFile   = "credentials"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	API         APIConfig         `yaml:"api"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Billing     BillingConfig     `yaml:"billing"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// APIConfig locates the backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CredentialsConfig controls the persisted credential file and its
// signing keys.
type CredentialsConfig struct {
	File     string `yaml:"file"`
	HashKey  string `yaml:"hash_key"`
	BlockKey string `yaml:"block_key"`
}

// BillingConfig holds checkout defaults.
type BillingConfig struct {
	DefaultTaxRate float64 `yaml:"default_tax_rate"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ValidationError is returned when required configuration fields are
// missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	configFile   string
	envMap       map[string]string
	useSystemEnv bool
}

// WithConfigFile overrides the YAML file path, bypassing BILLING_CONFIG.
func WithConfigFile(path string) Option {
	return func(o *loaderOptions) {
		o.configFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups.
// Values in the map take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.LookupEnv, relying only on
// provided maps and the YAML file.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration by combining defaults, the optional
// YAML file, and environment variable overrides.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		API:     APIConfig{Timeout: defaultTimeout},
		Billing: BillingConfig{DefaultTaxRate: defaultTaxRate},
		Logging: LoggingConfig{Level: defaultLogLevel},
	}

	path := options.configFile
	if path == "" {
		path, _ = lookup(defaultConfigEnv)
	}
	if path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.API.BaseURL = stringWithDefault(lookup, "BILLING_API_BASE_URL", cfg.API.BaseURL)
	cfg.API.Timeout = durationWithDefault(lookup, "BILLING_API_TIMEOUT", cfg.API.Timeout)
	cfg.Credentials.File = stringWithDefault(lookup, "BILLING_CREDENTIALS_FILE", cfg.Credentials.File)
	cfg.Credentials.HashKey = stringWithDefault(lookup, "BILLING_CREDENTIALS_HASH_KEY", cfg.Credentials.HashKey)
	cfg.Credentials.BlockKey = stringWithDefault(lookup, "BILLING_CREDENTIALS_BLOCK_KEY", cfg.Credentials.BlockKey)
	cfg.Billing.DefaultTaxRate = floatWithDefault(lookup, "BILLING_DEFAULT_TAX_RATE", cfg.Billing.DefaultTaxRate)
	cfg.Logging.Level = stringWithDefault(lookup, "BILLING_LOG_LEVEL", cfg.Logging.Level)

	if cfg.Credentials.File == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Credentials.File = filepath.Join(home, defaultCredsSubdir, defaultCredsFile)
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: failed parsing %s: %w", path, err)
	}
	return nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		missing = append(missing, "API.BaseURL")
	} else if u, err := url.Parse(cfg.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		missing = append(missing, "API.BaseURL")
	}
	if cfg.API.Timeout <= 0 {
		missing = append(missing, "API.Timeout")
	}
	if cfg.Credentials.File == "" {
		missing = append(missing, "Credentials.File")
	}
	if cfg.Credentials.HashKey == "" {
		missing = append(missing, "Credentials.HashKey")
	}
	switch len(cfg.Credentials.BlockKey) {
	case 0, 16, 24, 32:
	default:
		missing = append(missing, "Credentials.BlockKey")
	}
	if cfg.Billing.DefaultTaxRate < 0 {
		missing = append(missing, "Billing.DefaultTaxRate")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func floatWithDefault(lookup func(string) (string, bool), key string, fallback float64) float64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
