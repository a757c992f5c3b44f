package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logger    LoggerConfig    `yaml:"logger"`
	Tracer    TracerConfig    `yaml:"tracer"`
	Assistant AssistantConfig `yaml:"assistant"`
	Auth      AuthConfig      `yaml:"auth"`
	Billing   BillingConfig   `yaml:"billing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	RatePerMinute  int    `yaml:"rate_per_minute"`  // per-user request budget, 0 = default
	RateBurst      int    `yaml:"rate_burst"`       // 0 = default
	RequestTimeout string `yaml:"request_timeout"`  // duration string, streaming excluded
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// TracerConfig holds OpenTelemetry settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // stdout, noop
}

// AssistantConfig holds the remote assistant provider settings and the
// desired assistant descriptor fields.
type AssistantConfig struct {
	APIKey      string `yaml:"api_key"`
	AssistantID string `yaml:"assistant_id"`
	BaseURL     string `yaml:"base_url"` // default https://api.openai.com/v1

	Model        string `yaml:"model"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Instructions string `yaml:"instructions"`

	Timeout string `yaml:"timeout"` // per-request HTTP timeout, streaming excluded
}

// AuthConfig holds login session settings.
type AuthConfig struct {
	SessionTTL string `yaml:"session_ttl"` // duration string
}

// BillingConfig holds usage-window provisioning settings.
type BillingConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Schedule         string `yaml:"schedule"`            // cron spec, default "@monthly"
	DefaultMaxTokens int    `yaml:"default_max_tokens"`  // budget for new windows
	WindowDays       int    `yaml:"window_days"`         // window length, default 30
}

// Load reads and parses the YAML config file, applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides secrets from the environment so they can be kept out
// of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Assistant.APIKey = v
	}
	if v := os.Getenv("OPENAI_ASSISTANT_ID"); v != "" {
		c.Assistant.AssistantID = v
	}
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RatePerMinute <= 0 {
		c.Server.RatePerMinute = 60
	}
	if c.Server.RateBurst <= 0 {
		c.Server.RateBurst = 10
	}
	if c.Database.Path == "" {
		c.Database.Path = "binna.db"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "text"
	}
	if c.Assistant.BaseURL == "" {
		c.Assistant.BaseURL = "https://api.openai.com/v1"
	}
	if c.Assistant.Timeout == "" {
		c.Assistant.Timeout = "60s"
	}
	if c.Auth.SessionTTL == "" {
		c.Auth.SessionTTL = "720h"
	}
	if c.Billing.Schedule == "" {
		c.Billing.Schedule = "@monthly"
	}
	if c.Billing.DefaultMaxTokens <= 0 {
		c.Billing.DefaultMaxTokens = 500_000
	}
	if c.Billing.WindowDays <= 0 {
		c.Billing.WindowDays = 30
	}
}

// Validate checks the configuration for fatal problems.
func (c *Config) Validate() error {
	var problems []string

	if c.Assistant.APIKey == "" {
		problems = append(problems, "assistant.api_key is required (or set OPENAI_API_KEY)")
	}
	if c.Assistant.AssistantID == "" {
		problems = append(problems, "assistant.assistant_id is required (or set OPENAI_ASSISTANT_ID)")
	}
	if c.Assistant.Model == "" {
		problems = append(problems, "assistant.model is required")
	}
	if _, err := time.ParseDuration(c.Assistant.Timeout); err != nil {
		problems = append(problems, fmt.Sprintf("assistant.timeout: %v", err))
	}
	if _, err := time.ParseDuration(c.Auth.SessionTTL); err != nil {
		problems = append(problems, fmt.Sprintf("auth.session_ttl: %v", err))
	}
	switch strings.ToLower(c.Logger.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logger.format: unknown format %q", c.Logger.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// AssistantTimeout returns the parsed provider request timeout.
func (c *Config) AssistantTimeout() time.Duration {
	d, err := time.ParseDuration(c.Assistant.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// RequestTimeout returns the parsed HTTP read timeout, zero when unset.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil {
		return 0
	}
	return d
}

// SessionTTL returns the parsed login session lifetime.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Auth.SessionTTL)
	if err != nil {
		return 720 * time.Hour
	}
	return d
}
