package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/coursehub/pkg/config"
)

// Credential store backends.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds all configuration for the coursehub client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Backend
	BaseURL        string        `env:"COURSEHUB_BASE_URL" envDefault:"http://localhost:8000/api/v1/"`
	Timeout        time.Duration `env:"COURSEHUB_TIMEOUT" envDefault:"30s"`
	RefreshTimeout time.Duration `env:"COURSEHUB_REFRESH_TIMEOUT" envDefault:"15s"`
	UserAgent      string        `env:"COURSEHUB_USER_AGENT" envDefault:"coursehub-client/1.0"`

	// Client-side throttling, disabled when RPS is 0
	RateLimitRPS   float64 `env:"COURSEHUB_RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int     `env:"COURSEHUB_RATE_LIMIT_BURST" envDefault:"5"`

	BreakerEnabled bool `env:"COURSEHUB_BREAKER_ENABLED" envDefault:"true"`

	// Credential storage. An empty CredentialFile means
	// <user config dir>/coursehub/credentials.json.
	CredentialStore string `env:"CREDENTIAL_STORE" envDefault:"file"`
	CredentialFile  string `env:"CREDENTIAL_FILE"`
	KeyPrefix       string `env:"CREDENTIAL_KEY_PREFIX" envDefault:"coursehub:"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load coursehub config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from the given map, ignoring the process
// environment.
func LoadFrom(environment map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, environment); err != nil {
		return nil, fmt.Errorf("load coursehub config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether plain-http backends are allowed.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("COURSEHUB_BASE_URL must be an absolute URL, got %q", c.BaseURL)
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !c.IsDevelopment() {
			return fmt.Errorf("COURSEHUB_BASE_URL must use https in %s", c.Environment)
		}
	default:
		return fmt.Errorf("COURSEHUB_BASE_URL must use http or https, got %q", u.Scheme)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("COURSEHUB_TIMEOUT must be positive")
	}
	if c.RefreshTimeout <= 0 {
		return fmt.Errorf("COURSEHUB_REFRESH_TIMEOUT must be positive")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("COURSEHUB_RATE_LIMIT_RPS must not be negative")
	}

	switch c.CredentialStore {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.RedisPort < 1 || c.RedisPort > 65535 {
			return fmt.Errorf("invalid redis port: %d", c.RedisPort)
		}
	default:
		return fmt.Errorf("CREDENTIAL_STORE must be %q, %q or %q, got %q", StoreFile, StoreMemory, StoreRedis, c.CredentialStore)
	}

	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	return nil
}
