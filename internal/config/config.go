// Package config loads service configuration from defaults, an optional YAML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the variable holding the YAML config path.
const EnvConfigPath = "MEETNEXUS_CONFIG"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	AppEnv   string `yaml:"app_env" env:"APP_ENV"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	HTTPHost string `yaml:"http_host" env:"HTTP_HOST"`
	HTTPPort string `yaml:"http_port" env:"HTTP_PORT"`

	// AppURL overrides the externally visible base URL used for OAuth redirects.
	AppURL string `yaml:"app_url" env:"APP_URL"`
	// LegacyAppURL is consulted when AppURL is empty.
	LegacyAppURL string `yaml:"nextauth_url" env:"NEXTAUTH_URL"`

	GoogleClientID     string `yaml:"google_client_id" env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `yaml:"google_client_secret" env:"GOOGLE_CLIENT_SECRET"`

	DBDriver    string `yaml:"db_driver" env:"DB_DRIVER"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`

	UpstreamTimeout time.Duration `yaml:"upstream_timeout" env:"UPSTREAM_TIMEOUT"`

	GeminiAPIKey  string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	GeminiModel   string `yaml:"gemini_model" env:"GEMINI_MODEL"`
	GeminiBaseURL string `yaml:"gemini_base_url" env:"GEMINI_BASE_URL"`

	NotionAPIKey     string `yaml:"notion_api_key" env:"NOTION_API_KEY"`
	NotionDatabaseID string `yaml:"notion_database_id" env:"NOTION_DATABASE_ID"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AppEnv:          "local",
		LogLevel:        "info",
		HTTPHost:        "127.0.0.1",
		HTTPPort:        "3000",
		DBDriver:        DriverSQLite,
		DatabaseURL:     "meetnexus.db",
		UpstreamTimeout: 20 * time.Second,
		GeminiModel:     "gemini-pro",
	}
}

// Load builds the configuration. path may be empty, in which case
// MEETNEXUS_CONFIG is consulted; a missing file at the default location is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// .env is optional
	_ = godotenv.Load()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported db_driver %q", c.DBDriver))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("database_url is required"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("upstream_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// BaseURL returns the configured public base URL, or "" when it should be
// derived from the inbound request.
func (c *Config) BaseURL() string {
	if u := strings.TrimSpace(c.AppURL); u != "" {
		return u
	}
	return strings.TrimSpace(c.LegacyAppURL)
}

// ListenAddr is the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return c.HTTPHost + ":" + c.HTTPPort
}

// HasGoogleCredentials reports whether the OAuth client is configured.
func (c *Config) HasGoogleCredentials() bool {
	return strings.TrimSpace(c.GoogleClientID) != "" && strings.TrimSpace(c.GoogleClientSecret) != ""
}
