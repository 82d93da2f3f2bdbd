package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/upb/deutschhelfer/services/providers"
	"github.com/upb/deutschhelfer/utils"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Credentials   CredentialsConfig
	Endpoints     EndpointsConfig
	Observability ObservabilityConfig
	Environment   string
}

// AppConfig holds the assistant's own settings
type AppConfig struct {
	Locale          string
	DefaultProvider string
	ImageDir        string
}

// DatabaseConfig holds the history and settings store configuration
type DatabaseConfig struct {
	Driver          string
	URL             string // From DATABASE_URL
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// CredentialsConfig holds provider API keys taken from the environment.
// Keys stored through the CLI take precedence over these.
type CredentialsConfig struct {
	OpenAI     string
	Anthropic  string
	Perplexity string
}

// EndpointsConfig overrides provider URLs; empty means the built-in endpoint
type EndpointsConfig struct {
	OpenAI     string
	Anthropic  string
	Perplexity string
}

// Overrides returns the non-empty endpoint overrides keyed by provider
func (e *EndpointsConfig) Overrides() map[providers.Provider]string {
	out := make(map[providers.Provider]string)
	for p, endpoint := range map[providers.Provider]string{
		providers.ProviderOpenAI:     e.OpenAI,
		providers.ProviderAnthropic:  e.Anthropic,
		providers.ProviderPerplexity: e.Perplexity,
	} {
		if endpoint != "" {
			out[p] = endpoint
		}
	}
	return out
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // console or json
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	driver := strings.ToLower(getEnv("DB_DRIVER", DriverSQLite))

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		App: AppConfig{
			Locale:          getEnv("APP_LOCALE", "tr"),
			DefaultProvider: strings.ToLower(getEnv("DEFAULT_PROVIDER", string(providers.ProviderOpenAI))),
			ImageDir:        getEnv("IMAGE_DIR", "data/images"),
		},
		Database: DatabaseConfig{
			Driver:          driver,
			URL:             getEnv("DATABASE_URL", defaultDatabaseURL(driver)),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", defaultMaxOpenConns(driver)),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Credentials: CredentialsConfig{
			OpenAI:     getEnv("OPENAI_API_KEY", ""),
			Anthropic:  getEnv("ANTHROPIC_API_KEY", ""),
			Perplexity: getEnv("PERPLEXITY_API_KEY", ""),
		},
		Endpoints: EndpointsConfig{
			OpenAI:     getEnv("OPENAI_ENDPOINT", ""),
			Anthropic:  getEnv("ANTHROPIC_ENDPOINT", ""),
			Perplexity: getEnv("PERPLEXITY_ENDPOINT", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "")),
		},
	}
	if cfg.Observability.LogFormat == "" {
		cfg.Observability.LogFormat = cfg.defaultLogFormat()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if err := utils.ValidateOneOf(c.Database.Driver, "driver", []string{DriverSQLite, DriverPostgres}); err != nil {
		return fmt.Errorf("unsupported database driver %q: %w", c.Database.Driver, err)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}

	if _, err := providers.ParseProvider(c.App.DefaultProvider); err != nil {
		return fmt.Errorf("default provider: %w", err)
	}
	if strings.TrimSpace(c.App.ImageDir) == "" {
		return fmt.Errorf("image directory is required")
	}

	for p, endpoint := range c.Endpoints.Overrides() {
		u, err := url.Parse(endpoint)
		if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
			return fmt.Errorf("invalid %s endpoint %q", p, endpoint)
		}
	}

	if err := utils.ValidateOneOf(c.Observability.LogLevel, "log level", []string{"debug", "info", "warn", "error"}); err != nil {
		return fmt.Errorf("unsupported log level: %w", err)
	}
	if err := utils.ValidateOneOf(c.Observability.LogFormat, "log format", []string{"console", "json"}); err != nil {
		return fmt.Errorf("unsupported log format: %w", err)
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// defaultLogFormat is json in production and console elsewhere
func (c *Config) defaultLogFormat() string {
	if c.IsProduction() {
		return "json"
	}
	return "console"
}

// CredentialFor returns the environment API key for p, or "" if unset
func (c *CredentialsConfig) CredentialFor(p providers.Provider) string {
	switch p {
	case providers.ProviderOpenAI:
		return c.OpenAI
	case providers.ProviderAnthropic:
		return c.Anthropic
	case providers.ProviderPerplexity:
		return c.Perplexity
	}
	return ""
}

// LogString returns a safe string for logging (no password)
func (c *DatabaseConfig) LogString() string {
	if c.Driver == DriverSQLite {
		return fmt.Sprintf("driver=sqlite path=%s", sqlitePath(c.URL))
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return "driver=postgres host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	db := strings.TrimPrefix(u.Path, "/")
	return fmt.Sprintf("driver=postgres host=%s port=%s database=%s", u.Hostname(), port, db)
}

// sqlitePath strips the file: scheme and any query parameters
func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

func defaultDatabaseURL(driver string) string {
	if driver == DriverPostgres {
		return ""
	}
	return "file:data/deutschhelfer.db"
}

// sqlite serializes writers; a single connection avoids SQLITE_BUSY
func defaultMaxOpenConns(driver string) int {
	if driver == DriverSQLite {
		return 1
	}
	return 10
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
