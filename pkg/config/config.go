package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/confide/confide/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Session       SessionConfig
	SSO           SSOConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	// BaseURL is the externally visible origin, used to build OAuth
	// callback URLs.
	BaseURL string

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds identity store configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SessionConfig holds session store configuration
type SessionConfig struct {
	// Backend is "memory" or "redis"
	Backend string

	RedisURL string
	TTL      time.Duration

	// MaxSessions bounds the in-memory backend
	MaxSessions int

	// SecureCookies marks the session cookie Secure; disable for plain
	// HTTP development only.
	SecureCookies bool
}

// SSOConfig holds federated login configuration
type SSOConfig struct {
	// ProvidersFile points at the YAML provider registry; optional when
	// the Google provider is configured via env.
	ProvidersFile      string
	WatchProvidersFile bool

	GoogleClientID     string
	GoogleClientSecret string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Session:       loadSessionConfig(),
		SSO:           loadSSOConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("CONFIDE_HOST", "0.0.0.0"),
		Port:            getEnv("CONFIDE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("CONFIDE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("CONFIDE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("CONFIDE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("CONFIDE_SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxBodyBytes:    getEnvInt64("CONFIDE_MAX_BODY_BYTES", 1<<20),
		BaseURL:         getEnv("CONFIDE_BASE_URL", "http://localhost:8080"),
		HealthPort:      getEnv("CONFIDE_HEALTH_PORT", "9090"),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("CONFIDE_DATABASE_URL", ""),
		MaxOpenConns:    getEnvInt("CONFIDE_DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("CONFIDE_DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("CONFIDE_DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		Backend:       getEnv("CONFIDE_SESSION_BACKEND", "memory"),
		RedisURL:      getEnv("CONFIDE_SESSION_REDIS_URL", ""),
		TTL:           getEnvDuration("CONFIDE_SESSION_TTL", 24*time.Hour),
		MaxSessions:   getEnvInt("CONFIDE_SESSION_MAX_SESSIONS", 100000),
		SecureCookies: getEnvBool("CONFIDE_SESSION_SECURE_COOKIES", false),
	}
}

func loadSSOConfig() SSOConfig {
	return SSOConfig{
		ProvidersFile:      getEnv("CONFIDE_SSO_PROVIDERS_FILE", ""),
		WatchProvidersFile: getEnvBool("CONFIDE_SSO_WATCH_PROVIDERS_FILE", false),
		GoogleClientID:     getEnv("CONFIDE_GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("CONFIDE_GOOGLE_CLIENT_SECRET", ""),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLevel(getEnv("CONFIDE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("CONFIDE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("CONFIDE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("CONFIDE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("CONFIDE_OTEL_SERVICE_NAME", "confide"),
		OTelServiceVersion: getEnv("CONFIDE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("CONFIDE_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("redis URL is required for the redis session backend")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be memory or redis)", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if (c.SSO.GoogleClientID == "") != (c.SSO.GoogleClientSecret == "") {
		return fmt.Errorf("google client id and secret must be set together")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// CallbackURL builds the OAuth redirect URL for a provider
func (c *Config) CallbackURL(providerName string) string {
	return strings.TrimRight(c.Server.BaseURL, "/") + "/auth/" + providerName + "/callback"
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
