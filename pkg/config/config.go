// Package config loads Gearbox configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/garagehq/gearbox/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Session       SessionConfig
	OIDC          OIDCConfig
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

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// RedisConfig holds Redis configuration for the session store
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SessionConfig holds session store settings
type SessionConfig struct {
	TTL time.Duration
}

// OIDCConfig holds the external identity provider settings
type OIDCConfig struct {
	Enabled   bool
	IssuerURL string
	ClientID  string
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
		Server: ServerConfig{
			Host:            getEnv("GEARBOX_HOST", "0.0.0.0"),
			Port:            getEnv("GEARBOX_PORT", "8080"),
			ReadTimeout:     getEnvDuration("GEARBOX_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("GEARBOX_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("GEARBOX_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("GEARBOX_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("GEARBOX_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:          getEnv("GEARBOX_POSTGRES_URL", ""),
			MaxOpenConns: getEnvInt("GEARBOX_POSTGRES_MAX_CONNS", 25),
			MaxIdleConns: getEnvInt("GEARBOX_POSTGRES_IDLE_CONNS", 5),
			ConnLifetime: getEnvDuration("GEARBOX_POSTGRES_CONN_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("GEARBOX_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("GEARBOX_REDIS_PASSWORD", ""),
			DB:       getEnvInt("GEARBOX_REDIS_DB", 0),
		},
		Session: SessionConfig{
			TTL: getEnvDuration("GEARBOX_SESSION_TTL", 24*time.Hour),
		},
		OIDC: OIDCConfig{
			Enabled:   getEnvBool("GEARBOX_OIDC_ENABLED", false),
			IssuerURL: getEnv("GEARBOX_OIDC_ISSUER_URL", ""),
			ClientID:  getEnv("GEARBOX_OIDC_CLIENT_ID", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:           parseLogLevel(getEnv("GEARBOX_LOG_LEVEL", "info")),
			MetricsEnabled:     getEnvBool("GEARBOX_METRICS_ENABLED", true),
			OTelEnabled:        getEnvBool("GEARBOX_OTEL_ENABLED", false),
			OTelEndpoint:       getEnv("GEARBOX_OTEL_ENDPOINT", "localhost:4317"),
			OTelServiceName:    getEnv("GEARBOX_OTEL_SERVICE_NAME", "gearbox-api"),
			OTelServiceVersion: getEnv("GEARBOX_OTEL_SERVICE_VERSION", "1.0.0"),
			OTelInsecure:       getEnvBool("GEARBOX_OTEL_INSECURE", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
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

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if c.OIDC.Enabled {
		if c.OIDC.IssuerURL == "" {
			return fmt.Errorf("OIDC issuer URL is required when OIDC is enabled")
		}
		if c.OIDC.ClientID == "" {
			return fmt.Errorf("OIDC client ID is required when OIDC is enabled")
		}
	}

	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
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

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
