package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garagehq/gearbox/pkg/observability"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GEARBOX_POSTGRES_URL", "postgres://localhost/gearbox?sslmode=disable")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.OIDC.Enabled)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("GEARBOX_POSTGRES_URL", "postgres://db:5432/gearbox")
	t.Setenv("GEARBOX_PORT", "8888")
	t.Setenv("GEARBOX_SESSION_TTL", "2h")
	t.Setenv("GEARBOX_LOG_LEVEL", "debug")
	t.Setenv("GEARBOX_METRICS_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8888", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.Observability.MetricsEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing postgres URL",
			mutate:  func(c *Config) { c.Database.URL = "" },
			wantErr: "postgres URL is required",
		},
		{
			name:    "same server and health port",
			mutate:  func(c *Config) { c.Server.HealthPort = c.Server.Port },
			wantErr: "must be different",
		},
		{
			name:    "zero session TTL",
			mutate:  func(c *Config) { c.Session.TTL = 0 },
			wantErr: "session TTL must be positive",
		},
		{
			name: "OIDC enabled without issuer",
			mutate: func(c *Config) {
				c.OIDC.Enabled = true
				c.OIDC.ClientID = "gearbox"
			},
			wantErr: "OIDC issuer URL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server: ServerConfig{Port: "8080", HealthPort: "9090"},
				Database: DatabaseConfig{
					URL: "postgres://localhost/gearbox",
				},
				Redis:   RedisConfig{Addr: "localhost:6379"},
				Session: SessionConfig{TTL: time.Hour},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
