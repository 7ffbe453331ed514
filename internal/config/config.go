// Package config loads filterd settings. Precedence is flags (bound by the
// caller), then FILTERD_* environment variables, then the config file, then
// defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. FILTERD_SERVER_PORT.
const EnvPrefix = "FILTERD"

// Config is the resolved configuration.
type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Events  EventsConfig
	Log     LogConfig
}

// ServerConfig covers the HTTP listener and the schema it serves.
type ServerConfig struct {
	Host       string
	Port       int
	SchemaPath string
	RootModel  string
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SessionConfig bounds editor session lifetime.
type SessionConfig struct {
	MaxAge          time.Duration
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

// EventsConfig sizes the change-event bus.
type EventsConfig struct {
	Buffer int
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string
	Format string
}

// New returns a viper instance with defaults and environment binding set
// up. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.schema_path", "schema.json")
	v.SetDefault("server.root_model", "")
	v.SetDefault("session.max_age", "24h")
	v.SetDefault("session.idle_timeout", "30m")
	v.SetDefault("session.cleanup_interval", "1m")
	v.SetDefault("events.buffer", 256)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file into v and returns the validated
// configuration.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:       v.GetString("server.host"),
			Port:       v.GetInt("server.port"),
			SchemaPath: v.GetString("server.schema_path"),
			RootModel:  v.GetString("server.root_model"),
		},
		Session: SessionConfig{
			MaxAge:          v.GetDuration("session.max_age"),
			IdleTimeout:     v.GetDuration("session.idle_timeout"),
			CleanupInterval: v.GetDuration("session.cleanup_interval"),
		},
		Events: EventsConfig{
			Buffer: v.GetInt("events.buffer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateConfig checks port range, required schema settings, and positive
// durations and sizes.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.SchemaPath == "" {
		return fmt.Errorf("server.schema_path is required")
	}
	if cfg.Server.RootModel == "" {
		return fmt.Errorf("server.root_model is required")
	}
	if cfg.Session.MaxAge <= 0 {
		return fmt.Errorf("session.max_age must be positive, got %v", cfg.Session.MaxAge)
	}
	if cfg.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session.idle_timeout must be positive, got %v", cfg.Session.IdleTimeout)
	}
	if cfg.Session.CleanupInterval <= 0 {
		return fmt.Errorf("session.cleanup_interval must be positive, got %v", cfg.Session.CleanupInterval)
	}
	if cfg.Events.Buffer <= 0 {
		return fmt.Errorf("events.buffer must be positive, got %d", cfg.Events.Buffer)
	}
	return nil
}
