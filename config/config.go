// Package config loads the authd service configuration with viper. Values
// come from an optional YAML file plus AUTHD_* environment variables, with
// the environment winning.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server holds the HTTP listener settings.
type Server struct {
	Addr    string `json:"addr" yaml:"addr"`
	RunMode string `json:"run_mode" yaml:"run_mode"`
}

// Database holds the Postgres connection settings.
type Database struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

// Redis holds the quota backend connection settings.
type Redis struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
}

// Tokens holds the signing material and lifetimes for issued credentials.
type Tokens struct {
	AccessSecret  string        `json:"access_secret" yaml:"access_secret"`
	RefreshSecret string        `json:"refresh_secret" yaml:"refresh_secret"`
	AccessTTL     time.Duration `json:"access_ttl" yaml:"access_ttl"`
	RefreshTTL    time.Duration `json:"refresh_ttl" yaml:"refresh_ttl"`
	Issuer        string        `json:"issuer" yaml:"issuer"`
}

// RateLimit holds the per-tier generation ceilings and the shared window.
type RateLimit struct {
	Anonymous     int           `json:"anonymous" yaml:"anonymous"`
	Authenticated int           `json:"authenticated" yaml:"authenticated"`
	Window        time.Duration `json:"window" yaml:"window"`
}

// Logger holds the logging settings.
type Logger struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Config is the full authd service configuration.
type Config struct {
	Server    Server    `json:"server" yaml:"server"`
	Database  Database  `json:"database" yaml:"database"`
	Redis     Redis     `json:"redis" yaml:"redis"`
	Tokens    Tokens    `json:"tokens" yaml:"tokens"`
	RateLimit RateLimit `json:"rate_limit" yaml:"rate_limit"`
	Logger    Logger    `json:"logger" yaml:"logger"`
}

// Load reads the configuration from the given file path, or from the default
// search paths when path is empty. A missing file is not an error: everything
// has a default or an environment override.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.run_mode", "release")
	v.SetDefault("tokens.access_ttl", "15m")
	v.SetDefault("tokens.refresh_ttl", "168h")
	v.SetDefault("tokens.issuer", "pixelmint")
	v.SetDefault("rate_limit.anonymous", 10)
	v.SetDefault("rate_limit.authenticated", 100)
	v.SetDefault("rate_limit.window", "24h")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetEnvPrefix("authd")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("authd")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/authd")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Server: Server{
			Addr:    v.GetString("server.addr"),
			RunMode: v.GetString("server.run_mode"),
		},
		Database: Database{
			DSN: v.GetString("database.dsn"),
		},
		Redis: Redis{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
		},
		Tokens: Tokens{
			AccessSecret:  v.GetString("tokens.access_secret"),
			RefreshSecret: v.GetString("tokens.refresh_secret"),
			AccessTTL:     v.GetDuration("tokens.access_ttl"),
			RefreshTTL:    v.GetDuration("tokens.refresh_ttl"),
			Issuer:        v.GetString("tokens.issuer"),
		},
		RateLimit: RateLimit{
			Anonymous:     v.GetInt("rate_limit.anonymous"),
			Authenticated: v.GetInt("rate_limit.authenticated"),
			Window:        v.GetDuration("rate_limit.window"),
		},
		Logger: Logger{
			Level:  v.GetString("logger.level"),
			Format: v.GetString("logger.format"),
		},
	}

	if cfg.Tokens.AccessSecret == "" || cfg.Tokens.RefreshSecret == "" {
		return nil, fmt.Errorf("tokens.access_secret and tokens.refresh_secret are required")
	}
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	return cfg, nil
}
