// Package config loads server settings from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server settings.
type Config struct {
	// Port is the HTTP listen port.
	Port int `env:"PORT" envDefault:"8080"`

	// DBPath is the SQLite database holding the journal and token accounts.
	DBPath string `env:"DB_PATH" envDefault:"./data/tabsettle.db"`

	// SpenderID is the identity participants approve so settlement can move their funds.
	SpenderID string `env:"SPENDER_ID" envDefault:"tabsettle"`

	// RedisURL enables event publishing when set (redis://host:port/db).
	RedisURL     string `env:"REDIS_URL"`
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"tabsettle.events"`

	// JWTSecret enables coordinator authentication when set.
	JWTSecret               string        `env:"JWT_SECRET"`
	CoordinatorPasswordHash string        `env:"COORDINATOR_PASSWORD_HASH"`
	TokenTTL                time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AuthEnabled reports whether mutating RPCs require a coordinator token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.SpenderID == "" {
		return fmt.Errorf("SPENDER_ID is required")
	}
	if c.AuthEnabled() && c.CoordinatorPasswordHash == "" {
		return fmt.Errorf("COORDINATOR_PASSWORD_HASH is required when JWT_SECRET is set")
	}
	return nil
}
