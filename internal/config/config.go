package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// MaxConnsPerCustomer caps concurrent websocket sessions per customer.
	MaxConnsPerCustomer int `env:"MAX_CONNS_PER_CUSTOMER" default:"8"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// InMemory reports whether the server should run against the in-memory store.
// An empty DATABASE_URL selects it; production deployments always set the URL.
func (c *Config) InMemory() bool {
	return c.DatabaseURL == ""
}

func validate(cfg *Config) error {
	if cfg.MaxConnsPerCustomer < 1 {
		return fmt.Errorf("MAX_CONNS_PER_CUSTOMER must be at least 1, got %d", cfg.MaxConnsPerCustomer)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", cfg.ShutdownTimeout)
	}
	return nil
}
