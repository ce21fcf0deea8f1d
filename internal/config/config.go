package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds server settings read from the environment.
type Config struct {
	Port      int    `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// DatabaseURL selects the Postgres room store. Empty runs with the
	// in-memory store, which loses rooms on restart.
	DatabaseURL string `env:"DATABASE_URL"`

	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"30s"`
	EmptyRoomGrace  time.Duration `env:"EMPTY_ROOM_GRACE" envDefault:"5m"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
