package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Backend API
	APIBaseURL string `env:"API_URL" envDefault:"http://localhost:8000"`

	// Session persistence. Empty means the default location under the
	// user config directory.
	SessionFile string `env:"SESSION_FILE"`

	// Stub backend
	StubAddr      string `env:"STUB_ADDR" envDefault:":8000"`
	StubJWTSecret string `env:"STUB_JWT_SECRET" envDefault:"dev-secret"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
