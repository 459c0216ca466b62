package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	ListenAddr      string        `env:"USERREG_LISTEN_ADDR"      envDefault:":8000"` // HTTP listen address
	GRPCAddr        string        `env:"USERREG_GRPC_ADDR"`                           // gRPC health listen address, disabled when empty
	LogLevel        string        `env:"USERREG_LOG_LEVEL"        envDefault:"info"`
	LogDev          bool          `env:"USERREG_LOG_DEV"          envDefault:"false"` // console encoder instead of JSON
	AllowedOrigins  []string      `env:"USERREG_ALLOWED_ORIGINS"  envDefault:"*"     envSeparator:","`
	ShutdownTimeout time.Duration `env:"USERREG_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	FeedBuffer      int           `env:"USERREG_FEED_BUFFER"      envDefault:"16"` // per-subscriber change feed buffer
}

// Load reads configuration from environment variables, falling back to defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.FeedBuffer < 1 {
		return nil, fmt.Errorf("USERREG_FEED_BUFFER must be positive, got %d", cfg.FeedBuffer)
	}
	return &cfg, nil
}
