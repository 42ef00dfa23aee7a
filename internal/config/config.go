// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the runtime configuration, loadable from the environment.
// Flags in cmd/server override these values.
type Config struct {
	ServiceName    string        `env:"DATECOORD_SERVICE_NAME" envDefault:"datecoord"`
	Addr           string        `env:"DATECOORD_ADDR" envDefault:"0.0.0.0:8080"`
	DB             string        `env:"DATECOORD_DB" envDefault:"memdb://"`
	OTLPAddr       string        `env:"DATECOORD_OTLP_GRPC"`
	LogLevel       string        `env:"DATECOORD_LOG_LEVEL" envDefault:"INFO"`
	BookingTimeout time.Duration `env:"DATECOORD_BOOKING_TIMEOUT" envDefault:"5s"`
}

// FromEnv loads configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
