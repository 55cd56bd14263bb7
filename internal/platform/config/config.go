package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is centralized process configuration, parsed from the environment.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName         string        `env:"SERVICE_NAME" envDefault:"arbiter"`
	HTTPPort            string        `env:"HTTP_PORT" envDefault:"8080"`
	PostgresDSN         string        `env:"POSTGRES_DSN"`
	PostgresPingTimeout time.Duration `env:"POSTGRES_PING_TIMEOUT" envDefault:"5s"`

	// Consensus policy. Thresholds are configuration, never call-site
	// constants.
	AcceptThreshold     float64 `env:"REVIEW_ACCEPT_THRESHOLD" envDefault:"7.0"`
	RejectThreshold     float64 `env:"REVIEW_REJECT_THRESHOLD" envDefault:"4.0"`
	DivergenceThreshold float64 `env:"REVIEW_DIVERGENCE_THRESHOLD" envDefault:"2.0"`
	MinQuorum           int     `env:"REVIEW_MIN_QUORUM" envDefault:"2"`
	ConfidenceFloor     float64 `env:"REVIEW_CONFIDENCE_FLOOR" envDefault:"0.5"`
	ConfidenceCeiling   float64 `env:"REVIEW_CONFIDENCE_CEILING" envDefault:"1.5"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	EventDedupTTL      time.Duration `env:"EVENT_DEDUP_TTL" envDefault:"168h"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
