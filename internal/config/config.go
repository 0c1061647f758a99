// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and environment variables over those defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"

	"github.com/okian/meetscore/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory recompute queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds how many recompute request IDs are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxBodyBytes caps request bodies on the JSON API.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// Meet is applied to meets created without their own configuration.
	Meet model.Config `koanf:"meet"`
}

// DefaultMeetConfig returns the championship defaults: 16 scoring places,
// 20 points for a win and relays worth double.
func DefaultMeetConfig() model.Config {
	return model.Config{
		ScoringPlaces:      16,
		ScoringStartPoints: 20,
		RelayMultiplier:    2,
		MaxAthletes:        18,
		DiverRatio:         0.333,
		MaxIndivEvents:     4,
		MaxRelays:          4,
		MaxDivingEvents:    2,
		DivingIncluded:     true,
		CorrectionFactor:   0.5,
	}
}

// New creates a Config holding defaults. Context is accepted first to
// satisfy the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		Addr:         ":9080",
		QueueSize:    1024,
		WorkerCount:  runtime.NumCPU(),
		DedupeSize:   10_000,
		MaxBodyBytes: 8 << 20,
		Meet:         DefaultMeetConfig(),
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	case c.Meet.DiverRatio < 0 || c.Meet.DiverRatio > 1:
		return fmt.Errorf("%w: meet.diver_ratio must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}
