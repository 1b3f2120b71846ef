// Package config loads the runtime settings of the oxyanim command from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/internal/logging"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for settings that cannot drive an engine.
var ErrInvalidConfig = errors.New("config: invalid")

// Config holds engine, definition and metrics settings.
type Config struct {
	// TickRate is the engine rate in ticks per second.
	TickRate float64 `yaml:"tick_rate"`

	// Workers is the size of the pool coordinators are ticked on.
	Workers int `yaml:"workers"`

	// QueueSize is the task queue capacity of the pool.
	QueueSize int `yaml:"queue_size"`

	// IdleTimeout is how long a surplus worker idles before exiting, for example "1s".
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Definitions is the directory animation definitions are loaded from.
	Definitions string `yaml:"definitions"`

	// Watch reloads definitions when their files change.
	Watch bool `yaml:"watch"`

	// MetricsAddr serves Prometheus metrics when set, for example ":9090".
	MetricsAddr string `yaml:"metrics_addr"`

	// Profiling logs periodic runtime statistics.
	Profiling bool `yaml:"profiling"`
}

// Default returns the settings used when no file is given.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		TickRate:    60,
		Workers:     4,
		QueueSize:   256,
		IdleTimeout: time.Second,
		LogLevel:    "info",
		Definitions: "animations",
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
//
// Parameters:
//   - path: the file path or ""
//
// Returns:
//   - Config: the loaded settings
//   - error: a read, parse or validation error
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the settings
//   - error: ErrInvalidConfig wrapping the problem
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the settings can drive an engine.
//
// Returns:
//   - error: ErrInvalidConfig naming the first bad field
func (c Config) Validate() error {
	switch {
	case c.TickRate <= 0:
		return fmt.Errorf("%w: tick_rate must be positive, got %v", ErrInvalidConfig, c.TickRate)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.IdleTimeout < 0:
		return fmt.Errorf("%w: idle_timeout must not be negative, got %s", ErrInvalidConfig, c.IdleTimeout)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Level returns the parsed log level, info when it cannot be parsed.
//
// Returns:
//   - slog.Level: the level
func (c Config) Level() slog.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}
