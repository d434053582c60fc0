// SPDX-License-Identifier: AGPL-3.0-or-later
//
// bqport deploys a tree of local SQL files to a BigQuery-shaped warehouse
// and reconciles remote state against what's on disk.

// Package config defines the bqport configuration schema and helpers for
// loading and validating bqport.yml.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist at the given path.
var ErrConfigNotFound = errors.New("bqport config not found")

// Config represents the top-level bqport configuration. CLI flags take
// precedence over every value here; see internal/cli/commands.ResolveFlags.
type Config struct {
	// Project is the ambient project substituted for the @default path segment.
	Project string `yaml:"project"`

	// RootPath is the default root directory scanned for SQL files.
	RootPath string `yaml:"root_path,omitempty"`

	// Concurrency is the default bounded worker-pool size.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Labels are attached to every submitted query job in addition to bqport's own.
	Labels map[string]string `yaml:"labels,omitempty"`

	// MaximumBytesBilled caps the bytes a query job may bill, 0 means unset.
	MaximumBytesBilled int64 `yaml:"maximum_bytes_billed,omitempty"`

	// RateLimitPerMinute bounds the deploy executor's outgoing warehouse
	// RPCs across the whole run; reconciliation RPCs are not throttled.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute,omitempty"`
}

// DefaultConcurrency is used when neither flag nor config specify one.
const DefaultConcurrency = 8

// DefaultRateLimitPerMinute is the default warehouse RPC throttle.
const DefaultRateLimitPerMinute = 500

// DefaultConfigPath returns the default config path for the current working directory.
func DefaultConfigPath() string {
	return "bqport.yml"
}

// Exists reports whether a config file exists at the given path.
// It returns (false, nil) if the file does not exist.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// Load reads and validates the config from the given path.
//
// It returns ErrConfigNotFound if the file does not exist.
func Load(path string) (*Config, error) {
	exists, err := Exists(path)
	if err != nil {
		return nil, fmt.Errorf("checking config existence: %w", err)
	}

	if !exists {
		return nil, ErrConfigNotFound
	}

	// nolint:gosec // reading config file from user-specified path is expected behavior
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = DefaultRateLimitPerMinute
	}
}

func validate(cfg *Config) error {
	if cfg.Concurrency <= 0 {
		return errors.New("config: concurrency must be positive")
	}
	if cfg.RateLimitPerMinute <= 0 {
		return errors.New("config: rate_limit_per_minute must be positive")
	}
	if cfg.MaximumBytesBilled < 0 {
		return errors.New("config: maximum_bytes_billed must not be negative")
	}
	return nil
}
