// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the Atlas run configuration.
//
// # Description
//
// Configuration comes from an optional YAML file layered over defaults.
// Every load is validated; an invalid configuration is rejected at
// startup, never at mid-run.
//
// # Thread Safety
//
// A Config is safe to read concurrently. Not safe to modify after load.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates the configuration failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full Atlas configuration.
type Config struct {
	// Graph contains base-graph input settings.
	Graph GraphConfig `json:"graph" yaml:"graph"`

	// Run contains enrichment run settings.
	Run RunConfig `json:"run" yaml:"run"`

	// Output contains artifact and snapshot settings.
	Output OutputConfig `json:"output" yaml:"output"`

	// Observability contains logging and telemetry settings.
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// GraphConfig contains base-graph input settings.
type GraphConfig struct {
	// Path is the producer's graph artifact.
	Path string `json:"path" yaml:"path" validate:"required"`

	// MaxNodes and MaxEdges bound graph loading.
	MaxNodes int `json:"max_nodes" yaml:"max_nodes" validate:"min=1"`
	MaxEdges int `json:"max_edges" yaml:"max_edges" validate:"min=1"`
}

// RunConfig contains enrichment run settings.
type RunConfig struct {
	// MaxIterations caps the iteration loop.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations" validate:"min=1,max=100"`

	// Workers is the per-pass worker pool size.
	Workers int `json:"workers" yaml:"workers" validate:"min=1,max=256"`
}

// OutputConfig contains artifact and snapshot settings.
type OutputConfig struct {
	// Dir is the knowledge directory for JSON artifacts.
	Dir string `json:"dir" yaml:"dir" validate:"required"`

	// SnapshotStore selects snapshot persistence: "badger", "memory",
	// or "off".
	SnapshotStore string `json:"snapshot_store" yaml:"snapshot_store" validate:"oneof=badger memory off"`

	// SnapshotPath is the BadgerDB directory; required when
	// SnapshotStore is "badger".
	SnapshotPath string `json:"snapshot_path" yaml:"snapshot_path" validate:"required_if=SnapshotStore badger"`
}

// ObservabilityConfig contains logging and telemetry settings.
type ObservabilityConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`

	// LogDir optionally duplicates log output into a file.
	LogDir string `json:"log_dir" yaml:"log_dir"`

	// TracingStdout enables the stdout span exporter.
	TracingStdout bool `json:"tracing_stdout" yaml:"tracing_stdout"`

	// MetricsAddr serves Prometheus metrics when non-empty, for
	// example ":9464".
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Graph: GraphConfig{
			Path:     ".ai-gov/code-graph.json",
			MaxNodes: 1_000_000,
			MaxEdges: 10_000_000,
		},
		Run: RunConfig{
			MaxIterations: 5,
			Workers:       8,
		},
		Output: OutputConfig{
			Dir:           ".ai-gov/knowledge",
			SnapshotStore: "off",
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path returns validated defaults.
//
// # Outputs
//
//   - Config: The effective configuration.
//   - error: Read/parse failure, or ErrInvalidConfig (wrapped) with the
//     failing fields.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
