// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianAtlas/pkg/logging"
	"github.com/AleutianAI/AleutianAtlas/services/atlas/config"
	"github.com/AleutianAI/AleutianAtlas/services/atlas/telemetry"
)

// Shared state initialized by the root PersistentPreRunE and consumed
// by the subcommands.
var (
	cfg               config.Config
	logger            *logging.Logger
	telemetryShutdown func(context.Context) error

	configPath string
	graphFlag  string
	outputFlag string
	levelFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Iterative code-graph knowledge enrichment",
	Long: `Atlas loads a producer-generated code graph and enriches it in layers:
structural classification, semantic patterns, and domain knowledge.
Each iteration re-derives every layer and corroborates stable facts;
runs converge when the enrichment state stops changing.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		// CLI flags win over the config file.
		if graphFlag != "" {
			cfg.Graph.Path = graphFlag
		}
		if outputFlag != "" {
			cfg.Output.Dir = outputFlag
		}
		if levelFlag != "" {
			cfg.Observability.LogLevel = levelFlag
		}

		logger, err = logging.New(logging.Config{
			Level:  logging.ParseLevel(cfg.Observability.LogLevel),
			LogDir: cfg.Observability.LogDir,
		})
		if err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		logger.SetAsDefault()

		telemetryShutdown, err = telemetry.Init(cmd.Context(), telemetryConfig())
		if err != nil {
			return fmt.Errorf("initialize telemetry: %w", err)
		}

		if cfg.Observability.MetricsAddr != "" {
			startMetricsServer(cfg.Observability.MetricsAddr)
		}
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if telemetryShutdown != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetryShutdown(ctx); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err)
			}
		}
		if logger != nil {
			logger.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to atlas.yaml (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&graphFlag, "graph", "", "Path to the code graph artifact (overrides config)")
	rootCmd.PersistentFlags().StringVar(&outputFlag, "output", "", "Knowledge output directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&levelFlag, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// telemetryConfig maps the observability settings onto the telemetry
// exporter surface.
func telemetryConfig() telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = buildVersion
	if cfg.Observability.TracingStdout {
		tc.TraceExporter = "stdout"
	}
	if cfg.Observability.MetricsAddr != "" {
		tc.MetricExporter = "prometheus"
	}
	return tc
}

// startMetricsServer exposes /metrics in the background. A failed
// listener is logged, never fatal; enrichment does not depend on it.
func startMetricsServer(addr string) {
	handler := telemetry.MetricsHandler()
	if handler == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
}
