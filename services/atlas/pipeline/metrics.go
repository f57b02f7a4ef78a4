// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for pipeline operations.
var (
	tracer = otel.Tracer("atlas.pipeline")
	meter  = otel.Meter("atlas.pipeline")
)

// Metrics for pipeline operations.
var (
	runLatency       metric.Float64Histogram
	runsTotal        metric.Int64Counter
	iterationsPerRun metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runLatency, err = meter.Float64Histogram(
			"pipeline_run_duration_seconds",
			metric.WithDescription("Wall-clock duration of a full enrichment run"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runsTotal, err = meter.Int64Counter(
			"pipeline_runs_total",
			metric.WithDescription("Total enrichment runs by terminal status"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		iterationsPerRun, err = meter.Int64Histogram(
			"pipeline_iterations_per_run",
			metric.WithDescription("Iterations executed before the run terminated"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

// recordRunMetrics records one terminal run outcome. Metric
// initialization failures are swallowed: observability must never fail
// an enrichment run.
func recordRunMetrics(ctx context.Context, status Status, iterations int, elapsed time.Duration) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", string(status)))
	runLatency.Record(ctx, elapsed.Seconds(), attrs)
	runsTotal.Add(ctx, 1, attrs)
	iterationsPerRun.Record(ctx, int64(iterations), attrs)
}
