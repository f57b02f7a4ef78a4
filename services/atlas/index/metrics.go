// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package index

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for index operations.
var (
	tracer = otel.Tracer("atlas.index")
	meter  = otel.Meter("atlas.index")
)

// Metrics for index operations.
var (
	buildLatency  metric.Float64Histogram
	entriesGauged metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"index_build_duration_seconds",
			metric.WithDescription("Duration of entity index construction"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		entriesGauged, err = meter.Int64Counter(
			"index_entries_total",
			metric.WithDescription("Total entity index entries produced"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

// recordBuildMetrics records one index build. Metric initialization
// failures are swallowed.
func recordBuildMetrics(ctx context.Context, entries int, elapsed time.Duration) {
	if initMetrics() != nil {
		return
	}
	buildLatency.Record(ctx, elapsed.Seconds())
	entriesGauged.Add(ctx, int64(entries))
}
