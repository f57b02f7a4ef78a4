// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package enrich

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for enrichment operations.
var (
	tracer = otel.Tracer("atlas.enrich")
	meter  = otel.Meter("atlas.enrich")
)

// Metrics for enrichment operations.
var (
	passLatency   metric.Float64Histogram
	passTotal     metric.Int64Counter
	nodesEnriched metric.Int64Counter
	nodesErrored  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		passLatency, err = meter.Float64Histogram(
			"enrich_pass_duration_seconds",
			metric.WithDescription("Duration of one layer pass over the whole graph"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		passTotal, err = meter.Int64Counter(
			"enrich_pass_total",
			metric.WithDescription("Total number of layer pass executions"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesEnriched, err = meter.Int64Counter(
			"enrich_nodes_total",
			metric.WithDescription("Total nodes processed across all passes"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesErrored, err = meter.Int64Counter(
			"enrich_node_errors_total",
			metric.WithDescription("Total per-node enrichment failures isolated into error markers"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

// recordPassMetrics records the outcome of one pass execution. Metric
// initialization failures are swallowed: observability must never fail
// an enrichment run.
func recordPassMetrics(ctx context.Context, pass string, report *PassReport) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("pass", pass))
	passLatency.Record(ctx, report.Duration.Seconds(), attrs)
	passTotal.Add(ctx, 1, attrs)
	nodesEnriched.Add(ctx, int64(report.Nodes), attrs)
	nodesErrored.Add(ctx, int64(report.Errored), attrs)
}
