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
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
)

// DefaultWorkers caps the per-layer worker pool. Enrichment is CPU-bound
// table evaluation; excessive parallelism only adds scheduling overhead.
const DefaultWorkers = 8

// Pass computes one layer's record for a single node.
//
// # Description
//
// Passes are the composable analysis stages of the engine. Each pass
// owns exactly one layer slot: the structural pass writes Layer1, the
// semantic pass Layer2, the domain pass Layer3. A pass may read the
// current iteration's earlier-layer slots of any node (they are fully
// written before the pass starts) and the snapshot history of prior
// iterations, but never another node's own-layer slot.
//
// # Implementation Requirements
//
//   - Must be deterministic: same (graph, history, iteration) inputs
//     produce byte-identical output regardless of scheduling.
//   - Must sort every list-valued field.
//   - Must not mutate the graph or the history.
//   - Must return errors instead of panicking; panics are recovered by
//     the runner and isolated to the offending node.
//
// # Thread Safety
//
// Implementations must be safe for concurrent per-node invocation.
type Pass interface {
	// Name returns a short lowercase identifier for logging and metrics.
	Name() string

	// Layer returns the layer this pass owns.
	Layer() Layer

	// EnrichNode computes the pass's record for one node and writes it
	// into target.Record's own-layer slot.
	EnrichNode(ctx context.Context, target *Target) error
}

// Target provides everything a pass needs to enrich one node.
//
// Read-only after construction except for Record, which the pass fills.
type Target struct {
	// Node is the node being enriched.
	Node *graph.Node

	// Graph is the frozen base graph.
	Graph *graph.Graph

	// Record is the node's live record. The pass writes its own layer
	// slot; earlier-layer slots are complete and readable.
	Record *Record

	// Store is the full enrichment store. Passes use it for read-only
	// cross-node lookups of earlier layers (never of their own layer).
	Store *Store

	// History is the ordered sequence of prior-iteration snapshots,
	// oldest first. Immutable.
	History []*Snapshot

	// Iteration is the 1-based current iteration number.
	Iteration int
}

// PassReport summarizes one pass execution over the whole graph.
type PassReport struct {
	// Layer is the pass's layer.
	Layer Layer `json:"layer"`

	// Nodes is the number of nodes processed.
	Nodes int `json:"nodes"`

	// Errored is the number of nodes whose enrichment failed and was
	// isolated into an error marker.
	Errored int `json:"errored"`

	// Duration is the wall-clock pass duration.
	Duration time.Duration `json:"duration_ns"`
}

// RunPass executes a pass over every node using a bounded worker pool.
//
// # Description
//
// Nodes are distributed to workers over a channel; each worker writes
// only its own node's layer slot, so no synchronization is needed on the
// store. A panic or error while enriching one node is recorded as an
// error marker in that node's layer slot and processing continues; only
// precondition failures (nil inputs, unfrozen graph) abort the pass.
//
// Because every per-node output is independent and list-valued fields
// are sorted by the passes, concurrent execution is byte-identical to
// sequential execution.
//
// # Inputs
//
//   - ctx: Context for cancellation between nodes.
//   - p: The pass to run.
//   - g: The frozen base graph.
//   - store: The enrichment store (one record per node).
//   - history: Prior-iteration snapshots, oldest first.
//   - iteration: 1-based iteration number.
//   - workers: Worker pool size; DefaultWorkers when <= 0.
//
// # Outputs
//
//   - *PassReport: Node and error counts.
//   - error: ErrInvalidInput or ErrGraphNotReady on precondition
//     failure, ctx.Err() on cancellation. Per-node failures are NOT
//     returned here; they live in the layer records.
func RunPass(
	ctx context.Context,
	p Pass,
	g *graph.Graph,
	store *Store,
	history []*Snapshot,
	iteration int,
	workers int,
) (*PassReport, error) {
	if ctx == nil || p == nil || g == nil || store == nil {
		return nil, ErrInvalidInput
	}
	if g.State() != graph.StateReadOnly {
		return nil, ErrGraphNotReady
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > runtime.NumCPU() {
		workers = runtime.NumCPU()
	}

	ctx, span := tracer.Start(ctx, "enrich.RunPass")
	defer span.End()
	span.SetAttributes(
		attribute.String("pass", p.Name()),
		attribute.Int("iteration", iteration),
		attribute.Int("nodes", g.NodeCount()),
	)

	start := time.Now()
	report := &PassReport{Layer: p.Layer(), Nodes: g.NodeCount()}

	// Errored is the only shared counter; workers report through the
	// channel-free errgroup and the slice below to stay deterministic.
	errored := make([]bool, len(g.NodeIDs()))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, id := range g.NodeIDs() {
		i, id := i, id
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			target := &Target{
				Node:      g.Node(id),
				Graph:     g,
				Record:    store.Record(id),
				Store:     store,
				History:   history,
				Iteration: iteration,
			}
			if err := enrichOne(egCtx, p, target); err != nil {
				errored[i] = true
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	for _, e := range errored {
		if e {
			report.Errored++
		}
	}
	report.Duration = time.Since(start)

	recordPassMetrics(ctx, p.Name(), report)
	span.SetAttributes(attribute.Int("errored", report.Errored))
	span.SetStatus(codes.Ok, "")

	slog.Debug("pass completed",
		slog.String("pass", p.Name()),
		slog.Int("iteration", iteration),
		slog.Int("nodes", report.Nodes),
		slog.Int("errored", report.Errored),
		slog.Duration("duration", report.Duration),
	)

	return report, nil
}

// enrichOne runs the pass on a single node with panic isolation. On
// failure the node's layer slot carries an error marker instead of a
// result; the returned error only feeds the report counter.
func enrichOne(ctx context.Context, p Pass, target *Target) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			slog.Error("panic enriching node",
				slog.String("pass", p.Name()),
				slog.String("node_id", target.Node.ID),
				slog.Any("panic", r),
				slog.String("stack", string(buf[:n])),
			)
			err = fmt.Errorf("%w: panic: %v", ErrNodeFailed, r)
			target.Record.setLayerError(p.Layer(), fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := p.EnrichNode(ctx, target); err != nil {
		target.Record.setLayerError(p.Layer(), err.Error())
		return fmt.Errorf("%w: %v", ErrNodeFailed, err)
	}
	return nil
}

// setLayerError writes an error marker into the record's slot for the
// given layer, replacing any partial result the pass produced.
func (r *Record) setLayerError(layer Layer, reason string) {
	switch layer {
	case LayerStructural:
		r.Layer1 = &Layer1Result{Status: StatusError, Reason: reason}
	case LayerSemantic:
		r.Layer2 = &Layer2Result{Status: StatusError, Reason: reason}
	case LayerDomain:
		r.Layer3 = &Layer3Result{Status: StatusError, Reason: reason}
	}
}
