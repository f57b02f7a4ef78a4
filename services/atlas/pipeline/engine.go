// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline orchestrates iterative enrichment runs over a frozen
// code graph.
//
// # Description
//
// An engine owns one run: it executes the three layer passes per
// iteration, snapshots the enrichment state after every iteration, and
// terminates when the state hash stops moving (convergence), the
// iteration cap is reached, or a stop is requested. Per-iteration layer
// artifacts are streamed to an artifact sink and an optional snapshot
// store as each layer completes, so a crashed run leaves its partial
// history on disk.
//
// # Thread Safety
//
// Run must be called once, from one goroutine. Stop and Status are safe
// to call concurrently with Run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianAtlas/services/atlas/enrich"
	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
)

// DefaultMaxIterations caps a run when the configuration does not.
const DefaultMaxIterations = 5

// Status is the engine lifecycle state.
type Status string

const (
	// StatusIdle means Run has not started.
	StatusIdle Status = "idle"

	// StatusRunning means a run is in progress.
	StatusRunning Status = "running"

	// StatusConverged means the run terminated because an iteration
	// reproduced the previous iteration's enrichment hash.
	StatusConverged Status = "converged"

	// StatusMaxIterations means the run terminated at the iteration cap
	// without converging.
	StatusMaxIterations Status = "max_iterations_reached"

	// StatusStopped means the run honored a stop request at an
	// iteration boundary.
	StatusStopped Status = "stopped"

	// StatusFailed means the run aborted on a non-isolatable error.
	StatusFailed Status = "failed"
)

// ArtifactSink persists one named JSON artifact per call.
type ArtifactSink interface {
	// Write serializes the payload and persists it under the logical
	// artifact name.
	Write(ctx context.Context, name string, payload any) error
}

// SnapshotStore persists per-layer iteration snapshots for a run.
type SnapshotStore interface {
	// PutSnapshot stores one layer's serialized enrichment state.
	PutSnapshot(ctx context.Context, runID string, iteration int, layer string, payload []byte) error
}

// Config holds engine construction parameters.
type Config struct {
	// RunID identifies the run in logs, artifacts, and the snapshot
	// store. Required.
	RunID string

	// MaxIterations caps the iteration loop. DefaultMaxIterations
	// when <= 0.
	MaxIterations int

	// Workers is the per-pass worker pool size; the pass runner applies
	// its own default when <= 0.
	Workers int

	// Sink receives per-iteration layer artifacts. Optional.
	Sink ArtifactSink

	// Snapshots receives per-layer iteration snapshots. Optional.
	Snapshots SnapshotStore
}

// Result is the terminal outcome of one run.
type Result struct {
	// RunID identifies the run.
	RunID string `json:"run_id"`

	// Status is the terminal status.
	Status Status `json:"status"`

	// Iterations is the number of iterations executed.
	Iterations int `json:"iterations"`

	// Hash is the final enrichment state hash.
	Hash string `json:"hash"`

	// Reports holds one pass report per executed (iteration, layer).
	Reports []*enrich.PassReport `json:"reports"`

	// FailedArtifacts lists logical artifact names whose persistence
	// failed. Artifact failures never abort a run.
	FailedArtifacts []string `json:"failed_artifacts,omitempty"`

	// Store is the final enrichment state.
	Store *enrich.Store `json:"-"`

	// History is the per-iteration snapshot sequence, oldest first.
	History []*enrich.Snapshot `json:"-"`
}

// Engine executes one iterative enrichment run.
type Engine struct {
	g      *graph.Graph
	passes []enrich.Pass
	cfg    Config

	mu     sync.Mutex
	status Status
	stop   atomic.Bool
}

// New creates an engine for a frozen graph.
//
// # Inputs
//
//   - g: The frozen base graph.
//   - cfg: Run configuration; RunID is required.
//
// # Outputs
//
//   - *Engine: Ready to Run.
//   - error: ErrInvalidInput or ErrGraphNotReady.
func New(g *graph.Graph, cfg Config) (*Engine, error) {
	if g == nil || cfg.RunID == "" {
		return nil, ErrInvalidInput
	}
	if g.State() != graph.StateReadOnly {
		return nil, ErrGraphNotReady
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}

	return &Engine{
		g: g,
		passes: []enrich.Pass{
			enrich.NewStructuralPass(g),
			enrich.NewSemanticPass(g),
			enrich.NewDomainPass(g),
		},
		cfg:    cfg,
		status: StatusIdle,
	}, nil
}

// Status returns the current lifecycle state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Stop requests a graceful stop. The run finishes its current iteration,
// persists its snapshot, and terminates with StatusStopped. Safe to call
// from any goroutine, any number of times.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// Run executes the iteration loop to a terminal status.
//
// # Description
//
// Each iteration runs the structural, semantic, and domain passes in
// order, persists each layer's state as it completes, snapshots the
// full state, and compares the state hash against the previous
// iteration. A reproduced hash means convergence. Per-node enrichment
// failures are isolated by the pass runner and surface only in the
// reports; only infrastructure failures (cancellation, serialization)
// abort the run.
//
// # Outputs
//
//   - *Result: Terminal status, counts, and the final state. Nil on
//     error.
//   - error: ErrAlreadyRunning / ErrRunFinished on misuse, ctx.Err()
//     on cancellation, or a wrapped pass error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if ctx == nil {
		return nil, ErrInvalidInput
	}
	if err := e.transitionToRunning(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", e.cfg.RunID),
		attribute.Int("max_iterations", e.cfg.MaxIterations),
		attribute.Int("nodes", e.g.NodeCount()),
	)

	start := time.Now()
	result := &Result{
		RunID:  e.cfg.RunID,
		Status: StatusMaxIterations,
		Store:  enrich.NewStore(e.g.NodeIDs()),
	}

	prevHash := ""
	for iter := 1; iter <= e.cfg.MaxIterations; iter++ {
		result.Iterations = iter

		for _, p := range e.passes {
			report, err := enrich.RunPass(ctx, p, e.g, result.Store, result.History, iter, e.cfg.Workers)
			if err != nil {
				e.finish(ctx, span, result, StatusFailed, start)
				return nil, fmt.Errorf("iteration %d %s pass: %w", iter, p.Name(), err)
			}
			result.Reports = append(result.Reports, report)
			e.persistLayer(ctx, result, iter, p.Layer())
		}

		result.History = append(result.History, result.Store.Snapshot(iter))

		hash, err := result.Store.Hash()
		if err != nil {
			e.finish(ctx, span, result, StatusFailed, start)
			return nil, err
		}
		result.Hash = hash

		slog.Info("iteration completed",
			slog.String("run_id", e.cfg.RunID),
			slog.Int("iteration", iter),
			slog.String("hash", hash),
		)

		if hash == prevHash {
			e.finish(ctx, span, result, StatusConverged, start)
			return result, nil
		}
		prevHash = hash

		if e.stop.Load() && iter < e.cfg.MaxIterations {
			e.finish(ctx, span, result, StatusStopped, start)
			return result, nil
		}
	}

	e.finish(ctx, span, result, StatusMaxIterations, start)
	return result, nil
}

// transitionToRunning moves Idle -> Running exactly once.
func (e *Engine) transitionToRunning() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.status {
	case StatusIdle:
		e.status = StatusRunning
		return nil
	case StatusRunning:
		return ErrAlreadyRunning
	default:
		return ErrRunFinished
	}
}

// finish records the terminal status and run metrics.
func (e *Engine) finish(ctx context.Context, span trace.Span, result *Result, status Status, start time.Time) {
	e.mu.Lock()
	e.status = status
	e.mu.Unlock()
	result.Status = status

	elapsed := time.Since(start)
	recordRunMetrics(ctx, status, result.Iterations, elapsed)

	span.SetAttributes(
		attribute.String("status", string(status)),
		attribute.Int("iterations", result.Iterations),
	)
	if status == StatusFailed {
		span.SetStatus(codes.Error, "run failed")
	} else {
		span.SetStatus(codes.Ok, "")
	}

	slog.Info("run finished",
		slog.String("run_id", e.cfg.RunID),
		slog.String("status", string(status)),
		slog.Int("iterations", result.Iterations),
		slog.Duration("elapsed", elapsed),
	)
}

// persistLayer streams one completed layer's state to the artifact sink
// and snapshot store. Persistence failures are recorded and logged,
// never fatal.
func (e *Engine) persistLayer(ctx context.Context, result *Result, iteration int, layer enrich.Layer) {
	name := fmt.Sprintf("iter-%02d-%s", iteration, layer)

	if e.cfg.Sink != nil {
		if err := e.cfg.Sink.Write(ctx, name, result.Store); err != nil {
			result.FailedArtifacts = append(result.FailedArtifacts, name)
			slog.Warn("artifact write failed",
				slog.String("run_id", e.cfg.RunID),
				slog.String("artifact", name),
				slog.Any("error", err),
			)
		}
	}

	if e.cfg.Snapshots != nil {
		payload, err := result.Store.MarshalJSON()
		if err == nil {
			err = e.cfg.Snapshots.PutSnapshot(ctx, e.cfg.RunID, iteration, layer.String(), payload)
		}
		if err != nil {
			slog.Warn("snapshot persist failed",
				slog.String("run_id", e.cfg.RunID),
				slog.String("layer", layer.String()),
				slog.Int("iteration", iteration),
				slog.Any("error", err),
			)
		}
	}
}
