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
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianAtlas/pkg/ux"
	"github.com/AleutianAI/AleutianAtlas/services/atlas/artifacts"
	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
	"github.com/AleutianAI/AleutianAtlas/services/atlas/index"
	"github.com/AleutianAI/AleutianAtlas/services/atlas/pipeline"
)

var (
	iterationsFlag int
	workersFlag    int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run the iterative enrichment pipeline",
	Long: `Load the code graph, run structural, semantic, and domain passes until
the enrichment state converges or the iteration cap is reached, then
write enriched-graph.json, entity-index.json, and run-summary.json to
the knowledge directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := runEnrichment(cmd.Context())
		if err != nil {
			return err
		}
		printSummary(summary)
		return nil
	},
}

func init() {
	enrichCmd.Flags().IntVar(&iterationsFlag, "iterations", 0, "Iteration cap (overrides config)")
	enrichCmd.Flags().IntVar(&workersFlag, "workers", 0, "Enrichment worker count (overrides config)")
	rootCmd.AddCommand(enrichCmd)
}

// runEnrichment executes one complete enrichment run against the
// configured graph. Shared by the enrich and watch commands; watch
// calls it once per graph change.
func runEnrichment(ctx context.Context) (*pipeline.Summary, error) {
	g, validation, err := graph.LoadFile(cfg.Graph.Path,
		graph.WithMaxNodes(cfg.Graph.MaxNodes),
		graph.WithMaxEdges(cfg.Graph.MaxEdges),
	)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", cfg.Graph.Path, err)
	}
	logger.Info("graph loaded",
		"path", cfg.Graph.Path,
		"nodes", validation.NodeCount,
		"edges", validation.EdgeCount,
		"dropped_edges", len(validation.DroppedEdges),
	)

	writer, err := artifacts.NewWriter(cfg.Output.Dir)
	if err != nil {
		return nil, fmt.Errorf("open output directory %s: %w", cfg.Output.Dir, err)
	}

	engineCfg := pipeline.Config{
		RunID:         uuid.NewString(),
		MaxIterations: cfg.Run.MaxIterations,
		Workers:       cfg.Run.Workers,
		Sink:          writer,
	}
	if iterationsFlag > 0 {
		engineCfg.MaxIterations = iterationsFlag
	}
	if workersFlag > 0 {
		engineCfg.Workers = workersFlag
	}

	snapshots, err := openSnapshots()
	if err != nil {
		return nil, err
	}
	if snapshots != nil {
		engineCfg.Snapshots = snapshots
		defer snapshots.Close()
	}

	engine, err := pipeline.New(g, engineCfg)
	if err != nil {
		return nil, err
	}

	spinner := ux.NewSpinner(fmt.Sprintf("enriching %d nodes", g.NodeCount()))
	spinner.Start()
	result, err := engine.Run(ctx)
	spinner.Stop()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", engineCfg.RunID, err)
	}

	writeFinalArtifacts(ctx, writer, g, result)

	summary := pipeline.BuildSummary(g, validation, result)
	if err := writer.Write(ctx, "run-summary", summary); err != nil {
		summary.FailedArtifacts = append(summary.FailedArtifacts, "run-summary")
		logger.Warn("artifact write failed", "artifact", "run-summary", "error", err)
	}
	return summary, nil
}

// openSnapshots builds the configured snapshot store, or nil when
// snapshots are off.
func openSnapshots() (*artifacts.SnapshotStore, error) {
	switch cfg.Output.SnapshotStore {
	case "badger":
		store, err := artifacts.OpenSnapshotStore(artifacts.DefaultSnapshotConfig(cfg.Output.SnapshotPath))
		if err != nil {
			return nil, fmt.Errorf("open snapshot store %s: %w", cfg.Output.SnapshotPath, err)
		}
		return store, nil
	case "memory":
		return artifacts.OpenSnapshotStore(artifacts.SnapshotConfig{InMemory: true})
	default:
		return nil, nil
	}
}

// writeFinalArtifacts writes the run-level artifacts. A failed write is
// recorded on the result and logged; it never fails the run.
func writeFinalArtifacts(ctx context.Context, writer *artifacts.Writer, g *graph.Graph, result *pipeline.Result) {
	write := func(name string, payload any) {
		if err := writer.Write(ctx, name, payload); err != nil {
			result.FailedArtifacts = append(result.FailedArtifacts, name)
			logger.Warn("artifact write failed", "artifact", name, "error", err)
		}
	}

	enriched, err := pipeline.BuildEnrichedGraph(g, result.Store)
	if err != nil {
		result.FailedArtifacts = append(result.FailedArtifacts, "enriched-graph")
		logger.Warn("enriched graph build failed", "error", err)
	} else {
		write("enriched-graph", enriched)
	}

	idx, err := index.Build(ctx, g, result.Store)
	if err != nil {
		result.FailedArtifacts = append(result.FailedArtifacts, "entity-index")
		logger.Warn("entity index build failed", "error", err)
	} else {
		write("entity-index", idx)
	}
}

// printSummary renders the run summary for a human, with color when
// stdout is a terminal.
func printSummary(s *pipeline.Summary) {
	status := string(s.Status)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		color := "\033[33m" // yellow for anything short of convergence
		if s.Status == pipeline.StatusConverged {
			color = "\033[32m"
		}
		status = color + status + "\033[0m"
	}

	fmt.Printf("Run %s: %s after %d iteration(s)\n", s.RunID, status, s.Iterations)
	fmt.Printf("  graph: %d nodes, %d edges (%d dropped)\n", s.Nodes, s.Edges, s.DroppedEdges)
	if s.ErroredNodes > 0 {
		fmt.Printf("  errored nodes: %d\n", s.ErroredNodes)
	}

	fmt.Printf("  classifications: %s\n", formatCounts(s.Classifications))
	if len(s.Patterns) > 0 {
		fmt.Printf("  patterns: %s\n", formatCounts(s.Patterns))
	}
	if len(s.Workflows) > 0 {
		fmt.Printf("  workflows: %s\n", formatCounts(s.Workflows))
	}
	if s.BusinessRules > 0 {
		fmt.Printf("  business rules: %d\n", s.BusinessRules)
	}
	if len(s.FailedArtifacts) > 0 {
		fmt.Printf("  failed artifacts: %v\n", s.FailedArtifacts)
	}
	fmt.Printf("  hash: %s\n", s.Hash)
}

// formatCounts renders a count map deterministically, keys sorted.
func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%d", k, counts[k])
	}
	return out
}
