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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and validate the code graph without enriching it",
	Long: `Load the graph artifact, check referential integrity, and report what
a run would see: node and edge counts plus every dangling edge that
would be dropped. Exits non-zero only when the artifact itself is
unloadable; dangling edges are warnings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, validation, err := graph.LoadFile(cfg.Graph.Path,
			graph.WithMaxNodes(cfg.Graph.MaxNodes),
			graph.WithMaxEdges(cfg.Graph.MaxEdges),
		)
		if err != nil {
			return fmt.Errorf("load graph %s: %w", cfg.Graph.Path, err)
		}

		fmt.Printf("%s: %d nodes, %d edges\n", cfg.Graph.Path, g.NodeCount(), g.EdgeCount())
		if len(validation.DroppedEdges) == 0 {
			fmt.Println("no dangling edges")
			return nil
		}

		fmt.Printf("%d dangling edge(s) dropped:\n", len(validation.DroppedEdges))
		for _, dangling := range validation.DroppedEdges {
			fmt.Printf("  %s %s -> %s (missing %s)\n",
				dangling.Type, dangling.Source, dangling.Target, dangling.MissingEnd)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
