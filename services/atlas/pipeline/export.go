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
	"github.com/AleutianAI/AleutianAtlas/services/atlas/enrich"
	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
)

// EnrichedNode is one base-graph node with its enrichment attached.
type EnrichedNode struct {
	*graph.Node

	// Enrichment holds the node's layer records. Nil layers were never
	// produced for this node.
	Enrichment *enrich.Record `json:"enrichment"`
}

// EnrichedGraph is the final output document: the validated base graph
// in its original node/edge shape, each node carrying its enrichment.
//
// Nodes are ordered by ID and edges keep graph order, so serializing
// the same run twice yields byte-identical output.
type EnrichedGraph struct {
	Metadata graph.GraphMetadata `json:"metadata"`
	Nodes    []EnrichedNode      `json:"nodes"`
	Edges    []*graph.Edge       `json:"edges"`
}

// BuildEnrichedGraph joins the frozen base graph with the final
// enrichment state.
//
// # Inputs
//
//   - g: Frozen base graph. Required.
//   - store: Final enrichment state. Required.
//
// # Outputs
//
//   - *EnrichedGraph: The joined document.
//   - error: ErrInvalidInput on nil arguments, ErrGraphNotReady when
//     the graph is not frozen.
func BuildEnrichedGraph(g *graph.Graph, store *enrich.Store) (*EnrichedGraph, error) {
	if g == nil || store == nil {
		return nil, ErrInvalidInput
	}
	if g.State() != graph.StateReadOnly {
		return nil, ErrGraphNotReady
	}

	ids := g.NodeIDs()
	out := &EnrichedGraph{
		Metadata: g.Metadata,
		Nodes:    make([]EnrichedNode, 0, len(ids)),
		Edges:    g.Edges(),
	}
	for _, id := range ids {
		out.Nodes = append(out.Nodes, EnrichedNode{
			Node:       g.Node(id),
			Enrichment: store.Record(id),
		})
	}
	return out, nil
}
