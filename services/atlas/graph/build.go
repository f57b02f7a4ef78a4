// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"fmt"
	"sort"
)

// AddNode adds a node to the graph.
//
// # Description
//
// Validates the node's required fields and ID uniqueness. Duplicate IDs
// are a fatal input error per the validation contract: they indicate a
// broken producer, not a recoverable edge case.
//
// # Inputs
//
//   - node: The node to add. Must have a non-empty ID, valid Type, and
//     non-empty Name.
//
// # Outputs
//
//   - error: ErrGraphFrozen, ErrTooManyNodes, or ErrInvalidGraph (wrapped
//     with detail) on failure.
func (g *Graph) AddNode(node *Node) error {
	if g.state != StateBuilding {
		return ErrGraphFrozen
	}
	if node == nil {
		return fmt.Errorf("%w: nil node", ErrInvalidGraph)
	}
	if node.ID == "" {
		return fmt.Errorf("%w: node %q has empty id", ErrInvalidGraph, node.Name)
	}
	if !node.Type.Valid() {
		return fmt.Errorf("%w: node %s has unknown type %q", ErrInvalidGraph, node.ID, node.Type)
	}
	if node.Name == "" {
		return fmt.Errorf("%w: node %s has empty name", ErrInvalidGraph, node.ID)
	}
	if _, exists := g.nodes[node.ID]; exists {
		return fmt.Errorf("%w: duplicate node id %s", ErrInvalidGraph, node.ID)
	}
	if len(g.nodes) >= g.options.MaxNodes {
		return fmt.Errorf("%w: limit %d", ErrTooManyNodes, g.options.MaxNodes)
	}

	g.nodes[node.ID] = node
	return nil
}

// AddEdge adds a directed edge to the graph.
//
// # Description
//
// The edge type must be known; endpoint existence is deliberately NOT
// checked here. Dangling edges are a recoverable producer defect and are
// dropped with a warning by Validate(), per the referential-integrity
// invariant.
//
// # Inputs
//
//   - edge: The edge to add. Must have non-empty endpoints and a valid type.
//
// # Outputs
//
//   - error: ErrGraphFrozen, ErrTooManyEdges, or ErrInvalidGraph on failure.
func (g *Graph) AddEdge(edge *Edge) error {
	if g.state != StateBuilding {
		return ErrGraphFrozen
	}
	if edge == nil {
		return fmt.Errorf("%w: nil edge", ErrInvalidGraph)
	}
	if edge.Source == "" || edge.Target == "" {
		return fmt.Errorf("%w: edge with empty endpoint", ErrInvalidGraph)
	}
	if !edge.Type.Valid() {
		return fmt.Errorf("%w: edge %s->%s has unknown type %q",
			ErrInvalidGraph, edge.Source, edge.Target, edge.Type)
	}
	if len(g.edges) >= g.options.MaxEdges {
		return fmt.Errorf("%w: limit %d", ErrTooManyEdges, g.options.MaxEdges)
	}

	g.edges = append(g.edges, edge)
	return nil
}

// DanglingEdge records one dropped edge for the run summary.
type DanglingEdge struct {
	// Source is the edge's source node ID.
	Source string `json:"source"`

	// Target is the edge's target node ID.
	Target string `json:"target"`

	// Type is the edge type.
	Type EdgeType `json:"type"`

	// MissingEnd names which endpoint was unresolvable ("source",
	// "target", or "both").
	MissingEnd string `json:"missing_end"`
}

// ValidationResult reports the outcome of Validate().
type ValidationResult struct {
	// NodeCount is the number of nodes after validation.
	NodeCount int `json:"node_count"`

	// EdgeCount is the number of edges retained after validation.
	EdgeCount int `json:"edge_count"`

	// DroppedEdges lists edges removed for referential-integrity
	// violations. These are warnings, not fatal errors.
	DroppedEdges []DanglingEdge `json:"dropped_edges,omitempty"`
}

// Validate checks referential integrity and drops dangling edges.
//
// # Description
//
// Every edge whose source or target does not resolve to a known node ID
// is removed from the graph and reported as a warning. The graph is
// never left holding a dangling edge. ID uniqueness is enforced earlier,
// at AddNode time.
//
// # Outputs
//
//   - *ValidationResult: Counts and the dropped-edge report.
//   - error: ErrGraphFrozen if called after Freeze().
func (g *Graph) Validate() (*ValidationResult, error) {
	if g.state != StateBuilding {
		return nil, ErrGraphFrozen
	}

	result := &ValidationResult{NodeCount: len(g.nodes)}

	kept := g.edges[:0]
	for _, e := range g.edges {
		_, srcOK := g.nodes[e.Source]
		_, dstOK := g.nodes[e.Target]
		if srcOK && dstOK {
			kept = append(kept, e)
			continue
		}

		missing := "both"
		switch {
		case srcOK:
			missing = "target"
		case dstOK:
			missing = "source"
		}
		result.DroppedEdges = append(result.DroppedEdges, DanglingEdge{
			Source:     e.Source,
			Target:     e.Target,
			Type:       e.Type,
			MissingEnd: missing,
		})
	}
	g.edges = kept
	result.EdgeCount = len(g.edges)

	return result, nil
}

// Freeze finalizes the graph and transitions it to read-only.
//
// # Description
//
// Builds the adjacency indexes and the sorted node-ID slice used for
// deterministic iteration. After Freeze the graph is safe for concurrent
// reads and rejects all mutation.
//
// # Outputs
//
//   - error: ErrGraphFrozen if already frozen.
func (g *Graph) Freeze() error {
	if g.state != StateBuilding {
		return ErrGraphFrozen
	}

	g.nodeIDs = make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		g.nodeIDs = append(g.nodeIDs, id)
	}
	sort.Strings(g.nodeIDs)

	for _, e := range g.edges {
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
		g.incoming[e.Target] = append(g.incoming[e.Target], e)
	}

	g.state = StateReadOnly
	return nil
}
