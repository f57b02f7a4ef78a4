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
	"encoding/json"
	"fmt"
	"os"
)

// document is the wire shape of a base-graph JSON file.
type document struct {
	Nodes    []*Node       `json:"nodes"`
	Edges    []*Edge       `json:"edges"`
	Metadata GraphMetadata `json:"metadata"`
}

// Parse builds a graph from a base-graph JSON document.
//
// # Description
//
// Decodes the producer's {nodes, edges, metadata} document and runs the
// build sequence: AddNode for every node (fatal on malformed nodes or
// duplicate IDs), AddEdge for every edge, then Validate to drop dangling
// edges, then Freeze. The returned graph is read-only.
//
// # Inputs
//
//   - data: Raw JSON bytes from the producer.
//   - opts: Optional graph limits.
//
// # Outputs
//
//   - *Graph: The frozen graph.
//   - *ValidationResult: Counts and dangling-edge warnings.
//   - error: ErrInvalidGraph (wrapped) on malformed input.
func Parse(data []byte, opts ...Option) (*Graph, *ValidationResult, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidGraph, err)
	}
	if len(doc.Nodes) == 0 {
		return nil, nil, fmt.Errorf("%w: document has no nodes", ErrInvalidGraph)
	}

	g := New(opts...)
	g.Metadata = doc.Metadata

	for _, n := range doc.Nodes {
		if err := g.AddNode(n); err != nil {
			return nil, nil, err
		}
	}
	for _, e := range doc.Edges {
		if err := g.AddEdge(e); err != nil {
			return nil, nil, err
		}
	}

	result, err := g.Validate()
	if err != nil {
		return nil, nil, err
	}
	if err := g.Freeze(); err != nil {
		return nil, nil, err
	}

	return g, result, nil
}

// LoadFile reads and parses a base-graph JSON file.
//
// # Inputs
//
//   - path: Path to the producer's code-graph.json.
//   - opts: Optional graph limits.
//
// # Outputs
//
//   - *Graph: The frozen graph.
//   - *ValidationResult: Counts and dangling-edge warnings.
//   - error: Non-nil on read or parse failure.
func LoadFile(path string, opts ...Option) (*Graph, *ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read base graph: %w", err)
	}
	return Parse(data, opts...)
}
