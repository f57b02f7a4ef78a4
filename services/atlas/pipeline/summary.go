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
	"sort"

	"github.com/AleutianAI/AleutianAtlas/services/atlas/enrich"
	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
)

// topConnectedCount is how many highest-degree nodes the summary lists.
const topConnectedCount = 5

// NodeDegree is one entry of the connectivity leaderboard.
type NodeDegree struct {
	// ID is the node ID.
	ID string `json:"id"`

	// Name is the node's display name.
	Name string `json:"name"`

	// Degree is the combined in and out edge count.
	Degree int `json:"degree"`
}

// Summary aggregates a terminal run into the report artifact.
type Summary struct {
	// RunID identifies the run.
	RunID string `json:"run_id"`

	// Status is the terminal run status.
	Status Status `json:"status"`

	// Iterations is the number of iterations executed.
	Iterations int `json:"iterations"`

	// Hash is the final enrichment state hash.
	Hash string `json:"hash"`

	// Nodes and Edges are the base graph sizes after validation.
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`

	// NodesByType and EdgesByType break the graph down by kind.
	NodesByType map[string]int `json:"nodes_by_type"`
	EdgesByType map[string]int `json:"edges_by_type"`

	// DroppedEdges is the number of dangling edges removed during
	// graph validation.
	DroppedEdges int `json:"dropped_edges"`

	// ErroredNodes is the number of distinct nodes carrying at least
	// one layer error marker in the final state.
	ErroredNodes int `json:"errored_nodes"`

	// Classifications counts nodes per layer-1 verdict.
	Classifications map[string]int `json:"classifications"`

	// Patterns counts classes per detected pattern.
	Patterns map[string]int `json:"patterns"`

	// Workflows counts nodes per workflow tag.
	Workflows map[string]int `json:"workflows"`

	// BusinessRules is the number of distinct rule locations.
	BusinessRules int `json:"business_rules"`

	// TopConnected lists the highest-degree nodes, degree descending.
	TopConnected []NodeDegree `json:"top_connected"`

	// FailedArtifacts lists artifact names whose persistence failed.
	FailedArtifacts []string `json:"failed_artifacts,omitempty"`
}

// BuildSummary aggregates the final enrichment state into the summary
// artifact.
//
// # Inputs
//
//   - g: The frozen base graph.
//   - validation: The load-time validation result; may be nil.
//   - result: The terminal run result.
//
// # Outputs
//
//   - *Summary: Aggregated counts. Nil when result is nil.
func BuildSummary(g *graph.Graph, validation *graph.ValidationResult, result *Result) *Summary {
	if g == nil || result == nil {
		return nil
	}

	s := &Summary{
		RunID:           result.RunID,
		Status:          result.Status,
		Iterations:      result.Iterations,
		Hash:            result.Hash,
		Nodes:           g.NodeCount(),
		Edges:           g.EdgeCount(),
		NodesByType:     make(map[string]int),
		EdgesByType:     make(map[string]int),
		Classifications: make(map[string]int),
		Patterns:        make(map[string]int),
		Workflows:       make(map[string]int),
		FailedArtifacts: result.FailedArtifacts,
	}
	if validation != nil {
		s.DroppedEdges = len(validation.DroppedEdges)
	}

	for _, e := range g.Edges() {
		s.EdgesByType[string(e.Type)]++
	}

	ruleLocations := make(map[string]bool)
	for _, id := range g.NodeIDs() {
		node := g.Node(id)
		s.NodesByType[string(node.Type)]++

		record := result.Store.Record(id)
		if record == nil {
			continue
		}
		if record.Layer1 != nil && record.Layer1.Status == enrich.StatusOK {
			s.Classifications[string(record.Layer1.Classification)]++
		}
		if record.Layer2 != nil && record.Layer2.Status == enrich.StatusOK {
			for _, p := range record.Layer2.Patterns {
				s.Patterns[string(p)]++
			}
		}
		if record.Layer3 != nil && record.Layer3.Status == enrich.StatusOK {
			for _, w := range record.Layer3.WorkflowParticipation {
				s.Workflows[w]++
			}
			for _, r := range record.Layer3.BusinessRules {
				ruleLocations[r.Location] = true
			}
		}
		if layerErrored(record) {
			s.ErroredNodes++
		}
	}
	s.BusinessRules = len(ruleLocations)
	s.TopConnected = topConnected(g)

	return s
}

// layerErrored reports whether any layer of the record failed.
func layerErrored(r *enrich.Record) bool {
	if r.Layer1 != nil && r.Layer1.Status == enrich.StatusError {
		return true
	}
	if r.Layer2 != nil && r.Layer2.Status == enrich.StatusError {
		return true
	}
	return r.Layer3 != nil && r.Layer3.Status == enrich.StatusError
}

// topConnected ranks nodes by combined degree, ties broken by node ID
// so the leaderboard is deterministic.
func topConnected(g *graph.Graph) []NodeDegree {
	degrees := make([]NodeDegree, 0, g.NodeCount())
	for _, id := range g.NodeIDs() {
		d := len(g.Outgoing(id)) + len(g.Incoming(id))
		if d == 0 {
			continue
		}
		degrees = append(degrees, NodeDegree{ID: id, Name: g.Node(id).Name, Degree: d})
	}

	sort.Slice(degrees, func(i, j int) bool {
		if degrees[i].Degree != degrees[j].Degree {
			return degrees[i].Degree > degrees[j].Degree
		}
		return degrees[i].ID < degrees[j].ID
	})

	if len(degrees) > topConnectedCount {
		degrees = degrees[:topConnectedCount]
	}
	return degrees
}
