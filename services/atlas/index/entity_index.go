// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package index builds the entity lookup index from a terminal
// enrichment state.
//
// # Description
//
// The entity index maps every derived domain concept to the nodes that
// carry it, ranked by confidence. Confidence is the concept's
// cross-iteration confirmation count: a fact re-derived in every
// iteration of a converged run scores the iteration count, a
// single-sighting hypothesis scores one. The index is a pure projection
// of the enrichment state and can always be rebuilt from it.
//
// # Thread Safety
//
// An EntityIndex is immutable after Build and safe for concurrent use.
package index

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianAtlas/services/atlas/enrich"
	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
)

// Entry is one node reference under an entity concept.
type Entry struct {
	// NodeID is the graph node carrying the concept.
	NodeID string `json:"node_id"`

	// Name is the node's display name.
	Name string `json:"name"`

	// Path is the node's file path.
	Path string `json:"path"`

	// Confidence is the concept's confirmation count on this node.
	Confidence int `json:"confidence"`
}

// EntityIndex maps domain concepts to their ranked node references.
type EntityIndex struct {
	// Entities maps concept name to entries, confidence descending.
	Entities map[string][]Entry `json:"entities"`
}

// Build projects the enrichment state into an entity index.
//
// # Description
//
// Every node whose domain layer completed contributes one entry per
// derived concept. Entries are ranked confidence descending, ties
// broken by node ID, so the serialized index is deterministic.
//
// # Inputs
//
//   - ctx: Context for tracing.
//   - g: The frozen base graph.
//   - store: The terminal enrichment state.
//
// # Outputs
//
//   - *EntityIndex: The ranked index. Never nil on success.
//   - error: ErrInvalidInput or ErrGraphNotReady.
func Build(ctx context.Context, g *graph.Graph, store *enrich.Store) (*EntityIndex, error) {
	if ctx == nil || g == nil || store == nil {
		return nil, ErrInvalidInput
	}
	if g.State() != graph.StateReadOnly {
		return nil, ErrGraphNotReady
	}

	ctx, span := tracer.Start(ctx, "index.Build")
	defer span.End()

	start := time.Now()
	idx := &EntityIndex{Entities: make(map[string][]Entry)}

	for _, id := range g.NodeIDs() {
		record := store.Record(id)
		if record == nil || record.Layer3 == nil || record.Layer3.Status != enrich.StatusOK {
			continue
		}
		node := g.Node(id)
		for _, concept := range record.Layer3.DomainConcepts {
			idx.Entities[concept] = append(idx.Entities[concept], Entry{
				NodeID:     id,
				Name:       node.Name,
				Path:       node.Path,
				Confidence: conceptConfidence(record.Layer3, concept),
			})
		}
	}

	entries := 0
	for concept := range idx.Entities {
		rank(idx.Entities[concept])
		entries += len(idx.Entities[concept])
	}

	recordBuildMetrics(ctx, entries, time.Since(start))
	span.SetAttributes(
		attribute.Int("concepts", len(idx.Entities)),
		attribute.Int("entries", entries),
	)
	return idx, nil
}

// Lookup returns the ranked entries for a concept, or nil.
func (idx *EntityIndex) Lookup(concept string) []Entry {
	if idx == nil {
		return nil
	}
	return idx.Entities[concept]
}

// Concepts returns the indexed concept names in sorted order.
func (idx *EntityIndex) Concepts() []string {
	if idx == nil || len(idx.Entities) == 0 {
		return nil
	}
	concepts := make([]string, 0, len(idx.Entities))
	for c := range idx.Entities {
		concepts = append(concepts, c)
	}
	sort.Strings(concepts)
	return concepts
}

// conceptConfidence reads the confirmation count for one concept,
// defaulting to a single sighting.
func conceptConfidence(l *enrich.Layer3Result, concept string) int {
	if n, ok := l.Confirmations["concept:"+concept]; ok && n > 0 {
		return n
	}
	return 1
}

// rank orders entries confidence descending, ties by node ID.
func rank(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Confidence != entries[j].Confidence {
			return entries[i].Confidence > entries[j].Confidence
		}
		return entries[i].NodeID < entries[j].NodeID
	})
}
