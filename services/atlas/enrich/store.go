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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Store holds the enrichment record of every node, keyed by node ID.
//
// # Description
//
// The store is the arena half of the arena+index pattern: the base graph
// stays immutable, and each pass writes only the layer slot of the node
// it is enriching. Because no two workers ever share a (node, layer)
// slot, concurrent per-node enrichment needs no locking.
//
// # Thread Safety
//
// The record map is fully populated at construction and never grows.
// Concurrent writers are safe as long as each goroutine touches only its
// own node's record, which is what the pass runner guarantees.
type Store struct {
	records map[string]*Record
}

// NewStore creates a store with an empty record for every node ID.
func NewStore(nodeIDs []string) *Store {
	records := make(map[string]*Record, len(nodeIDs))
	for _, id := range nodeIDs {
		records[id] = &Record{}
	}
	return &Store{records: records}
}

// Record returns the record for the given node ID, or nil if unknown.
func (s *Store) Record(id string) *Record {
	return s.records[id]
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// MarshalJSON serializes the store as an id-keyed object. encoding/json
// emits map keys in sorted order, which makes this serialization
// canonical: node iteration order never affects the bytes.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.records)
}

// Hash computes the deterministic content hash of the full enrichment
// state, used by the orchestrator for convergence detection.
//
// # Description
//
// The hash is sha256 over the canonical JSON serialization: map keys
// sorted (order-independent with respect to node iteration order),
// struct fields in declaration order (order-dependent within each
// node's own record). No floating-point fields exist in the record
// types, so no float formatting rules are needed.
//
// Confirmation counters are excluded: they increment on every iteration
// that re-derives a fact, so hashing them would mean a stable state
// never reproduces its own hash.
//
// # Outputs
//
//   - string: Hex-encoded sha256 of the canonical serialization.
//   - error: Non-nil if serialization fails (should never happen for
//     well-formed records).
func (s *Store) Hash() (string, error) {
	view := make(map[string]*Record, len(s.records))
	for id, r := range s.records {
		if r.Layer3 != nil && r.Layer3.Confirmations != nil {
			r = r.Clone()
			r.Layer3.Confirmations = nil
		}
		view[id] = r
	}

	data, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("hash enrichment state: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Snapshot is one iteration's immutable enrichment state. Snapshots are
// deep copies: later passes can read history without any aliasing into
// live records.
type Snapshot struct {
	// Iteration is the 1-based iteration number this snapshot closed.
	Iteration int `json:"iteration"`

	// Records maps node ID to the record as of the end of the iteration.
	Records map[string]*Record `json:"records"`
}

// Record returns the snapshot record for the given node ID, or nil.
func (s *Snapshot) Record(id string) *Record {
	if s == nil {
		return nil
	}
	return s.Records[id]
}

// Snapshot deep-copies the current state.
func (s *Store) Snapshot(iteration int) *Snapshot {
	records := make(map[string]*Record, len(s.records))
	for id, r := range s.records {
		records[id] = r.Clone()
	}
	return &Snapshot{Iteration: iteration, Records: records}
}

// Clone deep-copies the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	return &Record{
		Layer1: r.Layer1.clone(),
		Layer2: r.Layer2.clone(),
		Layer3: r.Layer3.clone(),
	}
}

func (l *Layer1Result) clone() *Layer1Result {
	if l == nil {
		return nil
	}
	out := *l
	if l.Complexity != nil {
		c := *l.Complexity
		out.Complexity = &c
	}
	if l.Dependencies != nil {
		d := *l.Dependencies
		out.Dependencies = &d
	}
	return &out
}

func (l *Layer2Result) clone() *Layer2Result {
	if l == nil {
		return nil
	}
	out := *l
	out.Patterns = append([]Pattern(nil), l.Patterns...)
	out.MethodRoles = append([]MethodRole(nil), l.MethodRoles...)
	if l.Naming != nil {
		n := *l.Naming
		n.Terms = append([]string(nil), l.Naming.Terms...)
		n.RoleIndicators = append([]string(nil), l.Naming.RoleIndicators...)
		out.Naming = &n
	}
	return &out
}

func (l *Layer3Result) clone() *Layer3Result {
	if l == nil {
		return nil
	}
	out := *l
	out.DomainConcepts = append([]string(nil), l.DomainConcepts...)
	out.BusinessRules = append([]BusinessRule(nil), l.BusinessRules...)
	out.WorkflowParticipation = append([]string(nil), l.WorkflowParticipation...)
	out.EntityRelationships = append([]EntityRelationship(nil), l.EntityRelationships...)
	if l.Confirmations != nil {
		out.Confirmations = make(map[string]int, len(l.Confirmations))
		for k, v := range l.Confirmations {
			out.Confirmations[k] = v
		}
	}
	return &out
}
