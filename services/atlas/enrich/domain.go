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
	"sort"
	"strings"
	"sync"

	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
)

// DomainPass is the layer-3 pass: domain concepts, business rules,
// workflow participation, and entity relationships.
//
// # Description
//
// Everything here is pattern matching over structure the earlier layers
// established, not semantic understanding: concepts come from pattern
// hits and names, rules from producer-extracted conditionals on
// validator/calculator methods (ambiguous conditionals are skipped, not
// guessed), workflows from a fixed keyword vocabulary, relationships
// from typed references to known entities.
//
// On iteration two and later, facts that are independently re-derived
// gain a confirmation count against the snapshot history. Single-
// iteration hypotheses stay recorded at count 1 and are never promoted.
//
// # Thread Safety
//
// Safe for concurrent per-node use. The per-iteration entity set is
// cached under a mutex; it is derived from completed layer-2 output, so
// every worker computes the same set.
type DomainPass struct {
	g *graph.Graph

	mu         sync.Mutex
	cachedIter int
	entities   map[string]bool
}

// NewDomainPass creates the layer-3 pass for a frozen graph.
func NewDomainPass(g *graph.Graph) *DomainPass {
	return &DomainPass{g: g}
}

// Name implements Pass.
func (p *DomainPass) Name() string { return "domain" }

// Layer implements Pass.
func (p *DomainPass) Layer() Layer { return LayerDomain }

// EnrichNode implements Pass.
func (p *DomainPass) EnrichNode(ctx context.Context, target *Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	node := target.Node
	entities := p.entitySet(target.Store, target.Iteration)

	result := &Layer3Result{
		Status:                StatusOK,
		DomainConcepts:        p.concepts(node, target.Record),
		BusinessRules:         p.businessRules(node, target.Record),
		WorkflowParticipation: p.workflows(node, target.Store),
		EntityRelationships:   p.relationships(node, entities),
	}
	result.Confirmations = confirm(node.ID, result, target.History)

	target.Record.Layer3 = result
	return nil
}

// entitySet returns the class names tagged Entity in the current
// iteration's layer-2 output, cached per iteration.
func (p *DomainPass) entitySet(store *Store, iteration int) map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.entities != nil && p.cachedIter == iteration {
		return p.entities
	}

	entities := make(map[string]bool)
	for _, id := range p.g.NodeIDs() {
		n := p.g.Node(id)
		r := store.Record(id)
		if r == nil || r.Layer2 == nil || r.Layer2.Status != StatusOK {
			continue
		}
		for _, pat := range r.Layer2.Patterns {
			if pat == PatternEntity {
				entities[n.Name] = true
			}
		}
	}

	p.entities = entities
	p.cachedIter = iteration
	return entities
}

// concepts derives the sorted, deduplicated domain-concept set from the
// node's own layer-2 record and name.
func (p *DomainPass) concepts(node *graph.Node, record *Record) []string {
	if record.Layer2 == nil || record.Layer2.Status != StatusOK {
		return conceptsFromName(node.Name)
	}
	return deriveConcepts(node.Name, record.Layer2)
}

// deriveConcepts is the pure concept derivation shared by a node's own
// enrichment and callee lookups: pattern hits contribute the name with
// role tokens stripped, and domain-vocabulary name tokens contribute
// directly.
func deriveConcepts(name string, layer2 *Layer2Result) []string {
	seen := map[string]bool{}
	for _, c := range conceptsFromName(name) {
		seen[c] = true
	}
	if len(layer2.Patterns) > 0 {
		if c := conceptName(tokenize(name)); c != "" {
			seen[c] = true
		}
	}
	return sortedKeys(seen)
}

// conceptsFromName extracts domain-vocabulary tokens from a name.
func conceptsFromName(name string) []string {
	seen := map[string]bool{}
	for _, t := range tokenize(name) {
		if domainTerms[singularize(t)] {
			seen[titleCase(singularize(t))] = true
		}
	}
	return sortedKeys(seen)
}

// conceptName joins the non-role terms of an identifier into a concept:
// order_repository -> Order, PaymentService -> Payment.
func conceptName(terms []string) string {
	var kept []string
	for _, t := range terms {
		if roleIndicatorTokens[t] || t == "workflow" {
			continue
		}
		kept = append(kept, titleCase(t))
	}
	return strings.Join(kept, "")
}

// titleCase uppercases the first letter of a lowercase term.
func titleCase(t string) string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(t[:1]) + t[1:]
}

// businessRules templates rule records from conditional comparisons on
// validator/calculator-role methods. Class nodes aggregate their
// methods; function and method nodes report their own conditionals.
// Conditions missing a subject, operator, or value are ambiguous and
// skipped.
func (p *DomainPass) businessRules(node *graph.Node, record *Record) []BusinessRule {
	var sources []*graph.Node
	switch node.Type {
	case graph.NodeTypeClass:
		for _, child := range p.g.Children(node.ID) {
			if child.Type == graph.NodeTypeMethod || child.Type == graph.NodeTypeFunction {
				sources = append(sources, child)
			}
		}
	case graph.NodeTypeFunction, graph.NodeTypeMethod:
		sources = append(sources, node)
	default:
		return nil
	}

	var rules []BusinessRule
	for _, src := range sources {
		role := methodRole(src.Name)
		if role != RoleValidator && role != RoleCalculator {
			continue
		}
		if src.Metadata == nil {
			continue
		}
		for _, cond := range src.Metadata.Conditions {
			if cond.Subject == "" || cond.Operator == "" || cond.Value == "" {
				continue
			}
			rules = append(rules, BusinessRule{
				Description: fmt.Sprintf("requires %s %s %s", cond.Subject, cond.Operator, cond.Value),
				Location:    fmt.Sprintf("%s:%d", src.Path, cond.Line),
			})
		}
	}

	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Location != rules[j].Location {
			return rules[i].Location < rules[j].Location
		}
		return rules[i].Description < rules[j].Description
	})
	return rules
}

// workflows tags the node with every workflow whose keyword set matches
// its own name tokens or its callees' derived domain concepts.
func (p *DomainPass) workflows(node *graph.Node, store *Store) []string {
	ownTerms := map[string]bool{}
	for _, t := range tokenize(node.Name) {
		ownTerms[singularize(t)] = true
		ownTerms[t] = true
	}

	calleeTerms := map[string]bool{}
	for _, e := range p.g.OutgoingByType(node.ID, graph.EdgeTypeCalls) {
		callee := p.g.Node(e.Target)
		if callee == nil {
			continue
		}
		r := store.Record(callee.ID)
		if r == nil || r.Layer2 == nil || r.Layer2.Status != StatusOK {
			continue
		}
		for _, c := range deriveConcepts(callee.Name, r.Layer2) {
			calleeTerms[strings.ToLower(c)] = true
		}
	}

	var tagged []string
	for _, wf := range workflowNames {
		hit := false
		for _, kw := range workflowVocabulary[wf] {
			if ownTerms[kw] || calleeTerms[kw] {
				hit = true
				break
			}
		}
		if hit {
			tagged = append(tagged, wf)
		}
	}
	return tagged
}

// relationships infers entity relationships from typed references.
// Collection-typed references yield HAS_MANY, singular references
// HAS_ONE, and call dependencies without ownership USES.
func (p *DomainPass) relationships(node *graph.Node, entities map[string]bool) []EntityRelationship {
	if node.Type == graph.NodeTypeFile {
		return nil
	}

	owned := map[string]RelationshipType{}
	record := func(entity string, collection bool) {
		if collection {
			owned[entity] = RelHasMany
			return
		}
		if owned[entity] != RelHasMany {
			owned[entity] = RelHasOne
		}
	}

	scanRefs := func(md *graph.Metadata) {
		if md == nil {
			return
		}
		for _, f := range md.Fields {
			if entities[f.Type] && f.Type != node.Name {
				record(f.Type, f.Collection)
			}
		}
		for _, prm := range md.Params {
			if entities[prm.Type] && prm.Type != node.Name {
				record(prm.Type, prm.Collection)
			}
		}
		for _, ret := range md.Returns {
			if entities[ret.Type] && ret.Type != node.Name {
				record(ret.Type, ret.Collection)
			}
		}
	}

	scanRefs(node.Metadata)
	if node.Type == graph.NodeTypeClass {
		for _, child := range p.g.Children(node.ID) {
			if child.Type == graph.NodeTypeMethod || child.Type == graph.NodeTypeFunction {
				scanRefs(child.Metadata)
			}
		}
	}

	// Call dependencies become USES unless ownership already exists.
	uses := map[string]bool{}
	collectCalls := func(id string) {
		for _, e := range p.g.OutgoingByType(id, graph.EdgeTypeCalls) {
			t := p.g.Node(e.Target)
			if t == nil {
				continue
			}
			if t.Type == graph.NodeTypeMethod {
				if owner := p.g.Container(t.ID); owner != nil {
					t = owner
				}
			}
			if entities[t.Name] && t.Name != node.Name {
				uses[t.Name] = true
			}
		}
	}
	collectCalls(node.ID)
	if node.Type == graph.NodeTypeClass {
		for _, child := range p.g.Children(node.ID) {
			collectCalls(child.ID)
		}
	}

	var rels []EntityRelationship
	for entity, relType := range owned {
		rels = append(rels, EntityRelationship{Type: relType, TargetEntity: entity})
	}
	for entity := range uses {
		if _, hasOwnership := owned[entity]; !hasOwnership {
			rels = append(rels, EntityRelationship{Type: RelUses, TargetEntity: entity})
		}
	}

	sort.Slice(rels, func(i, j int) bool {
		if rels[i].TargetEntity != rels[j].TargetEntity {
			return rels[i].TargetEntity < rels[j].TargetEntity
		}
		return rels[i].Type < rels[j].Type
	})
	return rels
}

// confirm counts, per derived fact, the iterations in which the same
// fact was present in history plus the current derivation.
func confirm(nodeID string, result *Layer3Result, history []*Snapshot) map[string]int {
	keys := factKeys(result)
	if len(keys) == 0 {
		return nil
	}

	counts := make(map[string]int, len(keys))
	for _, k := range keys {
		counts[k] = 1
	}

	for _, snap := range history {
		r := snap.Record(nodeID)
		if r == nil || r.Layer3 == nil || r.Layer3.Status != StatusOK {
			continue
		}
		prior := map[string]bool{}
		for _, k := range factKeys(r.Layer3) {
			prior[k] = true
		}
		for _, k := range keys {
			if prior[k] {
				counts[k]++
			}
		}
	}
	return counts
}

// factKeys flattens a layer-3 result into stable fact keys.
func factKeys(result *Layer3Result) []string {
	var keys []string
	for _, c := range result.DomainConcepts {
		keys = append(keys, "concept:"+c)
	}
	for _, w := range result.WorkflowParticipation {
		keys = append(keys, "workflow:"+w)
	}
	for _, r := range result.EntityRelationships {
		keys = append(keys, fmt.Sprintf("rel:%s:%s", r.Type, r.TargetEntity))
	}
	for _, r := range result.BusinessRules {
		keys = append(keys, "rule:"+r.Location)
	}
	return keys
}
