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
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
)

// SemanticPass is the layer-2 pass: pattern detection, naming analysis,
// method roles, and API surface.
//
// # Description
//
// Pattern detection is an ordered rule list evaluated top to bottom; the
// first matching rule is the primary pattern, but rules are
// non-exclusive and every match is recorded. Rules read the current
// iteration's layer-1 output of other nodes through the store, which is
// complete and read-only by the time this pass runs.
//
// # Thread Safety
//
// Per-graph caches are built in the constructor; EnrichNode is read-only
// afterwards and safe for concurrent use.
type SemanticPass struct {
	g *graph.Graph

	// classNames maps known class names in the graph to true, for
	// Factory return-type checks.
	classNames map[string]bool
}

// NewSemanticPass creates the layer-2 pass for a frozen graph.
func NewSemanticPass(g *graph.Graph) *SemanticPass {
	p := &SemanticPass{
		g:          g,
		classNames: make(map[string]bool),
	}
	for _, id := range g.NodeIDs() {
		if n := g.Node(id); n.Type == graph.NodeTypeClass {
			p.classNames[n.Name] = true
		}
	}
	return p
}

// Name implements Pass.
func (p *SemanticPass) Name() string { return "semantic" }

// Layer implements Pass.
func (p *SemanticPass) Layer() Layer { return LayerSemantic }

// EnrichNode implements Pass.
func (p *SemanticPass) EnrichNode(ctx context.Context, target *Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	node := target.Node

	result := &Layer2Result{
		Status:      StatusOK,
		Patterns:    p.detectPatterns(node, target.Store),
		Naming:      p.analyzeNaming(node),
		MethodRoles: p.methodRoles(node),
		APISurface:  apiSurface(node),
	}

	target.Record.Layer2 = result
	return nil
}

// patternRule is one entry of the ordered detection table.
type patternRule struct {
	pattern Pattern
	match   func(p *SemanticPass, node *graph.Node, store *Store) bool
}

// patternRules is evaluated in order; the first match is the primary
// pattern, later matches co-occur.
var patternRules = []patternRule{
	{PatternEntity, (*SemanticPass).matchEntity},
	{PatternService, (*SemanticPass).matchService},
	{PatternRepository, (*SemanticPass).matchRepository},
	{PatternFactory, (*SemanticPass).matchFactory},
	{PatternValueObject, (*SemanticPass).matchValueObject},
	{PatternDTO, (*SemanticPass).matchDTO},
}

// detectPatterns evaluates every rule and returns the sorted match set.
func (p *SemanticPass) detectPatterns(node *graph.Node, store *Store) []Pattern {
	if node.Type != graph.NodeTypeClass {
		return nil
	}

	var matched []Pattern
	for _, rule := range patternRules {
		if rule.match(p, node, store) {
			matched = append(matched, rule.pattern)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i] < matched[j] })
	return matched
}

// fieldsOf returns a class's stored fields from producer metadata.
func fieldsOf(node *graph.Node) []graph.TypeRef {
	if node.Metadata == nil {
		return nil
	}
	return node.Metadata.Fields
}

// methodsOf returns the function/method nodes contained by a class.
func (p *SemanticPass) methodsOf(node *graph.Node) []*graph.Node {
	var methods []*graph.Node
	for _, child := range p.g.Children(node.ID) {
		if child.Type == graph.NodeTypeMethod || child.Type == graph.NodeTypeFunction {
			methods = append(methods, child)
		}
	}
	return methods
}

// hasConstructor reports whether the class declares a constructor.
func (p *SemanticPass) hasConstructor(node *graph.Node) bool {
	for _, m := range p.methodsOf(node) {
		if isConstructorName(m.Name, node.Name) {
			return true
		}
	}
	return false
}

// callTargets returns the distinct top-level nodes the class (or its
// methods) calls, excluding itself, in sorted ID order.
func (p *SemanticPass) callTargets(node *graph.Node) []*graph.Node {
	seen := map[string]bool{}
	collect := func(id string) {
		for _, e := range p.g.OutgoingByType(id, graph.EdgeTypeCalls) {
			t := p.g.Node(e.Target)
			if t == nil {
				continue
			}
			// Resolve method targets to their owning class.
			if t.Type == graph.NodeTypeMethod {
				if owner := p.g.Container(t.ID); owner != nil {
					t = owner
				}
			}
			if t.ID != node.ID {
				seen[t.ID] = true
			}
		}
	}

	collect(node.ID)
	for _, m := range p.methodsOf(node) {
		collect(m.ID)
	}

	ids := sortedKeys(seen)
	targets := make([]*graph.Node, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, p.g.Node(id))
	}
	return targets
}

// classificationOf reads another node's current-iteration layer-1 verdict.
func classificationOf(store *Store, id string) Classification {
	if r := store.Record(id); r != nil && r.Layer1 != nil && r.Layer1.Status == StatusOK {
		return r.Layer1.Classification
	}
	return ClassUnknown
}

// matchEntity: stored fields, a constructor, and low call-out to
// infrastructure nodes (at most one).
func (p *SemanticPass) matchEntity(node *graph.Node, store *Store) bool {
	if len(fieldsOf(node)) == 0 || !p.hasConstructor(node) {
		return false
	}
	infraCalls := 0
	for _, t := range p.callTargets(node) {
		if classificationOf(store, t.ID) == ClassInfrastructure {
			infraCalls++
		}
	}
	return infraCalls <= 1
}

// matchService: no persistent fields, coordinates calls to at least two
// other domain nodes.
func (p *SemanticPass) matchService(node *graph.Node, store *Store) bool {
	if len(fieldsOf(node)) > 0 {
		return false
	}
	domainCalls := 0
	for _, t := range p.callTargets(node) {
		if classificationOf(store, t.ID) == ClassDomain {
			domainCalls++
		}
	}
	return domainCalls >= 2
}

// matchRepository: at least two CRUD-shaped methods forming a majority,
// all against exactly one entity name. The two-method floor keeps a
// class with a lone getter from qualifying.
func (p *SemanticPass) matchRepository(node *graph.Node, _ *Store) bool {
	methods := p.methodsOf(node)
	if len(methods) == 0 {
		return false
	}

	crud := 0
	entities := map[string]bool{}
	for _, m := range methods {
		terms := tokenize(m.Name)
		if len(terms) == 0 || !crudVerbs[terms[0]] {
			continue
		}
		crud++
		for _, t := range terms[1:] {
			if t == "by" || t == "all" || t == "id" {
				continue
			}
			entities[singularize(t)] = true
			break
		}
	}

	return crud >= 2 && crud*2 >= len(methods) && len(entities) == 1
}

// matchFactory: the majority of methods are creator-shaped and at least
// one returns a known class type.
func (p *SemanticPass) matchFactory(node *graph.Node, _ *Store) bool {
	methods := p.methodsOf(node)
	if len(methods) == 0 {
		return false
	}

	creators := 0
	returnsKnownType := false
	for _, m := range methods {
		if isConstructorName(m.Name, node.Name) {
			continue
		}
		if methodRole(m.Name) != RoleCreator {
			continue
		}
		creators++
		if m.Metadata == nil {
			continue
		}
		for _, ret := range m.Metadata.Returns {
			if p.classNames[ret.Type] && ret.Type != node.Name {
				returnsKnownType = true
			}
		}
	}

	return creators*2 >= len(methods) && returnsKnownType
}

// matchValueObject: fields without identity, no setters, equality
// semantics.
func (p *SemanticPass) matchValueObject(node *graph.Node, _ *Store) bool {
	fields := fieldsOf(node)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if identityFieldNames[strings.ToLower(f.Name)] {
			return false
		}
	}

	hasEquality := false
	for _, m := range p.methodsOf(node) {
		if methodRole(m.Name) == RoleSetter {
			return false
		}
		if equalityMethodNames[strings.ToLower(m.Name)] {
			hasEquality = true
		}
	}
	return hasEquality
}

// matchDTO: only fields, no behavior methods beyond a constructor.
func (p *SemanticPass) matchDTO(node *graph.Node, _ *Store) bool {
	if len(fieldsOf(node)) == 0 {
		return false
	}
	for _, m := range p.methodsOf(node) {
		if !isConstructorName(m.Name, node.Name) {
			return false
		}
	}
	return true
}

// analyzeNaming tokenizes the identifier, detects its convention, and
// flags violations against same-type siblings in the same file.
func (p *SemanticPass) analyzeNaming(node *graph.Node) *Naming {
	terms := tokenize(node.Name)
	convention := detectConvention(node.Name)

	return &Naming{
		Terms:               terms,
		Convention:          convention,
		RoleIndicators:      roleIndicators(terms),
		ConventionViolation: p.violatesSiblingConvention(node, convention),
	}
}

// violatesSiblingConvention reports whether the node's convention
// deviates from the dominant convention among nodes of the same type in
// the same file.
func (p *SemanticPass) violatesSiblingConvention(node *graph.Node, convention Convention) bool {
	if convention == ConventionUnknown || node.Type == graph.NodeTypeFile {
		return false
	}

	counts := map[Convention]int{}
	total := 0
	for _, id := range p.g.NodeIDs() {
		sibling := p.g.Node(id)
		if sibling.Path != node.Path || sibling.Type != node.Type {
			continue
		}
		c := detectConvention(sibling.Name)
		if c == ConventionUnknown {
			continue
		}
		counts[c]++
		total++
	}
	if total < 2 {
		return false
	}

	dominant := ConventionUnknown
	best := 0
	for _, c := range []Convention{ConventionCamel, ConventionFlat, ConventionPascal, ConventionScreaming, ConventionSnake} {
		if counts[c] > best {
			dominant = c
			best = counts[c]
		}
	}

	return best*2 > total && convention != dominant
}

// methodRoles collects the sorted role set: a class aggregates its
// methods, a function or method reports its own role.
func (p *SemanticPass) methodRoles(node *graph.Node) []MethodRole {
	seen := map[string]bool{}
	switch node.Type {
	case graph.NodeTypeClass:
		for _, m := range p.methodsOf(node) {
			if role := methodRole(m.Name); role != "" {
				seen[string(role)] = true
			}
		}
	case graph.NodeTypeFunction, graph.NodeTypeMethod:
		if role := methodRole(node.Name); role != "" {
			seen[string(role)] = true
		}
	}

	keys := sortedKeys(seen)
	if len(keys) == 0 {
		return nil
	}
	roles := make([]MethodRole, len(keys))
	for i, k := range keys {
		roles[i] = MethodRole(k)
	}
	return roles
}

// apiSurface derives visibility: declared metadata wins, then the
// leading-underscore privacy convention, then public.
func apiSurface(node *graph.Node) APISurface {
	if node.Metadata != nil {
		switch node.Metadata.Visibility {
		case "public":
			return SurfacePublic
		case "private":
			return SurfacePrivate
		case "protected":
			return SurfaceProtected
		}
	}
	if strings.HasPrefix(node.Name, "_") {
		return SurfacePrivate
	}
	return SurfacePublic
}

// singularize trims a plural suffix from a name token for entity
// matching: orders -> order, companies -> company.
func singularize(t string) string {
	switch {
	case strings.HasSuffix(t, "ies") && len(t) > 4:
		return t[:len(t)-3] + "y"
	case strings.HasSuffix(t, "s") && !strings.HasSuffix(t, "ss") && len(t) > 3:
		return t[:len(t)-1]
	}
	return t
}
