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
	"strings"

	"github.com/AleutianAI/AleutianAtlas/services/atlas/graph"
)

// StructuralPass is the layer-1 pass: classification, complexity, and
// dependency measures.
//
// # Description
//
// Classification combines two signals through an explicit rule table:
//
//	| naming \ imports | neutral | domain | infra  |
//	|------------------|---------|--------|--------|
//	| neutral          | unknown | domain | infra  |
//	| domain           | domain  | domain | see(*) |
//	| infra            | infra   | see(*) | infra  |
//
// (*) Conflict resolution is fixed: a strength difference of two or more
// lets the stronger signal win; a difference of one means comparable
// strength and yields mixed; an exact tie is broken in favor of the
// naming signal. Token evidence that is itself balanced (equal domain
// and infrastructure hits within one signal) yields mixed directly.
//
// # Thread Safety
//
// All per-graph caches are built in the constructor; EnrichNode is
// read-only afterwards and safe for concurrent use.
type StructuralPass struct {
	g *graph.Graph

	// projectModules holds dotted module paths derived from the file
	// nodes, used to decide whether an import is intra-project.
	projectModules map[string]bool

	// fileDepth caches the longest intra-project import chain per file
	// node ID.
	fileDepth map[string]int

	// fileImports caches the (internal, external, platform) direct
	// import counts per file node ID.
	fileImports map[string][3]int
}

// NewStructuralPass creates the layer-1 pass for a frozen graph.
//
// All derived lookups (project module set, per-file import profiles,
// memoized import depths) are computed here, once, in deterministic
// sorted-node order.
func NewStructuralPass(g *graph.Graph) *StructuralPass {
	p := &StructuralPass{
		g:              g,
		projectModules: make(map[string]bool),
		fileDepth:      make(map[string]int),
		fileImports:    make(map[string][3]int),
	}

	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		if n.Type != graph.NodeTypeFile {
			continue
		}
		for _, m := range modulePathsFor(n.Path) {
			p.projectModules[m] = true
		}
	}

	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		if n.Type != graph.NodeTypeFile {
			continue
		}
		p.fileImports[id] = p.importProfile(n)
	}

	state := make(map[string]int, len(g.NodeIDs()))
	for _, id := range g.NodeIDs() {
		if g.Node(id).Type == graph.NodeTypeFile {
			p.computeDepth(id, state)
		}
	}

	return p
}

// Name implements Pass.
func (p *StructuralPass) Name() string { return "structural" }

// Layer implements Pass.
func (p *StructuralPass) Layer() Layer { return LayerStructural }

// EnrichNode implements Pass.
func (p *StructuralPass) EnrichNode(ctx context.Context, target *Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	node := target.Node

	result := &Layer1Result{
		Status:         StatusOK,
		Classification: p.classify(node),
		Complexity:     complexityOf(node),
		Dependencies:   p.dependenciesOf(node),
	}

	target.Record.Layer1 = result
	return nil
}

// classify runs the two-signal rule table for one node.
func (p *StructuralPass) classify(node *graph.Node) Classification {
	naming := namingSignal(node.Name)
	imports := p.importSignal(node)

	switch {
	case naming.strength == 0 && imports.strength == 0:
		return ClassUnknown
	case naming.strength == 0:
		return imports.class
	case imports.strength == 0:
		return naming.class
	case naming.class == imports.class:
		return naming.class
	}

	// Conflicting signals. Tie-break order is fixed and documented on
	// the type: strength gap >= 2 wins, gap of 1 is mixed, exact tie
	// goes to naming.
	switch gap := naming.strength - imports.strength; {
	case gap >= 2:
		return naming.class
	case gap <= -2:
		return imports.class
	case gap == 0:
		return naming.class
	default:
		return ClassMixed
	}
}

// signalVerdict is one signal's contribution to classification.
type signalVerdict struct {
	class    Classification
	strength int
}

// namingSignal scores the node name against the domain and
// infrastructure vocabularies.
func namingSignal(name string) signalVerdict {
	var domain, infra int
	for _, term := range tokenize(name) {
		if domainTerms[term] {
			domain++
		}
		if infraTerms[term] {
			infra++
		}
	}
	switch {
	case domain == 0 && infra == 0:
		return signalVerdict{}
	case domain > infra:
		return signalVerdict{ClassDomain, domain - infra}
	case infra > domain:
		return signalVerdict{ClassInfrastructure, infra - domain}
	default:
		return signalVerdict{ClassMixed, domain}
	}
}

// importSignal scores the import profile of the node's containing file.
func (p *StructuralPass) importSignal(node *graph.Node) signalVerdict {
	file := p.g.ContainingFile(node.ID)
	if file == nil {
		return signalVerdict{}
	}
	counts := p.fileImports[file.ID]
	internal, external := counts[0], counts[1]
	switch {
	case internal == 0 && external == 0:
		return signalVerdict{}
	case internal > external:
		return signalVerdict{ClassDomain, internal - external}
	case external > internal:
		return signalVerdict{ClassInfrastructure, external - internal}
	default:
		return signalVerdict{ClassMixed, internal}
	}
}

// importProfile counts a file's direct imports as (internal, external,
// platform). Resolved imports edges always point inside the project;
// metadata imports that would resolve intra-project are skipped when
// edges exist so the same import is never counted twice. Platform
// library imports count toward the import total but are neutral for
// classification.
func (p *StructuralPass) importProfile(file *graph.Node) [3]int {
	edges := p.g.OutgoingByType(file.ID, graph.EdgeTypeImports)
	internal := len(edges)
	external, platform := 0, 0

	if file.Metadata != nil {
		for _, imp := range file.Metadata.Imports {
			switch {
			case p.isProjectImport(imp):
				if len(edges) == 0 {
					internal++
				}
			case isPlatformImport(imp):
				platform++
			default:
				external++
			}
		}
	}
	return [3]int{internal, external, platform}
}

// isPlatformImport reports whether an import names a standard or
// platform library module.
func isPlatformImport(imp string) bool {
	if platformImports[imp] {
		return true
	}
	if i := strings.IndexByte(imp, '.'); i > 0 {
		return platformImports[imp[:i]]
	}
	return false
}

// isProjectImport reports whether an import target resolves inside the
// project. Relative imports are always intra-project; absolute ones are
// looked up against the module set derived from file paths.
func (p *StructuralPass) isProjectImport(imp string) bool {
	if strings.HasPrefix(imp, ".") {
		return true
	}
	if p.projectModules[imp] {
		return true
	}
	if i := strings.IndexByte(imp, '.'); i > 0 {
		return p.projectModules[imp[:i]]
	}
	return false
}

// modulePathsFor derives the dotted module paths a file can be imported
// as: "models/order.py" yields ["models.order", "models", "order"].
func modulePathsFor(path string) []string {
	trimmed := path
	if i := strings.LastIndexByte(trimmed, '.'); i > 0 {
		trimmed = trimmed[:i]
	}
	parts := strings.Split(trimmed, "/")
	dotted := strings.Join(parts, ".")

	paths := []string{dotted}
	if len(parts) > 1 {
		paths = append(paths, parts[0], parts[len(parts)-1])
	}
	return paths
}

// complexityOf derives the complexity measures from producer metadata.
// Nil when the declaration span is unavailable: the failure policy is
// null complexity, never a failed pass.
func complexityOf(node *graph.Node) *Complexity {
	md := node.Metadata
	if md == nil || md.EndLine == nil {
		return nil
	}

	c := &Complexity{LOC: *md.EndLine - node.Location.Line + 1}
	if node.Location.Line == 0 {
		// File nodes span from line 1.
		c.LOC = *md.EndLine
	}
	if md.MaxNesting != nil {
		c.NestingDepth = *md.MaxNesting
	}
	switch {
	case md.ParamCount != nil:
		c.ParamCount = *md.ParamCount
	default:
		c.ParamCount = len(md.Params)
	}
	return c
}

// dependenciesOf derives the import measures. Non-file nodes inherit
// their containing file's profile.
func (p *StructuralPass) dependenciesOf(node *graph.Node) *Dependencies {
	file := p.g.ContainingFile(node.ID)
	if file == nil {
		return &Dependencies{}
	}
	counts := p.fileImports[file.ID]
	return &Dependencies{
		ImportCount: counts[0] + counts[1] + counts[2],
		ImportDepth: p.fileDepth[file.ID],
	}
}

// Depth computation colors for cycle-safe DFS.
const (
	depthUnvisited = 0
	depthVisiting  = 1
	depthDone      = 2
)

// computeDepth memoizes the longest intra-project import chain starting
// at a file node. Cycles contribute zero additional depth rather than
// recursing forever.
func (p *StructuralPass) computeDepth(fileID string, state map[string]int) int {
	if state[fileID] == depthDone {
		return p.fileDepth[fileID]
	}
	state[fileID] = depthVisiting

	depth := 0
	for _, e := range p.g.OutgoingByType(fileID, graph.EdgeTypeImports) {
		target := p.g.Node(e.Target)
		if target == nil || target.Type != graph.NodeTypeFile {
			continue
		}
		// Back edges close a cycle; they add no depth.
		if state[target.ID] == depthVisiting {
			continue
		}
		if d := p.computeDepth(target.ID, state) + 1; d > depth {
			depth = d
		}
	}

	state[fileID] = depthDone
	p.fileDepth[fileID] = depth
	return depth
}
