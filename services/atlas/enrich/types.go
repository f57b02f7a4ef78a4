// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package enrich implements the three enrichment layer passes for
// Aleutian Atlas.
//
// # Description
//
// Each pass is a deterministic function over the frozen base graph, the
// current iteration's earlier-layer output, and the history of prior
// iteration snapshots. Layer 1 (structural) classifies nodes and scores
// complexity and dependencies. Layer 2 (semantic) detects design
// patterns, naming conventions, and method roles. Layer 3 (domain)
// derives domain concepts, business rules, workflow participation, and
// entity relationships.
//
// Passes write only their own layer slot in the enrichment store; the
// base graph is never mutated. All detection is explicit rule tables
// with fixed tie-break order, so every verdict is auditable and
// unit-testable rule by rule.
//
// # Thread Safety
//
// Pass implementations are stateless after construction and safe for
// concurrent per-node invocation.
package enrich

// Layer identifies one of the three enrichment passes.
type Layer int

const (
	// LayerStructural is the layer-1 structural pass.
	LayerStructural Layer = 1

	// LayerSemantic is the layer-2 semantic pass.
	LayerSemantic Layer = 2

	// LayerDomain is the layer-3 domain pass.
	LayerDomain Layer = 3
)

// String returns the artifact-facing name of the layer.
func (l Layer) String() string {
	switch l {
	case LayerStructural:
		return "l1-structural"
	case LayerSemantic:
		return "l2-semantic"
	case LayerDomain:
		return "l3-domain"
	default:
		return "unknown"
	}
}

// LayerStatus marks a layer record as computed or failed.
type LayerStatus string

const (
	// StatusOK indicates the record was computed normally.
	StatusOK LayerStatus = "ok"

	// StatusError indicates enrichment of this node failed in this
	// layer. The failure is isolated: sibling nodes and other layers
	// are unaffected.
	StatusError LayerStatus = "error"
)

// Classification is the layer-1 verdict for a node.
type Classification string

const (
	// ClassDomain indicates business-domain code.
	ClassDomain Classification = "domain"

	// ClassInfrastructure indicates technical plumbing.
	ClassInfrastructure Classification = "infrastructure"

	// ClassMixed indicates conflicting signals of comparable strength.
	ClassMixed Classification = "mixed"

	// ClassUnknown indicates no usable signal.
	ClassUnknown Classification = "unknown"
)

// Complexity holds the layer-1 complexity measures. The whole struct is
// nil when the producer supplied no span data for the node.
type Complexity struct {
	// LOC is the declaration span length in lines.
	LOC int `json:"loc"`

	// NestingDepth is the maximum control-structure nesting.
	NestingDepth int `json:"nesting_depth"`

	// ParamCount is the declared parameter count.
	ParamCount int `json:"param_count"`
}

// Dependencies holds the layer-1 import measures.
type Dependencies struct {
	// ImportDepth is the longest chain of intra-project imports
	// reachable from this node's file.
	ImportDepth int `json:"import_depth"`

	// ImportCount is the number of direct imports.
	ImportCount int `json:"import_count"`
}

// Layer1Result is the structural pass output for one node.
type Layer1Result struct {
	// Status is ok or error.
	Status LayerStatus `json:"status"`

	// Reason explains a non-ok status.
	Reason string `json:"reason,omitempty"`

	// Classification is the domain/infrastructure verdict.
	Classification Classification `json:"classification,omitempty"`

	// Complexity is nil when the node's span data is unavailable.
	Complexity *Complexity `json:"complexity"`

	// Dependencies are the import measures.
	Dependencies *Dependencies `json:"dependencies,omitempty"`
}

// Pattern is a detected design pattern.
type Pattern string

const (
	// PatternEntity has stored fields, a constructor, and low call-out
	// to infrastructure.
	PatternEntity Pattern = "Entity"

	// PatternService has no persistent fields and coordinates calls to
	// two or more other domain nodes.
	PatternService Pattern = "Service"

	// PatternRepository has mostly CRUD-shaped methods against exactly
	// one entity name.
	PatternRepository Pattern = "Repository"

	// PatternFactory primarily constructs instances of other domain types.
	PatternFactory Pattern = "Factory"

	// PatternValueObject has immutable fields, equality semantics, and
	// no identity field.
	PatternValueObject Pattern = "ValueObject"

	// PatternDTO has only fields and no behavior methods.
	PatternDTO Pattern = "DTO"
)

// Convention is a detected naming convention.
type Convention string

const (
	// ConventionSnake is snake_case.
	ConventionSnake Convention = "snake_case"

	// ConventionCamel is camelCase.
	ConventionCamel Convention = "camelCase"

	// ConventionPascal is PascalCase.
	ConventionPascal Convention = "PascalCase"

	// ConventionScreaming is SCREAMING_SNAKE_CASE.
	ConventionScreaming Convention = "SCREAMING_SNAKE_CASE"

	// ConventionFlat is a single lowercase word with no boundaries.
	ConventionFlat Convention = "flat"

	// ConventionUnknown means no convention could be determined.
	ConventionUnknown Convention = "unknown"
)

// Naming is the layer-2 identifier analysis for one node.
type Naming struct {
	// Terms is the ordered token sequence split on case-convention
	// boundaries.
	Terms []string `json:"terms"`

	// Convention is the dominant convention of the identifier.
	Convention Convention `json:"convention"`

	// RoleIndicators lists recognized role suffix/prefix tokens
	// (service, repository, factory, handler, ...).
	RoleIndicators []string `json:"role_indicators,omitempty"`

	// ConventionViolation is true when the node's convention differs
	// from the dominant convention among siblings of the same type in
	// the same file.
	ConventionViolation bool `json:"convention_violation,omitempty"`
}

// MethodRole classifies a method by its verb prefix.
type MethodRole string

const (
	// RoleGetter reads state (get/is/has).
	RoleGetter MethodRole = "getter"

	// RoleSetter writes state (set).
	RoleSetter MethodRole = "setter"

	// RoleValidator checks invariants (validate/check).
	RoleValidator MethodRole = "validator"

	// RoleCalculator computes values (calculate/compute).
	RoleCalculator MethodRole = "calculator"

	// RoleTransformer converts representations (transform/convert/map/to).
	RoleTransformer MethodRole = "transformer"

	// RoleCreator constructs values (create/build/make/new).
	RoleCreator MethodRole = "creator"

	// RoleMutator applies updates (update/apply).
	RoleMutator MethodRole = "mutator"
)

// APISurface is the visibility verdict for a node.
type APISurface string

const (
	// SurfacePublic is externally visible API.
	SurfacePublic APISurface = "public"

	// SurfacePrivate is internal API.
	SurfacePrivate APISurface = "private"

	// SurfaceProtected is subclass-visible API.
	SurfaceProtected APISurface = "protected"
)

// Layer2Result is the semantic pass output for one node.
type Layer2Result struct {
	// Status is ok or error.
	Status LayerStatus `json:"status"`

	// Reason explains a non-ok status.
	Reason string `json:"reason,omitempty"`

	// Patterns is the sorted set of detected patterns. The first
	// matching rule in the fixed evaluation order is the primary one;
	// non-exclusive patterns may co-occur.
	Patterns []Pattern `json:"patterns,omitempty"`

	// Naming is the identifier analysis.
	Naming *Naming `json:"naming,omitempty"`

	// MethodRoles is the sorted set of roles across the node's methods.
	MethodRoles []MethodRole `json:"method_roles,omitempty"`

	// APISurface is the visibility verdict.
	APISurface APISurface `json:"api_surface,omitempty"`
}

// BusinessRule is one templated rule extracted from a conditional.
type BusinessRule struct {
	// Description is the templated natural-language phrase.
	Description string `json:"description"`

	// Location is "path:line" of the conditional.
	Location string `json:"location"`
}

// RelationshipType classifies an entity relationship.
type RelationshipType string

const (
	// RelHasMany is a collection-typed reference to another entity.
	RelHasMany RelationshipType = "HAS_MANY"

	// RelHasOne is a singular reference to another entity.
	RelHasOne RelationshipType = "HAS_ONE"

	// RelUses is a call dependency without ownership.
	RelUses RelationshipType = "USES"
)

// EntityRelationship links a node to a domain entity it owns or uses.
type EntityRelationship struct {
	// Type is HAS_MANY, HAS_ONE, or USES.
	Type RelationshipType `json:"type"`

	// TargetEntity is the related entity's concept name.
	TargetEntity string `json:"target_entity"`
}

// Layer3Result is the domain pass output for one node.
type Layer3Result struct {
	// Status is ok or error.
	Status LayerStatus `json:"status"`

	// Reason explains a non-ok status.
	Reason string `json:"reason,omitempty"`

	// DomainConcepts is the sorted, deduplicated concept set.
	DomainConcepts []string `json:"domain_concepts,omitempty"`

	// BusinessRules are templated rules from validator/calculator
	// methods, in source order.
	BusinessRules []BusinessRule `json:"business_rules,omitempty"`

	// WorkflowParticipation is the sorted set of workflow names from
	// the fixed vocabulary.
	WorkflowParticipation []string `json:"workflow_participation,omitempty"`

	// EntityRelationships is the sorted relationship list.
	EntityRelationships []EntityRelationship `json:"entity_relationships,omitempty"`

	// Confirmations counts, per derived fact key, the number of
	// iterations in which the fact was independently re-derived. Facts
	// seen in a single iteration stay at 1 and are never promoted; the
	// index builder turns these counters into confidence scores.
	Confirmations map[string]int `json:"confirmations,omitempty"`
}

// Record is the full enrichment state of one node. Each layer slot is
// written exactly once per iteration by its owning pass and is never
// touched by another layer.
type Record struct {
	// Layer1 is the structural pass output.
	Layer1 *Layer1Result `json:"layer1,omitempty"`

	// Layer2 is the semantic pass output.
	Layer2 *Layer2Result `json:"layer2,omitempty"`

	// Layer3 is the domain pass output.
	Layer3 *Layer3Result `json:"layer3,omitempty"`
}
