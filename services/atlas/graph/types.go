// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the base code-graph model for Aleutian Atlas.
//
// # Description
//
// The base graph is produced by an external extraction step (the ai-gov
// graph generator) and loaded from a single JSON document. Nodes are
// files, classes, functions, and methods; edges are imports, calls,
// inherits, and contains relationships. The graph is immutable once
// frozen: enrichment passes never mutate nodes or edges, they only read.
//
// # Thread Safety
//
// Graph is single-writer during building. After Freeze() it is read-only
// and safe for concurrent use.
package graph

// Default configuration values.
const (
	// DefaultMaxNodes is the default maximum number of nodes a graph can hold.
	DefaultMaxNodes = 1_000_000

	// DefaultMaxEdges is the default maximum number of edges a graph can hold.
	DefaultMaxEdges = 10_000_000
)

// State represents the lifecycle state of the graph.
type State int

const (
	// StateBuilding indicates the graph is accepting AddNode/AddEdge calls.
	StateBuilding State = iota

	// StateReadOnly indicates the graph is frozen and read-only.
	StateReadOnly
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateReadOnly:
		return "readonly"
	default:
		return "unknown"
	}
}

// NodeType classifies a code element.
type NodeType string

const (
	// NodeTypeFile is a source file.
	NodeTypeFile NodeType = "file"

	// NodeTypeClass is a class or type declaration.
	NodeTypeClass NodeType = "class"

	// NodeTypeFunction is a free function.
	NodeTypeFunction NodeType = "function"

	// NodeTypeMethod is a function bound to a class.
	NodeTypeMethod NodeType = "method"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeFile, NodeTypeClass, NodeTypeFunction, NodeTypeMethod:
		return true
	}
	return false
}

// EdgeType classifies a relationship between two nodes.
type EdgeType string

const (
	// EdgeTypeImports indicates a file imports a module or package.
	EdgeTypeImports EdgeType = "imports"

	// EdgeTypeCalls indicates a function or method calls another.
	EdgeTypeCalls EdgeType = "calls"

	// EdgeTypeInherits indicates a class inherits from another class.
	EdgeTypeInherits EdgeType = "inherits"

	// EdgeTypeContains indicates a file or class contains a declaration.
	EdgeTypeContains EdgeType = "contains"
)

// Valid reports whether t is one of the known edge types.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeTypeImports, EdgeTypeCalls, EdgeTypeInherits, EdgeTypeContains:
		return true
	}
	return false
}

// Location is a position in a source file.
type Location struct {
	// Line is the 1-based line number. Zero for whole-file nodes.
	Line int `json:"line"`

	// Column is the 0-based column, when the producer provides one.
	Column int `json:"column,omitempty"`
}

// TypeRef is a typed reference carried in producer metadata: a field,
// parameter, or return value together with the name of its type.
type TypeRef struct {
	// Name is the identifier, empty for unnamed returns.
	Name string `json:"name,omitempty"`

	// Type is the referenced type name as written in source.
	Type string `json:"type"`

	// Collection is true when the reference is list/set/map shaped.
	Collection bool `json:"collection,omitempty"`
}

// Condition is a producer-extracted conditional comparison inside a
// function body. The domain pass turns these into business-rule records.
type Condition struct {
	// Subject is the left-hand side of the comparison (e.g. "order.total").
	Subject string `json:"subject"`

	// Operator is the comparison operator (e.g. ">", "==", "in").
	Operator string `json:"operator"`

	// Value is the literal threshold or enumerated state compared against.
	Value string `json:"value"`

	// Line is where the conditional appears.
	Line int `json:"line"`
}

// Metadata carries optional per-node facts emitted by the producer.
//
// Every field is optional. Absence degrades gracefully: the structural
// pass reports null complexity, the semantic pass skips signals it has
// no data for. Pointer fields distinguish "absent" from a real zero.
type Metadata struct {
	// Language is the source language of the containing file.
	Language string `json:"language,omitempty"`

	// Imports lists import targets as written in source (file nodes).
	Imports []string `json:"imports,omitempty"`

	// EndLine is the last line of the declaration span.
	EndLine *int `json:"end_line,omitempty"`

	// MaxNesting is the deepest control-structure nesting in the body.
	MaxNesting *int `json:"max_nesting,omitempty"`

	// ParamCount is the declared parameter count.
	ParamCount *int `json:"param_count,omitempty"`

	// Params are typed parameters (function/method nodes).
	Params []TypeRef `json:"params,omitempty"`

	// Returns are typed return values (function/method nodes).
	Returns []TypeRef `json:"returns,omitempty"`

	// Fields are typed stored fields (class nodes).
	Fields []TypeRef `json:"fields,omitempty"`

	// Visibility is the declared visibility when the language has one
	// ("public", "private", "protected").
	Visibility string `json:"visibility,omitempty"`

	// Conditions are extracted conditional comparisons (function/method
	// nodes).
	Conditions []Condition `json:"conditions,omitempty"`
}

// Node is one code element in the base graph.
//
// Nodes are immutable after the graph is frozen. Enrichment output lives
// in a separate store keyed by node ID, never on the node itself.
type Node struct {
	// ID is the stable identifier derived by NodeID.
	ID string `json:"id"`

	// Type classifies the element.
	Type NodeType `json:"type"`

	// Name is the declared identifier (file basename for file nodes).
	Name string `json:"name"`

	// Path is the file path relative to the project root.
	Path string `json:"path"`

	// Location is where the declaration starts.
	Location Location `json:"location"`

	// Metadata carries optional producer-extracted facts. May be nil.
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Edge is a directed relationship between two nodes. Multiple edges of
// different types may exist between the same pair.
type Edge struct {
	// Source is the ID of the source node.
	Source string `json:"source"`

	// Target is the ID of the target node.
	Target string `json:"target"`

	// Type is the relationship type.
	Type EdgeType `json:"type"`
}

// GraphMetadata describes the document-level metadata of a base graph.
type GraphMetadata struct {
	// Generated is the producer's generation timestamp (RFC 3339).
	Generated string `json:"generated"`

	// RootPath is the absolute path the producer scanned.
	RootPath string `json:"root_path"`

	// Language is the primary source language, when known.
	Language string `json:"language,omitempty"`
}

// Options configures Graph behavior and limits.
type Options struct {
	// MaxNodes is the maximum number of nodes the graph can hold.
	// Default: 1,000,000
	MaxNodes int

	// MaxEdges is the maximum number of edges the graph can hold.
	// Default: 10,000,000
	MaxEdges int
}

// DefaultOptions returns sensible defaults for graph configuration.
func DefaultOptions() Options {
	return Options{
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
	}
}

// Option is a functional option for configuring Graph.
type Option func(*Options)

// WithMaxNodes sets the maximum number of nodes the graph can hold.
func WithMaxNodes(n int) Option {
	return func(o *Options) {
		o.MaxNodes = n
	}
}

// WithMaxEdges sets the maximum number of edges the graph can hold.
func WithMaxEdges(n int) Option {
	return func(o *Options) {
		o.MaxEdges = n
	}
}

// Graph is the base code graph for one project.
//
// Lifecycle:
//
//  1. Create with New()
//  2. Build with AddNode() and AddEdge() calls (or Parse/LoadFile)
//  3. Call Validate() to drop dangling edges and collect warnings
//  4. Call Freeze() to finalize
//  5. Query with Node(), Nodes(), Outgoing(), Incoming()
type Graph struct {
	// Metadata is the document-level metadata from the producer.
	Metadata GraphMetadata

	// nodes maps node ID to Node. Unexported to prevent direct mutation.
	nodes map[string]*Node

	// nodeIDs holds node IDs sorted lexicographically at Freeze() so all
	// iteration over the graph is deterministic.
	nodeIDs []string

	// edges contains all edges in insertion order.
	edges []*Edge

	// outgoing maps source node ID to its edges.
	// Writes during build only, reads after Freeze().
	outgoing map[string][]*Edge

	// incoming maps target node ID to its edges.
	// Writes during build only, reads after Freeze().
	incoming map[string][]*Edge

	// state is the current lifecycle state.
	state State

	// options contains configuration.
	options Options
}

// New creates a new empty graph in the Building state.
func New(opts ...Option) *Graph {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]*Edge),
		incoming: make(map[string][]*Edge),
		state:    StateBuilding,
		options:  options,
	}
}

// State returns the current lifecycle state.
func (g *Graph) State() State {
	return g.state
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Node returns the node with the given ID, or nil if absent.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// NodeIDs returns all node IDs in deterministic (sorted) order.
// Only valid after Freeze().
func (g *Graph) NodeIDs() []string {
	return g.nodeIDs
}

// Edges returns all edges in insertion order. The returned slice must
// not be modified.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// Outgoing returns the edges whose source is the given node.
func (g *Graph) Outgoing(id string) []*Edge {
	return g.outgoing[id]
}

// Incoming returns the edges whose target is the given node.
func (g *Graph) Incoming(id string) []*Edge {
	return g.incoming[id]
}

// OutgoingByType returns the outgoing edges of the given type.
func (g *Graph) OutgoingByType(id string, t EdgeType) []*Edge {
	var result []*Edge
	for _, e := range g.outgoing[id] {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// IncomingByType returns the incoming edges of the given type.
func (g *Graph) IncomingByType(id string, t EdgeType) []*Edge {
	var result []*Edge
	for _, e := range g.incoming[id] {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Container returns the node that contains the given node via a contains
// edge, or nil if the node is top-level.
func (g *Graph) Container(id string) *Node {
	for _, e := range g.incoming[id] {
		if e.Type == EdgeTypeContains {
			return g.nodes[e.Source]
		}
	}
	return nil
}

// Children returns the nodes contained by the given node, in edge
// insertion order.
func (g *Graph) Children(id string) []*Node {
	var result []*Node
	for _, e := range g.outgoing[id] {
		if e.Type == EdgeTypeContains {
			if n := g.nodes[e.Target]; n != nil {
				result = append(result, n)
			}
		}
	}
	return result
}

// ContainingFile returns the file node whose path contains the given
// node, walking contains edges upward. Returns the node itself for file
// nodes.
func (g *Graph) ContainingFile(id string) *Node {
	n := g.nodes[id]
	for n != nil && n.Type != NodeTypeFile {
		n = g.Container(n.ID)
	}
	return n
}
