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
	"time"
)

// Default configuration values.
const (
	// DefaultMaxNodes is the default maximum number of nodes a graph can hold.
	DefaultMaxNodes = 1_000_000

	// DefaultMaxCalls is the default maximum number of call records a graph can hold.
	DefaultMaxCalls = 10_000_000
)

// GraphState represents the lifecycle state of the graph.
type GraphState int

const (
	// GraphStateBuilding indicates the graph is accepting mutations.
	GraphStateBuilding GraphState = iota

	// GraphStateReadOnly indicates the graph is frozen and read-only.
	GraphStateReadOnly
)

// String returns the string representation of the GraphState.
func (s GraphState) String() string {
	switch s {
	case GraphStateBuilding:
		return "building"
	case GraphStateReadOnly:
		return "readonly"
	default:
		return "unknown"
	}
}

// Node represents a function, method, class, or per-file global scope.
//
// The Name is the unique key in the graph. Functions use their declared
// or derived name, methods use "Class.method", anonymous declarations use
// "anonymous_<file>_<line>_<col>", and each file's top-level scope uses
// "<global>_<file>".
type Node struct {
	// Name is the unique node identifier.
	Name string `json:"name"`

	// Kind classifies what the node represents.
	Kind NodeKind `json:"kind"`

	// Type is the advisory signature or type string read from source
	// annotations. Empty when the source carries no annotation.
	Type string `json:"type,omitempty"`

	// DocComment is the leading documentation comment, if any.
	DocComment string `json:"docComment,omitempty"`

	// FilePath is the source file the node was declared in. Empty for
	// callee nodes whose declarations were never seen.
	FilePath string `json:"filePath,omitempty"`

	// Exported reports whether the declaration carries an export modifier.
	Exported bool `json:"exported"`
}

// CallInfo records a single call site. Records are never deduplicated;
// each observed call expression produces exactly one CallInfo.
type CallInfo struct {
	// Caller is the name of the enclosing scope's node.
	Caller string `json:"caller"`

	// Callee is the name of the invoked node.
	Callee string `json:"callee"`

	// FilePath is the source file containing the call site.
	FilePath string `json:"filePath"`

	// Line is the 1-based line of the call expression.
	Line int `json:"line"`

	// Column is the 1-based column of the call expression.
	Column int `json:"column"`

	// IsRecursive is true if and only if Caller == Callee.
	IsRecursive bool `json:"isRecursive"`

	// IsMethod is true for property-access calls (obj.method()).
	IsMethod bool `json:"isMethod,omitempty"`

	// IsConstructor is true for new expressions.
	IsConstructor bool `json:"isConstructor,omitempty"`

	// ClassName is the class under construction for constructor calls,
	// or the receiver class for resolved method calls. Best effort.
	ClassName string `json:"className,omitempty"`

	// CallerType is the caller's advisory type string, if known.
	CallerType string `json:"callerType,omitempty"`

	// CalleeType is the callee's advisory type string, if known.
	CalleeType string `json:"calleeType,omitempty"`
}

// GraphOptions configures CallGraph behavior and limits.
type GraphOptions struct {
	// MaxNodes is the maximum number of nodes the graph can hold.
	// Default: 1,000,000
	MaxNodes int

	// MaxCalls is the maximum number of call records the graph can hold.
	// Default: 10,000,000
	MaxCalls int
}

// DefaultGraphOptions returns sensible defaults for graph configuration.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		MaxNodes: DefaultMaxNodes,
		MaxCalls: DefaultMaxCalls,
	}
}

// GraphOption is a functional option for configuring CallGraph.
type GraphOption func(*GraphOptions)

// WithMaxNodes sets the maximum number of nodes the graph can hold.
func WithMaxNodes(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxNodes = n
	}
}

// WithMaxCalls sets the maximum number of call records the graph can hold.
func WithMaxCalls(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxCalls = n
	}
}

// CallGraph is the extracted call graph of a program.
//
// Thread Safety:
//
//	CallGraph is NOT safe for concurrent use during building. It is
//	designed for single-writer access during build, then read-only after
//	Freeze(). After Freeze() is called, the graph can be safely read from
//	multiple goroutines, but no further modifications are allowed.
//
// Lifecycle:
//
//  1. Create with NewCallGraph()
//  2. Populate with AddNode() and AddCall() calls
//  3. Optionally FilterCalls() and PruneByWidth()
//  4. Call Freeze() to finalize
//  5. Query with GetNode(), Nodes(), Calls(), and the derived views
type CallGraph struct {
	// nodes maps node name to Node. Unexported to prevent direct access.
	nodes map[string]*Node

	// nodeOrder holds node names in registration order so projections
	// are deterministic.
	nodeOrder []string

	// calls holds every call record in discovery order.
	calls []CallInfo

	// state is the current lifecycle state.
	state GraphState

	// options contains configuration.
	options GraphOptions

	// BuiltAtMilli is the Unix timestamp in milliseconds when Freeze() was called.
	// Zero if the graph has not been frozen.
	BuiltAtMilli int64
}

// NewCallGraph creates a new empty call graph.
//
// Description:
//
//	Creates a graph in the Building state, ready to accept AddNode and
//	AddCall calls. The graph must be frozen with Freeze() before it is
//	shared with concurrent readers.
//
// Example:
//
//	// Default options
//	g := NewCallGraph()
//
//	// Custom limits
//	g := NewCallGraph(
//	    WithMaxNodes(100_000),
//	    WithMaxCalls(1_000_000),
//	)
func NewCallGraph(opts ...GraphOption) *CallGraph {
	options := DefaultGraphOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &CallGraph{
		nodes:     make(map[string]*Node),
		nodeOrder: make([]string, 0),
		calls:     make([]CallInfo, 0),
		state:     GraphStateBuilding,
		options:   options,
	}
}

// State returns the current lifecycle state of the graph.
func (g *CallGraph) State() GraphState {
	return g.state
}

// IsFrozen returns true if the graph is in read-only mode.
func (g *CallGraph) IsFrozen() bool {
	return g.state == GraphStateReadOnly
}

// Freeze transitions the graph to read-only mode.
//
// Description:
//
//	After calling Freeze(), all mutating operations return ErrGraphFrozen.
//	This operation is irreversible. The BuiltAtMilli timestamp is set to
//	the current time.
//
// Thread Safety:
//
//	After Freeze() returns, the graph can be safely read from multiple
//	goroutines concurrently.
func (g *CallGraph) Freeze() {
	g.state = GraphStateReadOnly
	g.BuiltAtMilli = time.Now().UnixMilli()
}

// NodeCount returns the number of nodes in the graph.
func (g *CallGraph) NodeCount() int {
	return len(g.nodes)
}

// CallCount returns the number of call records in the graph.
func (g *CallGraph) CallCount() int {
	return len(g.calls)
}

// AddNode registers a node in the graph.
//
// Description:
//
//	Adds the node under its Name. Registration order is preserved and
//	drives the node order of every projection.
//
// Inputs:
//
//	node - The node to add. Must not be nil, must have a non-empty Name.
//
// Outputs:
//
//	error - Non-nil if the graph is frozen, at capacity, or the node is invalid.
//
// Errors:
//
//	ErrGraphFrozen - Graph has been frozen
//	ErrInvalidNode - Node is nil or has an empty name
//	ErrDuplicateNode - Node with the same name already exists
//	ErrMaxNodesExceeded - Graph is at node capacity
//
// Ownership:
//
//	The graph stores the pointer. The node MUST NOT be mutated by the
//	caller after this call.
func (g *CallGraph) AddNode(node *Node) error {
	if g.state == GraphStateReadOnly {
		return ErrGraphFrozen
	}

	if node == nil || node.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidNode)
	}

	if len(g.nodes) >= g.options.MaxNodes {
		return ErrMaxNodesExceeded
	}

	if _, exists := g.nodes[node.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, node.Name)
	}

	g.nodes[node.Name] = node
	g.nodeOrder = append(g.nodeOrder, node.Name)
	return nil
}

// GetNode retrieves a node by name.
//
// Outputs:
//
//	*Node - The node if found, nil otherwise.
//	bool - True if the node was found.
func (g *CallGraph) GetNode(name string) (*Node, bool) {
	node, exists := g.nodes[name]
	return node, exists
}

// HasNode reports whether a node with the given name is registered.
func (g *CallGraph) HasNode(name string) bool {
	_, exists := g.nodes[name]
	return exists
}

// AddCall appends a call record to the graph.
//
// Description:
//
//	Both endpoints must already be registered; the builder guarantees
//	this by creating placeholder nodes for callees whose declarations
//	were never seen. IsRecursive is recomputed from the endpoint names
//	so the record can never disagree with its own endpoints.
//
// Inputs:
//
//	call - The call record. Caller and Callee must be non-empty.
//
// Outputs:
//
//	error - Non-nil if the graph is frozen, at capacity, the record is
//	invalid, or an endpoint is unregistered.
//
// Errors:
//
//	ErrGraphFrozen - Graph has been frozen
//	ErrInvalidCall - Caller or callee name is empty
//	ErrNodeNotFound - An endpoint was never registered
//	ErrMaxEdgesExceeded - Graph is at call capacity
func (g *CallGraph) AddCall(call CallInfo) error {
	if g.state == GraphStateReadOnly {
		return ErrGraphFrozen
	}

	if call.Caller == "" || call.Callee == "" {
		return fmt.Errorf("%w: caller=%q callee=%q", ErrInvalidCall, call.Caller, call.Callee)
	}

	if len(g.calls) >= g.options.MaxCalls {
		return ErrMaxEdgesExceeded
	}

	if _, ok := g.nodes[call.Caller]; !ok {
		return fmt.Errorf("%w: caller %s", ErrNodeNotFound, call.Caller)
	}
	if _, ok := g.nodes[call.Callee]; !ok {
		return fmt.Errorf("%w: callee %s", ErrNodeNotFound, call.Callee)
	}

	call.IsRecursive = call.Caller == call.Callee
	g.calls = append(g.calls, call)
	return nil
}

// Nodes returns all nodes in registration order.
//
// Description:
//
//	Returns a fresh slice; mutating it does not affect the graph. The
//	pointed-to nodes are shared and must not be mutated.
func (g *CallGraph) Nodes() []*Node {
	result := make([]*Node, 0, len(g.nodeOrder))
	for _, name := range g.nodeOrder {
		if node, ok := g.nodes[name]; ok {
			result = append(result, node)
		}
	}
	return result
}

// Calls returns all call records in discovery order.
//
// Description:
//
//	Returns the internal slice. Callers should NOT modify it.
func (g *CallGraph) Calls() []CallInfo {
	return g.calls
}

// CallsFrom returns the call records whose caller matches, in discovery order.
func (g *CallGraph) CallsFrom(caller string) []CallInfo {
	result := make([]CallInfo, 0)
	for _, call := range g.calls {
		if call.Caller == caller {
			result = append(result, call)
		}
	}
	return result
}

// GraphStats contains statistics about the graph.
//
// Thread Safety: GraphStats is a value type with no internal state.
// Safe for concurrent use as long as the source CallGraph is frozen.
type GraphStats struct {
	// NodeCount is the total number of nodes.
	NodeCount int

	// CallCount is the total number of call records.
	CallCount int

	// NodesByKind maps each NodeKind to the count of nodes of that kind.
	NodesByKind map[NodeKind]int

	// RecursiveCalls is the number of self-calls.
	RecursiveCalls int

	// MethodCalls is the number of property-access calls.
	MethodCalls int

	// ConstructorCalls is the number of new expressions.
	ConstructorCalls int

	// FileCount is the number of distinct source files seen on nodes.
	FileCount int

	// State is the current graph state.
	State GraphState

	// BuiltAtMilli is when Freeze() was called (0 if not frozen).
	BuiltAtMilli int64
}

// Stats returns statistics about the graph.
//
// Description:
//
//	Returns node/call counts with breakdowns by node kind and call
//	flavor. Computed in a single pass over both collections.
//
// Thread Safety:
//
//	Safe for concurrent use on frozen graphs. Not safe during building.
func (g *CallGraph) Stats() GraphStats {
	stats := GraphStats{
		NodeCount:    len(g.nodes),
		CallCount:    len(g.calls),
		NodesByKind:  make(map[NodeKind]int),
		State:        g.state,
		BuiltAtMilli: g.BuiltAtMilli,
	}

	files := make(map[string]struct{})
	for _, node := range g.nodes {
		stats.NodesByKind[node.Kind]++
		if node.FilePath != "" {
			files[node.FilePath] = struct{}{}
		}
	}
	stats.FileCount = len(files)

	for _, call := range g.calls {
		if call.IsRecursive {
			stats.RecursiveCalls++
		}
		if call.IsMethod {
			stats.MethodCalls++
		}
		if call.IsConstructor {
			stats.ConstructorCalls++
		}
	}

	return stats
}

// Clone creates a deep copy of the graph.
//
// Description:
//
//	Creates an independent copy that can be filtered or pruned without
//	affecting the original. The clone is always in the Building state.
//
// Behavior:
//
//   - Nodes are deep copied (new Node structs)
//   - Call records are copied by value
//   - BuiltAtMilli is preserved from the original
//   - State is reset to GraphStateBuilding
func (g *CallGraph) Clone() *CallGraph {
	clone := &CallGraph{
		nodes:        make(map[string]*Node, len(g.nodes)),
		nodeOrder:    make([]string, len(g.nodeOrder)),
		calls:        make([]CallInfo, len(g.calls)),
		state:        GraphStateBuilding,
		options:      g.options,
		BuiltAtMilli: g.BuiltAtMilli,
	}

	copy(clone.nodeOrder, g.nodeOrder)
	copy(clone.calls, g.calls)
	for name, node := range g.nodes {
		copied := *node
		clone.nodes[name] = &copied
	}

	return clone
}
