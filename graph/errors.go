// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the call graph data model and the operations
// that build, filter, and prune it.
//
// The package contains types for representing a program as a directed
// graph where nodes are functions, methods, classes, and per-file global
// scopes, and every edge is one call site observed in the sources.
//
// # Ownership Model
//
// A CallGraph owns exactly two collections:
//   - The node registry, keyed by unique node name, insertion order preserved
//   - The flat call list in discovery order
//
// Calls are NOT deduplicated; if A calls B at three sites, the list holds
// three CallInfo records. Derived views (per-pair aggregation, file index,
// implementation summaries) are computed on demand and never stored.
//
// # Thread Safety
//
// CallGraph is NOT safe for concurrent use during building. It is designed for:
//   - Single-writer access during build phase (AddNode, AddCall, FilterCalls, PruneByWidth)
//   - Read-only access after Freeze() is called
//
// After Freeze(), the graph can be safely read from multiple goroutines.
//
// # Lifecycle
//
// A typical graph lifecycle:
//  1. Create with NewCallGraph()
//  2. Populate with Builder.Build() or direct AddNode()/AddCall() calls
//  3. Optionally FilterCalls() and PruneByWidth()
//  4. Call Freeze() to finalize
//  5. Render through the visualization package
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrGraphFrozen is returned when attempting to modify a frozen graph.
	// Once Freeze() is called, the graph becomes read-only and no further
	// nodes or calls can be added, filtered, or pruned.
	ErrGraphFrozen = errors.New("graph is frozen and cannot be modified")

	// ErrNodeNotFound is returned when a call references a node that was
	// never registered.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNode is returned when adding a node with a name that
	// already exists in the graph.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrInvalidNode is returned when attempting to add a node with an
	// empty name or an unknown kind.
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidCall is returned when a call record is missing its caller
	// or callee name.
	ErrInvalidCall = errors.New("invalid call record")

	// ErrMaxNodesExceeded is returned when the graph has reached its
	// configured maximum node capacity.
	ErrMaxNodesExceeded = errors.New("maximum node count exceeded")

	// ErrMaxEdgesExceeded is returned when the graph has reached its
	// configured maximum call capacity.
	ErrMaxEdgesExceeded = errors.New("maximum call count exceeded")

	// ErrBuildCancelled is returned when a build operation is cancelled via context.
	ErrBuildCancelled = errors.New("build cancelled")
)
