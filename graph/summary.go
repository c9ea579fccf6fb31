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

import "sort"

// Derived views over the call graph.
//
// These are computed on demand from the node registry and the call
// list; nothing here mutates the graph, so all three views are safe on
// frozen graphs and never observe stale data.

// FunctionCall is one aggregated caller/callee pair with its call count.
type FunctionCall struct {
	// Caller is the calling node's name.
	Caller string `json:"caller"`

	// Callee is the called node's name.
	Callee string `json:"callee"`

	// Count is how many call sites share this pair.
	Count int `json:"count"`
}

// FunctionCalls aggregates the call list into distinct caller/callee pairs.
//
// Description:
//
//	Pairs appear in the order their first call site was discovered, and
//	each pair's Count is the number of raw call records it covers. The
//	counts always sum to CallCount().
func (g *CallGraph) FunctionCalls() []FunctionCall {
	index := make(map[[2]string]int)
	result := make([]FunctionCall, 0)
	for _, call := range g.calls {
		key := [2]string{call.Caller, call.Callee}
		if i, ok := index[key]; ok {
			result[i].Count++
			continue
		}
		index[key] = len(result)
		result = append(result, FunctionCall{
			Caller: call.Caller,
			Callee: call.Callee,
			Count:  1,
		})
	}
	return result
}

// FileFunctions lists the function and method nodes declared in one file.
type FileFunctions struct {
	// Path is the source file path.
	Path string `json:"path"`

	// Functions holds node names in registration order.
	Functions []string `json:"functions"`
}

// FileIndex groups function and method nodes by their declaring file.
//
// Description:
//
//	Only nodes that carry a file path appear; callee placeholders whose
//	declarations were never seen have no file and are skipped. Files
//	are sorted by path, functions within a file keep registration order.
func (g *CallGraph) FileIndex() []FileFunctions {
	byFile := make(map[string][]string)
	for _, name := range g.nodeOrder {
		node := g.nodes[name]
		if node == nil || node.FilePath == "" {
			continue
		}
		if node.Kind != NodeKindFunction && node.Kind != NodeKindMethod {
			continue
		}
		byFile[node.FilePath] = append(byFile[node.FilePath], name)
	}

	paths := make([]string, 0, len(byFile))
	for path := range byFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	result := make([]FileFunctions, 0, len(paths))
	for _, path := range paths {
		result = append(result, FileFunctions{
			Path:      path,
			Functions: byFile[path],
		})
	}
	return result
}

// CalleeRef is one distinct callee in an implementation summary.
type CalleeRef struct {
	// Name is the callee node's name.
	Name string `json:"name"`

	// Type is the callee's advisory type string, if known.
	Type string `json:"type,omitempty"`
}

// Implementation summarizes what one function or method calls.
type Implementation struct {
	// Name is the caller node's name.
	Name string `json:"name"`

	// Type is the caller's advisory type string, if known.
	Type string `json:"type,omitempty"`

	// Callees holds the distinct callees in first-encounter order.
	// Empty for functions that call nothing.
	Callees []CalleeRef `json:"callees"`
}

// Implementations summarizes the distinct callees of every function
// and method node.
//
// Description:
//
//	Per-file global scopes are excluded; every function and method node
//	appears, including those whose bodies call nothing. Callers are
//	sorted lexicographically by name, callees keep the order their
//	first call site was discovered.
func (g *CallGraph) Implementations() []Implementation {
	callees := make(map[string][]CalleeRef)
	seen := make(map[[2]string]bool)
	for _, call := range g.calls {
		key := [2]string{call.Caller, call.Callee}
		if seen[key] {
			continue
		}
		seen[key] = true
		callees[call.Caller] = append(callees[call.Caller], CalleeRef{
			Name: call.Callee,
			Type: call.CalleeType,
		})
	}

	names := make([]string, 0, len(g.nodeOrder))
	for _, name := range g.nodeOrder {
		node := g.nodes[name]
		if node == nil || node.Kind == NodeKindGlobal || node.Kind == NodeKindClass || node.Kind == NodeKindUnknown {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Implementation, 0, len(names))
	for _, name := range names {
		result = append(result, Implementation{
			Name:    name,
			Type:    g.nodes[name].Type,
			Callees: callees[name],
		})
	}
	return result
}
