// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package visualization renders call graphs into their output formats.
//
// All generators are stateless and read-only over the graph; they can
// run concurrently on a frozen graph.
package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/callgraph/graph"
)

// OutputFormat specifies the serialization output format.
type OutputFormat string

const (
	// FormatDOT is the full graph in Graphviz DOT, one edge per call site.
	FormatDOT OutputFormat = "dot"

	// FormatJSON is the full graph as a {"nodes", "calls"} document.
	FormatJSON OutputFormat = "json"

	// FormatSummary is the {"files", "functionCalls"} summary document.
	FormatSummary OutputFormat = "summary"

	// FormatFunctionCall is DOT over the aggregated caller/callee pairs,
	// one edge per pair labeled with its count.
	FormatFunctionCall OutputFormat = "function-call"

	// FormatFunctionSummary is DOT over the per-function implementation
	// summaries, color-coded by node kind.
	FormatFunctionSummary OutputFormat = "function-summary"
)

// ParseFormat normalizes a format string.
//
// Unknown strings fall back to FormatDOT; the bool reports whether the
// input was recognized.
func ParseFormat(s string) (OutputFormat, bool) {
	switch OutputFormat(s) {
	case FormatDOT, FormatJSON, FormatSummary, FormatFunctionCall, FormatFunctionSummary:
		return OutputFormat(s), true
	default:
		return FormatDOT, false
	}
}

// GraphGenerator renders call graphs into visual and structured formats.
//
// # Description
//
// Produces DOT, JSON, and plain-text projections of a CallGraph. All
// rendering is done locally without external services.
//
// # Thread Safety
//
// Safe for concurrent use over frozen graphs.
type GraphGenerator struct {
	options GraphOptions
}

// GraphOptions configures graph rendering.
type GraphOptions struct {
	// Direction is the DOT graph direction (TB, LR, BT, RL).
	// Default: "LR"
	Direction string
}

// DefaultGraphOptions returns sensible defaults.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		Direction: "LR",
	}
}

// NewGraphGenerator creates a new graph generator.
func NewGraphGenerator(opts *GraphOptions) *GraphGenerator {
	if opts == nil {
		defaults := DefaultGraphOptions()
		opts = &defaults
	}
	if opts.Direction == "" {
		opts.Direction = "LR"
	}
	return &GraphGenerator{options: *opts}
}

// Document is the full-graph JSON projection. Unmarshaling it yields
// exactly the node and call counts of the source graph.
type Document struct {
	Nodes []*graph.Node    `json:"nodes"`
	Calls []graph.CallInfo `json:"calls"`
}

// SummaryDocument is the summary JSON projection.
type SummaryDocument struct {
	Files         []graph.FileFunctions `json:"files"`
	FunctionCalls []graph.FunctionCall  `json:"functionCalls"`
}

// FilesDocument is the file index sidecar written alongside the
// function-call projection.
type FilesDocument struct {
	Files []graph.FileFunctions `json:"files"`
}

// Generate renders the graph in the requested format.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - g: The call graph to render.
//   - format: The output format. Unrecognized formats fall back to DOT
//     with a logged warning; they are never an error.
//
// # Outputs
//
//   - string: The rendering in the requested format.
//   - error: Non-nil only on JSON marshaling failure or nil inputs.
func (gen *GraphGenerator) Generate(ctx context.Context, g *graph.CallGraph, format OutputFormat) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("context is required")
	}
	if g == nil {
		return "", fmt.Errorf("graph is required")
	}

	switch format {
	case FormatDOT:
		return gen.generateDOT(g), nil
	case FormatJSON:
		return gen.generateJSON(g)
	case FormatSummary:
		return gen.generateSummaryJSON(g)
	case FormatFunctionCall:
		return gen.generateFunctionCallDOT(g), nil
	case FormatFunctionSummary:
		return gen.generateFunctionSummaryDOT(g), nil
	default:
		slog.Warn("unknown output format, defaulting to dot",
			"format", string(format),
		)
		return gen.generateDOT(g), nil
	}
}

// generateDOT renders the full graph, one edge per call site.
func (gen *GraphGenerator) generateDOT(g *graph.CallGraph) string {
	var sb strings.Builder

	sb.WriteString("digraph CallGraph {\n")
	sb.WriteString(fmt.Sprintf("    rankdir=%s;\n", gen.options.Direction))
	sb.WriteString("    node [shape=box, style=filled];\n")
	sb.WriteString("\n")

	for _, node := range g.Nodes() {
		id := quoteDOTID(node.Name)
		attrs := []string{
			fmt.Sprintf("label=\"%s\"", escapeDOTLabel(node.Name)),
			fmt.Sprintf("fillcolor=\"%s\"", kindColor(node.Kind)),
		}
		if node.Kind == graph.NodeKindClass {
			attrs = append(attrs, "shape=ellipse")
		}
		if node.Exported {
			attrs = append(attrs, "penwidth=2")
		}
		sb.WriteString(fmt.Sprintf("    %s [%s];\n", id, strings.Join(attrs, ", ")))
	}

	sb.WriteString("\n")

	for _, call := range g.Calls() {
		from := quoteDOTID(call.Caller)
		to := quoteDOTID(call.Callee)
		attrs := []string{fmt.Sprintf("label=\"L%d\"", call.Line)}
		if call.IsRecursive {
			attrs = append(attrs, "color=\"#ff6b6b\"")
		}
		if call.IsConstructor {
			attrs = append(attrs, "style=dashed")
		}
		sb.WriteString(fmt.Sprintf("    %s -> %s [%s];\n", from, to, strings.Join(attrs, ", ")))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// generateJSON renders the full {"nodes", "calls"} document.
func (gen *GraphGenerator) generateJSON(g *graph.CallGraph) (string, error) {
	doc := Document{
		Nodes: g.Nodes(),
		Calls: g.Calls(),
	}
	// Keep empty collections as [] rather than null.
	if doc.Nodes == nil {
		doc.Nodes = []*graph.Node{}
	}
	if doc.Calls == nil {
		doc.Calls = []graph.CallInfo{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal graph: %w", err)
	}
	return string(data) + "\n", nil
}

// generateSummaryJSON renders the {"files", "functionCalls"} document.
func (gen *GraphGenerator) generateSummaryJSON(g *graph.CallGraph) (string, error) {
	doc := SummaryDocument{
		Files:         g.FileIndex(),
		FunctionCalls: g.FunctionCalls(),
	}
	if doc.Files == nil {
		doc.Files = []graph.FileFunctions{}
	}
	if doc.FunctionCalls == nil {
		doc.FunctionCalls = []graph.FunctionCall{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	return string(data) + "\n", nil
}

// generateFunctionCallDOT renders one edge per distinct caller/callee
// pair, labeled with the pair's call count.
func (gen *GraphGenerator) generateFunctionCallDOT(g *graph.CallGraph) string {
	var sb strings.Builder

	sb.WriteString("digraph FunctionCalls {\n")
	sb.WriteString(fmt.Sprintf("    rankdir=%s;\n", gen.options.Direction))
	sb.WriteString("    node [shape=box, style=filled, fillcolor=\"#74b9ff\"];\n")
	sb.WriteString("\n")

	seen := make(map[string]bool)
	pairs := g.FunctionCalls()
	for _, pair := range pairs {
		for _, name := range []string{pair.Caller, pair.Callee} {
			if seen[name] {
				continue
			}
			seen[name] = true
			sb.WriteString(fmt.Sprintf("    %s [label=\"%s\"];\n",
				quoteDOTID(name), escapeDOTLabel(name)))
		}
	}

	sb.WriteString("\n")

	for _, pair := range pairs {
		label := ""
		if pair.Count > 1 {
			label = fmt.Sprintf(" [label=\"%dx\"]", pair.Count)
		}
		sb.WriteString(fmt.Sprintf("    %s -> %s%s;\n",
			quoteDOTID(pair.Caller), quoteDOTID(pair.Callee), label))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// generateFunctionSummaryDOT renders the implementation summaries,
// color-coding each node by its kind.
func (gen *GraphGenerator) generateFunctionSummaryDOT(g *graph.CallGraph) string {
	var sb strings.Builder

	sb.WriteString("digraph FunctionSummary {\n")
	sb.WriteString(fmt.Sprintf("    rankdir=%s;\n", gen.options.Direction))
	sb.WriteString("    node [shape=box, style=filled];\n")
	sb.WriteString("\n")

	impls := g.Implementations()
	declared := make(map[string]bool)
	for _, impl := range impls {
		declared[impl.Name] = true
		sb.WriteString(fmt.Sprintf("    %s [label=\"%s\", fillcolor=\"%s\"];\n",
			quoteDOTID(impl.Name), escapeDOTLabel(impl.Name), implColor(g, impl.Name)))
	}
	for _, impl := range impls {
		for _, callee := range impl.Callees {
			if declared[callee.Name] {
				continue
			}
			declared[callee.Name] = true
			sb.WriteString(fmt.Sprintf("    %s [label=\"%s\", fillcolor=\"%s\"];\n",
				quoteDOTID(callee.Name), escapeDOTLabel(callee.Name), implColor(g, callee.Name)))
		}
	}

	sb.WriteString("\n")

	for _, impl := range impls {
		for _, callee := range impl.Callees {
			sb.WriteString(fmt.Sprintf("    %s -> %s;\n",
				quoteDOTID(impl.Name), quoteDOTID(callee.Name)))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// GenerateText renders the implementation summaries as indented text.
//
// # Description
//
// One block per function or method, sorted by name:
//
//	calculate: (a: number, b: number): number
//	- sum: (values: number[]): number
//	- average
//
// Functions that call nothing get a "no calls" line. Untyped names
// omit the ": type" suffix.
func (gen *GraphGenerator) GenerateText(g *graph.CallGraph) string {
	var sb strings.Builder

	for _, impl := range g.Implementations() {
		sb.WriteString(impl.Name)
		if impl.Type != "" {
			sb.WriteString(": ")
			sb.WriteString(impl.Type)
		}
		sb.WriteString("\n")

		if len(impl.Callees) == 0 {
			sb.WriteString("  no calls\n")
		}
		for _, callee := range impl.Callees {
			sb.WriteString("- ")
			sb.WriteString(callee.Name)
			if callee.Type != "" {
				sb.WriteString(": ")
				sb.WriteString(callee.Type)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// GenerateFileIndex renders the file index sidecar document.
func (gen *GraphGenerator) GenerateFileIndex(g *graph.CallGraph) (string, error) {
	doc := FilesDocument{Files: g.FileIndex()}
	if doc.Files == nil {
		doc.Files = []graph.FileFunctions{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal file index: %w", err)
	}
	return string(data) + "\n", nil
}

// Helper functions

// kindColor maps node kinds to DOT fill colors.
func kindColor(kind graph.NodeKind) string {
	switch kind {
	case graph.NodeKindFunction:
		return "#74b9ff"
	case graph.NodeKindMethod:
		return "#a29bfe"
	case graph.NodeKindClass:
		return "#ffd93d"
	case graph.NodeKindGlobal:
		return "#dfe6e9"
	default:
		return "#b2bec3"
	}
}

// implColor looks a node up to color it; unregistered names get the
// unknown color.
func implColor(g *graph.CallGraph, name string) string {
	if node, ok := g.GetNode(name); ok {
		return kindColor(node.Kind)
	}
	return kindColor(graph.NodeKindUnknown)
}

// quoteDOTID renders a node name as a quoted DOT identifier.
//
// Quoting keeps distinct names distinct; mangling characters into
// underscores would collide names like "a.b" and "a_b" and silently
// merge their nodes.
func quoteDOTID(s string) string {
	return "\"" + escapeDOTLabel(s) + "\""
}

// escapeDOTLabel escapes quotes and backslashes in DOT labels.
func escapeDOTLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
