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
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Predicate decides whether a call record should be removed.
type Predicate func(call CallInfo) bool

// AnyPredicate composes predicates with OR. A call matching any of the
// given predicates is removed. Nil predicates are skipped; composing
// zero predicates yields a predicate that matches nothing.
func AnyPredicate(preds ...Predicate) Predicate {
	active := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	return func(call CallInfo) bool {
		for _, p := range active {
			if p(call) {
				return true
			}
		}
		return false
	}
}

// stdlibPrefixes is the closed list of runtime global receivers whose
// calls count as standard library usage.
var stdlibPrefixes = []string{
	"console.",
	"Math.",
	"Array.",
	"Object.",
	"JSON.",
	"Promise.",
	"String.",
	"Number.",
	"Boolean.",
	"Date.",
	"RegExp.",
	"Error.",
	"Map.",
	"Set.",
	"WeakMap.",
	"WeakSet.",
	"Symbol.",
	"Reflect.",
	"Proxy.",
	"Intl.",
	"Atomics.",
	"BigInt.",
	"globalThis.",
	"Deno.",
	"process.",
}

// stdlibNames is the closed list of bare runtime global functions.
var stdlibNames = map[string]bool{
	"parseInt":           true,
	"parseFloat":         true,
	"isNaN":              true,
	"isFinite":           true,
	"encodeURI":          true,
	"decodeURI":          true,
	"encodeURIComponent": true,
	"decodeURIComponent": true,
	"setTimeout":         true,
	"setInterval":        true,
	"clearTimeout":       true,
	"clearInterval":      true,
	"queueMicrotask":     true,
	"structuredClone":    true,
	"fetch":              true,
	"require":            true,
	"alert":              true,
}

// StdlibPredicate matches calls into the runtime's standard library.
//
// Description:
//
//	Matches callee names against a closed list of global receivers
//	(console., Math., JSON., ...) and bare global functions (parseInt,
//	setTimeout, ...). The list is intentionally closed; unknown
//	receivers never match.
func StdlibPredicate() Predicate {
	return func(call CallInfo) bool {
		if stdlibNames[call.Callee] {
			return true
		}
		for _, prefix := range stdlibPrefixes {
			if strings.HasPrefix(call.Callee, prefix) {
				return true
			}
		}
		return false
	}
}

// Origin classifies where a callee's declaration lives.
type Origin int

const (
	// OriginLocal is a callee declared in the analyzed sources, or one
	// whose origin cannot be determined.
	OriginLocal Origin = iota

	// OriginNPM is a callee from an npm-distributed dependency.
	OriginNPM

	// OriginJSR is a callee from a jsr-distributed dependency.
	OriginJSR
)

// String returns the string representation of the Origin.
func (o Origin) String() string {
	switch o {
	case OriginNPM:
		return "npm"
	case OriginJSR:
		return "jsr"
	default:
		return "local"
	}
}

// OriginClassifier decides which ecosystem a callee comes from.
//
// Implementations receive the callee's node name and its declaring file
// path (empty when the declaration was never seen). The default
// EcosystemClassifier covers npm and jsr conventions; callers with
// other layouts (vendored trees, import maps) plug in their own.
type OriginClassifier interface {
	Origin(name, filePath string) Origin
}

// EcosystemClassifier is the default OriginClassifier.
//
// It recognizes npm:/jsr: protocol prefixes on callee names and
// node_modules path segments on declaring files.
type EcosystemClassifier struct{}

// Compile-time interface check.
var _ OriginClassifier = EcosystemClassifier{}

// Origin implements OriginClassifier.
func (EcosystemClassifier) Origin(name, filePath string) Origin {
	if strings.HasPrefix(name, "npm:") {
		return OriginNPM
	}
	if strings.HasPrefix(name, "jsr:") {
		return OriginJSR
	}
	if strings.Contains(filePath, "node_modules/") {
		return OriginNPM
	}
	if strings.Contains(filePath, "jsr.io/") {
		return OriginJSR
	}
	return OriginLocal
}

// OriginPredicate matches calls whose callee comes from any of the
// given ecosystems, as judged by the classifier.
//
// The predicate closes over the graph to look up the callee's declaring
// file; use it only on the graph it was built for, before Freeze().
func OriginPredicate(g *CallGraph, classifier OriginClassifier, origins ...Origin) Predicate {
	if classifier == nil {
		classifier = EcosystemClassifier{}
	}
	want := make(map[Origin]bool, len(origins))
	for _, o := range origins {
		want[o] = true
	}
	return func(call CallInfo) bool {
		var filePath string
		if node, ok := g.GetNode(call.Callee); ok {
			filePath = node.FilePath
		}
		return want[classifier.Origin(call.Callee, filePath)]
	}
}

// PatternPredicate matches caller or callee names against a user pattern.
//
// Description:
//
//	The pattern is compiled as a regular expression. If compilation
//	fails, the predicate silently degrades to substring matching; a
//	malformed pattern is never an error.
func PatternPredicate(pattern string) Predicate {
	if pattern == "" {
		return nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		slog.Warn("ignore pattern is not valid regex, using substring match",
			"pattern", pattern,
			"error", err,
		)
		return func(call CallInfo) bool {
			return strings.Contains(call.Caller, pattern) || strings.Contains(call.Callee, pattern)
		}
	}

	return func(call CallInfo) bool {
		return re.MatchString(call.Caller) || re.MatchString(call.Callee)
	}
}

// FilterCalls removes matching call records and newly unreferenced nodes.
//
// Description:
//
//	Removes every call the predicate matches, preserving discovery
//	order of the survivors. A node is then removed only if it was an
//	endpoint of at least one removed call and no surviving call
//	references it. Nodes that never had a call are untouched, so
//	filtering with a predicate that matches nothing leaves the graph
//	byte-for-byte unchanged, and filtering is idempotent.
//
// Inputs:
//
//	pred - The removal predicate. Nil removes nothing.
//
// Outputs:
//
//	int - Number of call records removed.
//	error - ErrGraphFrozen if the graph has been frozen.
func (g *CallGraph) FilterCalls(pred Predicate) (int, error) {
	if g.state == GraphStateReadOnly {
		return 0, ErrGraphFrozen
	}
	if pred == nil {
		return 0, nil
	}

	touched := make(map[string]bool)
	kept := make([]CallInfo, 0, len(g.calls))
	removed := 0
	for _, call := range g.calls {
		if pred(call) {
			touched[call.Caller] = true
			touched[call.Callee] = true
			removed++
			continue
		}
		kept = append(kept, call)
	}
	if removed == 0 {
		return 0, nil
	}
	g.calls = kept

	referenced := make(map[string]bool, len(kept)*2)
	for _, call := range kept {
		referenced[call.Caller] = true
		referenced[call.Callee] = true
	}

	dropped := 0
	for name := range touched {
		if !referenced[name] {
			delete(g.nodes, name)
			dropped++
		}
	}
	if dropped > 0 {
		order := make([]string, 0, len(g.nodeOrder)-dropped)
		for _, name := range g.nodeOrder {
			if _, ok := g.nodes[name]; ok {
				order = append(order, name)
			}
		}
		g.nodeOrder = order
	}

	recordFilterMetrics(context.Background(), removed)
	slog.Debug("calls filtered",
		"calls_removed", removed,
		"nodes_removed", dropped,
	)

	return removed, nil
}
