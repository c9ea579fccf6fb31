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
	"encoding/json"
	"fmt"
)

// NodeKind classifies what a graph node represents in the source program.
type NodeKind int

const (
	// NodeKindUnknown is the zero value and indicates an unclassified node.
	NodeKindUnknown NodeKind = iota

	// NodeKindFunction is a free function, including arrow functions and
	// function expressions bound to a name.
	NodeKindFunction

	// NodeKindMethod is a function defined on a class, named Class.method.
	NodeKindMethod

	// NodeKindClass is a class declaration, used as the callee of new expressions.
	NodeKindClass

	// NodeKindGlobal is the synthetic per-file top-level scope.
	NodeKindGlobal
)

// nodeKindNames maps NodeKind values to their string representations.
var nodeKindNames = map[NodeKind]string{
	NodeKindUnknown:  "unknown",
	NodeKindFunction: "function",
	NodeKindMethod:   "method",
	NodeKindClass:    "class",
	NodeKindGlobal:   "global",
}

// String returns the string representation of the NodeKind.
func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON serializes the NodeKind as its string name.
func (k NodeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON deserializes a NodeKind from its string name.
func (k *NodeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	kind, err := ParseNodeKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseNodeKind converts a string to a NodeKind.
//
// Outputs:
//
//	NodeKind - The parsed kind.
//	error - Non-nil if the string doesn't match a known kind.
func ParseNodeKind(s string) (NodeKind, error) {
	for kind, name := range nodeKindNames {
		if name == s {
			return kind, nil
		}
	}
	return NodeKindUnknown, fmt.Errorf("unknown node kind: %q", s)
}
