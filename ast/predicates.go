// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Syntax kind predicates over tree-sitter nodes.
//
// The TypeScript and JavaScript grammars share these node type names,
// so the graph builder can traverse either language's tree without
// branching. The predicates are nil-safe.

// IsCallExpression reports whether the node is a call expression.
func IsCallExpression(n *sitter.Node) bool {
	return n != nil && n.Type() == "call_expression"
}

// IsNewExpression reports whether the node is a new expression.
func IsNewExpression(n *sitter.Node) bool {
	return n != nil && n.Type() == "new_expression"
}

// IsFunctionDeclaration reports whether the node is a named function
// declaration, including generator functions.
func IsFunctionDeclaration(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		return true
	}
	return false
}

// IsFunctionExpression reports whether the node is an unnamed function
// form: a function expression, generator expression, or arrow function.
func IsFunctionExpression(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "function_expression", "function", "generator_function", "arrow_function":
		return true
	}
	return false
}

// IsFunctionLike reports whether the node introduces a function scope.
func IsFunctionLike(n *sitter.Node) bool {
	return IsFunctionDeclaration(n) || IsFunctionExpression(n) || IsMethodDefinition(n)
}

// IsClassDeclaration reports whether the node declares a class.
func IsClassDeclaration(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "class_declaration", "class":
		return true
	}
	return false
}

// IsMethodDefinition reports whether the node defines a class method.
func IsMethodDefinition(n *sitter.Node) bool {
	return n != nil && n.Type() == "method_definition"
}

// IsIdentifier reports whether the node is a plain identifier.
func IsIdentifier(n *sitter.Node) bool {
	return n != nil && n.Type() == "identifier"
}

// IsMemberExpression reports whether the node is a property access.
func IsMemberExpression(n *sitter.Node) bool {
	return n != nil && n.Type() == "member_expression"
}

// IsThis reports whether the node is the this expression.
func IsThis(n *sitter.Node) bool {
	return n != nil && n.Type() == "this"
}

// DeclaredName returns the name a function-like node is bound to.
//
// Description:
//
//	Named declarations and methods use their name field. Function
//	expressions and arrow functions take the name of the enclosing
//	variable declarator, property assignment, or class field when one
//	exists. Returns "" when no name can be derived, in which case the
//	caller falls back to a positional anonymous name.
func DeclaredName(f *SourceFile, n *sitter.Node) string {
	if n == nil {
		return ""
	}

	if name := n.ChildByFieldName("name"); name != nil {
		return f.Text(name)
	}

	parent := n.Parent()
	if parent == nil {
		return ""
	}
	switch parent.Type() {
	case "variable_declarator", "public_field_definition", "field_definition":
		if name := parent.ChildByFieldName("name"); name != nil && !isComputedName(name) {
			return f.Text(name)
		}
	case "pair":
		if key := parent.ChildByFieldName("key"); key != nil && !isComputedName(key) {
			return f.Text(key)
		}
	case "assignment_expression":
		if left := parent.ChildByFieldName("left"); IsIdentifier(left) {
			return f.Text(left)
		}
	}
	return ""
}

// isComputedName reports whether a name node is a computed property key.
func isComputedName(n *sitter.Node) bool {
	return n != nil && n.Type() == "computed_property_name"
}

// MethodName returns the method's own name within its class.
//
// Computed names ([expr]()) return "<computed>" so the builder can form
// the "Class.<computed>" node name.
func MethodName(f *SourceFile, n *sitter.Node) string {
	name := n.ChildByFieldName("name")
	if name == nil {
		return "<computed>"
	}
	if isComputedName(name) {
		return "<computed>"
	}
	return f.Text(name)
}

// Signature returns the declared signature text of a function-like node.
//
// Description:
//
//	Concatenates the parameter list and the return type annotation as
//	written in source, e.g. "(a: number, b: number): number". Purely
//	advisory; no inference is performed and unannotated declarations
//	yield just the parameter list.
func Signature(f *SourceFile, n *sitter.Node) string {
	if n == nil {
		return ""
	}

	var sb strings.Builder
	if params := n.ChildByFieldName("parameters"); params != nil {
		sb.WriteString(f.Text(params))
	} else if param := n.ChildByFieldName("parameter"); param != nil {
		// Arrow functions with a single unparenthesized parameter
		sb.WriteString("(")
		sb.WriteString(f.Text(param))
		sb.WriteString(")")
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		sb.WriteString(f.Text(ret))
	}
	return sb.String()
}

// LeadingComment returns the documentation comment preceding a declaration.
//
// Description:
//
//	Walks to the preceding sibling, looking through an export_statement
//	wrapper when present, and returns the comment text if it is a
//	JSDoc-style block comment. Line comments and unrelated block
//	comments are ignored.
func LeadingComment(f *SourceFile, n *sitter.Node) string {
	if n == nil {
		return ""
	}

	// Comments attach to the export statement, not the inner declaration.
	target := n
	if parent := n.Parent(); parent != nil && parent.Type() == "export_statement" {
		target = parent
	}

	prev := target.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}

	text := f.Text(prev)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	return text
}

// IsExported reports whether a declaration carries an export modifier.
func IsExported(n *sitter.Node) bool {
	for p := n; p != nil; p = p.Parent() {
		switch p.Type() {
		case "export_statement":
			return true
		case "statement_block", "class_body", "program":
			return false
		}
	}
	return false
}
