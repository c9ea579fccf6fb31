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
	"context"
	"sync"
)

// Parser defines the contract for language-specific AST parsing.
//
// Description:
//
//	Parser implementations produce a SourceFile carrying the concrete
//	syntax tree of a single source file. Each implementation handles one
//	language family (TypeScript, JavaScript) but the returned tree is
//	traversed through the shared predicates in this package, so the
//	graph builder never branches on language.
//
//	The Parser interface is designed to be:
//	- Context-aware: Supports cancellation and timeouts via context.Context
//	- Error-tolerant: Partial trees are returned; syntax errors show up
//	  as ERROR nodes that traversal simply steps over
//
// Thread Safety:
//
//	Implementations hold a tree-sitter parser, which is NOT safe for
//	concurrent use. Share a Parser across goroutines only with external
//	synchronization, or create one per goroutine.
//
// Example:
//
//	parser := NewTypeScriptParser()
//	content, _ := os.ReadFile("main.ts")
//	file, err := parser.Parse(ctx, content, "main.ts")
//	if err != nil {
//	    return fmt.Errorf("parse failed: %w", err)
//	}
//	defer file.Close()
type Parser interface {
	// Parse builds the syntax tree for the given source content.
	//
	// Parameters:
	//   - ctx: Context for cancellation.
	//   - content: Raw source bytes (must be valid UTF-8).
	//   - filePath: Path to the file, relative to the analyzed root.
	//
	// Returns:
	//   - *SourceFile: The parsed file. Never nil on success. The caller
	//     owns the file and must Close() it to release the tree.
	//   - error: Non-nil only for complete failures (invalid UTF-8,
	//     oversized input, cancelled context). Syntax errors do not fail
	//     the parse.
	Parse(ctx context.Context, content []byte, filePath string) (*SourceFile, error)

	// Language returns the canonical name of the language this parser
	// handles, e.g. "typescript" or "javascript".
	Language() string

	// Extensions returns the file extensions this parser can handle,
	// including the leading dot. Lowercase, case-sensitive.
	Extensions() []string
}

// ParserRegistry manages parser instances by language and file extension.
//
// Description:
//
//	ParserRegistry provides a central lookup mechanism for finding the
//	appropriate parser for a given file or language.
//
// Thread Safety:
//
//	ParserRegistry is fully thread-safe. Registration uses write locks,
//	lookups use read locks. The parsers it hands out are not themselves
//	safe for concurrent use; see Parser.
type ParserRegistry struct {
	mu sync.RWMutex

	// byLanguage maps language names to parser instances.
	byLanguage map[string]Parser

	// byExtension maps file extensions to parser instances.
	byExtension map[string]Parser
}

// NewParserRegistry creates a new empty ParserRegistry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		byLanguage:  make(map[string]Parser),
		byExtension: make(map[string]Parser),
	}
}

// DefaultRegistry returns a registry with the TypeScript and JavaScript
// parsers registered.
func DefaultRegistry() *ParserRegistry {
	r := NewParserRegistry()
	r.Register(NewTypeScriptParser())
	r.Register(NewJavaScriptParser())
	return r
}

// Register adds a parser to the registry.
//
// The parser is registered under its Language() name and all its
// Extensions(). Existing registrations for the same keys are overwritten.
func (r *ParserRegistry) Register(parser Parser) {
	if parser == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[parser.Language()] = parser

	for _, ext := range parser.Extensions() {
		r.byExtension[ext] = parser
	}
}

// GetByLanguage returns the parser for the given language name.
//
// Returns:
//   - Parser: The registered parser, or nil if not found.
//   - bool: True if a parser was found.
func (r *ParserRegistry) GetByLanguage(language string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parser, ok := r.byLanguage[language]
	return parser, ok
}

// GetByExtension returns the parser for the given file extension.
//
// Parameters:
//   - ext: The extension including the dot (e.g., ".ts"). Case-sensitive.
func (r *ParserRegistry) GetByExtension(ext string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parser, ok := r.byExtension[ext]
	return parser, ok
}

// Languages returns a list of all registered language names.
func (r *ParserRegistry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	languages := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		languages = append(languages, lang)
	}
	return languages
}

// Extensions returns a list of all registered file extensions.
func (r *ParserRegistry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extensions := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		extensions = append(extensions, ext)
	}
	return extensions
}
