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
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScriptParser parses JavaScript and JSX source files.
//
// The JavaScript grammar handles JSX natively, so a single parser
// covers all extensions.
//
// Thread Safety:
//
//	NOT safe for concurrent use. Create one parser per goroutine or
//	guard with external synchronization.
type JavaScriptParser struct {
	parser *sitter.Parser
}

// Compile-time interface check.
var _ Parser = (*JavaScriptParser)(nil)

// NewJavaScriptParser creates a parser for JavaScript and JSX files.
func NewJavaScriptParser() *JavaScriptParser {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	return &JavaScriptParser{parser: parser}
}

// Parse builds the syntax tree for JavaScript source.
func (p *JavaScriptParser) Parse(ctx context.Context, content []byte, filePath string) (*SourceFile, error) {
	ctx, span := startParseSpan(ctx, p.Language(), filePath, len(content))
	defer span.End()
	start := time.Now()

	file, err := parseWithGrammar(ctx, p.parser, content, filePath, p.Language())
	recordParseMetrics(ctx, p.Language(), time.Since(start), err == nil)
	return file, err
}

// Language returns "javascript".
func (p *JavaScriptParser) Language() string {
	return "javascript"
}

// Extensions returns the JavaScript file extensions.
func (p *JavaScriptParser) Extensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs"}
}
