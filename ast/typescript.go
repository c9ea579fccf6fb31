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
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScriptParser parses TypeScript and TSX source files.
//
// Thread Safety:
//
//	NOT safe for concurrent use. The underlying tree-sitter parsers
//	maintain internal state. Create one parser per goroutine or guard
//	with external synchronization.
type TypeScriptParser struct {
	parser    *sitter.Parser
	tsxParser *sitter.Parser
}

// Compile-time interface check.
var _ Parser = (*TypeScriptParser)(nil)

// NewTypeScriptParser creates a parser for TypeScript and TSX files.
func NewTypeScriptParser() *TypeScriptParser {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	tsxParser := sitter.NewParser()
	tsxParser.SetLanguage(tsx.GetLanguage())

	return &TypeScriptParser{
		parser:    parser,
		tsxParser: tsxParser,
	}
}

// Parse builds the syntax tree for TypeScript source.
//
// Description:
//
//	Selects the TSX grammar for .tsx files and the plain TypeScript
//	grammar otherwise. Syntax errors leave ERROR nodes in the tree but
//	do not fail the parse.
func (p *TypeScriptParser) Parse(ctx context.Context, content []byte, filePath string) (*SourceFile, error) {
	ctx, span := startParseSpan(ctx, p.Language(), filePath, len(content))
	defer span.End()
	start := time.Now()

	parser := p.parser
	if strings.HasSuffix(filePath, ".tsx") {
		parser = p.tsxParser
	}

	file, err := parseWithGrammar(ctx, parser, content, filePath, p.Language())
	recordParseMetrics(ctx, p.Language(), time.Since(start), err == nil)
	return file, err
}

// Language returns "typescript".
func (p *TypeScriptParser) Language() string {
	return "typescript"
}

// Extensions returns the TypeScript file extensions.
func (p *TypeScriptParser) Extensions() []string {
	return []string{".ts", ".tsx", ".mts", ".cts"}
}
