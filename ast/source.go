// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast loads and parses source files into concrete syntax trees.
//
// The package wraps tree-sitter parsers for TypeScript and JavaScript
// behind a common Parser interface and exposes the predicates and text
// helpers the graph builder needs to traverse the raw trees. It owns
// all file reading; nothing downstream touches raw source bytes.
package ast

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// File size limits.
const (
	// DefaultMaxFileSize is the maximum file size processed (10 MB).
	// Larger files are skipped with ErrFileTooLarge.
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize is the threshold above which a warning is logged (1 MB).
	WarnFileSize = 1 * 1024 * 1024
)

// SourceFile is a parsed source file with its concrete syntax tree.
//
// Ownership:
//
//	The tree is backed by C memory. Call Close() when the file is no
//	longer needed; Program.Close() does this for every loaded file.
type SourceFile struct {
	// Path is the file path relative to the analyzed root.
	Path string

	// Content is the raw source bytes the tree was parsed from.
	Content []byte

	// Language is the canonical language name ("typescript", "javascript").
	Language string

	// Tree is the tree-sitter parse tree.
	Tree *sitter.Tree
}

// Root returns the root node of the syntax tree.
func (f *SourceFile) Root() *sitter.Node {
	return f.Tree.RootNode()
}

// Text returns the source text covered by the given node.
func (f *SourceFile) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.Content)
}

// Base returns the file's base name without extension, used as the
// file component of synthetic node names.
func (f *SourceFile) Base() string {
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Position returns the 1-based line and column of the node's start.
func (f *SourceFile) Position(n *sitter.Node) (line, col int) {
	p := n.StartPoint()
	return int(p.Row) + 1, int(p.Column) + 1
}

// Close releases the underlying tree-sitter tree.
func (f *SourceFile) Close() {
	if f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

// Program is an ordered collection of parsed source files.
//
// File order is deterministic (lexicographic walk order) so graph
// construction over the same tree of sources always yields the same
// node and call ordering.
type Program struct {
	// Root is the path the program was loaded from.
	Root string

	// Files holds the parsed files in load order.
	Files []*SourceFile
}

// Close releases every loaded file's tree.
func (p *Program) Close() {
	for _, f := range p.Files {
		f.Close()
	}
}

// LoadProgram parses a file or directory tree into a Program.
//
// Description:
//
//	When path is a single file, loads just that file. When path is a
//	directory, walks it recursively and parses every file the registry
//	has a parser for. Declaration files (.d.ts), hidden directories,
//	and node_modules are skipped. Files are processed sequentially in
//	walk order.
//
// Inputs:
//
//	ctx - Context for cancellation between files.
//	path - The file or directory to analyze.
//	registry - Parser lookup. Files without a registered parser are skipped.
//
// Outputs:
//
//	*Program - The loaded program. Never nil on success.
//	error - Non-nil if the path is unreadable, the context is cancelled,
//	or a single-file load targets an unsupported or invalid file.
//
// Errors:
//
//	ErrUnsupportedLanguage - Single-file load with no matching parser
//	ErrFileTooLarge - Single-file load above DefaultMaxFileSize
//	ErrContextCanceled - Context cancelled during the walk
//
// Behavior:
//
//	In directory mode, individual file failures (size, encoding, parse)
//	are logged and skipped so one bad file never sinks the whole run.
func LoadProgram(ctx context.Context, path string, registry *ParserRegistry) (*Program, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	program := &Program{Root: path}

	if !info.IsDir() {
		file, err := loadFile(ctx, path, path, registry)
		if err != nil {
			return nil, err
		}
		program.Files = append(program.Files, file)
		return program, nil
	}

	var paths []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != path && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, ".d.ts") {
			return nil
		}
		if _, ok := registry.GetByExtension(filepath.Ext(name)); !ok {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if ctx.Err() != nil {
			program.Close()
			return nil, fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		}

		file, err := loadFile(ctx, p, path, registry)
		if err != nil {
			slog.Warn("skipping file",
				"path", p,
				"error", err,
			)
			continue
		}
		program.Files = append(program.Files, file)
	}

	slog.Debug("program loaded",
		"root", path,
		"files", len(program.Files),
	)

	return program, nil
}

// loadFile reads and parses a single source file.
func loadFile(ctx context.Context, path, root string, registry *ParserRegistry) (*SourceFile, error) {
	parser, ok := registry.GetByExtension(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedLanguage)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > DefaultMaxFileSize {
		return nil, fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrFileTooLarge)
	}
	if info.Size() > WarnFileSize {
		slog.Warn("large source file, parsing may be slow",
			"path", path,
			"size_bytes", info.Size(),
		)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	rel := path
	if root != path {
		if r, relErr := filepath.Rel(root, path); relErr == nil {
			rel = r
		}
	}

	return parser.Parse(ctx, content, rel)
}

// validateContent checks that content is parseable source text.
func validateContent(content []byte) error {
	if content == nil {
		return fmt.Errorf("%w: nil content", ErrInvalidContent)
	}
	if !utf8.Valid(content) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidContent)
	}
	return nil
}

// parseWithGrammar runs a tree-sitter parse with shared validation,
// used by both language parsers.
func parseWithGrammar(ctx context.Context, parser *sitter.Parser, content []byte, filePath, language string) (*SourceFile, error) {
	if err := validateContent(content); err != nil {
		return nil, WrapParseError(err, filePath)
	}
	if len(content) > DefaultMaxFileSize {
		return nil, fmt.Errorf("%s: %w", filePath, ErrFileTooLarge)
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrContextCanceled, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", filePath, ErrParseFailed, err)
	}
	if tree == nil || tree.RootNode() == nil {
		return nil, fmt.Errorf("%s: %w: nil tree", filePath, ErrParseFailed)
	}

	if tree.RootNode().HasError() {
		slog.Debug("syntax errors in file, traversing partial tree",
			"path", filePath,
			"language", language,
		)
	}

	return &SourceFile{
		Path:     filePath,
		Content:  content,
		Language: language,
		Tree:     tree,
	}, nil
}
