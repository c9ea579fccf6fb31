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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeScriptParser(t *testing.T) {
	parser := NewTypeScriptParser()
	assert.Equal(t, "typescript", parser.Language())
	assert.Contains(t, parser.Extensions(), ".ts")
	assert.Contains(t, parser.Extensions(), ".tsx")

	file, err := parser.Parse(context.Background(), []byte("const a: number = 1;\n"), "a.ts")
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, "a.ts", file.Path)
	assert.Equal(t, "typescript", file.Language)
	assert.Equal(t, "program", file.Root().Type())
	assert.False(t, file.Root().HasError())
}

func TestTypeScriptParserTSX(t *testing.T) {
	parser := NewTypeScriptParser()

	file, err := parser.Parse(context.Background(), []byte("const el = <div>hi</div>;\n"), "app.tsx")
	require.NoError(t, err)
	defer file.Close()

	assert.False(t, file.Root().HasError(), "tsx grammar should accept JSX")
}

func TestTypeScriptParserPartialTree(t *testing.T) {
	parser := NewTypeScriptParser()

	// Syntax errors produce ERROR nodes, not a failed parse.
	file, err := parser.Parse(context.Background(), []byte("function broken( {\n"), "broken.ts")
	require.NoError(t, err)
	defer file.Close()

	assert.True(t, file.Root().HasError())
}

func TestJavaScriptParser(t *testing.T) {
	parser := NewJavaScriptParser()
	assert.Equal(t, "javascript", parser.Language())
	assert.Contains(t, parser.Extensions(), ".js")
	assert.Contains(t, parser.Extensions(), ".mjs")

	file, err := parser.Parse(context.Background(), []byte("function f() { return 1; }\n"), "f.js")
	require.NoError(t, err)
	defer file.Close()

	assert.False(t, file.Root().HasError())
}

func TestParseInvalidContent(t *testing.T) {
	parser := NewTypeScriptParser()

	_, err := parser.Parse(context.Background(), []byte{0xff, 0xfe, 0x00}, "bad.ts")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = parser.Parse(context.Background(), nil, "nil.ts")
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestParserRegistry(t *testing.T) {
	registry := NewParserRegistry()

	_, ok := registry.GetByLanguage("typescript")
	assert.False(t, ok)

	registry.Register(NewTypeScriptParser())

	parser, ok := registry.GetByLanguage("typescript")
	require.True(t, ok)
	assert.Equal(t, "typescript", parser.Language())

	parser, ok = registry.GetByExtension(".tsx")
	require.True(t, ok)
	assert.Equal(t, "typescript", parser.Language())

	_, ok = registry.GetByExtension(".js")
	assert.False(t, ok)
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()

	assert.ElementsMatch(t, []string{"typescript", "javascript"}, registry.Languages())
	for _, ext := range []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"} {
		_, ok := registry.GetByExtension(ext)
		assert.True(t, ok, ext)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadProgram(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.ts", "function main() {}\n")
	writeFile(t, dir, "src/a.ts", "export const a = 1;\n")
	writeFile(t, dir, "src/b.js", "const b = 2;\n")
	writeFile(t, dir, "src/types.d.ts", "declare const t: number;\n")
	writeFile(t, dir, "node_modules/pkg/index.js", "module.exports = {};\n")
	writeFile(t, dir, ".cache/gen.ts", "const g = 3;\n")
	writeFile(t, dir, "README.md", "# readme\n")

	program, err := LoadProgram(context.Background(), dir, DefaultRegistry())
	require.NoError(t, err)
	defer program.Close()

	var paths []string
	for _, f := range program.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"main.ts", filepath.Join("src", "a.ts"), filepath.Join("src", "b.js")}, paths)
	assert.Equal(t, "typescript", program.Files[0].Language)
	assert.Equal(t, "javascript", program.Files[2].Language)
}

func TestLoadProgramSkipsBadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.ts", "const ok = 1;\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.ts"), []byte{0xff, 0xfe}, 0o644))

	program, err := LoadProgram(context.Background(), dir, DefaultRegistry())
	require.NoError(t, err)
	defer program.Close()

	require.Len(t, program.Files, 1)
	assert.Equal(t, "good.ts", program.Files[0].Path)
}

func TestLoadProgramSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "only.ts")
	require.NoError(t, os.WriteFile(path, []byte("const x = 1;\n"), 0o644))

	program, err := LoadProgram(context.Background(), path, DefaultRegistry())
	require.NoError(t, err)
	defer program.Close()

	require.Len(t, program.Files, 1)
	assert.Equal(t, path, program.Files[0].Path)
}

func TestLoadProgramSingleFileUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# notes\n"), 0o644))

	_, err := LoadProgram(context.Background(), path, DefaultRegistry())
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestLoadProgramMissingPath(t *testing.T) {
	_, err := LoadProgram(context.Background(), filepath.Join(t.TempDir(), "nope"), DefaultRegistry())
	assert.Error(t, err)
}

func TestLoadProgramCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.ts", "const a = 1;\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadProgram(ctx, dir, DefaultRegistry())
	assert.ErrorIs(t, err, ErrContextCanceled)
}
