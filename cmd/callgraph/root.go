// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/callgraph/ast"
	"github.com/AleutianAI/callgraph/config"
	"github.com/AleutianAI/callgraph/graph"
	"github.com/AleutianAI/callgraph/visualization"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	flagDepth  int
	flagWidth  int
	flagOutput string
	flagFormat string

	flagIgnoreStdlib bool
	flagIgnoreNPM    bool
	flagIgnoreJSR    bool
	flagIgnore       []string

	flagVerbose bool

	// logLevel is shared with the slog handler set up in main.
	logLevel = new(slog.LevelVar)
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "callgraph <path>",
	Short: "Extract the call graph of a TypeScript/JavaScript project",
	Long: `Parses a source file or directory tree and extracts its call graph:
which functions, methods, and constructors call which, with call-site
positions and declared type annotations.

Calls into the runtime standard library and into npm/jsr dependencies
are removed by default; disable with --ignore-stdlib=false etc.

A callgraph.config.yaml at the analyzed root supplies defaults for any
flag the invocation leaves unset.

Examples:
  callgraph ./src
  callgraph ./src --format json --output graph.json
  callgraph ./src --format function-summary --depth 3 --width 10
  callgraph main.ts --ignore "test_.*" --ignore "mock"`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.Flags().IntVar(&flagDepth, "depth", 0, "max nesting depth of declaration scopes (0 = unbounded)")
	rootCmd.Flags().IntVar(&flagWidth, "width", 0, "max outgoing calls kept per caller (0 = unbounded)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "callgraph.dot", "output file path")
	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", "dot", "output format: dot, json, summary, function-call, function-summary")
	rootCmd.Flags().BoolVar(&flagIgnoreStdlib, "ignore-stdlib", true, "remove calls into the runtime standard library")
	rootCmd.Flags().BoolVar(&flagIgnoreNPM, "ignore-npm", true, "remove calls into npm dependencies")
	rootCmd.Flags().BoolVar(&flagIgnoreJSR, "ignore-jsr", true, "remove calls into jsr dependencies")
	rootCmd.Flags().StringSliceVar(&flagIgnore, "ignore", nil, "remove calls matching pattern (regex, substring fallback); repeatable")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// runExtract is the whole pipeline: load, build, filter, prune, render.
func runExtract(cmd *cobra.Command, args []string) error {
	if flagVerbose {
		logLevel.Set(slog.LevelDebug)
	}

	ctx := cmd.Context()
	input := args[0]

	applyConfig(cmd, config.Load(input))

	program, err := ast.LoadProgram(ctx, input, ast.DefaultRegistry())
	if err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	defer program.Close()

	if len(program.Files) == 0 {
		return fmt.Errorf("no supported source files under %s", input)
	}

	builder := graph.NewBuilder(graph.WithMaxDepth(flagDepth))
	result, err := builder.Build(ctx, program)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	for _, fe := range result.FileErrors {
		slog.Warn("file skipped during build", "error", fe.Error())
	}

	g := result.Graph
	if removed, err := g.FilterCalls(buildFilter(g)); err != nil {
		return fmt.Errorf("filter calls: %w", err)
	} else if removed > 0 {
		slog.Debug("external calls removed", "count", removed)
	}
	if _, err := g.PruneByWidth(flagWidth); err != nil {
		return fmt.Errorf("prune calls: %w", err)
	}
	g.Freeze()

	format, known := visualization.ParseFormat(flagFormat)
	if !known {
		slog.Warn("unknown format, defaulting to dot", "format", flagFormat)
	}

	gen := visualization.NewGraphGenerator(nil)
	out, err := gen.Generate(ctx, g, format)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	if err := os.WriteFile(flagOutput, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", flagOutput, err)
	}

	if err := writeSidecars(gen, g, format); err != nil {
		return err
	}

	stats := g.Stats()
	slog.Info("call graph written",
		"output", flagOutput,
		"format", string(format),
		"files", stats.FileCount,
		"nodes", stats.NodeCount,
		"calls", stats.CallCount,
	)
	return nil
}

// applyConfig fills in file-provided defaults for flags the invocation
// left unset. Explicit flags always win.
func applyConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if !flags.Changed("depth") && cfg.Depth > 0 {
		flagDepth = cfg.Depth
	}
	if !flags.Changed("width") && cfg.Width > 0 {
		flagWidth = cfg.Width
	}
	if !flags.Changed("format") && cfg.Format != "" {
		flagFormat = cfg.Format
	}
	if !flags.Changed("output") && cfg.Output != "" {
		flagOutput = cfg.Output
	}
	if !flags.Changed("ignore-stdlib") {
		flagIgnoreStdlib = config.BoolOr(cfg.IgnoreStdlib, flagIgnoreStdlib)
	}
	if !flags.Changed("ignore-npm") {
		flagIgnoreNPM = config.BoolOr(cfg.IgnoreNPM, flagIgnoreNPM)
	}
	if !flags.Changed("ignore-jsr") {
		flagIgnoreJSR = config.BoolOr(cfg.IgnoreJSR, flagIgnoreJSR)
	}
	flagIgnore = append(flagIgnore, cfg.IgnorePatterns...)
}

// buildFilter composes the removal predicate from the active toggles.
func buildFilter(g *graph.CallGraph) graph.Predicate {
	var preds []graph.Predicate

	if flagIgnoreStdlib {
		preds = append(preds, graph.StdlibPredicate())
	}

	var origins []graph.Origin
	if flagIgnoreNPM {
		origins = append(origins, graph.OriginNPM)
	}
	if flagIgnoreJSR {
		origins = append(origins, graph.OriginJSR)
	}
	if len(origins) > 0 {
		preds = append(preds, graph.OriginPredicate(g, graph.EcosystemClassifier{}, origins...))
	}

	for _, pattern := range flagIgnore {
		preds = append(preds, graph.PatternPredicate(pattern))
	}

	if len(preds) == 0 {
		return nil
	}
	return graph.AnyPredicate(preds...)
}

// writeSidecars emits the companion files some formats carry: the file
// index for function-call output, the text summary for function-summary.
func writeSidecars(gen *visualization.GraphGenerator, g *graph.CallGraph, format visualization.OutputFormat) error {
	base := strings.TrimSuffix(flagOutput, filepath.Ext(flagOutput))

	switch format {
	case visualization.FormatFunctionCall:
		files, err := gen.GenerateFileIndex(g)
		if err != nil {
			return err
		}
		path := base + "_files.json"
		if err := os.WriteFile(path, []byte(files), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		slog.Debug("file index written", "path", path)

	case visualization.FormatFunctionSummary:
		path := base + "_summary.txt"
		if err := os.WriteFile(path, []byte(gen.GenerateText(g)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		slog.Debug("text summary written", "path", path)
	}

	return nil
}
