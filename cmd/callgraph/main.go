// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command callgraph extracts the call graph of a TypeScript or
// JavaScript project and renders it as DOT, JSON, or text summaries.
//
// Usage:
//
//	callgraph ./src
//	callgraph ./src --format json --output graph.json
//	callgraph ./src --format function-summary --depth 3 --width 10
//	callgraph main.ts --ignore-stdlib=false --ignore "test_.*"
package main

import (
	"log/slog"
	"os"
)

func main() {
	// Default to text logs on stderr; --verbose raises the level later.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	if err := rootCmd.Execute(); err != nil {
		slog.Error("callgraph failed", "error", err)
		os.Exit(1)
	}
}
