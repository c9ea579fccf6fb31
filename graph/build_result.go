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

import "fmt"

// FileError represents a failure to process a single file during graph building.
type FileError struct {
	// FilePath is the path to the file that failed.
	FilePath string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e FileError) Error() string {
	return fmt.Sprintf("file %s: %v", e.FilePath, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e FileError) Unwrap() error {
	return e.Err
}

// BuildStats contains statistics about a build operation.
type BuildStats struct {
	// FilesProcessed is the number of files successfully processed.
	FilesProcessed int

	// FilesFailed is the number of files that failed processing.
	FilesFailed int

	// NodesCreated is the number of nodes added to the graph.
	NodesCreated int

	// CallsRecorded is the number of call records added to the graph.
	CallsRecorded int

	// PlaceholderNodes is the number of nodes created for callees whose
	// declarations were never seen (external or unresolved names).
	PlaceholderNodes int

	// DepthLimited is the number of declaration scopes whose bodies were
	// skipped because the nesting depth limit was reached.
	DepthLimited int

	// DurationMicro is the total build time in microseconds.
	DurationMicro int64
}

// BuildResult contains the result of a graph build operation.
//
// Build operations are designed to be resilient: individual file failures
// do not fail the entire build. Instead, partial results are returned
// along with error information.
type BuildResult struct {
	// Graph is the constructed call graph. May be partial if errors
	// occurred or the build was cancelled.
	Graph *CallGraph

	// FileErrors contains errors for files that failed processing.
	// Files in this list are not represented in the graph.
	FileErrors []FileError

	// Stats contains build statistics.
	Stats BuildStats

	// Incomplete is true if the build was cancelled via context or
	// stopped at a capacity limit. When true, the graph contains
	// partial results.
	Incomplete bool
}

// HasErrors returns true if any file errors occurred.
func (r *BuildResult) HasErrors() bool {
	return len(r.FileErrors) > 0
}

// Success returns true if the build completed without errors and is complete.
func (r *BuildResult) Success() bool {
	return !r.Incomplete && !r.HasErrors()
}
