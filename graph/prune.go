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
	"context"
	"log/slog"
)

// PruneByWidth caps the number of outgoing calls kept per caller.
//
// Description:
//
//	Keeps the first width call records of each caller in discovery
//	order and drops the rest. Truncation is deterministic: the same
//	graph pruned with the same width always keeps the same records.
//	Nodes are never removed, so a callee that loses all its incoming
//	calls still appears in projections.
//
// Inputs:
//
//	width - Maximum outgoing calls per caller. Values <= 0 mean
//	unbounded and the graph is left untouched.
//
// Outputs:
//
//	int - Number of call records removed.
//	error - ErrGraphFrozen if the graph has been frozen.
func (g *CallGraph) PruneByWidth(width int) (int, error) {
	if g.state == GraphStateReadOnly {
		return 0, ErrGraphFrozen
	}
	if width <= 0 {
		return 0, nil
	}

	seen := make(map[string]int)
	kept := make([]CallInfo, 0, len(g.calls))
	removed := 0
	for _, call := range g.calls {
		seen[call.Caller]++
		if seen[call.Caller] > width {
			removed++
			continue
		}
		kept = append(kept, call)
	}
	if removed == 0 {
		return 0, nil
	}
	g.calls = kept

	recordPruneMetrics(context.Background(), removed)
	slog.Debug("calls pruned",
		"width", width,
		"calls_removed", removed,
	)

	return removed, nil
}
