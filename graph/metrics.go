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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for graph operations.
var (
	tracer = otel.Tracer("callgraph.graph")
	meter  = otel.Meter("callgraph.graph")
)

// Metrics for graph building and mutation operations.
var (
	buildLatency  metric.Float64Histogram
	buildTotal    metric.Int64Counter
	nodesCreated  metric.Int64Histogram
	callsRecorded metric.Int64Histogram
	callsFiltered metric.Int64Counter
	callsPruned   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"graph_build_duration_seconds",
			metric.WithDescription("Duration of call graph build operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"graph_build_total",
			metric.WithDescription("Total number of call graph build operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"graph_nodes_created",
			metric.WithDescription("Number of nodes created per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		callsRecorded, err = meter.Int64Histogram(
			"graph_calls_recorded",
			metric.WithDescription("Number of call records created per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		callsFiltered, err = meter.Int64Counter(
			"graph_calls_filtered_total",
			metric.WithDescription("Total call records removed by filtering"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		callsPruned, err = meter.Int64Counter(
			"graph_calls_pruned_total",
			metric.WithDescription("Total call records removed by width pruning"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordBuildMetrics records metrics for a build operation.
func recordBuildMetrics(ctx context.Context, duration time.Duration, nodeCount, callCount int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)

	if success {
		nodesCreated.Record(ctx, int64(nodeCount))
		callsRecorded.Record(ctx, int64(callCount))
	}
}

// recordFilterMetrics records the number of calls removed by a filter pass.
func recordFilterMetrics(ctx context.Context, removed int) {
	if err := initMetrics(); err != nil {
		return
	}
	if removed > 0 {
		callsFiltered.Add(ctx, int64(removed))
	}
}

// recordPruneMetrics records the number of calls removed by width pruning.
func recordPruneMetrics(ctx context.Context, removed int) {
	if err := initMetrics(); err != nil {
		return
	}
	if removed > 0 {
		callsPruned.Add(ctx, int64(removed))
	}
}

// startBuildSpan creates a span for a build operation.
func startBuildSpan(ctx context.Context, fileCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.Build",
		trace.WithAttributes(
			attribute.Int("graph.file_count", fileCount),
		),
	)
}

// setBuildSpanResult sets the result attributes on a build span.
func setBuildSpanResult(span trace.Span, nodeCount, callCount int, incomplete bool) {
	span.SetAttributes(
		attribute.Int("graph.node_count", nodeCount),
		attribute.Int("graph.call_count", callCount),
		attribute.Bool("graph.incomplete", incomplete),
	)
}
