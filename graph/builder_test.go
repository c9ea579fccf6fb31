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
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/callgraph/ast"
)

// parseTS parses one TypeScript source into a single-file program.
func parseTS(t *testing.T, path, src string) *ast.Program {
	t.Helper()
	parser := ast.NewTypeScriptParser()
	file, err := parser.Parse(context.Background(), []byte(src), path)
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	t.Cleanup(file.Close)
	return &ast.Program{Root: path, Files: []*ast.SourceFile{file}}
}

func mustBuild(t *testing.T, program *ast.Program, opts ...BuilderOption) *BuildResult {
	t.Helper()
	result, err := NewBuilder(opts...).Build(context.Background(), program)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.HasErrors() {
		t.Fatalf("file errors: %v", result.FileErrors)
	}
	return result
}

const mathSource = `/** Doubles a number. */
function double(n: number): number {
  return n * 2;
}

function square(n: number): number {
  return n * n;
}

function sum(a: number, b: number): number {
  return a + b;
}

function average(a: number, b: number): number {
  return sum(a, b) / 2;
}

function factorial(n: number): number {
  if (n <= 1) {
    return 1;
  }
  return n * factorial(n - 1);
}

function calculate(n: number): number {
  const d = double(n);
  return square(d);
}

function complexCalculation(n: number): number {
  return average(factorial(n), calculate(n));
}

export class MathUtils {
  add(a: number, b: number): number {
    return sum(a, b);
  }

  multiply(a: number, b: number): number {
    return a * b;
  }

  compute(n: number): number {
    return this.add(this.multiply(n, n), average(n, 1));
  }
}

const utils = new MathUtils();
console.log(utils.compute(3));
`

func TestBuild(t *testing.T) {
	result := mustBuild(t, parseTS(t, "math.ts", mathSource))
	g := result.Graph

	t.Run("calls in discovery order", func(t *testing.T) {
		want := [][2]string{
			{"average", "sum"},
			{"factorial", "factorial"},
			{"calculate", "double"},
			{"calculate", "square"},
			{"complexCalculation", "average"},
			{"complexCalculation", "factorial"},
			{"complexCalculation", "calculate"},
			{"MathUtils.add", "sum"},
			{"MathUtils.compute", "MathUtils.add"},
			{"MathUtils.compute", "MathUtils.multiply"},
			{"MathUtils.compute", "average"},
			{"<global>_math", "MathUtils"},
			{"<global>_math", "console.log"},
			{"<global>_math", "utils.compute"},
		}
		calls := g.Calls()
		if len(calls) != len(want) {
			t.Fatalf("calls = %d, want %d", len(calls), len(want))
		}
		for i, w := range want {
			if calls[i].Caller != w[0] || calls[i].Callee != w[1] {
				t.Errorf("calls[%d] = %s -> %s, want %s -> %s",
					i, calls[i].Caller, calls[i].Callee, w[0], w[1])
			}
		}
	})

	t.Run("node registration order", func(t *testing.T) {
		want := []string{
			"double", "square", "sum", "average", "factorial",
			"calculate", "complexCalculation",
			"MathUtils", "MathUtils.add", "MathUtils.multiply", "MathUtils.compute",
			"<global>_math", "console.log", "utils.compute",
		}
		nodes := g.Nodes()
		if len(nodes) != len(want) {
			t.Fatalf("nodes = %d, want %d", len(nodes), len(want))
		}
		for i, name := range want {
			if nodes[i].Name != name {
				t.Errorf("nodes[%d] = %s, want %s", i, nodes[i].Name, name)
			}
		}
	})

	t.Run("declaration metadata", func(t *testing.T) {
		double, ok := g.GetNode("double")
		if !ok {
			t.Fatal("double not registered")
		}
		if double.Kind != NodeKindFunction {
			t.Errorf("double.Kind = %s", double.Kind)
		}
		if double.Type != "(n: number): number" {
			t.Errorf("double.Type = %q", double.Type)
		}
		if !strings.HasPrefix(double.DocComment, "/**") {
			t.Errorf("double.DocComment = %q", double.DocComment)
		}
		if double.FilePath != "math.ts" {
			t.Errorf("double.FilePath = %q", double.FilePath)
		}
	})

	t.Run("class and method", func(t *testing.T) {
		class, _ := g.GetNode("MathUtils")
		if class == nil || class.Kind != NodeKindClass {
			t.Fatalf("MathUtils = %+v", class)
		}
		if !class.Exported {
			t.Error("MathUtils not marked exported")
		}
		method, _ := g.GetNode("MathUtils.compute")
		if method == nil || method.Kind != NodeKindMethod {
			t.Fatalf("MathUtils.compute = %+v", method)
		}
		if !method.Exported {
			t.Error("method does not follow its class's export status")
		}
	})

	t.Run("recursive call flagged", func(t *testing.T) {
		for _, call := range g.Calls() {
			isSelf := call.Caller == call.Callee
			if call.IsRecursive != isSelf {
				t.Errorf("%s -> %s: IsRecursive = %v", call.Caller, call.Callee, call.IsRecursive)
			}
		}
	})

	t.Run("constructor call", func(t *testing.T) {
		var ctor *CallInfo
		for i, call := range g.Calls() {
			if call.Callee == "MathUtils" {
				ctor = &g.Calls()[i]
			}
		}
		if ctor == nil {
			t.Fatal("no constructor call recorded")
		}
		if !ctor.IsConstructor || ctor.ClassName != "MathUtils" {
			t.Errorf("constructor call = %+v", ctor)
		}
	})

	t.Run("this calls resolve to the class", func(t *testing.T) {
		var add, multiply *CallInfo
		for i := range g.Calls() {
			call := &g.Calls()[i]
			switch call.Callee {
			case "MathUtils.add":
				add = call
			case "MathUtils.multiply":
				multiply = call
			}
		}
		if add == nil || multiply == nil {
			t.Fatal("this-receiver calls not recorded")
		}
		for _, call := range []*CallInfo{add, multiply} {
			if call.Caller != "MathUtils.compute" {
				t.Errorf("%s caller = %s", call.Callee, call.Caller)
			}
			if !call.IsMethod {
				t.Errorf("%s not flagged as method call", call.Callee)
			}
			if call.ClassName != "MathUtils" {
				t.Errorf("%s ClassName = %q, want MathUtils", call.Callee, call.ClassName)
			}
		}
	})

	t.Run("method call metadata", func(t *testing.T) {
		for _, call := range g.Calls() {
			if call.Callee == "console.log" || call.Callee == "utils.compute" {
				if !call.IsMethod {
					t.Errorf("%s not flagged as method call", call.Callee)
				}
				if call.ClassName != "" {
					t.Errorf("%s: receiver is not a known class, ClassName = %q", call.Callee, call.ClassName)
				}
			}
		}
	})

	t.Run("endpoints always registered", func(t *testing.T) {
		for _, call := range g.Calls() {
			if !g.HasNode(call.Caller) {
				t.Errorf("caller %s not registered", call.Caller)
			}
			if !g.HasNode(call.Callee) {
				t.Errorf("callee %s not registered", call.Callee)
			}
		}
	})

	t.Run("stats", func(t *testing.T) {
		if result.Stats.FilesProcessed != 1 {
			t.Errorf("FilesProcessed = %d", result.Stats.FilesProcessed)
		}
		if result.Stats.PlaceholderNodes != 2 {
			t.Errorf("PlaceholderNodes = %d, want 2", result.Stats.PlaceholderNodes)
		}
		if result.Stats.NodesCreated != g.NodeCount() || result.Stats.CallsRecorded != g.CallCount() {
			t.Errorf("stats disagree with graph: %+v", result.Stats)
		}
		if result.Incomplete {
			t.Error("build marked incomplete")
		}
	})

	t.Run("implementation summary", func(t *testing.T) {
		byName := make(map[string]Implementation)
		for _, impl := range g.Implementations() {
			byName[impl.Name] = impl
		}
		cc, ok := byName["complexCalculation"]
		if !ok {
			t.Fatal("complexCalculation missing from summary")
		}
		want := []string{"average", "factorial", "calculate"}
		if len(cc.Callees) != len(want) {
			t.Fatalf("complexCalculation callees = %+v", cc.Callees)
		}
		for i, name := range want {
			if cc.Callees[i].Name != name {
				t.Errorf("callees[%d] = %s, want %s", i, cc.Callees[i].Name, name)
			}
		}
		if len(byName["double"].Callees) != 0 {
			t.Errorf("double callees = %+v, want none", byName["double"].Callees)
		}
	})

	t.Run("graph still mutable", func(t *testing.T) {
		if g.IsFrozen() {
			t.Error("Build froze the graph; filtering would be impossible")
		}
	})
}

func TestBuildAnonymous(t *testing.T) {
	src := `(function () {
  helper();
})();

const run = (x: number) => double(x);
run(1);
`
	g := mustBuild(t, parseTS(t, "anon.ts", src)).Graph

	t.Run("iife gets positional names", func(t *testing.T) {
		if !g.HasNode("anonymous_anon_1_2") {
			t.Error("anonymous function expression missing positional node")
		}
		var calls []string
		for _, call := range g.CallsFrom("anonymous_anon_1_2") {
			calls = append(calls, call.Callee)
		}
		if len(calls) != 1 || calls[0] != "helper" {
			t.Errorf("anonymous function calls = %v, want [helper]", calls)
		}
		// The immediate invocation itself has no resolvable target.
		global := g.CallsFrom("<global>_anon")
		if len(global) == 0 || !strings.HasPrefix(global[0].Callee, "<complex>_") {
			t.Errorf("global calls = %+v, want a <complex> callee first", global)
		}
	})

	t.Run("arrow takes declarator name", func(t *testing.T) {
		run, ok := g.GetNode("run")
		if !ok {
			t.Fatal("run not registered")
		}
		if run.Kind != NodeKindFunction || run.Type != "(x: number)" {
			t.Errorf("run = %+v", run)
		}
		calls := g.CallsFrom("run")
		if len(calls) != 1 || calls[0].Callee != "double" {
			t.Errorf("run calls = %+v", calls)
		}
	})
}

func TestBuildPlaceholderUpgrade(t *testing.T) {
	src := `function caller() {
  later();
}

function later(): void {
}
`
	result := mustBuild(t, parseTS(t, "fwd.ts", src))
	g := result.Graph

	later, ok := g.GetNode("later")
	if !ok {
		t.Fatal("later not registered")
	}
	if later.FilePath != "fwd.ts" {
		t.Error("forward-referenced declaration kept its placeholder file path")
	}
	if later.Type != "(): void" {
		t.Errorf("later.Type = %q", later.Type)
	}
	if result.Stats.PlaceholderNodes != 1 {
		t.Errorf("PlaceholderNodes = %d, want 1", result.Stats.PlaceholderNodes)
	}
}

func TestBuildDepthLimit(t *testing.T) {
	src := `function outer() {
  function inner() {
    leaf();
  }
  inner();
}
`
	result := mustBuild(t, parseTS(t, "deep.ts", src), WithMaxDepth(1))
	g := result.Graph

	if !g.HasNode("inner") {
		t.Error("limited declaration should still be registered")
	}
	if g.HasNode("leaf") {
		t.Error("body beyond the depth limit was traversed")
	}
	calls := g.Calls()
	if len(calls) != 1 || calls[0].Caller != "outer" || calls[0].Callee != "inner" {
		t.Errorf("calls = %+v, want only outer -> inner", calls)
	}
	if result.Stats.DepthLimited != 1 {
		t.Errorf("DepthLimited = %d, want 1", result.Stats.DepthLimited)
	}
}

func TestBuildRecursionGuard(t *testing.T) {
	// The inner function expression shadows the enclosing declaration's
	// name, so its scope is already on the traversal path.
	src := `function f() {
  const f = function f() {
    g();
  };
  f();
}
`
	g := mustBuild(t, parseTS(t, "shadow.ts", src)).Graph

	if g.HasNode("g") {
		t.Error("re-entered a scope that was already open")
	}
	calls := g.Calls()
	if len(calls) != 1 || calls[0].Caller != "f" || calls[0].Callee != "f" {
		t.Errorf("calls = %+v, want only f -> f", calls)
	}
}

func TestBuildConstructorShapes(t *testing.T) {
	src := `class Box {}
const a = new Box();
const b = new ns.Thing();
`
	g := mustBuild(t, parseTS(t, "ctor.ts", src)).Graph

	calls := g.CallsFrom("<global>_ctor")
	if len(calls) != 2 {
		t.Fatalf("calls = %+v, want 2", calls)
	}

	if calls[0].Callee != "Box" || !calls[0].IsConstructor || calls[0].ClassName != "Box" {
		t.Errorf("identifier constructor = %+v", calls[0])
	}

	// A member-expression constructor cannot name the class; it gets a
	// positional placeholder and no ClassName.
	if !strings.HasPrefix(calls[1].Callee, "<complex>_") {
		t.Errorf("member constructor callee = %q, want <complex> placeholder", calls[1].Callee)
	}
	if !calls[1].IsConstructor || calls[1].ClassName != "" {
		t.Errorf("member constructor = %+v", calls[1])
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewBuilder().Build(ctx, parseTS(t, "math.ts", mathSource))
	if !errors.Is(err, ErrBuildCancelled) {
		t.Fatalf("err = %v, want ErrBuildCancelled", err)
	}
	if result == nil || !result.Incomplete {
		t.Error("cancelled build should return a partial result marked incomplete")
	}
}

func TestBuildNodeLimit(t *testing.T) {
	result, err := NewBuilder(WithNodeLimit(2)).Build(context.Background(), parseTS(t, "math.ts", mathSource))
	if !errors.Is(err, ErrMaxNodesExceeded) {
		t.Fatalf("err = %v, want ErrMaxNodesExceeded", err)
	}
	if !result.Incomplete {
		t.Error("capacity stop should mark the result incomplete")
	}
	if result.Graph.NodeCount() != 2 {
		t.Errorf("NodeCount = %d, want the capped 2", result.Graph.NodeCount())
	}
}
