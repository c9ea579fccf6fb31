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
	"errors"
	"testing"
)

// testNode builds a minimal node for graph tests.
func testNode(name string, kind NodeKind) *Node {
	return &Node{
		Name:     name,
		Kind:     kind,
		FilePath: "main.ts",
	}
}

// testCall builds a minimal call record between two nodes.
func testCall(caller, callee string, line int) CallInfo {
	return CallInfo{
		Caller:   caller,
		Callee:   callee,
		FilePath: "main.ts",
		Line:     line,
		Column:   1,
	}
}

func TestAddNode(t *testing.T) {
	t.Run("adds valid node", func(t *testing.T) {
		g := NewCallGraph()
		if err := g.AddNode(testNode("double", NodeKindFunction)); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
		if g.NodeCount() != 1 {
			t.Errorf("NodeCount = %d, want 1", g.NodeCount())
		}
		node, ok := g.GetNode("double")
		if !ok {
			t.Fatal("GetNode did not find added node")
		}
		if node.Kind != NodeKindFunction {
			t.Errorf("Kind = %v, want function", node.Kind)
		}
	})

	t.Run("rejects nil node", func(t *testing.T) {
		g := NewCallGraph()
		if err := g.AddNode(nil); !errors.Is(err, ErrInvalidNode) {
			t.Errorf("err = %v, want ErrInvalidNode", err)
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		g := NewCallGraph()
		if err := g.AddNode(&Node{Kind: NodeKindFunction}); !errors.Is(err, ErrInvalidNode) {
			t.Errorf("err = %v, want ErrInvalidNode", err)
		}
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		g := NewCallGraph()
		if err := g.AddNode(testNode("double", NodeKindFunction)); err != nil {
			t.Fatalf("first AddNode failed: %v", err)
		}
		if err := g.AddNode(testNode("double", NodeKindClass)); !errors.Is(err, ErrDuplicateNode) {
			t.Errorf("err = %v, want ErrDuplicateNode", err)
		}
	})

	t.Run("rejects nodes beyond capacity", func(t *testing.T) {
		g := NewCallGraph(WithMaxNodes(1))
		if err := g.AddNode(testNode("a", NodeKindFunction)); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
		if err := g.AddNode(testNode("b", NodeKindFunction)); !errors.Is(err, ErrMaxNodesExceeded) {
			t.Errorf("err = %v, want ErrMaxNodesExceeded", err)
		}
	})

	t.Run("rejects nodes after freeze", func(t *testing.T) {
		g := NewCallGraph()
		g.Freeze()
		if err := g.AddNode(testNode("a", NodeKindFunction)); !errors.Is(err, ErrGraphFrozen) {
			t.Errorf("err = %v, want ErrGraphFrozen", err)
		}
	})
}

func TestAddCall(t *testing.T) {
	t.Run("adds call between registered nodes", func(t *testing.T) {
		g := NewCallGraph()
		mustAddNode(t, g, testNode("a", NodeKindFunction))
		mustAddNode(t, g, testNode("b", NodeKindFunction))
		if err := g.AddCall(testCall("a", "b", 3)); err != nil {
			t.Fatalf("AddCall failed: %v", err)
		}
		if g.CallCount() != 1 {
			t.Errorf("CallCount = %d, want 1", g.CallCount())
		}
	})

	t.Run("rejects unregistered endpoints", func(t *testing.T) {
		g := NewCallGraph()
		mustAddNode(t, g, testNode("a", NodeKindFunction))
		if err := g.AddCall(testCall("a", "missing", 1)); !errors.Is(err, ErrNodeNotFound) {
			t.Errorf("missing callee: err = %v, want ErrNodeNotFound", err)
		}
		if err := g.AddCall(testCall("missing", "a", 1)); !errors.Is(err, ErrNodeNotFound) {
			t.Errorf("missing caller: err = %v, want ErrNodeNotFound", err)
		}
	})

	t.Run("rejects empty endpoint names", func(t *testing.T) {
		g := NewCallGraph()
		mustAddNode(t, g, testNode("a", NodeKindFunction))
		if err := g.AddCall(testCall("a", "", 1)); !errors.Is(err, ErrInvalidCall) {
			t.Errorf("err = %v, want ErrInvalidCall", err)
		}
	})

	t.Run("recomputes IsRecursive from endpoints", func(t *testing.T) {
		g := NewCallGraph()
		mustAddNode(t, g, testNode("a", NodeKindFunction))
		mustAddNode(t, g, testNode("b", NodeKindFunction))

		call := testCall("a", "a", 1)
		call.IsRecursive = false
		if err := g.AddCall(call); err != nil {
			t.Fatalf("AddCall failed: %v", err)
		}

		lying := testCall("a", "b", 2)
		lying.IsRecursive = true
		if err := g.AddCall(lying); err != nil {
			t.Fatalf("AddCall failed: %v", err)
		}

		calls := g.Calls()
		if !calls[0].IsRecursive {
			t.Error("self-call not marked recursive")
		}
		if calls[1].IsRecursive {
			t.Error("a->b call marked recursive")
		}
	})

	t.Run("allows duplicate call sites", func(t *testing.T) {
		g := NewCallGraph()
		mustAddNode(t, g, testNode("a", NodeKindFunction))
		mustAddNode(t, g, testNode("b", NodeKindFunction))
		for line := 1; line <= 3; line++ {
			if err := g.AddCall(testCall("a", "b", line)); err != nil {
				t.Fatalf("AddCall line %d failed: %v", line, err)
			}
		}
		if g.CallCount() != 3 {
			t.Errorf("CallCount = %d, want 3", g.CallCount())
		}
	})

	t.Run("rejects calls after freeze", func(t *testing.T) {
		g := NewCallGraph()
		mustAddNode(t, g, testNode("a", NodeKindFunction))
		g.Freeze()
		if err := g.AddCall(testCall("a", "a", 1)); !errors.Is(err, ErrGraphFrozen) {
			t.Errorf("err = %v, want ErrGraphFrozen", err)
		}
	})

	t.Run("rejects calls beyond capacity", func(t *testing.T) {
		g := NewCallGraph(WithMaxCalls(1))
		mustAddNode(t, g, testNode("a", NodeKindFunction))
		if err := g.AddCall(testCall("a", "a", 1)); err != nil {
			t.Fatalf("AddCall failed: %v", err)
		}
		if err := g.AddCall(testCall("a", "a", 2)); !errors.Is(err, ErrMaxEdgesExceeded) {
			t.Errorf("err = %v, want ErrMaxEdgesExceeded", err)
		}
	})
}

func TestNodesOrder(t *testing.T) {
	g := NewCallGraph()
	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		mustAddNode(t, g, testNode(name, NodeKindFunction))
	}

	nodes := g.Nodes()
	if len(nodes) != len(names) {
		t.Fatalf("Nodes len = %d, want %d", len(nodes), len(names))
	}
	for i, name := range names {
		if nodes[i].Name != name {
			t.Errorf("nodes[%d] = %s, want %s (registration order)", i, nodes[i].Name, name)
		}
	}
}

func TestFreeze(t *testing.T) {
	g := NewCallGraph()
	if g.IsFrozen() {
		t.Error("new graph reports frozen")
	}
	if g.State() != GraphStateBuilding {
		t.Errorf("State = %v, want building", g.State())
	}

	g.Freeze()

	if !g.IsFrozen() {
		t.Error("frozen graph reports building")
	}
	if g.BuiltAtMilli == 0 {
		t.Error("BuiltAtMilli not set on freeze")
	}
}

func TestStats(t *testing.T) {
	g := NewCallGraph()
	mustAddNode(t, g, testNode("f", NodeKindFunction))
	mustAddNode(t, g, testNode("C", NodeKindClass))
	mustAddNode(t, g, testNode("C.m", NodeKindMethod))
	mustAddNode(t, g, &Node{Name: "<global>_main", Kind: NodeKindGlobal, FilePath: "other.ts"})

	mustAddCall(t, g, testCall("f", "f", 1))
	ctor := testCall("<global>_main", "C", 2)
	ctor.IsConstructor = true
	mustAddCall(t, g, ctor)
	method := testCall("f", "C.m", 3)
	method.IsMethod = true
	mustAddCall(t, g, method)

	stats := g.Stats()
	if stats.NodeCount != 4 || stats.CallCount != 3 {
		t.Errorf("counts = %d/%d, want 4/3", stats.NodeCount, stats.CallCount)
	}
	if stats.NodesByKind[NodeKindFunction] != 1 || stats.NodesByKind[NodeKindMethod] != 1 {
		t.Errorf("NodesByKind = %v", stats.NodesByKind)
	}
	if stats.RecursiveCalls != 1 {
		t.Errorf("RecursiveCalls = %d, want 1", stats.RecursiveCalls)
	}
	if stats.ConstructorCalls != 1 {
		t.Errorf("ConstructorCalls = %d, want 1", stats.ConstructorCalls)
	}
	if stats.MethodCalls != 1 {
		t.Errorf("MethodCalls = %d, want 1", stats.MethodCalls)
	}
	if stats.FileCount != 2 {
		t.Errorf("FileCount = %d, want 2", stats.FileCount)
	}
}

func TestClone(t *testing.T) {
	g := NewCallGraph()
	mustAddNode(t, g, testNode("a", NodeKindFunction))
	mustAddNode(t, g, testNode("b", NodeKindFunction))
	mustAddCall(t, g, testCall("a", "b", 1))
	g.Freeze()

	clone := g.Clone()
	if clone.IsFrozen() {
		t.Error("clone should be in building state")
	}
	if clone.NodeCount() != 2 || clone.CallCount() != 1 {
		t.Fatalf("clone counts = %d/%d, want 2/1", clone.NodeCount(), clone.CallCount())
	}

	// Mutating the clone must not touch the original.
	mustAddNode(t, clone, testNode("c", NodeKindFunction))
	node, _ := clone.GetNode("a")
	node.Exported = true

	if g.NodeCount() != 2 {
		t.Errorf("original node count changed to %d", g.NodeCount())
	}
	if orig, _ := g.GetNode("a"); orig.Exported {
		t.Error("clone node mutation leaked into original")
	}
}

// mustAddNode fails the test on AddNode error.
func mustAddNode(t *testing.T, g *CallGraph, node *Node) {
	t.Helper()
	if err := g.AddNode(node); err != nil {
		t.Fatalf("AddNode(%s) failed: %v", node.Name, err)
	}
}

// mustAddCall fails the test on AddCall error.
func mustAddCall(t *testing.T, g *CallGraph, call CallInfo) {
	t.Helper()
	if err := g.AddCall(call); err != nil {
		t.Fatalf("AddCall(%s -> %s) failed: %v", call.Caller, call.Callee, err)
	}
}
