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
	"fmt"
	"log/slog"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/callgraph/ast"
)

// Builder defaults.
const (
	// DefaultMaxDepth is the default nesting depth limit for declaration
	// scopes. Zero means unbounded.
	DefaultMaxDepth = 0

	// ctxCheckInterval is how many visited nodes pass between context
	// cancellation checks.
	ctxCheckInterval = 256
)

// BuilderOptions configures graph construction.
type BuilderOptions struct {
	// MaxDepth limits how deep the builder descends into nested
	// declaration scopes. A function declared at depth MaxDepth is still
	// registered as a node, but its body is not traversed. 0 = unbounded.
	MaxDepth int

	// MaxNodes caps the node count of the constructed graph.
	MaxNodes int

	// MaxCalls caps the call record count of the constructed graph.
	MaxCalls int
}

// DefaultBuilderOptions returns sensible defaults for graph construction.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		MaxDepth: DefaultMaxDepth,
		MaxNodes: DefaultMaxNodes,
		MaxCalls: DefaultMaxCalls,
	}
}

// BuilderOption is a functional option for configuring the Builder.
type BuilderOption func(*BuilderOptions)

// WithMaxDepth limits nested declaration scope traversal. 0 = unbounded.
func WithMaxDepth(depth int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxDepth = depth
	}
}

// WithNodeLimit caps the node count of the constructed graph.
func WithNodeLimit(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxNodes = n
	}
}

// WithCallLimit caps the call record count of the constructed graph.
func WithCallLimit(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxCalls = n
	}
}

// Builder constructs a CallGraph from a parsed program.
//
// Description:
//
//	The builder makes a single pass over every file's syntax tree. The
//	enclosing scope is threaded through the recursive descent as an
//	explicit parameter, so the builder itself holds no traversal state
//	and a Builder can be reused across Build calls.
//
// Thread Safety:
//
//	A Builder is stateless after construction, but the program's trees
//	are not thread-safe, so a single program must not be built from
//	multiple goroutines at once.
type Builder struct {
	options BuilderOptions
}

// NewBuilder creates a Builder with the given options.
//
// Example:
//
//	b := NewBuilder(WithMaxDepth(3))
//	result, err := b.Build(ctx, program)
func NewBuilder(opts ...BuilderOption) *Builder {
	options := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Builder{options: options}
}

// buildState carries per-file traversal state.
type buildState struct {
	ctx   context.Context
	graph *CallGraph
	file  *ast.SourceFile

	// open tracks declaration scopes currently being descended, keyed
	// by file path and scope name. Guards against re-entering a
	// declaration that is already on the traversal path.
	open map[string]bool

	// visited counts visited nodes for periodic context checks.
	visited int

	stats *BuildStats
}

// Build extracts the call graph of the program.
//
// Description:
//
//	Processes files sequentially in program order. Each file's tree is
//	walked once; declarations register nodes, call and new expressions
//	record CallInfo edges. Callees whose declarations were never seen
//	get placeholder nodes so every edge endpoint is always registered.
//
//	The returned graph is still in the Building state so callers can
//	filter and prune it. Call Freeze() before sharing it with readers.
//
// Inputs:
//
//	ctx - Cancellation is checked between files and periodically inside
//	each file's traversal.
//	program - The parsed program. Must not be nil.
//
// Outputs:
//
//	*BuildResult - The graph plus per-file errors and statistics.
//	Never nil; on cancellation or capacity stop it holds the partial
//	graph with Incomplete set.
//	error - Non-nil only for cancellation or capacity exhaustion.
//
// Errors:
//
//	ErrBuildCancelled - Context cancelled mid-build
//	ErrMaxNodesExceeded, ErrMaxEdgesExceeded - Capacity reached
func (b *Builder) Build(ctx context.Context, program *ast.Program) (*BuildResult, error) {
	ctx, span := startBuildSpan(ctx, len(program.Files))
	defer span.End()
	start := time.Now()

	graph := NewCallGraph(
		WithMaxNodes(b.options.MaxNodes),
		WithMaxCalls(b.options.MaxCalls),
	)
	result := &BuildResult{Graph: graph}

	var buildErr error
	for _, file := range program.Files {
		if ctx.Err() != nil {
			result.Incomplete = true
			buildErr = fmt.Errorf("%w: %w", ErrBuildCancelled, ctx.Err())
			break
		}

		st := &buildState{
			ctx:   ctx,
			graph: graph,
			file:  file,
			open:  make(map[string]bool),
			stats: &result.Stats,
		}

		if err := b.visitChildren(st, file.Root(), "", "", 0); err != nil {
			if errors.Is(err, ErrMaxNodesExceeded) || errors.Is(err, ErrMaxEdgesExceeded) || errors.Is(err, ErrBuildCancelled) {
				result.Incomplete = true
				buildErr = err
				break
			}
			result.Stats.FilesFailed++
			result.FileErrors = append(result.FileErrors, FileError{FilePath: file.Path, Err: err})
			slog.Warn("file traversal failed",
				"path", file.Path,
				"error", err,
			)
			continue
		}
		result.Stats.FilesProcessed++
	}

	result.Stats.NodesCreated = graph.NodeCount()
	result.Stats.CallsRecorded = graph.CallCount()
	result.Stats.DurationMicro = time.Since(start).Microseconds()

	setBuildSpanResult(span, graph.NodeCount(), graph.CallCount(), result.Incomplete)
	recordBuildMetrics(ctx, time.Since(start), graph.NodeCount(), graph.CallCount(), buildErr == nil)

	slog.Debug("call graph built",
		"files", result.Stats.FilesProcessed,
		"nodes", graph.NodeCount(),
		"calls", graph.CallCount(),
		"duration_us", result.Stats.DurationMicro,
	)

	return result, buildErr
}

// visit dispatches on the node's syntax kind.
//
// scope is the name of the enclosing declaration's node, or "" for a
// file's top level (the global node is materialized lazily on first
// use). class is the enclosing class name, or "".
func (b *Builder) visit(st *buildState, n *sitter.Node, scope, class string, depth int) error {
	switch {
	case ast.IsFunctionDeclaration(n) || ast.IsFunctionExpression(n):
		return b.visitFunction(st, n, scope, class, depth)
	case ast.IsClassDeclaration(n):
		return b.visitClass(st, n, scope, depth)
	case ast.IsMethodDefinition(n):
		return b.visitMethod(st, n, class, depth)
	case ast.IsCallExpression(n):
		if err := b.recordCall(st, n, scope, class); err != nil {
			return err
		}
		return b.visitChildren(st, n, scope, class, depth)
	case ast.IsNewExpression(n):
		if err := b.recordNew(st, n, scope); err != nil {
			return err
		}
		return b.visitChildren(st, n, scope, class, depth)
	default:
		return b.visitChildren(st, n, scope, class, depth)
	}
}

// visitChildren visits every child with the same scope context.
func (b *Builder) visitChildren(st *buildState, n *sitter.Node, scope, class string, depth int) error {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		st.visited++
		if st.visited%ctxCheckInterval == 0 && st.ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrBuildCancelled, st.ctx.Err())
		}
		if err := b.visit(st, n.Child(i), scope, class, depth); err != nil {
			return err
		}
	}
	return nil
}

// visitFunction registers a function node and descends into its body.
func (b *Builder) visitFunction(st *buildState, n *sitter.Node, scope, class string, depth int) error {
	name := ast.DeclaredName(st.file, n)
	if name == "" {
		name = b.anonymousName(st, n)
	}

	if err := b.registerDeclaration(st, name, NodeKindFunction, n); err != nil {
		return err
	}

	return b.descend(st, n, name, class, depth)
}

// visitClass registers a class node and descends into its body.
//
// Calls in field initializers are attributed to the enclosing scope;
// only method bodies open new scopes.
func (b *Builder) visitClass(st *buildState, n *sitter.Node, scope string, depth int) error {
	var name string
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = st.file.Text(nameNode)
	} else {
		name = b.anonymousName(st, n)
	}

	if err := b.registerDeclaration(st, name, NodeKindClass, n); err != nil {
		return err
	}

	key := st.file.Path + "\x00" + name
	if st.open[key] {
		return nil
	}
	if b.options.MaxDepth > 0 && depth+1 > b.options.MaxDepth {
		st.stats.DepthLimited++
		return nil
	}

	st.open[key] = true
	err := b.visitChildren(st, n, scope, name, depth+1)
	delete(st.open, key)
	return err
}

// visitMethod registers a Class.method node and descends into its body.
func (b *Builder) visitMethod(st *buildState, n *sitter.Node, class string, depth int) error {
	mname := ast.MethodName(st.file, n)
	name := mname
	if class != "" {
		name = class + "." + mname
	} else if mname == "<computed>" {
		// Object-literal method with a computed key and no class context.
		name = b.anonymousName(st, n)
	}

	if err := b.registerDeclaration(st, name, NodeKindMethod, n); err != nil {
		return err
	}

	// Methods follow their class's export status.
	if class != "" {
		if classNode, ok := st.graph.GetNode(class); ok && classNode.Exported {
			if node, found := st.graph.GetNode(name); found {
				node.Exported = true
			}
		}
	}

	return b.descend(st, n, name, class, depth)
}

// descend walks a declaration's body under a new scope name, honoring
// the recursion guard and the depth limit.
func (b *Builder) descend(st *buildState, n *sitter.Node, scope, class string, depth int) error {
	key := st.file.Path + "\x00" + scope
	if st.open[key] {
		return nil
	}
	if b.options.MaxDepth > 0 && depth+1 > b.options.MaxDepth {
		st.stats.DepthLimited++
		return nil
	}

	st.open[key] = true
	err := b.visitChildren(st, n, scope, class, depth+1)
	delete(st.open, key)
	return err
}

// recordCall records one edge for a call expression.
func (b *Builder) recordCall(st *buildState, n *sitter.Node, scope, class string) error {
	caller, err := b.callerName(st, scope)
	if err != nil {
		return err
	}

	line, col := st.file.Position(n)
	callee, isMethod, className := b.resolveCallee(st, n, class, line, col)

	calleeKind := NodeKindFunction
	if isMethod {
		calleeKind = NodeKindMethod
	}
	if err := b.ensureNode(st, callee, calleeKind); err != nil {
		return err
	}

	return st.graph.AddCall(CallInfo{
		Caller:     caller,
		Callee:     callee,
		FilePath:   st.file.Path,
		Line:       line,
		Column:     col,
		IsMethod:   isMethod,
		ClassName:  className,
		CallerType: b.typeOf(st, caller),
		CalleeType: b.typeOf(st, callee),
	})
}

// resolveCallee derives the callee node name from the call target.
//
// Shapes handled:
//   - identifier: plain name
//   - member with identifier receiver: "obj.prop"
//   - member with this receiver inside a class: "Class.prop"
//   - member with any other receiver: property name alone
//   - anything else: positional "<complex>" placeholder
func (b *Builder) resolveCallee(st *buildState, n *sitter.Node, class string, line, col int) (name string, isMethod bool, className string) {
	fn := n.ChildByFieldName("function")

	switch {
	case ast.IsIdentifier(fn):
		return st.file.Text(fn), false, ""

	case ast.IsMemberExpression(fn):
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if prop == nil {
			break
		}
		propText := st.file.Text(prop)

		if ast.IsIdentifier(obj) {
			objText := st.file.Text(obj)
			if node, ok := st.graph.GetNode(objText); ok && node.Kind == NodeKindClass {
				className = objText
			}
			return objText + "." + propText, true, className
		}
		if ast.IsThis(obj) && class != "" {
			return class + "." + propText, true, class
		}
		return propText, true, ""
	}

	return fmt.Sprintf("<complex>_%d_%d", line, col), false, ""
}

// recordNew records one constructor edge for a new expression.
func (b *Builder) recordNew(st *buildState, n *sitter.Node, scope string) error {
	caller, err := b.callerName(st, scope)
	if err != nil {
		return err
	}

	line, col := st.file.Position(n)

	// Only a plain identifier names the class; member expressions,
	// call results, and other constructed expressions get a positional
	// placeholder.
	var callee, className string
	ctor := n.ChildByFieldName("constructor")
	if ast.IsIdentifier(ctor) {
		callee = st.file.Text(ctor)
		className = callee
	} else {
		callee = fmt.Sprintf("<complex>_%d_%d", line, col)
	}

	if err := b.ensureNode(st, callee, NodeKindClass); err != nil {
		return err
	}

	return st.graph.AddCall(CallInfo{
		Caller:        caller,
		Callee:        callee,
		FilePath:      st.file.Path,
		Line:          line,
		Column:        col,
		IsConstructor: true,
		ClassName:     className,
		CallerType:    b.typeOf(st, caller),
		CalleeType:    b.typeOf(st, callee),
	})
}

// callerName resolves the current scope to its node name, materializing
// the file's global node on first use.
func (b *Builder) callerName(st *buildState, scope string) (string, error) {
	if scope != "" {
		return scope, nil
	}

	name := "<global>_" + st.file.Base()
	if !st.graph.HasNode(name) {
		err := st.graph.AddNode(&Node{
			Name:     name,
			Kind:     NodeKindGlobal,
			FilePath: st.file.Path,
		})
		if err != nil {
			return "", err
		}
	}
	return name, nil
}

// anonymousName builds a positional name for an unnamed declaration.
func (b *Builder) anonymousName(st *buildState, n *sitter.Node) string {
	line, col := st.file.Position(n)
	return fmt.Sprintf("anonymous_%s_%d_%d", st.file.Base(), line, col)
}

// registerDeclaration adds a declaration node, or fills in a placeholder
// created earlier by a forward reference.
func (b *Builder) registerDeclaration(st *buildState, name string, kind NodeKind, n *sitter.Node) error {
	node, exists := st.graph.GetNode(name)
	if !exists {
		return st.graph.AddNode(&Node{
			Name:       name,
			Kind:       kind,
			Type:       ast.Signature(st.file, n),
			DocComment: ast.LeadingComment(st.file, n),
			FilePath:   st.file.Path,
			Exported:   ast.IsExported(n),
		})
	}

	// A callee placeholder saw this name before its declaration.
	if node.FilePath == "" {
		node.Kind = kind
		node.Type = ast.Signature(st.file, n)
		node.DocComment = ast.LeadingComment(st.file, n)
		node.FilePath = st.file.Path
		node.Exported = ast.IsExported(n)
	}
	return nil
}

// ensureNode registers a placeholder node for a callee if needed.
func (b *Builder) ensureNode(st *buildState, name string, kind NodeKind) error {
	if st.graph.HasNode(name) {
		return nil
	}
	if err := st.graph.AddNode(&Node{Name: name, Kind: kind}); err != nil {
		return err
	}
	st.stats.PlaceholderNodes++
	return nil
}

// typeOf returns the advisory type string of a registered node.
func (b *Builder) typeOf(st *buildState, name string) string {
	if node, ok := st.graph.GetNode(name); ok {
		return node.Type
	}
	return ""
}
