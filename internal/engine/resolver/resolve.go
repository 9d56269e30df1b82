package resolver

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"solnav/internal/document"
	"solnav/internal/engine/ast"
	"solnav/internal/shared/observability"
)

// ProvideDefinition resolves the definition(s) of whatever the offset is
// inside of. The result is empty, one, or many locations; "not found" is an
// empty slice, never an error. Ambiguous references (same-named members in
// several modules of the set) surface every match.
func (r *Resolver) ProvideDefinition(ctx context.Context, buf *document.Buffer, offset int) []protocol.LocationLink {
	ctx, span := observability.Tracer.Start(ctx, "resolver.ProvideDefinition")
	defer span.End()
	timer := prometheus.NewTimer(observability.DefinitionDuration)
	defer timer.ObserveDuration()

	current := r.moduleFor(buf)
	stmts := current.Statements(ctx)
	if len(stmts) == 0 {
		return nil
	}

	q := &query{
		res:     r,
		ctx:     ctx,
		offset:  offset,
		current: current,
		set:     r.moduleSet(ctx, current),
	}

	top := FindOffset(stmts, offset)
	if top == nil {
		return nil
	}
	return q.dispatch(top)
}

// query carries the state of one definition request: the offset, the module
// whose buffer the cursor is in, and the resolution universe built from its
// direct imports.
type query struct {
	res     *Resolver
	ctx     context.Context
	offset  int
	current *Module
	set     []*Module

	// enclosing is the top-level declaration the walk descended into; simple
	// type literals are searched against its body first.
	enclosing ast.Node
}

// dispatch handles a top-level statement surrounding the offset.
func (q *query) dispatch(top ast.Node) []protocol.LocationLink {
	switch t := top.(type) {
	case *ast.Import:
		return q.resolveImport(t)
	case *ast.Contract:
		return q.contractLike(t, t.Parents, t.Body)
	case *ast.Library:
		return q.contractLike(t, nil, t.Body)
	case *ast.Interface:
		return q.contractLike(t, t.Parents, t.Body)
	default:
		return nil
	}
}

// resolveImport points at the start of the imported file, with an origin
// selection covering the specifier text. Specifiers that do not name an
// in-project file give no result; they may be genuinely external.
func (q *query) resolveImport(imp *ast.Import) []protocol.LocationLink {
	if imp.From == "" {
		return nil
	}
	path := q.res.ResolvePath(imp.From, q.current.Path)
	if !q.res.fs.IsFile(q.ctx, path) {
		return nil
	}
	zero := protocol.Range{}
	result := protocol.LocationLink{
		TargetURI:            uri.File(path),
		TargetRange:          zero,
		TargetSelectionRange: zero,
	}
	if buf := q.current.Buffer(q.ctx); buf != nil {
		result.OriginSelectionRange = importOriginRange(buf, imp)
	}
	return []protocol.LocationLink{result}
}

func (q *query) contractLike(decl ast.Node, parents, body []ast.Node) []protocol.LocationLink {
	q.enclosing = decl
	if p := FindOffset(parents, q.offset); p != nil {
		if id, ok := p.(*ast.Identifier); ok {
			return q.resolveInheritance(id.Name)
		}
		return nil
	}
	if child := FindOffset(body, q.offset); child != nil {
		return q.statement(child, decl)
	}
	return nil
}

// resolveInheritance handles names in an `is` clause: contracts first,
// interfaces as the fallback. Only the direct target resolves; the
// inheritance closure is not walked.
func (q *query) resolveInheritance(name string) []protocol.LocationLink {
	m, decl := q.res.findDirectImport(q.ctx, q.current, name, ast.KindContract, map[string]bool{})
	if decl == nil {
		m, decl = q.res.findDirectImport(q.ctx, q.current, name, ast.KindInterface, map[string]bool{})
	}
	if decl == nil {
		return nil
	}
	buf := m.Buffer(q.ctx)
	if buf == nil {
		return nil
	}
	return []protocol.LocationLink{declarationLink(buf, decl)}
}

// statement resolves one node, recursing toward the offset. parent is the
// node one level up; identifier resolution keys off it.
func (q *query) statement(node ast.Node, parent ast.Node) []protocol.LocationLink {
	switch n := node.(type) {
	case *ast.Using:
		if n.For == nil || q.offset < n.For.GetSpan().Start {
			return q.resolveLibrary(n.Library)
		}
		return q.statement(n.For, n)

	case *ast.Type:
		// Structured literals (mappings, arrays) are containers: descend
		// into the inner type holding the offset. Plain literals resolve as
		// the type itself.
		switch n.Literal.(type) {
		case *ast.Mapping, *ast.ArrayType:
			if n.Literal.GetSpan().Contains(q.offset) {
				return q.statement(n.Literal, n)
			}
		}
		return q.resolveType(n)

	case *ast.Identifier:
		// The parent decides what the identifier is: a callee, the object
		// of a member access, or a property. A property could be a field or
		// a method at this stage, so both resolutions apply, concatenated.
		switch par := parent.(type) {
		case *ast.Call:
			if par.Callee == node {
				return q.callee(n.Name)
			}
		case *ast.Member:
			if par.Object == node {
				return q.variable(n.Name)
			}
			if par.Property == node {
				return append(q.variable(n.Name), q.callee(n.Name)...)
			}
		}
		return q.variable(n.Name)

	default:
		// Generic interval-containment walk over the node's declared child
		// slots; the first containing child wins, matching source order.
		for _, slot := range node.Slots() {
			if slot.List != nil {
				if child := FindOffset(slot.List, q.offset); child != nil {
					return q.statement(child, node)
				}
				continue
			}
			if slot.Node != nil && slot.Node.GetSpan().Contains(q.offset) {
				return q.statement(slot.Node, node)
			}
		}
		if mi, ok := node.(*ast.ModifierInvocation); ok && mi.Name != nil {
			return q.callee(mi.Name.Name)
		}
		return nil
	}
}

func (q *query) resolveLibrary(name *ast.Identifier) []protocol.LocationLink {
	if name == nil {
		return nil
	}
	m, decl := q.res.findDirectImport(q.ctx, q.current, name.Name, ast.KindLibrary, map[string]bool{})
	if decl == nil {
		return nil
	}
	buf := m.Buffer(q.ctx)
	if buf == nil {
		return nil
	}
	return []protocol.LocationLink{declarationLink(buf, decl)}
}
