package resolver

import (
	"go.lsp.dev/protocol"

	"solnav/internal/document"
	"solnav/internal/engine/ast"
)

// calleeKinds are the member declarations a call target can resolve to. A
// contract's own name also qualifies, covering constructor calls by contract
// name.
var calleeKinds = map[ast.Kind]bool{
	ast.KindFunction: true,
	ast.KindEvent:    true,
	ast.KindStruct:   true,
	ast.KindEnum:     true,
}

var variableKinds = map[ast.Kind]bool{
	ast.KindStateVariable: true,
}

// callee collects every declaration named name that a call could target,
// scanning contract and library bodies across the module set. Order follows
// the set (current module first, imports in declaration order), then
// declaration order within each body.
func (q *query) callee(name string) []protocol.LocationLink {
	var out []protocol.LocationLink
	for _, m := range q.set {
		buf := m.Buffer(q.ctx)
		if buf == nil {
			continue
		}
		for _, stmt := range m.Statements(q.ctx) {
			switch d := stmt.(type) {
			case *ast.Contract:
				if d.Name != nil && d.Name.Name == name {
					out = append(out, declarationLink(buf, d))
				}
				out = append(out, memberLinks(buf, d.Body, name, calleeKinds)...)
			case *ast.Library:
				out = append(out, memberLinks(buf, d.Body, name, calleeKinds)...)
			}
		}
	}
	return out
}

// variable collects state-variable declarations named name across the
// module set.
func (q *query) variable(name string) []protocol.LocationLink {
	var out []protocol.LocationLink
	for _, m := range q.set {
		buf := m.Buffer(q.ctx)
		if buf == nil {
			continue
		}
		for _, stmt := range m.Statements(q.ctx) {
			switch d := stmt.(type) {
			case *ast.Contract:
				out = append(out, memberLinks(buf, d.Body, name, variableKinds)...)
			case *ast.Library:
				out = append(out, memberLinks(buf, d.Body, name, variableKinds)...)
			}
		}
	}
	return out
}

func memberLinks(buf *document.Buffer, body []ast.Node, name string, kinds map[ast.Kind]bool) []protocol.LocationLink {
	var out []protocol.LocationLink
	for _, member := range body {
		if member == nil || !kinds[member.Kind()] {
			continue
		}
		if id := ast.DeclarationName(member); id != nil && id.Name == name {
			out = append(out, declarationLink(buf, member))
		}
	}
	return out
}

// resolveType resolves a type literal. Elementary types have no
// declarations; user types split into the scoped (Owner.Member) and simple
// cases.
func (q *query) resolveType(t *ast.Type) []protocol.LocationLink {
	lit, ok := t.Literal.(*ast.UserType)
	if !ok {
		return nil
	}
	if lit.Scoped() {
		return q.scopedType(lit)
	}
	return q.simpleType(lit.Name())
}

// scopedType resolves Owner.Member: Owner is located as a contract (then
// library) through the direct-import walk, and Member is re-resolved as a
// struct or enum inside the located declaration's body.
func (q *query) scopedType(lit *ast.UserType) []protocol.LocationLink {
	owner := lit.Segments[0].Name
	member := lit.Segments[1].Name

	m, decl := q.res.findDirectImport(q.ctx, q.current, owner, ast.KindContract, map[string]bool{})
	if decl == nil {
		m, decl = q.res.findDirectImport(q.ctx, q.current, owner, ast.KindLibrary, map[string]bool{})
	}
	if decl == nil {
		return nil
	}
	buf := m.Buffer(q.ctx)
	if buf == nil {
		return nil
	}
	if d := typeDeclIn(bodyOf(decl), member); d != nil {
		return []protocol.LocationLink{declarationLink(buf, d)}
	}
	return nil
}

// simpleType searches the enclosing declaration's body for a struct, then
// an enum, of the given name, falling back to a module-set-wide search.
// Inheritance chains are not walked.
func (q *query) simpleType(name string) []protocol.LocationLink {
	if q.enclosing != nil {
		if d := typeDeclIn(bodyOf(q.enclosing), name); d != nil {
			if buf := q.current.Buffer(q.ctx); buf != nil {
				return []protocol.LocationLink{declarationLink(buf, d)}
			}
		}
	}

	var structs, enums []protocol.LocationLink
	for _, m := range q.set {
		buf := m.Buffer(q.ctx)
		if buf == nil {
			continue
		}
		for _, stmt := range m.Statements(q.ctx) {
			body := bodyOf(stmt)
			if body == nil {
				continue
			}
			if d := topLevelDecl(body, name, ast.KindStruct); d != nil {
				structs = append(structs, declarationLink(buf, d))
			}
			if d := topLevelDecl(body, name, ast.KindEnum); d != nil {
				enums = append(enums, declarationLink(buf, d))
			}
		}
	}
	if len(structs) > 0 {
		return structs
	}
	return enums
}

// typeDeclIn finds a struct (preferred) or enum named name in body.
func typeDeclIn(body []ast.Node, name string) ast.Node {
	if body == nil {
		return nil
	}
	if d := topLevelDecl(body, name, ast.KindStruct); d != nil {
		return d
	}
	return topLevelDecl(body, name, ast.KindEnum)
}

// bodyOf returns the member list of a contract, library or interface
// declaration, or nil for other kinds.
func bodyOf(decl ast.Node) []ast.Node {
	switch d := decl.(type) {
	case *ast.Contract:
		return d.Body
	case *ast.Library:
		return d.Body
	case *ast.Interface:
		return d.Body
	}
	return nil
}
