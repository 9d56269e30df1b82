package resolver

import (
	"bytes"

	"go.lsp.dev/protocol"

	"solnav/internal/document"
	"solnav/internal/engine/ast"
)

// link packages a node into a definition location. selection narrows the
// target to the declared name when the caller has one; otherwise the whole
// node span doubles as the selection.
func link(buf *document.Buffer, node ast.Node, selection ast.Node) protocol.LocationLink {
	span := node.GetSpan()
	target := buf.Range(span.Start, span.End)
	sel := target
	if selection != nil {
		s := selection.GetSpan()
		sel = buf.Range(s.Start, s.End)
	}
	return protocol.LocationLink{
		TargetURI:            buf.URI(),
		TargetRange:          target,
		TargetSelectionRange: sel,
	}
}

// declarationLink builds a link for a declaration node, selecting its name
// identifier when the declaration carries one.
func declarationLink(buf *document.Buffer, decl ast.Node) protocol.LocationLink {
	var selection ast.Node
	if name := ast.DeclarationName(decl); name != nil {
		selection = name
	}
	return link(buf, decl, selection)
}

// importOriginRange locates the quoted specifier substring inside the import
// statement's raw text. The syntax tree records only the statement's outer
// interval, so the specifier is found by searching the statement text.
func importOriginRange(buf *document.Buffer, imp *ast.Import) *protocol.Range {
	if imp.From == "" {
		return nil
	}
	span := imp.GetSpan()
	text := buf.Text()
	if span.Start < 0 || span.End > len(text) || span.Start >= span.End {
		return nil
	}
	idx := bytes.Index(text[span.Start:span.End], []byte(imp.From))
	if idx < 0 {
		return nil
	}
	start := span.Start + idx
	r := buf.Range(start, start+len(imp.From))
	return &r
}
