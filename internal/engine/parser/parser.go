// Package parser turns Solidity-like source into the tagged syntax tree the
// resolver navigates. Parsing is best-effort: syntax errors are recorded and
// the parser resynchronizes at the next statement or declaration boundary, so
// a broken region costs only itself, not the rest of the file.
package parser

import (
	"fmt"
	"strings"

	"solnav/internal/engine/ast"
)

// Result is the top-level statement list of one parsed source unit.
type Result struct {
	Statements []ast.Node
}

// SyntaxError reports recoverable parse errors. Result holds the partial
// tree recovered alongside the errors; it is nil only when nothing at all
// could be parsed.
type SyntaxError struct {
	Result *Result
	Errors []string
}

func (e *SyntaxError) Error() string {
	if len(e.Errors) == 0 {
		return "syntax error"
	}
	return fmt.Sprintf("syntax error: %s (and %d more)", e.Errors[0], len(e.Errors)-1)
}

// Parse parses src. On success err is nil. On recoverable errors it returns
// the partial tree together with a *SyntaxError carrying the same tree. A
// hard failure (no usable statements) returns a nil Result.
func Parse(src []byte) (*Result, error) {
	p := &parser{lx: newLexer(src), src: src}
	p.advance()

	var stmts []ast.Node
	for p.tok.kind != tokEOF {
		before := p.tok.pos
		if n := p.parseTopLevel(); n != nil {
			stmts = append(stmts, n)
		}
		if p.tok.kind != tokEOF && p.tok.pos == before {
			// No progress; drop the offending token.
			p.advance()
		}
	}

	res := &Result{Statements: stmts}
	if len(p.errs) > 0 {
		serr := &SyntaxError{Errors: p.errs}
		if len(stmts) == 0 {
			return nil, serr
		}
		serr.Result = res
		return res, serr
	}
	return res, nil
}

type parser struct {
	lx   *lexer
	src  []byte
	tok  token
	errs []string
}

func (p *parser) advance() { p.tok = p.lx.next() }

// mark/restore implement cheap speculative parsing: lexer state is a single
// offset.
type mark struct {
	off int
	tok token
}

func (p *parser) mark() mark          { return mark{off: p.lx.off, tok: p.tok} }
func (p *parser) restore(m mark)      { p.lx.off = m.off; p.tok = m.tok }
func (p *parser) at(kw string) bool { return p.tok.kind == tokIdent && p.tok.text == kw }

func (p *parser) errorf(pos int, format string, args ...any) {
	p.errs = append(p.errs, fmt.Sprintf("offset %d: %s", pos, fmt.Sprintf(format, args...)))
}

func (p *parser) expect(k tokenKind, what string) token {
	if p.tok.kind != k {
		p.errorf(p.tok.pos, "expected %s, found %q", what, p.tok.text)
		return token{kind: k, pos: p.tok.pos, end: p.tok.pos}
	}
	t := p.tok
	p.advance()
	return t
}

// syncTop skips ahead to the next top-level declaration keyword.
func (p *parser) syncTop() {
	depth := 0
	for p.tok.kind != tokEOF {
		switch p.tok.kind {
		case tokLBrace:
			depth++
		case tokRBrace:
			if depth > 0 {
				depth--
			}
		case tokIdent:
			if depth == 0 {
				switch p.tok.text {
				case "pragma", "import", "contract", "library", "interface", "abstract":
					return
				}
			}
		}
		p.advance()
	}
}

// syncStmt skips to just past the next ';' or to a closing brace.
func (p *parser) syncStmt() {
	for p.tok.kind != tokEOF {
		switch p.tok.kind {
		case tokSemi:
			p.advance()
			return
		case tokRBrace:
			return
		case tokLBrace:
			p.skipBalanced(tokLBrace, tokRBrace)
			return
		}
		p.advance()
	}
}

func (p *parser) skipBalanced(open, close tokenKind) int {
	if p.tok.kind != open {
		return p.tok.end
	}
	depth := 0
	end := p.tok.end
	for p.tok.kind != tokEOF {
		if p.tok.kind == open {
			depth++
		} else if p.tok.kind == close {
			depth--
			if depth == 0 {
				end = p.tok.end
				p.advance()
				return end
			}
		}
		end = p.tok.end
		p.advance()
	}
	return end
}

func (p *parser) parseTopLevel() ast.Node {
	switch {
	case p.at("pragma"):
		return p.parsePragma()
	case p.at("import"):
		return p.parseImport()
	case p.at("abstract"):
		start := p.tok.pos
		p.advance()
		if p.at("contract") {
			return p.parseContractLike(start)
		}
		p.errorf(start, "expected contract after abstract")
		p.syncTop()
		return nil
	case p.at("contract"), p.at("library"), p.at("interface"):
		return p.parseContractLike(p.tok.pos)
	default:
		p.errorf(p.tok.pos, "unexpected %q at top level", p.tok.text)
		p.syncTop()
		return nil
	}
}

func (p *parser) parsePragma() ast.Node {
	start := p.tok.pos
	end := p.tok.end
	p.advance()
	name := ""
	if p.tok.kind == tokIdent {
		name = p.tok.text
		p.advance()
	}
	var parts []string
	for p.tok.kind != tokSemi && p.tok.kind != tokEOF && p.tok.kind != tokLBrace {
		parts = append(parts, p.tok.text)
		end = p.tok.end
		p.advance()
	}
	if p.tok.kind == tokSemi {
		end = p.tok.end
		p.advance()
	}
	return &ast.Pragma{Span: ast.Span{Start: start, End: end}, Name: name, Value: strings.Join(parts, " ")}
}

func (p *parser) parseImport() ast.Node {
	start := p.tok.pos
	end := p.tok.end
	p.advance()

	imp := &ast.Import{}

	switch {
	case p.tok.kind == tokString:
		imp.From = unquote(p.tok.text)
		end = p.tok.end
		p.advance()
		if p.at("as") {
			p.advance()
			if p.tok.kind == tokIdent {
				imp.Alias = p.tok.text
				end = p.tok.end
				p.advance()
			}
		}
	case p.tok.kind == tokLBrace:
		p.advance()
		for p.tok.kind != tokRBrace && p.tok.kind != tokEOF {
			if p.tok.kind != tokIdent {
				p.errorf(p.tok.pos, "expected symbol name in import list")
				break
			}
			sym := ast.ImportSymbol{Name: p.tok.text}
			p.advance()
			if p.at("as") {
				p.advance()
				if p.tok.kind == tokIdent {
					sym.Alias = p.tok.text
					p.advance()
				}
			}
			imp.Symbols = append(imp.Symbols, sym)
			if p.tok.kind == tokComma {
				p.advance()
			}
		}
		p.expect(tokRBrace, "}")
		if p.at("from") {
			p.advance()
		} else {
			p.errorf(p.tok.pos, "expected from in import")
		}
		if p.tok.kind == tokString {
			imp.From = unquote(p.tok.text)
			end = p.tok.end
			p.advance()
		}
	case p.tok.kind == tokOp && p.tok.text == "*":
		p.advance()
		if p.at("as") {
			p.advance()
			if p.tok.kind == tokIdent {
				imp.Alias = p.tok.text
				p.advance()
			}
		}
		if p.at("from") {
			p.advance()
		}
		if p.tok.kind == tokString {
			imp.From = unquote(p.tok.text)
			end = p.tok.end
			p.advance()
		}
	default:
		p.errorf(p.tok.pos, "malformed import")
		p.syncStmt()
		return nil
	}

	if p.tok.kind == tokSemi {
		end = p.tok.end
		p.advance()
	}
	imp.Span = ast.Span{Start: start, End: end}
	return imp
}

func (p *parser) parseContractLike(start int) ast.Node {
	kw := p.tok.text
	p.advance()

	var name *ast.Identifier
	if p.tok.kind == tokIdent {
		name = &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
		p.advance()
	} else {
		p.errorf(p.tok.pos, "expected %s name", kw)
	}

	var parents []ast.Node
	if p.at("is") {
		p.advance()
		for p.tok.kind == tokIdent {
			parents = append(parents, &ast.Identifier{
				Span: ast.Span{Start: p.tok.pos, End: p.tok.end},
				Name: p.tok.text,
			})
			p.advance()
			if p.tok.kind == tokLParen {
				p.skipBalanced(tokLParen, tokRParen)
			}
			if p.tok.kind != tokComma {
				break
			}
			p.advance()
		}
	}

	var body []ast.Node
	end := p.tok.end
	if p.tok.kind == tokLBrace {
		p.advance()
		for p.tok.kind != tokRBrace && p.tok.kind != tokEOF {
			before := p.tok.pos
			if m := p.parseMember(); m != nil {
				body = append(body, m)
			}
			if p.tok.kind != tokRBrace && p.tok.kind != tokEOF && p.tok.pos == before {
				p.advance()
			}
		}
		end = p.expect(tokRBrace, "}").end
	} else {
		p.errorf(p.tok.pos, "expected %s body", kw)
		p.syncTop()
	}

	span := ast.Span{Start: start, End: end}
	switch kw {
	case "library":
		return &ast.Library{Span: span, Name: name, Body: body}
	case "interface":
		return &ast.Interface{Span: span, Name: name, Parents: parents, Body: body}
	default:
		return &ast.Contract{Span: span, Name: name, Parents: parents, Body: body}
	}
}

func (p *parser) parseMember() ast.Node {
	switch {
	case p.at("using"):
		return p.parseUsing()
	case p.at("function"), p.at("fallback"), p.at("receive"):
		return p.parseFunction()
	case p.at("constructor"):
		return p.parseConstructor()
	case p.at("event"):
		return p.parseEvent()
	case p.at("modifier"):
		return p.parseModifierDecl()
	case p.at("struct"):
		return p.parseStruct()
	case p.at("enum"):
		return p.parseEnum()
	case p.tok.kind == tokIdent || p.at("mapping"):
		return p.parseStateVariable()
	default:
		p.errorf(p.tok.pos, "unexpected %q in body", p.tok.text)
		p.syncStmt()
		return nil
	}
}

func (p *parser) parseUsing() ast.Node {
	start := p.tok.pos
	end := p.tok.end
	p.advance()

	u := &ast.Using{}
	if p.tok.kind == tokIdent {
		u.Library = &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
		end = p.tok.end
		p.advance()
	} else {
		p.errorf(p.tok.pos, "expected library name after using")
	}
	if p.at("for") {
		p.advance()
		if p.tok.kind == tokOp && p.tok.text == "*" {
			end = p.tok.end
			p.advance()
		} else if t := p.parseType(); t != nil {
			u.For = t
			end = t.GetSpan().End
		}
	} else {
		p.errorf(p.tok.pos, "expected for in using directive")
	}
	if p.tok.kind == tokSemi {
		end = p.tok.end
		p.advance()
	}
	u.Span = ast.Span{Start: start, End: end}
	return u
}

var headerKeywords = map[string]bool{
	"public": true, "private": true, "internal": true, "external": true,
	"pure": true, "view": true, "payable": true, "constant": true,
	"virtual": true, "override": true, "immutable": true, "anonymous": true,
}

var mutabilityKeywords = map[string]bool{
	"pure": true, "view": true, "payable": true,
}

var visibilityKeywords = map[string]bool{
	"public": true, "private": true, "internal": true, "external": true,
}

func (p *parser) parseFunction() ast.Node {
	start := p.tok.pos
	p.advance()

	fn := &ast.Function{}
	if p.tok.kind == tokIdent {
		fn.Name = &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
		p.advance()
	}
	fn.Params = p.parseParamList()

	end := p.tok.pos
	for {
		switch {
		case p.tok.kind == tokIdent && visibilityKeywords[p.tok.text]:
			fn.Visibility = p.tok.text
			end = p.tok.end
			p.advance()
		case p.tok.kind == tokIdent && mutabilityKeywords[p.tok.text]:
			fn.Mutability = p.tok.text
			end = p.tok.end
			p.advance()
		case p.tok.kind == tokIdent && headerKeywords[p.tok.text]:
			end = p.tok.end
			p.advance()
			if p.tok.kind == tokLParen { // override(Base)
				end = p.skipBalanced(tokLParen, tokRParen)
			}
		case p.at("returns"):
			p.advance()
			fn.Returns = p.parseParamList()
			if n := len(fn.Returns); n > 0 {
				end = fn.Returns[n-1].GetSpan().End
			}
		case p.tok.kind == tokIdent:
			mi := p.parseModifierInvocation()
			fn.Modifiers = append(fn.Modifiers, mi)
			end = mi.GetSpan().End
		default:
			goto header_done
		}
	}
header_done:

	switch p.tok.kind {
	case tokLBrace:
		var bodyEnd int
		fn.Body, bodyEnd = p.parseBlock()
		end = bodyEnd
	case tokSemi:
		end = p.tok.end
		p.advance()
	default:
		p.errorf(p.tok.pos, "expected function body or ;")
		p.syncStmt()
	}
	fn.Span = ast.Span{Start: start, End: end}
	return fn
}

func (p *parser) parseConstructor() ast.Node {
	start := p.tok.pos
	p.advance()

	c := &ast.Constructor{}
	c.Params = p.parseParamList()

	end := p.tok.pos
	for {
		switch {
		case p.tok.kind == tokIdent && headerKeywords[p.tok.text]:
			end = p.tok.end
			p.advance()
		case p.tok.kind == tokIdent:
			mi := p.parseModifierInvocation()
			c.Modifiers = append(c.Modifiers, mi)
			end = mi.GetSpan().End
		default:
			goto header_done
		}
	}
header_done:

	if p.tok.kind == tokLBrace {
		var bodyEnd int
		c.Body, bodyEnd = p.parseBlock()
		end = bodyEnd
	} else if p.tok.kind == tokSemi {
		end = p.tok.end
		p.advance()
	}
	c.Span = ast.Span{Start: start, End: end}
	return c
}

func (p *parser) parseModifierInvocation() *ast.ModifierInvocation {
	nameTok := p.tok
	mi := &ast.ModifierInvocation{
		Name: &ast.Identifier{Span: ast.Span{Start: nameTok.pos, End: nameTok.end}, Name: nameTok.text},
	}
	end := nameTok.end
	p.advance()
	if p.tok.kind == tokLParen {
		p.advance()
		for p.tok.kind != tokRParen && p.tok.kind != tokEOF {
			if e := p.parseExpression(); e != nil {
				mi.Args = append(mi.Args, e)
			} else {
				break
			}
			if p.tok.kind == tokComma {
				p.advance()
			}
		}
		end = p.expect(tokRParen, ")").end
	}
	mi.Span = ast.Span{Start: nameTok.pos, End: end}
	return mi
}

func (p *parser) parseEvent() ast.Node {
	start := p.tok.pos
	p.advance()

	e := &ast.Event{}
	end := p.tok.end
	if p.tok.kind == tokIdent {
		e.Name = &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
		p.advance()
	} else {
		p.errorf(p.tok.pos, "expected event name")
	}
	e.Params = p.parseParamList()
	for p.tok.kind == tokIdent && headerKeywords[p.tok.text] {
		p.advance()
	}
	if p.tok.kind == tokSemi {
		end = p.tok.end
		p.advance()
	} else if n := len(e.Params); n > 0 {
		end = e.Params[n-1].GetSpan().End
	}
	e.Span = ast.Span{Start: start, End: end}
	return e
}

func (p *parser) parseModifierDecl() ast.Node {
	start := p.tok.pos
	p.advance()

	m := &ast.ModifierDecl{}
	end := p.tok.end
	if p.tok.kind == tokIdent {
		m.Name = &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
		end = p.tok.end
		p.advance()
	}
	if p.tok.kind == tokLParen {
		m.Params = p.parseParamList()
	}
	for p.tok.kind == tokIdent && headerKeywords[p.tok.text] {
		p.advance()
	}
	if p.tok.kind == tokLBrace {
		var bodyEnd int
		m.Body, bodyEnd = p.parseBlock()
		end = bodyEnd
	} else if p.tok.kind == tokSemi {
		end = p.tok.end
		p.advance()
	}
	m.Span = ast.Span{Start: start, End: end}
	return m
}

func (p *parser) parseStruct() ast.Node {
	start := p.tok.pos
	p.advance()

	s := &ast.Struct{}
	if p.tok.kind == tokIdent {
		s.Name = &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
		p.advance()
	} else {
		p.errorf(p.tok.pos, "expected struct name")
	}
	end := p.tok.end
	if p.tok.kind == tokLBrace {
		p.advance()
		for p.tok.kind != tokRBrace && p.tok.kind != tokEOF {
			mStart := p.tok.pos
			t := p.parseType()
			if t == nil {
				p.syncStmt()
				continue
			}
			member := &ast.Parameter{Type: t}
			mEnd := t.GetSpan().End
			if p.tok.kind == tokIdent {
				member.Name = &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
				mEnd = p.tok.end
				p.advance()
			}
			if p.tok.kind == tokSemi {
				mEnd = p.tok.end
				p.advance()
			}
			member.Span = ast.Span{Start: mStart, End: mEnd}
			s.Members = append(s.Members, member)
		}
		end = p.expect(tokRBrace, "}").end
	}
	s.Span = ast.Span{Start: start, End: end}
	return s
}

func (p *parser) parseEnum() ast.Node {
	start := p.tok.pos
	p.advance()

	e := &ast.Enum{}
	if p.tok.kind == tokIdent {
		e.Name = &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
		p.advance()
	} else {
		p.errorf(p.tok.pos, "expected enum name")
	}
	end := p.tok.end
	if p.tok.kind == tokLBrace {
		p.advance()
		for p.tok.kind == tokIdent {
			e.Members = append(e.Members, &ast.Identifier{
				Span: ast.Span{Start: p.tok.pos, End: p.tok.end},
				Name: p.tok.text,
			})
			p.advance()
			if p.tok.kind == tokComma {
				p.advance()
			}
		}
		end = p.expect(tokRBrace, "}").end
	}
	e.Span = ast.Span{Start: start, End: end}
	return e
}

func (p *parser) parseStateVariable() ast.Node {
	start := p.tok.pos
	t := p.parseType()
	if t == nil {
		p.syncStmt()
		return nil
	}

	sv := &ast.StateVariable{Type: t}
	end := t.GetSpan().End
	for p.tok.kind == tokIdent && headerKeywords[p.tok.text] {
		if visibilityKeywords[p.tok.text] {
			sv.Visibility = p.tok.text
		}
		if p.tok.text == "constant" || p.tok.text == "immutable" {
			sv.Constant = true
		}
		end = p.tok.end
		p.advance()
	}
	if p.tok.kind == tokIdent {
		sv.Name = &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
		end = p.tok.end
		p.advance()
	} else {
		p.errorf(p.tok.pos, "expected variable name")
		p.syncStmt()
		return nil
	}
	if p.tok.kind == tokOp && p.tok.text == "=" {
		p.advance()
		if v := p.parseExpression(); v != nil {
			sv.Value = v
			end = v.GetSpan().End
		}
	}
	if p.tok.kind == tokSemi {
		end = p.tok.end
		p.advance()
	}
	sv.Span = ast.Span{Start: start, End: end}
	return sv
}

func (p *parser) parseParamList() []ast.Node {
	var params []ast.Node
	if p.tok.kind != tokLParen {
		return params
	}
	p.advance()
	for p.tok.kind != tokRParen && p.tok.kind != tokEOF {
		start := p.tok.pos
		t := p.parseType()
		if t == nil {
			p.syncStmt()
			break
		}
		param := &ast.Parameter{Type: t}
		end := t.GetSpan().End
		for p.tok.kind == tokIdent && (p.tok.text == "memory" || p.tok.text == "storage" || p.tok.text == "calldata" || p.tok.text == "indexed") {
			end = p.tok.end
			p.advance()
		}
		if p.tok.kind == tokIdent {
			param.Name = &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
			end = p.tok.end
			p.advance()
		}
		param.Span = ast.Span{Start: start, End: end}
		params = append(params, param)
		if p.tok.kind == tokComma {
			p.advance()
		}
	}
	p.expect(tokRParen, ")")
	return params
}

func (p *parser) parseBlock() ([]ast.Node, int) {
	var stmts []ast.Node
	p.expect(tokLBrace, "{")
	for p.tok.kind != tokRBrace && p.tok.kind != tokEOF {
		before := p.tok.pos
		if s := p.parseStatement(); s != nil {
			stmts = append(stmts, s)
		}
		if p.tok.kind != tokRBrace && p.tok.kind != tokEOF && p.tok.pos == before {
			p.advance()
		}
	}
	end := p.expect(tokRBrace, "}").end
	return stmts, end
}

// parseBody parses either a braced block or a single statement, returning a
// uniform statement list.
func (p *parser) parseBody() ([]ast.Node, int) {
	if p.tok.kind == tokLBrace {
		return p.parseBlock()
	}
	if s := p.parseStatement(); s != nil {
		return []ast.Node{s}, s.GetSpan().End
	}
	return nil, p.tok.pos
}

func (p *parser) parseStatement() ast.Node {
	switch {
	case p.tok.kind == tokLBrace:
		// Bare block: splice its statements into a tuple wrapper so spans
		// stay navigable.
		start := p.tok.pos
		stmts, end := p.parseBlock()
		return &ast.Tuple{Span: ast.Span{Start: start, End: end}, Elems: stmts}
	case p.at("return"):
		start := p.tok.pos
		end := p.tok.end
		p.advance()
		r := &ast.Return{}
		if p.tok.kind != tokSemi && p.tok.kind != tokRBrace {
			if v := p.parseExpression(); v != nil {
				r.Value = v
				end = v.GetSpan().End
			}
		}
		if p.tok.kind == tokSemi {
			end = p.tok.end
			p.advance()
		}
		r.Span = ast.Span{Start: start, End: end}
		return r
	case p.at("emit"):
		start := p.tok.pos
		end := p.tok.end
		p.advance()
		e := &ast.Emit{}
		if v := p.parseExpression(); v != nil {
			e.Expr = v
			end = v.GetSpan().End
		}
		if p.tok.kind == tokSemi {
			end = p.tok.end
			p.advance()
		}
		e.Span = ast.Span{Start: start, End: end}
		return e
	case p.at("if"):
		return p.parseIf()
	case p.at("for"):
		return p.parseFor()
	case p.at("while"):
		start := p.tok.pos
		p.advance()
		f := &ast.For{}
		if p.tok.kind == tokLParen {
			p.advance()
			f.Cond = p.parseExpression()
			p.expect(tokRParen, ")")
		}
		var end int
		f.Body, end = p.parseBody()
		if end < start {
			end = start
		}
		f.Span = ast.Span{Start: start, End: end}
		return f
	default:
		return p.parseSimpleStatement()
	}
}

func (p *parser) parseIf() ast.Node {
	start := p.tok.pos
	p.advance()

	stmt := &ast.If{}
	if p.tok.kind == tokLParen {
		p.advance()
		stmt.Cond = p.parseExpression()
		p.expect(tokRParen, ")")
	} else {
		p.errorf(p.tok.pos, "expected ( after if")
	}
	var end int
	stmt.Then, end = p.parseBody()
	if p.at("else") {
		p.advance()
		stmt.Else, end = p.parseBody()
	}
	if end < start {
		end = start
	}
	stmt.Span = ast.Span{Start: start, End: end}
	return stmt
}

func (p *parser) parseFor() ast.Node {
	start := p.tok.pos
	p.advance()

	f := &ast.For{}
	if p.tok.kind == tokLParen {
		p.advance()
		if p.tok.kind != tokSemi {
			f.Init = p.parseSimpleClause()
		} else {
			p.advance()
		}
		if p.tok.kind != tokSemi {
			f.Cond = p.parseExpression()
		}
		if p.tok.kind == tokSemi {
			p.advance()
		}
		if p.tok.kind != tokRParen {
			f.Post = p.parseExpression()
		}
		p.expect(tokRParen, ")")
	} else {
		p.errorf(p.tok.pos, "expected ( after for")
	}
	var end int
	f.Body, end = p.parseBody()
	if end < start {
		end = start
	}
	f.Span = ast.Span{Start: start, End: end}
	return f
}

// parseSimpleClause parses a for-init clause (declaration or expression)
// including its trailing semicolon.
func (p *parser) parseSimpleClause() ast.Node {
	n := p.parseDeclOrExpr()
	if p.tok.kind == tokSemi {
		p.advance()
	}
	return n
}

func (p *parser) parseSimpleStatement() ast.Node {
	n := p.parseDeclOrExpr()
	if n == nil {
		p.syncStmt()
		return nil
	}
	if p.tok.kind == tokSemi {
		p.advance()
	}
	return n
}

// parseDeclOrExpr distinguishes a local variable declaration from an
// expression statement. Types can start with an identifier, so the decision
// needs speculative parsing: parse a type, and if an identifier follows it
// was a declaration.
func (p *parser) parseDeclOrExpr() ast.Node {
	if p.at("mapping") || (p.tok.kind == tokIdent && isElementaryTypeName(p.tok.text)) {
		return p.parseVariableDecl()
	}
	if p.tok.kind == tokIdent {
		m := p.mark()
		if t := p.tryType(); t != nil && p.tok.kind == tokIdent && !headerKeywords[p.tok.text] {
			p.restore(m)
			return p.parseVariableDecl()
		}
		p.restore(m)
	}
	start := p.tok.pos
	e := p.parseExpression()
	if e == nil {
		return nil
	}
	return &ast.ExprStatement{Span: ast.Span{Start: start, End: e.GetSpan().End}, Expr: e}
}

func (p *parser) parseVariableDecl() ast.Node {
	start := p.tok.pos
	t := p.parseType()
	if t == nil {
		return nil
	}
	v := &ast.VariableDecl{Type: t}
	end := t.GetSpan().End
	for p.tok.kind == tokIdent && (p.tok.text == "memory" || p.tok.text == "storage" || p.tok.text == "calldata") {
		p.advance()
	}
	if p.tok.kind == tokIdent {
		v.Name = &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
		end = p.tok.end
		p.advance()
	}
	if p.tok.kind == tokOp && p.tok.text == "=" {
		p.advance()
		if val := p.parseExpression(); val != nil {
			v.Value = val
			end = val.GetSpan().End
		}
	}
	v.Span = ast.Span{Start: start, End: end}
	return v
}

// tryType attempts to parse a type without reporting errors; it returns nil
// and leaves error state untouched when the tokens do not form a type.
func (p *parser) tryType() *ast.Type {
	errs := len(p.errs)
	t := p.parseType()
	if len(p.errs) > errs {
		p.errs = p.errs[:errs]
		return nil
	}
	return t
}

func (p *parser) parseType() *ast.Type {
	start := p.tok.pos
	var literal ast.Node

	switch {
	case p.at("mapping"):
		mStart := p.tok.pos
		p.advance()
		m := &ast.Mapping{}
		end := p.tok.end
		if p.tok.kind == tokLParen {
			p.advance()
			m.Key = p.parseType()
			if p.tok.kind == tokArrow {
				p.advance()
			} else {
				p.errorf(p.tok.pos, "expected => in mapping")
			}
			m.Value = p.parseType()
			end = p.expect(tokRParen, ")").end
		} else {
			p.errorf(p.tok.pos, "expected ( after mapping")
		}
		m.Span = ast.Span{Start: mStart, End: end}
		literal = m
	case p.tok.kind == tokIdent && isElementaryTypeName(p.tok.text):
		literal = &ast.ElementaryType{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
		p.advance()
	case p.tok.kind == tokIdent:
		u := &ast.UserType{}
		for {
			u.Segments = append(u.Segments, &ast.Identifier{
				Span: ast.Span{Start: p.tok.pos, End: p.tok.end},
				Name: p.tok.text,
			})
			segEnd := p.tok.end
			p.advance()
			u.Span = ast.Span{Start: start, End: segEnd}
			if p.tok.kind != tokDot {
				break
			}
			m := p.mark()
			p.advance()
			if p.tok.kind != tokIdent {
				p.restore(m)
				break
			}
		}
		literal = u
	default:
		p.errorf(p.tok.pos, "expected type, found %q", p.tok.text)
		return nil
	}

	t := &ast.Type{Span: ast.Span{Start: start, End: literal.GetSpan().End}, Literal: literal}

	// Array suffixes wrap the element type.
	for p.tok.kind == tokLBracket {
		p.advance()
		arr := &ast.ArrayType{Elem: t}
		if p.tok.kind != tokRBracket {
			arr.Length = p.parseExpression()
		}
		end := p.expect(tokRBracket, "]").end
		arr.Span = ast.Span{Start: start, End: end}
		t = &ast.Type{Span: arr.Span, Literal: arr}
	}
	return t
}

func isElementaryTypeName(name string) bool {
	switch name {
	case "address", "bool", "string", "byte", "bytes", "uint", "int", "fixed", "ufixed", "var":
		return true
	}
	for _, prefix := range [...]string{"uint", "int", "bytes", "fixed", "ufixed"} {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			rest := name[len(prefix):]
			allDigits := true
			for i := 0; i < len(rest); i++ {
				if (rest[i] < '0' || rest[i] > '9') && rest[i] != 'x' {
					allDigits = false
					break
				}
			}
			if allDigits {
				return true
			}
		}
	}
	return false
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
