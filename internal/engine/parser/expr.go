package parser

import (
	"solnav/internal/engine/ast"
)

var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, ">": 4, "<=": 4, ">=": 4,
	"|": 5,
	"^": 6,
	"&": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
	"**": 11,
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"|=": true, "&=": true, "^=": true, "<<=": true, ">>=": true,
}

func (p *parser) parseExpression() ast.Node {
	left := p.parseBinary(1)
	if left == nil {
		return nil
	}
	if p.tok.kind == tokOp && assignOps[p.tok.text] {
		op := p.tok.text
		p.advance()
		right := p.parseExpression()
		end := left.GetSpan().End
		if right != nil {
			end = right.GetSpan().End
		}
		return &ast.Binary{
			Span: ast.Span{Start: left.GetSpan().Start, End: end},
			Op:   op, Left: left, Right: right,
		}
	}
	return left
}

func (p *parser) parseBinary(minPrec int) ast.Node {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for p.tok.kind == tokOp {
		prec, ok := binaryPrec[p.tok.text]
		if !ok || prec < minPrec {
			break
		}
		op := p.tok.text
		p.advance()
		right := p.parseBinary(prec + 1)
		end := left.GetSpan().End
		if right != nil {
			end = right.GetSpan().End
		}
		left = &ast.Binary{
			Span: ast.Span{Start: left.GetSpan().Start, End: end},
			Op:   op, Left: left, Right: right,
		}
	}
	return left
}

func (p *parser) parseUnary() ast.Node {
	if p.tok.kind == tokOp {
		switch p.tok.text {
		case "!", "~", "-", "+", "++", "--":
			op := p.tok.text
			start := p.tok.pos
			p.advance()
			operand := p.parseUnary()
			end := start
			if operand != nil {
				end = operand.GetSpan().End
			}
			return &ast.Unary{Span: ast.Span{Start: start, End: end}, Op: op, Operand: operand}
		}
	}
	if p.at("new") || p.at("delete") {
		op := p.tok.text
		start := p.tok.pos
		p.advance()
		operand := p.parseUnary()
		end := start
		if operand != nil {
			end = operand.GetSpan().End
		}
		return &ast.Unary{Span: ast.Span{Start: start, End: end}, Op: op, Operand: operand}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Node {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}
	for {
		switch {
		case p.tok.kind == tokLParen:
			p.advance()
			call := &ast.Call{Callee: expr}
			for p.tok.kind != tokRParen && p.tok.kind != tokEOF {
				arg := p.parseExpression()
				if arg == nil {
					break
				}
				call.Args = append(call.Args, arg)
				if p.tok.kind == tokComma {
					p.advance()
				}
			}
			end := p.expect(tokRParen, ")").end
			call.Span = ast.Span{Start: expr.GetSpan().Start, End: end}
			expr = call
		case p.tok.kind == tokDot:
			p.advance()
			if p.tok.kind != tokIdent {
				p.errorf(p.tok.pos, "expected member name after .")
				return expr
			}
			prop := &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
			p.advance()
			expr = &ast.Member{
				Span:   ast.Span{Start: expr.GetSpan().Start, End: prop.End},
				Object: expr, Property: prop,
			}
		case p.tok.kind == tokLBracket:
			p.advance()
			idx := &ast.Index{Object: expr}
			if p.tok.kind != tokRBracket {
				idx.Expr = p.parseExpression()
			}
			end := p.expect(tokRBracket, "]").end
			idx.Span = ast.Span{Start: expr.GetSpan().Start, End: end}
			expr = idx
		case p.tok.kind == tokOp && (p.tok.text == "++" || p.tok.text == "--"):
			u := &ast.Unary{
				Span:    ast.Span{Start: expr.GetSpan().Start, End: p.tok.end},
				Op:      p.tok.text,
				Operand: expr,
				Postfix: true,
			}
			p.advance()
			expr = u
		default:
			return expr
		}
	}
}

func (p *parser) parsePrimary() ast.Node {
	switch p.tok.kind {
	case tokIdent:
		if p.tok.text == "true" || p.tok.text == "false" {
			lit := &ast.Literal{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Value: p.tok.text}
			p.advance()
			return lit
		}
		id := &ast.Identifier{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Name: p.tok.text}
		p.advance()
		return id
	case tokNumber, tokString:
		lit := &ast.Literal{Span: ast.Span{Start: p.tok.pos, End: p.tok.end}, Value: p.tok.text}
		p.advance()
		return lit
	case tokLParen:
		start := p.tok.pos
		p.advance()
		var elems []ast.Node
		for p.tok.kind != tokRParen && p.tok.kind != tokEOF {
			if e := p.parseExpression(); e != nil {
				elems = append(elems, e)
			} else {
				break
			}
			if p.tok.kind == tokComma {
				p.advance()
			}
		}
		end := p.expect(tokRParen, ")").end
		if len(elems) == 1 {
			return elems[0]
		}
		return &ast.Tuple{Span: ast.Span{Start: start, End: end}, Elems: elems}
	default:
		return nil
	}
}
