package parser

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokSemi
	tokComma
	tokDot
	tokArrow // =>
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int // byte offset of first character
	end  int // byte offset just past the last character
}

// lexer tokenizes Solidity-like source. It never fails: unrecognized bytes
// are emitted as single-character operator tokens and left for the parser to
// reject.
type lexer struct {
	src []byte
	off int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src}
}

func (l *lexer) next() token {
	l.skipTrivia()
	start := l.off
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: start, end: start}
	}

	c := l.src[l.off]
	switch {
	case isIdentStart(c):
		for l.off < len(l.src) && isIdentPart(l.src[l.off]) {
			l.off++
		}
		return l.tok(tokIdent, start)
	case c >= '0' && c <= '9':
		l.off++
		for l.off < len(l.src) && (isIdentPart(l.src[l.off]) || l.src[l.off] == '.') {
			l.off++
		}
		return l.tok(tokNumber, start)
	case c == '"' || c == '\'':
		quote := c
		l.off++
		for l.off < len(l.src) && l.src[l.off] != quote {
			if l.src[l.off] == '\\' && l.off+1 < len(l.src) {
				l.off++
			}
			l.off++
		}
		if l.off < len(l.src) {
			l.off++ // closing quote
		}
		return l.tok(tokString, start)
	}

	l.off++
	switch c {
	case '{':
		return l.tok(tokLBrace, start)
	case '}':
		return l.tok(tokRBrace, start)
	case '(':
		return l.tok(tokLParen, start)
	case ')':
		return l.tok(tokRParen, start)
	case '[':
		return l.tok(tokLBracket, start)
	case ']':
		return l.tok(tokRBracket, start)
	case ';':
		return l.tok(tokSemi, start)
	case ',':
		return l.tok(tokComma, start)
	case '.':
		return l.tok(tokDot, start)
	}

	// Multi-character operators, longest first.
	if c == '=' && l.peekByte() == '>' {
		l.off++
		return token{kind: tokArrow, text: "=>", pos: start, end: l.off}
	}
	for _, op := range [...]string{"<<=", ">>=", "**", "++", "--", "&&", "||", "==", "!=", "<=", ">=", "+=", "-=", "*=", "/=", "%=", "|=", "&=", "^=", "<<", ">>"} {
		if l.hasPrefixAt(start, op) {
			l.off = start + len(op)
			return token{kind: tokOp, text: op, pos: start, end: l.off}
		}
	}
	return l.tok(tokOp, start)
}

func (l *lexer) tok(kind tokenKind, start int) token {
	return token{kind: kind, text: string(l.src[start:l.off]), pos: start, end: l.off}
}

func (l *lexer) peekByte() byte {
	if l.off < len(l.src) {
		return l.src[l.off]
	}
	return 0
}

func (l *lexer) hasPrefixAt(at int, s string) bool {
	if at+len(s) > len(l.src) {
		return false
	}
	return string(l.src[at:at+len(s)]) == s
}

func (l *lexer) skipTrivia() {
	for l.off < len(l.src) {
		c := l.src[l.off]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.off++
		case c == '/' && l.off+1 < len(l.src) && l.src[l.off+1] == '/':
			for l.off < len(l.src) && l.src[l.off] != '\n' {
				l.off++
			}
		case c == '/' && l.off+1 < len(l.src) && l.src[l.off+1] == '*':
			l.off += 2
			for l.off+1 < len(l.src) && !(l.src[l.off] == '*' && l.src[l.off+1] == '/') {
				l.off++
			}
			if l.off+1 < len(l.src) {
				l.off += 2
			} else {
				l.off = len(l.src)
			}
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
