// Package ast defines the syntax tree the resolver navigates. Every node
// carries an inclusive byte interval into the source it was parsed from and
// declares its child slots explicitly, so callers can walk heterogeneous
// shapes without reflection.
package ast

type Kind int

const (
	KindPragma Kind = iota
	KindImport
	KindContract
	KindLibrary
	KindInterface
	KindUsing
	KindType
	KindElementaryType
	KindUserType
	KindMapping
	KindArrayType
	KindIdentifier
	KindCall
	KindMember
	KindIndex
	KindFunction
	KindConstructor
	KindEvent
	KindModifierDecl
	KindModifierInvocation
	KindStruct
	KindEnum
	KindStateVariable
	KindParameter
	KindVariableDecl
	KindExprStatement
	KindEmit
	KindReturn
	KindIf
	KindFor
	KindBinary
	KindUnary
	KindLiteral
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindPragma:
		return "pragma"
	case KindImport:
		return "import"
	case KindContract:
		return "contract"
	case KindLibrary:
		return "library"
	case KindInterface:
		return "interface"
	case KindUsing:
		return "using"
	case KindType:
		return "type"
	case KindElementaryType:
		return "elementary_type"
	case KindUserType:
		return "user_type"
	case KindMapping:
		return "mapping"
	case KindArrayType:
		return "array_type"
	case KindIdentifier:
		return "identifier"
	case KindCall:
		return "call"
	case KindMember:
		return "member"
	case KindIndex:
		return "index"
	case KindFunction:
		return "function"
	case KindConstructor:
		return "constructor"
	case KindEvent:
		return "event"
	case KindModifierDecl:
		return "modifier"
	case KindModifierInvocation:
		return "modifier_invocation"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindStateVariable:
		return "state_variable"
	case KindParameter:
		return "parameter"
	case KindVariableDecl:
		return "variable_decl"
	case KindExprStatement:
		return "expr_statement"
	case KindEmit:
		return "emit"
	case KindReturn:
		return "return"
	case KindIf:
		return "if"
	case KindFor:
		return "for"
	case KindBinary:
		return "binary"
	case KindUnary:
		return "unary"
	case KindLiteral:
		return "literal"
	case KindTuple:
		return "tuple"
	}
	return "unknown"
}

// Span is an inclusive byte interval [Start, End] within a source buffer.
type Span struct {
	Start int
	End   int
}

func (s Span) GetSpan() Span { return s }

// Contains reports whether off falls inside the interval, both ends included.
func (s Span) Contains(off int) bool { return off >= s.Start && off <= s.End }

// Slot is one declared child position of a node: either a single child node
// or an ordered sequence, never both.
type Slot struct {
	Name string
	Node Node
	List []Node
}

func one(name string, n Node) Slot    { return Slot{Name: name, Node: n} }
func many(name string, l []Node) Slot { return Slot{Name: name, List: l} }

// Node is implemented by every syntax tree variant.
type Node interface {
	Kind() Kind
	GetSpan() Span
	// Slots returns the node's declared child slots in declaration order.
	// Nil-valued single slots and empty lists are permitted; walkers skip them.
	Slots() []Slot
}

// Pragma is a `pragma solidity ^0.8.0;` style directive.
type Pragma struct {
	Span
	Name  string
	Value string
}

func (*Pragma) Kind() Kind    { return KindPragma }
func (*Pragma) Slots() []Slot { return nil }

// ImportSymbol is one entry of an `import {A as B} from "..."` symbol list.
type ImportSymbol struct {
	Name  string
	Alias string
}

// Import is a top-level import statement. From is the raw specifier string as
// written in the source; the statement interval covers the whole statement,
// not just the specifier.
type Import struct {
	Span
	From    string
	Alias   string
	Symbols []ImportSymbol
}

func (*Import) Kind() Kind    { return KindImport }
func (*Import) Slots() []Slot { return nil }

// Contract is a top-level contract declaration with an optional inheritance
// clause and a body of member declarations.
type Contract struct {
	Span
	Name    *Identifier
	Parents []Node
	Body    []Node
}

func (*Contract) Kind() Kind { return KindContract }
func (c *Contract) Slots() []Slot {
	return []Slot{many("is", c.Parents), many("body", c.Body)}
}

// Library is a top-level library declaration.
type Library struct {
	Span
	Name *Identifier
	Body []Node
}

func (*Library) Kind() Kind { return KindLibrary }
func (l *Library) Slots() []Slot {
	return []Slot{many("body", l.Body)}
}

// Interface is a top-level interface declaration.
type Interface struct {
	Span
	Name    *Identifier
	Parents []Node
	Body    []Node
}

func (*Interface) Kind() Kind { return KindInterface }
func (i *Interface) Slots() []Slot {
	return []Slot{many("is", i.Parents), many("body", i.Body)}
}

// Using is a `using Library for Type;` directive.
type Using struct {
	Span
	Library *Identifier
	For     *Type
}

func (*Using) Kind() Kind { return KindUsing }
func (u *Using) Slots() []Slot {
	return []Slot{one("library", u.Library), one("for", u.For)}
}

// Type wraps a type literal. The literal may itself be structured (mapping,
// array) in which case navigation recurses into it.
type Type struct {
	Span
	Literal Node
}

func (*Type) Kind() Kind { return KindType }
func (t *Type) Slots() []Slot {
	return []Slot{one("literal", t.Literal)}
}

// ElementaryType is a builtin type name (uint256, address, bytes32, ...).
type ElementaryType struct {
	Span
	Name string
}

func (*ElementaryType) Kind() Kind    { return KindElementaryType }
func (*ElementaryType) Slots() []Slot { return nil }

// UserType is a user-declared type reference, possibly scoped
// (Owner.Member). Segments holds the dotted parts in order.
type UserType struct {
	Span
	Segments []*Identifier
}

func (*UserType) Kind() Kind { return KindUserType }
func (u *UserType) Slots() []Slot {
	segs := make([]Node, 0, len(u.Segments))
	for _, s := range u.Segments {
		segs = append(segs, s)
	}
	return []Slot{many("segments", segs)}
}

// Name returns the first segment's name, or the whole dotted form when the
// type is unscoped.
func (u *UserType) Name() string {
	if len(u.Segments) == 0 {
		return ""
	}
	return u.Segments[0].Name
}

// Scoped reports whether the type has an owner qualifier.
func (u *UserType) Scoped() bool { return len(u.Segments) > 1 }

// Mapping is a `mapping(K => V)` type literal.
type Mapping struct {
	Span
	Key   *Type
	Value *Type
}

func (*Mapping) Kind() Kind { return KindMapping }
func (m *Mapping) Slots() []Slot {
	return []Slot{one("key", m.Key), one("value", m.Value)}
}

// ArrayType is a `T[]` or `T[n]` type literal.
type ArrayType struct {
	Span
	Elem   *Type
	Length Node
}

func (*ArrayType) Kind() Kind { return KindArrayType }
func (a *ArrayType) Slots() []Slot {
	return []Slot{one("elem", a.Elem), one("length", a.Length)}
}

// Identifier is a bare name in expression or declaration position.
type Identifier struct {
	Span
	Name string
}

func (*Identifier) Kind() Kind    { return KindIdentifier }
func (*Identifier) Slots() []Slot { return nil }

// Call is a call expression.
type Call struct {
	Span
	Callee Node
	Args   []Node
}

func (*Call) Kind() Kind { return KindCall }
func (c *Call) Slots() []Slot {
	return []Slot{one("callee", c.Callee), many("args", c.Args)}
}

// Member is a member-access expression `object.property`.
type Member struct {
	Span
	Object   Node
	Property Node
}

func (*Member) Kind() Kind { return KindMember }
func (m *Member) Slots() []Slot {
	return []Slot{one("object", m.Object), one("property", m.Property)}
}

// Index is an index expression `object[expr]`.
type Index struct {
	Span
	Object Node
	Expr   Node
}

func (*Index) Kind() Kind { return KindIndex }
func (i *Index) Slots() []Slot {
	return []Slot{one("object", i.Object), one("index", i.Expr)}
}

// Function is a function declaration inside a contract/library/interface
// body. Body is nil for unimplemented (interface/abstract) functions.
type Function struct {
	Span
	Name       *Identifier
	Params     []Node
	Modifiers  []Node
	Returns    []Node
	Body       []Node
	Visibility string
	Mutability string
}

func (*Function) Kind() Kind { return KindFunction }
func (f *Function) Slots() []Slot {
	return []Slot{
		many("params", f.Params),
		many("modifiers", f.Modifiers),
		many("returns", f.Returns),
		many("body", f.Body),
	}
}

// Constructor is a contract constructor declaration.
type Constructor struct {
	Span
	Params    []Node
	Modifiers []Node
	Body      []Node
}

func (*Constructor) Kind() Kind { return KindConstructor }
func (c *Constructor) Slots() []Slot {
	return []Slot{many("params", c.Params), many("modifiers", c.Modifiers), many("body", c.Body)}
}

// Event is an event declaration.
type Event struct {
	Span
	Name   *Identifier
	Params []Node
}

func (*Event) Kind() Kind { return KindEvent }
func (e *Event) Slots() []Slot {
	return []Slot{many("params", e.Params)}
}

// ModifierDecl is a modifier declaration.
type ModifierDecl struct {
	Span
	Name   *Identifier
	Params []Node
	Body   []Node
}

func (*ModifierDecl) Kind() Kind { return KindModifierDecl }
func (m *ModifierDecl) Slots() []Slot {
	return []Slot{many("params", m.Params), many("body", m.Body)}
}

// ModifierInvocation is a modifier applied to a function or constructor
// header, e.g. `onlyOwner` or `validAddress(to)`.
type ModifierInvocation struct {
	Span
	Name *Identifier
	Args []Node
}

func (*ModifierInvocation) Kind() Kind { return KindModifierInvocation }
func (m *ModifierInvocation) Slots() []Slot {
	return []Slot{many("args", m.Args)}
}

// Struct is a struct declaration.
type Struct struct {
	Span
	Name    *Identifier
	Members []Node
}

func (*Struct) Kind() Kind { return KindStruct }
func (s *Struct) Slots() []Slot {
	return []Slot{many("members", s.Members)}
}

// Enum is an enum declaration. Members are bare identifiers.
type Enum struct {
	Span
	Name    *Identifier
	Members []Node
}

func (*Enum) Kind() Kind { return KindEnum }
func (e *Enum) Slots() []Slot {
	return []Slot{many("members", e.Members)}
}

// StateVariable is a contract-level variable declaration.
type StateVariable struct {
	Span
	Name       *Identifier
	Type       *Type
	Value      Node
	Visibility string
	Constant   bool
}

func (*StateVariable) Kind() Kind { return KindStateVariable }
func (s *StateVariable) Slots() []Slot {
	return []Slot{one("type", s.Type), one("value", s.Value)}
}

// Parameter is a single function/event/modifier parameter. Name may be nil
// for unnamed parameters.
type Parameter struct {
	Span
	Name *Identifier
	Type *Type
}

func (*Parameter) Kind() Kind { return KindParameter }
func (p *Parameter) Slots() []Slot {
	return []Slot{one("type", p.Type), one("name", p.Name)}
}

// VariableDecl is a local variable declaration statement.
type VariableDecl struct {
	Span
	Name  *Identifier
	Type  *Type
	Value Node
}

func (*VariableDecl) Kind() Kind { return KindVariableDecl }
func (v *VariableDecl) Slots() []Slot {
	return []Slot{one("type", v.Type), one("value", v.Value)}
}

// ExprStatement wraps an expression used in statement position.
type ExprStatement struct {
	Span
	Expr Node
}

func (*ExprStatement) Kind() Kind { return KindExprStatement }
func (e *ExprStatement) Slots() []Slot {
	return []Slot{one("expr", e.Expr)}
}

// Emit is an `emit Event(...)` statement.
type Emit struct {
	Span
	Expr Node
}

func (*Emit) Kind() Kind { return KindEmit }
func (e *Emit) Slots() []Slot {
	return []Slot{one("expr", e.Expr)}
}

// Return is a return statement with an optional value.
type Return struct {
	Span
	Value Node
}

func (*Return) Kind() Kind { return KindReturn }
func (r *Return) Slots() []Slot {
	return []Slot{one("value", r.Value)}
}

// If is an if statement. Else holds either further statements or a nested If.
type If struct {
	Span
	Cond Node
	Then []Node
	Else []Node
}

func (*If) Kind() Kind { return KindIf }
func (i *If) Slots() []Slot {
	return []Slot{one("cond", i.Cond), many("then", i.Then), many("else", i.Else)}
}

// For is a for statement.
type For struct {
	Span
	Init Node
	Cond Node
	Post Node
	Body []Node
}

func (*For) Kind() Kind { return KindFor }
func (f *For) Slots() []Slot {
	return []Slot{one("init", f.Init), one("cond", f.Cond), one("post", f.Post), many("body", f.Body)}
}

// Binary is a binary expression, assignments included.
type Binary struct {
	Span
	Op    string
	Left  Node
	Right Node
}

func (*Binary) Kind() Kind { return KindBinary }
func (b *Binary) Slots() []Slot {
	return []Slot{one("left", b.Left), one("right", b.Right)}
}

// Unary is a prefix or postfix unary expression.
type Unary struct {
	Span
	Op      string
	Operand Node
	Postfix bool
}

func (*Unary) Kind() Kind { return KindUnary }
func (u *Unary) Slots() []Slot {
	return []Slot{one("operand", u.Operand)}
}

// Literal is a number, string, hex or bool literal.
type Literal struct {
	Span
	Value string
}

func (*Literal) Kind() Kind    { return KindLiteral }
func (*Literal) Slots() []Slot { return nil }

// Tuple is a parenthesized expression list.
type Tuple struct {
	Span
	Elems []Node
}

func (*Tuple) Kind() Kind { return KindTuple }
func (t *Tuple) Slots() []Slot {
	return []Slot{many("elems", t.Elems)}
}

// DeclarationName returns the name identifier of a top-level or member
// declaration node, or nil when the node kind has no name.
func DeclarationName(n Node) *Identifier {
	switch d := n.(type) {
	case *Contract:
		return d.Name
	case *Library:
		return d.Name
	case *Interface:
		return d.Name
	case *Function:
		return d.Name
	case *Event:
		return d.Name
	case *ModifierDecl:
		return d.Name
	case *Struct:
		return d.Name
	case *Enum:
		return d.Name
	case *StateVariable:
		return d.Name
	case *VariableDecl:
		return d.Name
	}
	return nil
}
