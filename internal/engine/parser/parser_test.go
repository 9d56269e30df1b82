package parser

import (
	"errors"
	"strings"
	"testing"

	"solnav/internal/engine/ast"
)

func mustParse(t *testing.T, src string) []ast.Node {
	t.Helper()
	res, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return res.Statements
}

func TestParseContract(t *testing.T) {
	src := `pragma solidity ^0.8.0;

import "./B.sol";

contract Token is Owned, Pausable {
    uint256 public total;
    mapping(address => uint256) balances;

    struct Entry {
        uint256 amount;
        bool settled;
    }

    enum Phase { Open, Closed }

    event Transfer(address from, address to, uint256 value);

    modifier onlyOwner() {
        _;
    }

    constructor(uint256 cap) {
        total = cap;
    }

    function transfer(address to, uint256 value) public onlyOwner returns (bool) {
        balances[to] = balances[to] + value;
        emit Transfer(msg.sender, to, value);
        return true;
    }
}
`
	stmts := mustParse(t, src)
	if len(stmts) != 3 {
		t.Fatalf("expected 3 top-level statements, got %d", len(stmts))
	}

	if stmts[0].Kind() != ast.KindPragma {
		t.Errorf("expected pragma, got %s", stmts[0].Kind())
	}

	imp, ok := stmts[1].(*ast.Import)
	if !ok {
		t.Fatalf("expected import, got %T", stmts[1])
	}
	if imp.From != "./B.sol" {
		t.Errorf("unexpected import specifier: %q", imp.From)
	}

	c, ok := stmts[2].(*ast.Contract)
	if !ok {
		t.Fatalf("expected contract, got %T", stmts[2])
	}
	if c.Name == nil || c.Name.Name != "Token" {
		t.Fatalf("unexpected contract name: %+v", c.Name)
	}
	if len(c.Parents) != 2 {
		t.Fatalf("expected 2 parents, got %d", len(c.Parents))
	}
	if p := c.Parents[1].(*ast.Identifier); p.Name != "Pausable" {
		t.Errorf("unexpected second parent: %q", p.Name)
	}

	kinds := make([]ast.Kind, 0, len(c.Body))
	for _, m := range c.Body {
		kinds = append(kinds, m.Kind())
	}
	expected := []ast.Kind{
		ast.KindStateVariable,
		ast.KindStateVariable,
		ast.KindStruct,
		ast.KindEnum,
		ast.KindEvent,
		ast.KindModifierDecl,
		ast.KindConstructor,
		ast.KindFunction,
	}
	if len(kinds) != len(expected) {
		t.Fatalf("expected %d members, got %d (%v)", len(expected), len(kinds), kinds)
	}
	for i, k := range expected {
		if kinds[i] != k {
			t.Errorf("member %d: expected %s, got %s", i, k, kinds[i])
		}
	}

	fn := c.Body[7].(*ast.Function)
	if fn.Name.Name != "transfer" || fn.Visibility != "public" {
		t.Errorf("unexpected function header: %+v", fn)
	}
	if len(fn.Modifiers) != 1 || fn.Modifiers[0].(*ast.ModifierInvocation).Name.Name != "onlyOwner" {
		t.Errorf("unexpected modifiers: %+v", fn.Modifiers)
	}
	if len(fn.Body) != 3 {
		t.Errorf("expected 3 body statements, got %d", len(fn.Body))
	}
}

func TestParseImportForms(t *testing.T) {
	cases := []struct {
		name  string
		src   string
		from  string
		alias string
		syms  int
	}{
		{name: "Plain", src: `import "./A.sol";`, from: "./A.sol"},
		{name: "Aliased", src: `import "./A.sol" as A;`, from: "./A.sol", alias: "A"},
		{name: "Symbols", src: `import {Foo, Bar as B} from "./A.sol";`, from: "./A.sol", syms: 2},
		{name: "Star", src: `import * as A from "./A.sol";`, from: "./A.sol", alias: "A"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			stmts := mustParse(t, tc.src)
			if len(stmts) != 1 {
				t.Fatalf("expected 1 statement, got %d", len(stmts))
			}
			imp := stmts[0].(*ast.Import)
			if imp.From != tc.from {
				t.Errorf("expected specifier %q, got %q", tc.from, imp.From)
			}
			if imp.Alias != tc.alias {
				t.Errorf("expected alias %q, got %q", tc.alias, imp.Alias)
			}
			if len(imp.Symbols) != tc.syms {
				t.Errorf("expected %d symbols, got %d", tc.syms, len(imp.Symbols))
			}
		})
	}
}

func TestIdentifierSpansMatchSource(t *testing.T) {
	src := `contract Token {
    uint256 total;

    function mint(uint256 amount) public {
        total = total + amount;
    }
}
`
	stmts := mustParse(t, src)
	c := stmts[0].(*ast.Contract)

	span := c.Name.Span
	if got := src[span.Start:span.End]; got != "Token" {
		t.Errorf("contract name span covers %q", got)
	}

	sv := c.Body[0].(*ast.StateVariable)
	span = sv.Name.Span
	if got := src[span.Start:span.End]; got != "total" {
		t.Errorf("state variable name span covers %q", got)
	}

	fn := c.Body[1].(*ast.Function)
	if got := src[fn.Span.Start:fn.Span.End]; !strings.HasPrefix(got, "function mint") || !strings.HasSuffix(got, "}") {
		t.Errorf("function span covers %q", got)
	}
}

func TestParseTypes(t *testing.T) {
	src := `contract C {
    mapping(address => mapping(uint256 => Entry)) nested;
    Owned.Flags flags;
    uint256[] amounts;
    Entry[4][] grid;
}
`
	stmts := mustParse(t, src)
	c := stmts[0].(*ast.Contract)

	sv := c.Body[0].(*ast.StateVariable)
	outer := sv.Type.Literal.(*ast.Mapping)
	inner := outer.Value.Literal.(*ast.Mapping)
	if u := inner.Value.Literal.(*ast.UserType); u.Name() != "Entry" {
		t.Errorf("unexpected inner mapping value: %q", u.Name())
	}

	sv = c.Body[1].(*ast.StateVariable)
	scoped := sv.Type.Literal.(*ast.UserType)
	if !scoped.Scoped() || scoped.Segments[0].Name != "Owned" || scoped.Segments[1].Name != "Flags" {
		t.Errorf("unexpected scoped type: %+v", scoped.Segments)
	}

	sv = c.Body[2].(*ast.StateVariable)
	arr := sv.Type.Literal.(*ast.ArrayType)
	if _, ok := arr.Elem.Literal.(*ast.ElementaryType); !ok {
		t.Errorf("expected elementary element type, got %T", arr.Elem.Literal)
	}

	sv = c.Body[3].(*ast.StateVariable)
	outerArr := sv.Type.Literal.(*ast.ArrayType)
	innerArr := outerArr.Elem.Literal.(*ast.ArrayType)
	if innerArr.Length == nil {
		t.Error("expected fixed length on inner array")
	}
}

func TestParseExpressions(t *testing.T) {
	src := `contract C {
    function f() public {
        a.b.c(x, y)[i] = j + k * 2;
    }
}
`
	stmts := mustParse(t, src)
	fn := stmts[0].(*ast.Contract).Body[0].(*ast.Function)
	expr := fn.Body[0].(*ast.ExprStatement).Expr.(*ast.Binary)

	idx, ok := expr.Left.(*ast.Index)
	if !ok {
		t.Fatalf("expected index expression, got %T", expr.Left)
	}
	call, ok := idx.Object.(*ast.Call)
	if !ok {
		t.Fatalf("expected call expression, got %T", idx.Object)
	}
	if len(call.Args) != 2 {
		t.Errorf("expected 2 args, got %d", len(call.Args))
	}
	member, ok := call.Callee.(*ast.Member)
	if !ok {
		t.Fatalf("expected member callee, got %T", call.Callee)
	}
	if id, ok := member.Property.(*ast.Identifier); !ok || id.Name != "c" {
		t.Errorf("unexpected callee property: %+v", member.Property)
	}

	sum, ok := expr.Right.(*ast.Binary)
	if !ok || sum.Op != "+" {
		t.Fatalf("expected + at top of right side, got %+v", expr.Right)
	}
	if prod, ok := sum.Right.(*ast.Binary); !ok || prod.Op != "*" {
		t.Errorf("expected * to bind tighter than +, got %+v", sum.Right)
	}
}

func TestRecoverFromBrokenMember(t *testing.T) {
	src := `contract C {
    uint256 @@@ broken;

    function ok() public {}
}

contract D {}
`
	res, err := Parse([]byte(src))
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if res == nil || serr.Result != res {
		t.Fatal("expected the partial tree alongside the error")
	}
	if len(res.Statements) != 2 {
		t.Fatalf("expected 2 top-level statements, got %d", len(res.Statements))
	}

	c := res.Statements[0].(*ast.Contract)
	found := false
	for _, m := range c.Body {
		if fn, ok := m.(*ast.Function); ok && fn.Name != nil && fn.Name.Name == "ok" {
			found = true
		}
	}
	if !found {
		t.Error("expected function after broken member to survive")
	}
	if d := res.Statements[1].(*ast.Contract); d.Name.Name != "D" {
		t.Errorf("unexpected second contract: %+v", d.Name)
	}
}

func TestHardFailureReturnsNilResult(t *testing.T) {
	res, err := Parse([]byte("%%%% @@ nothing usable @@ %%%%"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if res != nil {
		t.Fatalf("expected nil result, got %+v", res)
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	src := `// leading comment
contract C {
    /* block
       comment */
    uint256 total; // trailing
}
`
	stmts := mustParse(t, src)
	c := stmts[0].(*ast.Contract)
	if len(c.Body) != 1 || c.Body[0].Kind() != ast.KindStateVariable {
		t.Fatalf("unexpected body: %+v", c.Body)
	}
}

func TestControlFlowStatements(t *testing.T) {
	src := `contract C {
    function f(uint256 n) public returns (uint256) {
        uint256 acc = 0;
        for (uint256 i = 0; i < n; i++) {
            acc = acc + i;
        }
        if (acc > 10) {
            return acc;
        } else {
            return 0;
        }
    }
}
`
	stmts := mustParse(t, src)
	fn := stmts[0].(*ast.Contract).Body[0].(*ast.Function)
	if len(fn.Body) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(fn.Body))
	}
	if _, ok := fn.Body[0].(*ast.VariableDecl); !ok {
		t.Errorf("expected variable declaration, got %T", fn.Body[0])
	}
	loop, ok := fn.Body[1].(*ast.For)
	if !ok {
		t.Fatalf("expected for statement, got %T", fn.Body[1])
	}
	if loop.Init == nil || loop.Cond == nil || loop.Post == nil {
		t.Errorf("incomplete for clauses: %+v", loop)
	}
	cond, ok := fn.Body[2].(*ast.If)
	if !ok {
		t.Fatalf("expected if statement, got %T", fn.Body[2])
	}
	if len(cond.Then) != 1 || len(cond.Else) != 1 {
		t.Errorf("unexpected if branches: then=%d else=%d", len(cond.Then), len(cond.Else))
	}
}
