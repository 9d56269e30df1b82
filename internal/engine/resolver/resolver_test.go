package resolver

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"solnav/internal/document"
)

const srcA = `pragma solidity ^0.8.0;

import "./B.sol";
import "./C.sol";

contract Token is Owned {
    using Math for uint256;

    uint256 public total;
    Settings settings;
    Owned.Flags flags;
    mapping(address => Entry) entries;

    struct Entry {
        uint256 amount;
    }

    event Minted(address to);

    function mint(address to, uint256 amount) public {
        total = total + amount;
        register(to);
        this.total = amount;
        emit Minted(to);
    }

    function register(address to) internal {
        entries[to].amount = total;
    }
}
`

const srcB = `contract Owned {
    struct Flags {
        bool frozen;
    }

    struct Settings {
        uint256 cap;
    }

    function register(address who) public {}

    function total() public view returns (uint256) {}
}

library Math {
    function min(uint256 a, uint256 b) internal pure returns (uint256) {
        return a;
    }
}
`

type fakeFS struct {
	files map[string][]byte
}

func (f *fakeFS) IsFile(ctx context.Context, path string) bool {
	_, ok := f.files[path]
	return ok
}

func (f *fakeFS) Root() string          { return "/proj" }
func (f *fakeFS) DependencyDir() string { return "/proj/node_modules" }

type fakeDocs struct {
	files map[string][]byte
}

func (d *fakeDocs) Open(ctx context.Context, path string) (*document.Buffer, error) {
	content, ok := d.files[path]
	if !ok {
		return nil, context.Canceled
	}
	return document.NewBuffer(path, content), nil
}

func fixture(files map[string]string) (*Resolver, map[string][]byte) {
	raw := make(map[string][]byte, len(files))
	for p, c := range files {
		raw[p] = []byte(c)
	}
	return New(&fakeFS{files: raw}, &fakeDocs{files: raw}), raw
}

func defaultFixture() *Resolver {
	r, _ := fixture(map[string]string{
		"/proj/A.sol": srcA,
		"/proj/B.sol": srcB,
	})
	return r
}

func offsetOf(t *testing.T, src, substr string) int {
	t.Helper()
	idx := strings.Index(src, substr)
	if idx < 0 {
		t.Fatalf("substring %q not found in source", substr)
	}
	return idx
}

// offsetOfNth finds the nth (1-based) occurrence of substr.
func offsetOfNth(t *testing.T, src, substr string, n int) int {
	t.Helper()
	idx := -1
	from := 0
	for i := 0; i < n; i++ {
		rel := strings.Index(src[from:], substr)
		if rel < 0 {
			t.Fatalf("occurrence %d of %q not found in source", n, substr)
		}
		idx = from + rel
		from = idx + len(substr)
	}
	return idx
}

func posOf(t *testing.T, src, substr string) protocol.Position {
	t.Helper()
	return document.NewBuffer("", []byte(src)).OffsetToPosition(offsetOf(t, src, substr))
}

func TestImportResolvesToFileStart(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))

	links := r.ProvideDefinition(context.Background(), buf, offsetOf(t, srcA, "./B.sol"))
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}

	link := links[0]
	if link.TargetURI != uri.File("/proj/B.sol") {
		t.Errorf("unexpected target: %s", link.TargetURI)
	}
	zero := protocol.Range{}
	if link.TargetRange != zero || link.TargetSelectionRange != zero {
		t.Errorf("expected zero target ranges, got %+v / %+v", link.TargetRange, link.TargetSelectionRange)
	}
	if link.OriginSelectionRange == nil {
		t.Fatal("expected an origin selection range")
	}
	if link.OriginSelectionRange.Start != posOf(t, srcA, "./B.sol") {
		t.Errorf("origin selection starts at %+v", link.OriginSelectionRange.Start)
	}
}

func TestImportToMissingFileIsEmpty(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))

	links := r.ProvideDefinition(context.Background(), buf, offsetOf(t, srcA, "./C.sol"))
	if len(links) != 0 {
		t.Fatalf("expected no links for missing import target, got %d", len(links))
	}
}

func TestImportFromDependencyDir(t *testing.T) {
	src := `import "oz/Ownable.sol";

contract T {}
`
	r, _ := fixture(map[string]string{
		"/proj/T.sol":                       src,
		"/proj/node_modules/oz/Ownable.sol": "contract Ownable {}\n",
	})
	buf := document.NewBuffer("/proj/T.sol", []byte(src))

	links := r.ProvideDefinition(context.Background(), buf, offsetOf(t, src, "oz/Ownable.sol"))
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].TargetURI != uri.File("/proj/node_modules/oz/Ownable.sol") {
		t.Errorf("unexpected target: %s", links[0].TargetURI)
	}
}

func TestCalleeAmbiguityAcrossModules(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))

	// Cursor on the callee of register(to) inside mint.
	links := r.ProvideDefinition(context.Background(), buf, offsetOf(t, srcA, "register(to);"))
	if len(links) != 2 {
		t.Fatalf("expected 2 links for ambiguous callee, got %d", len(links))
	}
	if links[0].TargetURI != uri.File("/proj/A.sol") {
		t.Errorf("expected current module first, got %s", links[0].TargetURI)
	}
	if links[1].TargetURI != uri.File("/proj/B.sol") {
		t.Errorf("expected imported module second, got %s", links[1].TargetURI)
	}
	if links[0].TargetSelectionRange.Start != posOf(t, srcA, "register(address to) internal") {
		t.Errorf("unexpected selection start: %+v", links[0].TargetSelectionRange.Start)
	}
}

func TestStateVariableReference(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))

	// Second "total" on the assignment line: total = total + amount.
	off := offsetOfNth(t, srcA, "total", 3)
	links := r.ProvideDefinition(context.Background(), buf, off)
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].TargetSelectionRange.Start != posOf(t, srcA, "total;") {
		t.Errorf("unexpected selection start: %+v", links[0].TargetSelectionRange.Start)
	}
}

func TestMemberPropertyConcatenatesVariableAndCallee(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))

	// Cursor on "total" in this.total: Token has a state variable total and
	// Owned has a function total, so both resolutions apply.
	off := offsetOf(t, srcA, "this.total") + len("this.")
	links := r.ProvideDefinition(context.Background(), buf, off)
	if len(links) != 2 {
		t.Fatalf("expected 2 links for property access, got %d", len(links))
	}
	if links[0].TargetURI != uri.File("/proj/A.sol") {
		t.Errorf("expected variable match first, got %s", links[0].TargetURI)
	}
	if links[1].TargetURI != uri.File("/proj/B.sol") {
		t.Errorf("expected callee match second, got %s", links[1].TargetURI)
	}
}

func TestEventCallee(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))

	links := r.ProvideDefinition(context.Background(), buf, offsetOf(t, srcA, "Minted(to)"))
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].TargetSelectionRange.Start != posOf(t, srcA, "Minted(address to)") {
		t.Errorf("unexpected selection start: %+v", links[0].TargetSelectionRange.Start)
	}
}

func TestInheritanceTarget(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))

	links := r.ProvideDefinition(context.Background(), buf, offsetOf(t, srcA, "Owned {"))
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].TargetURI != uri.File("/proj/B.sol") {
		t.Errorf("unexpected target: %s", links[0].TargetURI)
	}
	if links[0].TargetSelectionRange.Start != posOf(t, srcB, "Owned") {
		t.Errorf("unexpected selection start: %+v", links[0].TargetSelectionRange.Start)
	}
}

func TestUsingLibrary(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))

	links := r.ProvideDefinition(context.Background(), buf, offsetOf(t, srcA, "Math for"))
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].TargetSelectionRange.Start != posOf(t, srcB, "Math") {
		t.Errorf("unexpected selection start: %+v", links[0].TargetSelectionRange.Start)
	}
}

func TestScopedTypeOwnerMember(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))

	links := r.ProvideDefinition(context.Background(), buf, offsetOf(t, srcA, "Owned.Flags"))
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].TargetURI != uri.File("/proj/B.sol") {
		t.Errorf("unexpected target: %s", links[0].TargetURI)
	}
	if links[0].TargetSelectionRange.Start != posOf(t, srcB, "Flags") {
		t.Errorf("unexpected selection start: %+v", links[0].TargetSelectionRange.Start)
	}
}

func TestNestedGenericInnerType(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))

	// Cursor on Entry inside mapping(address => Entry): the enclosing
	// contract declares the struct.
	links := r.ProvideDefinition(context.Background(), buf, offsetOf(t, srcA, "Entry)"))
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].TargetSelectionRange.Start != posOf(t, srcA, "Entry {") {
		t.Errorf("unexpected selection start: %+v", links[0].TargetSelectionRange.Start)
	}
}

func TestSimpleTypeResolvedAcrossModuleSet(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))

	// Settings is not declared in Token; the set-wide search finds it in
	// Owned's body.
	links := r.ProvideDefinition(context.Background(), buf, offsetOf(t, srcA, "Settings settings"))
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].TargetURI != uri.File("/proj/B.sol") {
		t.Errorf("unexpected target: %s", links[0].TargetURI)
	}
	if links[0].TargetSelectionRange.Start != posOf(t, srcB, "Settings") {
		t.Errorf("unexpected selection start: %+v", links[0].TargetSelectionRange.Start)
	}
}

func TestUnparsableBufferIsEmpty(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/broken.sol", []byte("%%%% @@ not a contract @@ %%%%"))

	links := r.ProvideDefinition(context.Background(), buf, 5)
	if len(links) != 0 {
		t.Fatalf("expected no links for unparsable buffer, got %d", len(links))
	}
}

func TestOffsetOutsideDeclarations(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))

	// Whitespace between the imports and the contract.
	off := offsetOf(t, srcA, "\n\ncontract") + 1
	links := r.ProvideDefinition(context.Background(), buf, off)
	if len(links) != 0 {
		t.Fatalf("expected no links in whitespace, got %d", len(links))
	}
}

func TestQueriesAreIdempotent(t *testing.T) {
	r := defaultFixture()
	buf := document.NewBuffer("/proj/A.sol", []byte(srcA))
	off := offsetOf(t, srcA, "register(to);")

	first := r.ProvideDefinition(context.Background(), buf, off)
	second := r.ProvideDefinition(context.Background(), buf, off)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same query gave different results:\n%+v\n%+v", first, second)
	}
}

func TestImportCycleTerminates(t *testing.T) {
	srcX := `import "./Y.sol";

contract X is Remote {}
`
	srcY := `import "./X.sol";

contract Y {}
`
	r, _ := fixture(map[string]string{
		"/proj/X.sol": srcX,
		"/proj/Y.sol": srcY,
	})
	buf := document.NewBuffer("/proj/X.sol", []byte(srcX))

	// Remote is declared nowhere; the walk must visit X and Y once each and
	// give up instead of looping.
	links := r.ProvideDefinition(context.Background(), buf, offsetOf(t, srcX, "Remote"))
	if len(links) != 0 {
		t.Fatalf("expected no links, got %d", len(links))
	}
}

func TestResolvePath(t *testing.T) {
	r := defaultFixture()

	cases := []struct {
		name      string
		specifier string
		from      string
		expected  string
	}{
		{name: "Relative", specifier: "./B.sol", from: "/proj/A.sol", expected: "/proj/B.sol"},
		{name: "Parent", specifier: "../lib/B.sol", from: "/proj/src/A.sol", expected: "/proj/lib/B.sol"},
		{name: "Absolute", specifier: "/other/B.sol", from: "/proj/A.sol", expected: "/other/B.sol"},
		{name: "Package", specifier: "oz/Ownable.sol", from: "/proj/A.sol", expected: "/proj/node_modules/oz/Ownable.sol"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := r.ResolvePath(tc.specifier, tc.from); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
