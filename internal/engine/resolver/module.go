package resolver

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"solnav/internal/document"
	"solnav/internal/engine/ast"
	"solnav/internal/engine/parser"
	"solnav/internal/shared/observability"
)

// ProjectFS is the slice of the file-system collaborator the resolver needs.
type ProjectFS interface {
	IsFile(ctx context.Context, path string) bool
	Root() string
	DependencyDir() string
}

// BufferProvider supplies source buffers, preferring editor overlays over
// disk content.
type BufferProvider interface {
	Open(ctx context.Context, path string) (*document.Buffer, error)
}

// Resolver answers definition queries. It holds no per-query state: every
// query builds its own module set and discards it, so identical queries
// against unchanged buffers give identical results.
type Resolver struct {
	fs   ProjectFS
	docs BufferProvider
}

func New(fs ProjectFS, docs BufferProvider) *Resolver {
	return &Resolver{fs: fs, docs: docs}
}

// Module is a source file drawn into one query: its buffer, parse and raw
// import specifiers all load on first use and live only for the query.
type Module struct {
	Path string

	res *Resolver

	buf         *document.Buffer
	bufDone     bool
	parsed      *parser.Result
	parseDone   bool
	imports     []string
	importsDone bool
}

func (r *Resolver) moduleFor(buf *document.Buffer) *Module {
	return &Module{Path: buf.Path, res: r, buf: buf, bufDone: true}
}

// loadModule produces a module handle for path, or nil when the project does
// not consider it a regular in-scope file.
func (r *Resolver) loadModule(ctx context.Context, path string) *Module {
	if !r.fs.IsFile(ctx, path) {
		return nil
	}
	observability.ModuleLoads.Inc()
	return &Module{Path: path, res: r}
}

// Buffer returns the module's source buffer, loading it on first use. A
// failed load sticks: the module contributes nothing for the rest of the
// query.
func (m *Module) Buffer(ctx context.Context) *document.Buffer {
	if !m.bufDone {
		m.bufDone = true
		buf, err := m.res.docs.Open(ctx, m.Path)
		if err == nil {
			m.buf = buf
		}
	}
	return m.buf
}

// Statements returns the module's top-level statements. Partial trees
// recovered from parse errors are used as-is; a hard parse failure yields
// nil and the module is skipped by callers.
func (m *Module) Statements(ctx context.Context) []ast.Node {
	if !m.parseDone {
		m.parseDone = true
		buf := m.Buffer(ctx)
		if buf == nil {
			return nil
		}
		res, err := parser.Parse(buf.Text())
		if res != nil {
			m.parsed = res
		} else {
			_ = err // hard failure: module contributes nothing
		}
	}
	if m.parsed == nil {
		return nil
	}
	return m.parsed.Statements
}

// Imports returns the raw import specifiers of the module's own import
// statements, in declaration order.
func (m *Module) Imports(ctx context.Context) []string {
	if !m.importsDone {
		m.importsDone = true
		for _, stmt := range m.Statements(ctx) {
			if imp, ok := stmt.(*ast.Import); ok && imp.From != "" {
				m.imports = append(m.imports, imp.From)
			}
		}
	}
	return m.imports
}

// ResolvePath maps an import specifier to an absolute path: absolute
// specifiers pass through, relative ones join the importing file's
// directory, and anything else is a package specifier under the project's
// dependency directory.
func (r *Resolver) ResolvePath(specifier, fromPath string) string {
	if filepath.IsAbs(specifier) {
		return filepath.Clean(specifier)
	}
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		return filepath.Join(filepath.Dir(fromPath), specifier)
	}
	return filepath.Join(r.fs.DependencyDir(), specifier)
}

// moduleSet builds the query's resolution universe: the current module plus
// its one-hop imports in declaration order. The imported modules are
// mutually independent, so their existence checks run concurrently and are
// awaited together; deeper hops are only reached on demand inside
// findDirectImport.
func (r *Resolver) moduleSet(ctx context.Context, current *Module) []*Module {
	specs := current.Imports(ctx)
	loaded := make([]*Module, len(specs))

	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec string) {
			defer wg.Done()
			loaded[i] = r.loadModule(ctx, r.ResolvePath(spec, current.Path))
		}(i, spec)
	}
	wg.Wait()

	set := make([]*Module, 0, len(loaded)+1)
	set = append(set, current)
	for _, m := range loaded {
		if m != nil {
			set = append(set, m)
		}
	}
	return set
}

// findDirectImport looks for a top-level declaration of the given kind and
// name: first in mod itself, then one hop into each of mod's own imports in
// declaration order, stopping at the first hit. The walk is intentionally
// single-hop per call; multi-level chains are only followed when a caller
// re-enters with the located module as the new current one. The fallback
// loads stay sequential because the walk must not touch modules past the
// first match. visited guards against import cycles.
func (r *Resolver) findDirectImport(ctx context.Context, mod *Module, name string, kind ast.Kind, visited map[string]bool) (*Module, ast.Node) {
	if visited[mod.Path] {
		return nil, nil
	}
	visited[mod.Path] = true

	if decl := topLevelDecl(mod.Statements(ctx), name, kind); decl != nil {
		return mod, decl
	}
	for _, spec := range mod.Imports(ctx) {
		path := r.ResolvePath(spec, mod.Path)
		if visited[path] {
			continue
		}
		visited[path] = true
		m := r.loadModule(ctx, path)
		if m == nil {
			continue
		}
		stmts := m.Statements(ctx)
		if len(stmts) == 0 {
			continue
		}
		if decl := topLevelDecl(stmts, name, kind); decl != nil {
			return m, decl
		}
	}
	return nil, nil
}

func topLevelDecl(stmts []ast.Node, name string, kind ast.Kind) ast.Node {
	for _, stmt := range stmts {
		if stmt == nil || stmt.Kind() != kind {
			continue
		}
		if id := ast.DeclarationName(stmt); id != nil && id.Name == name {
			return stmt
		}
	}
	return nil
}
