// Package project implements the file-system collaborator the resolver
// consumes: a rooted view of the workspace with an existence check, content
// reads, and a source scan honoring exclude globs.
package project

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"solnav/internal/core/errors"
)

const DefaultDependencyDir = "node_modules"

type FS struct {
	root         string
	depsDir      string
	sourceExt    string
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

type Options struct {
	DependencyDir string
	SourceExt     string
	ExcludeDirs   []string
	ExcludeFiles  []string
}

func New(root string, opts Options) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	f := &FS{
		root:      abs,
		depsDir:   opts.DependencyDir,
		sourceExt: opts.SourceExt,
	}
	if f.depsDir == "" {
		f.depsDir = DefaultDependencyDir
	}
	if f.sourceExt == "" {
		f.sourceExt = ".sol"
	}
	for _, pattern := range opts.ExcludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "bad exclude dir pattern "+pattern)
		}
		f.excludeDirs = append(f.excludeDirs, g)
	}
	for _, pattern := range opts.ExcludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "bad exclude file pattern "+pattern)
		}
		f.excludeFiles = append(f.excludeFiles, g)
	}
	return f, nil
}

func (f *FS) Root() string { return f.root }

// DependencyDir returns the absolute path packages resolve against.
func (f *FS) DependencyDir() string { return filepath.Join(f.root, f.depsDir) }

func (f *FS) SourceExt() string { return f.sourceExt }

// IsFile reports whether path names a regular file. The resolver probes
// candidate import paths with this before ever reading them.
func (f *FS) IsFile(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (f *FS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Abs resolves path against the project root when it is not already
// absolute.
func (f *FS) Abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(f.root, path)
}

// Sources walks the project root and returns all source files that survive
// the exclude globs. The dependency directory is skipped.
func (f *FS) Sources(ctx context.Context) ([]string, error) {
	var out []string
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, relErr := filepath.Rel(f.root, path)
		if relErr != nil {
			rel = path
		}
		if d.IsDir() {
			if path != f.root && (d.Name() == f.depsDir || f.excludedDir(rel, d.Name())) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, f.sourceExt) || f.excludedFile(rel, d.Name()) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out, err
}

func (f *FS) excludedDir(rel, name string) bool {
	for _, g := range f.excludeDirs {
		if g.Match(rel) || g.Match(name) {
			return true
		}
	}
	return false
}

func (f *FS) excludedFile(rel, name string) bool {
	for _, g := range f.excludeFiles {
		if g.Match(rel) || g.Match(name) {
			return true
		}
	}
	return false
}
