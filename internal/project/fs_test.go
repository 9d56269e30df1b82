package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSourcesSkipsDependencyDirAndExcludes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Token.sol"), "contract Token {}")
	writeFile(t, filepath.Join(root, "contracts", "Vault.sol"), "contract Vault {}")
	writeFile(t, filepath.Join(root, "contracts", "Vault.t.sol"), "contract VaultTest {}")
	writeFile(t, filepath.Join(root, "node_modules", "oz", "Ownable.sol"), "contract Ownable {}")
	writeFile(t, filepath.Join(root, "build", "Gen.sol"), "contract Gen {}")
	writeFile(t, filepath.Join(root, "README.md"), "readme")

	fs, err := New(root, Options{
		ExcludeDirs:  []string{"build"},
		ExcludeFiles: []string{"*.t.sol"},
	})
	if err != nil {
		t.Fatal(err)
	}

	sources, err := fs.Sources(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	got := make(map[string]bool, len(sources))
	for _, s := range sources {
		rel, _ := filepath.Rel(root, s)
		got[rel] = true
	}
	expected := []string{"Token.sol", filepath.Join("contracts", "Vault.sol")}
	if len(got) != len(expected) {
		t.Fatalf("unexpected sources: %v", sources)
	}
	for _, e := range expected {
		if !got[e] {
			t.Errorf("missing source %s in %v", e, sources)
		}
	}
}

func TestIsFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "Token.sol")
	writeFile(t, path, "contract Token {}")

	fs, err := New(root, Options{})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if !fs.IsFile(ctx, path) {
		t.Error("expected IsFile true for regular file")
	}
	if fs.IsFile(ctx, root) {
		t.Error("expected IsFile false for directory")
	}
	if fs.IsFile(ctx, filepath.Join(root, "missing.sol")) {
		t.Error("expected IsFile false for missing file")
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if fs.IsFile(canceled, path) {
		t.Error("expected IsFile false with canceled context")
	}
}

func TestAbsAndAnchors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fs, err := New(root, Options{DependencyDir: "lib"})
	if err != nil {
		t.Fatal(err)
	}

	if fs.DependencyDir() != filepath.Join(root, "lib") {
		t.Errorf("unexpected dependency dir: %s", fs.DependencyDir())
	}
	if fs.Abs("contracts/Token.sol") != filepath.Join(root, "contracts", "Token.sol") {
		t.Errorf("unexpected abs: %s", fs.Abs("contracts/Token.sol"))
	}
	if fs.Abs("/already/abs.sol") != "/already/abs.sol" {
		t.Errorf("unexpected abs: %s", fs.Abs("/already/abs.sol"))
	}
}

func TestBadExcludePattern(t *testing.T) {
	t.Parallel()

	if _, err := New(t.TempDir(), Options{ExcludeDirs: []string{"["}}); err == nil {
		t.Fatal("expected error for invalid glob")
	}
}
