package ports

import (
	"context"

	"go.lsp.dev/protocol"

	"solnav/internal/document"
	"solnav/internal/engine/parser"
)

// CodeParser abstracts source parsing. Implementations must surface a
// partial tree alongside the error when recovery succeeded, and a nil result
// only on hard failure.
type CodeParser interface {
	Parse(src []byte) (*parser.Result, error)
}

// BufferProvider supplies source buffers for paths, preferring editor
// overlays over disk content.
type BufferProvider interface {
	Open(ctx context.Context, path string) (*document.Buffer, error)
}

// ProjectFS abstracts file-system facts the engine consumes: existence
// checks and the project's path anchors.
type ProjectFS interface {
	IsFile(ctx context.Context, path string) bool
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Root() string
	DependencyDir() string
	Abs(path string) string
	Sources(ctx context.Context) ([]string, error)
}

// DefinitionService is the host query entry point. An empty slice means "no
// definition found"; resolution never errors.
type DefinitionService interface {
	ProvideDefinition(ctx context.Context, buf *document.Buffer, offset int) []protocol.LocationLink
}

// Linter maps one file through an external lint tool into diagnostics.
// Failures of the external tool degrade to an empty report.
type Linter interface {
	Run(ctx context.Context, path string, content []byte) []protocol.Diagnostic
}

// LintSnapshot summarizes one lint pass for trend recording.
type LintSnapshot struct {
	ProjectKey string
	Files      int
	Errors     int
	Warnings   int
}

// HistoryStore persists lint snapshots for watch-mode trend summaries.
type HistoryStore interface {
	SaveSnapshot(ctx context.Context, snap LintSnapshot) error
	LastSnapshot(ctx context.Context, projectKey string) (*LintSnapshot, error)
	Close() error
}
