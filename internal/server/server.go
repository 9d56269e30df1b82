// Package server hosts the engine behind an LSP stdio session: document
// lifecycle notifications feed the overlay store, definition requests feed
// the resolver, and lint findings go back as published diagnostics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"solnav/internal/core/config"
	"solnav/internal/core/ports"
	"solnav/internal/document"
	"solnav/internal/shared/observability"
	"solnav/internal/shared/util"
	"solnav/internal/shared/version"
)

type Dependencies struct {
	Definitions ports.DefinitionService
	Docs        *document.Store
	Linter      ports.Linter
	Logger      *slog.Logger
}

type Server struct {
	cfg       config.Server
	deps      Dependencies
	limiter   *util.Limiter
	sessionID string

	mu      sync.Mutex
	running bool
	conn    jsonrpc2.Conn
}

func New(cfg config.Server, deps Dependencies) (*Server, error) {
	if deps.Definitions == nil {
		return nil, fmt.Errorf("definition service dependency is required")
	}
	if deps.Docs == nil {
		return nil, fmt.Errorf("document store dependency is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{cfg: cfg, deps: deps, sessionID: uuid.NewString()}
	if cfg.RateLimit.Enabled {
		rate := float64(cfg.RateLimit.RequestsPerMinute) / 60.0
		s.limiter = util.NewLimiter(rate, cfg.RateLimit.Burst)
	}
	return s, nil
}

// RunStdio serves one LSP session over stdin/stdout and blocks until the
// client disconnects or ctx is canceled.
func (s *Server) RunStdio(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.mu.Unlock()

	stream := jsonrpc2.NewStream(stdioPipe{})
	conn := jsonrpc2.NewConn(stream)
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.deps.Logger.Info("lsp session starting", "session", s.sessionID)
	conn.Go(ctx, s.handle)

	select {
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	case <-conn.Done():
		s.deps.Logger.Info("lsp session closed", "session", s.sessionID)
		return nil
	}
}

func (s *Server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	case protocol.MethodInitialize:
		return reply(ctx, s.initializeResult(), nil)
	case protocol.MethodInitialized:
		return reply(ctx, nil, nil)
	case protocol.MethodShutdown:
		return reply(ctx, nil, nil)
	case protocol.MethodExit:
		defer s.close()
		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentDidOpen:
		var params protocol.DidOpenTextDocumentParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, err)
		}
		path := params.TextDocument.URI.Filename()
		s.deps.Docs.Put(path, []byte(params.TextDocument.Text))
		observability.OpenDocuments.Inc()
		go s.publishDiagnostics(ctx, path, []byte(params.TextDocument.Text))
		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentDidChange:
		var params protocol.DidChangeTextDocumentParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, err)
		}
		// Full sync: the last change event carries the whole document.
		if n := len(params.ContentChanges); n > 0 {
			path := params.TextDocument.URI.Filename()
			s.deps.Docs.Put(path, []byte(params.ContentChanges[n-1].Text))
		}
		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentDidSave:
		var params protocol.DidSaveTextDocumentParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, err)
		}
		path := params.TextDocument.URI.Filename()
		if buf := s.deps.Docs.Get(path); buf != nil {
			go s.publishDiagnostics(ctx, path, buf.Text())
		}
		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentDidClose:
		var params protocol.DidCloseTextDocumentParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, err)
		}
		s.deps.Docs.Forget(params.TextDocument.URI.Filename())
		observability.OpenDocuments.Dec()
		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentDefinition:
		return s.handleDefinition(ctx, reply, req)
	default:
		return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
	}
}

func (s *Server) handleDefinition(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if s.limiter != nil && !s.limiter.Allow(1) {
		return reply(ctx, nil, fmt.Errorf("definition request rate limit exceeded"))
	}
	var params protocol.DefinitionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	path := params.TextDocument.URI.Filename()
	buf, err := s.deps.Docs.Open(ctx, path)
	if err != nil {
		s.deps.Logger.Warn("definition target unavailable", "path", path, "error", err)
		return reply(ctx, nil, nil)
	}
	offset := buf.PositionToOffset(params.Position)
	links := s.deps.Definitions.ProvideDefinition(ctx, buf, offset)
	observability.DefinitionResults.Observe(float64(len(links)))
	if len(links) == 0 {
		return reply(ctx, nil, nil)
	}
	return reply(ctx, links, nil)
}

func (s *Server) initializeResult() protocol.InitializeResult {
	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save:      &protocol.SaveOptions{},
			},
			DefinitionProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "solnav",
			Version: version.Version,
		},
	}
}

func (s *Server) publishDiagnostics(ctx context.Context, path string, content []byte) {
	if s.deps.Linter == nil {
		return
	}
	diags := s.deps.Linter.Run(ctx, path, content)
	if diags == nil {
		diags = []protocol.Diagnostic{}
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	params := protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(document.NewBuffer(path, nil).URI()),
		Diagnostics: diags,
	}
	if err := conn.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, params); err != nil {
		s.deps.Logger.Warn("publish diagnostics failed", "path", path, "error", err)
	}
}

func (s *Server) close() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// stdioPipe adapts the process stdio streams to the io.ReadWriteCloser the
// jsonrpc2 stream wants.
type stdioPipe struct{}

func (stdioPipe) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioPipe) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioPipe) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

var _ io.ReadWriteCloser = stdioPipe{}
