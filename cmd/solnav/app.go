package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.lsp.dev/protocol"

	"solnav/internal/core/config"
	"solnav/internal/core/ports"
	"solnav/internal/data/history"
	"solnav/internal/document"
	"solnav/internal/engine/resolver"
	"solnav/internal/lint"
	"solnav/internal/project"
	"solnav/internal/server"
	"solnav/internal/shared/observability"
	"solnav/internal/shared/util"
	"solnav/internal/watcher"
)

type App struct {
	Config  *config.Config
	FS      *project.FS
	Docs    *document.Store
	Engine  *resolver.Resolver
	Linter  *lint.Runner
	History ports.HistoryStore

	teaProgram    *tea.Program
	watch         *watcher.Watcher
	obs           *observability.Server
	traceShutdown func(context.Context) error
}

func NewApp(cfg *config.Config) (*App, error) {
	fs, err := project.New(cfg.ProjectRoot, project.Options{
		DependencyDir: cfg.DependencyDir,
		SourceExt:     cfg.SourceExt,
		ExcludeDirs:   cfg.Exclude.Dirs,
		ExcludeFiles:  cfg.Exclude.Files,
	})
	if err != nil {
		return nil, err
	}

	docs := document.NewStore(fs)

	a := &App{
		Config: cfg,
		FS:     fs,
		Docs:   docs,
		Engine: resolver.New(fs, docs),
		Linter: lint.NewRunner(cfg.Lint, slog.Default()),
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.History = store
	}

	return a, nil
}

// StartObservability brings up the metrics endpoint and the trace exporter
// when they are configured. Both are optional.
func (a *App) StartObservability(ctx context.Context) error {
	if a.Config.Observability.Addr != "" {
		a.obs = observability.NewServer(a.Config.Observability.Addr)
		if err := a.obs.Start(ctx); err != nil {
			return err
		}
	}
	if a.Config.Observability.TraceEndpoint != "" {
		shutdown, err := observability.SetupTracing(ctx, a.Config.Observability.TraceEndpoint)
		if err != nil {
			return err
		}
		a.traceShutdown = shutdown
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) {
	if a.watch != nil {
		_ = a.watch.Close()
	}
	if a.obs != nil {
		_ = a.obs.Stop(ctx)
	}
	if a.traceShutdown != nil {
		_ = a.traceShutdown(ctx)
	}
	if a.History != nil {
		_ = a.History.Close()
	}
}

// Definition resolves one file:line:column target and formats the results
// one location per line. Positions are 1-based on both sides.
func (a *App) Definition(ctx context.Context, target string) (string, error) {
	path, line, col, err := parseTarget(target)
	if err != nil {
		return "", err
	}

	buf, err := a.Docs.Open(ctx, a.FS.Abs(path))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	offset := buf.PositionToOffset(protocol.Position{
		Line:      uint32(line - 1),
		Character: uint32(col - 1),
	})
	links := a.Engine.ProvideDefinition(ctx, buf, offset)
	if len(links) == 0 {
		return "no definition found", nil
	}

	var b strings.Builder
	for _, link := range links {
		start := link.TargetSelectionRange.Start
		fmt.Fprintf(&b, "%s:%d:%d\n", link.TargetURI.Filename(), start.Line+1, start.Character+1)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func parseTarget(target string) (path string, line, col int, err error) {
	idx := strings.LastIndex(target, ":")
	if idx < 0 {
		return "", 0, 0, fmt.Errorf("target must be file:line:column, got %q", target)
	}
	rest := target[:idx]
	if _, err := fmt.Sscanf(target[idx+1:], "%d", &col); err != nil {
		return "", 0, 0, fmt.Errorf("target must be file:line:column, got %q", target)
	}
	idx = strings.LastIndex(rest, ":")
	if idx < 0 {
		return "", 0, 0, fmt.Errorf("target must be file:line:column, got %q", target)
	}
	if _, err := fmt.Sscanf(rest[idx+1:], "%d", &line); err != nil {
		return "", 0, 0, fmt.Errorf("target must be file:line:column, got %q", target)
	}
	path = rest[:idx]
	if path == "" || line < 1 || col < 1 {
		return "", 0, 0, fmt.Errorf("target must be file:line:column, got %q", target)
	}
	return path, line, col, nil
}

// LintSummary aggregates one lint pass over the project.
type LintSummary struct {
	Files    int                              `json:"files"`
	Errors   int                              `json:"errors"`
	Warnings int                              `json:"warnings"`
	Findings map[string][]protocol.Diagnostic `json:"findings"`
	Duration time.Duration                    `json:"duration_ns"`

	// Previous pass for the same project, when history is enabled.
	Previous *ports.LintSnapshot `json:"previous,omitempty"`
}

// LintProject lints every project source and records a snapshot when history
// is enabled.
func (a *App) LintProject(ctx context.Context) (*LintSummary, error) {
	start := time.Now()

	files, err := a.FS.Sources(ctx)
	if err != nil {
		return nil, err
	}

	summary := &LintSummary{Findings: make(map[string][]protocol.Diagnostic)}
	for _, path := range files {
		buf, err := a.Docs.Open(ctx, path)
		if err != nil {
			slog.Warn("failed to read source", "path", path, "error", err)
			continue
		}
		summary.Files++
		diags := a.Linter.Run(ctx, path, buf.Text())
		if len(diags) == 0 {
			continue
		}
		summary.Findings[path] = diags
		for _, d := range diags {
			if d.Severity == protocol.DiagnosticSeverityError {
				summary.Errors++
			} else {
				summary.Warnings++
			}
		}
	}
	summary.Duration = time.Since(start)

	if a.History != nil {
		prev, err := a.History.LastSnapshot(ctx, a.FS.Root())
		if err != nil {
			slog.Warn("failed to load previous snapshot", "error", err)
		} else {
			summary.Previous = prev
		}
		snap := ports.LintSnapshot{
			ProjectKey: a.FS.Root(),
			Files:      summary.Files,
			Errors:     summary.Errors,
			Warnings:   summary.Warnings,
		}
		if err := a.History.SaveSnapshot(ctx, snap); err != nil {
			slog.Warn("failed to save snapshot", "error", err)
		}
	}

	return summary, nil
}

// WriteLintReport writes the summary as JSON, creating parent directories as
// needed.
func (a *App) WriteLintReport(path string, summary *LintSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return util.WriteFileWithDirs(path, append(data, '\n'), 0o644)
}

func (a *App) PrintLintSummary(summary *LintSummary) {
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Lint: %d files in %v\n", summary.Files, summary.Duration.Round(time.Millisecond))

	if summary.Errors == 0 && summary.Warnings == 0 {
		fmt.Println("✅ No findings.")
	} else {
		fmt.Printf("⚠️  %d errors, %d warnings\n", summary.Errors, summary.Warnings)
		for _, path := range util.SortedStringKeys(summary.Findings) {
			for _, d := range summary.Findings[path] {
				marker := "warn"
				if d.Severity == protocol.DiagnosticSeverityError {
					marker = "error"
				}
				fmt.Printf("   %s:%d:%d [%s] %s\n", path, d.Range.Start.Line+1, d.Range.Start.Character+1, marker, d.Message)
			}
		}
	}

	if summary.Previous != nil {
		deltaErr := summary.Errors - summary.Previous.Errors
		deltaWarn := summary.Warnings - summary.Previous.Warnings
		fmt.Printf("Trend: errors %+d, warnings %+d since last pass\n", deltaErr, deltaWarn)
	}
	fmt.Println(strings.Repeat("-", 40))
}

// StartWatcher begins watching project sources and re-lints changed files in
// debounced batches.
func (a *App) StartWatcher(ctx context.Context) error {
	w, err := watcher.New(watcher.Options{
		Debounce:      a.Config.Watch.Debounce,
		SourceExt:     a.FS.SourceExt(),
		DependencyDir: a.FS.DependencyDir(),
		ExcludeDirs:   a.Config.Exclude.Dirs,
		ExcludeFiles:  a.Config.Exclude.Files,
	}, func(paths []string) {
		a.handleChanges(ctx, paths)
	})
	if err != nil {
		return err
	}
	a.watch = w
	return w.Watch(a.FS.Root())
}

func (a *App) handleChanges(ctx context.Context, paths []string) {
	slog.Info("detected changes", "count", len(paths))

	summary, err := a.LintProject(ctx)
	if err != nil {
		slog.Error("lint pass failed", "error", err)
		return
	}

	if a.teaProgram != nil {
		a.teaProgram.Send(lintMsg{summary: summary})
		return
	}
	a.PrintLintSummary(summary)
}

// RunUI drives the watch-mode terminal UI until the user quits.
func (a *App) RunUI(ctx context.Context) error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	a.teaProgram = p

	go func() {
		summary, err := a.LintProject(ctx)
		if err != nil {
			slog.Error("initial lint pass failed", "error", err)
			return
		}
		a.teaProgram.Send(lintMsg{summary: summary})
	}()

	_, err := p.Run()
	return err
}

// Serve runs one LSP session over stdio.
func (a *App) Serve(ctx context.Context) error {
	srv, err := server.New(a.Config.Server, server.Dependencies{
		Definitions: a.Engine,
		Docs:        a.Docs,
		Linter:      a.Linter,
		Logger:      slog.Default(),
	})
	if err != nil {
		return err
	}
	return srv.RunStdio(ctx)
}

// sortedFindings flattens the findings map in path order for display.
func sortedFindings(findings map[string][]protocol.Diagnostic) []fileFinding {
	out := make([]fileFinding, 0, len(findings))
	for _, path := range util.SortedStringKeys(findings) {
		diags := append([]protocol.Diagnostic(nil), findings[path]...)
		sort.Slice(diags, func(i, j int) bool {
			if diags[i].Range.Start.Line != diags[j].Range.Start.Line {
				return diags[i].Range.Start.Line < diags[j].Range.Start.Line
			}
			return diags[i].Range.Start.Character < diags[j].Range.Start.Character
		})
		for _, d := range diags {
			out = append(out, fileFinding{path: path, diag: d})
		}
	}
	return out
}

type fileFinding struct {
	path string
	diag protocol.Diagnostic
}
