// Package lint shells out to an external Solidity linter and maps its JSON
// report onto diagnostics. The report is untrusted tool output: it is
// validated against a schema before anything is mapped, and every failure
// mode degrades to "no diagnostics" rather than breaking the session.
package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/prometheus/client_golang/prometheus"
	"go.lsp.dev/protocol"

	"solnav/internal/core/config"
	"solnav/internal/shared/observability"
)

// reportSchema describes the uniform shape linter adapters must emit: a
// flat array of findings with 1-based positions.
var reportSchema = func() *openapi3.Schema {
	item := openapi3.NewObjectSchema().
		WithProperty("line", openapi3.NewIntegerSchema()).
		WithProperty("column", openapi3.NewIntegerSchema()).
		WithProperty("endLine", openapi3.NewIntegerSchema()).
		WithProperty("endColumn", openapi3.NewIntegerSchema()).
		WithProperty("severity", openapi3.NewIntegerSchema()).
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("ruleId", openapi3.NewStringSchema())
	item.Required = []string{"line", "column", "severity", "message"}
	return openapi3.NewArraySchema().WithItems(item)
}()

type finding struct {
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"endLine"`
	EndColumn int    `json:"endColumn"`
	Severity  int    `json:"severity"`
	Message   string `json:"message"`
	RuleID    string `json:"ruleId"`
}

type Runner struct {
	cfg    config.Lint
	logger *slog.Logger
}

func NewRunner(cfg config.Lint, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Run lints one file. content is the buffer content (possibly an unsaved
// editor overlay) and is fed to the tool on stdin; path is passed as the
// final argument for tools that key rule configuration off the location.
func (r *Runner) Run(ctx context.Context, path string, content []byte) []protocol.Diagnostic {
	if !r.cfg.Enabled || r.cfg.Command == "" {
		return nil
	}
	ctx, span := observability.Tracer.Start(ctx, "lint.Run")
	defer span.End()
	timer := prometheus.NewTimer(observability.LintDuration)
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	args := append(append([]string(nil), r.cfg.Args...), path)
	cmd := exec.CommandContext(ctx, r.cfg.Command, args...)
	cmd.Stdin = bytes.NewReader(content)

	out, err := cmd.Output()
	if err != nil && len(out) == 0 {
		// Many linters exit non-zero when findings exist, so an error only
		// counts when there is no report to read.
		observability.LintRuns.WithLabelValues("error").Inc()
		r.logger.Warn("linter failed", "command", r.cfg.Command, "path", path, "error", err)
		return nil
	}

	findings, ok := r.decode(out, path)
	if !ok {
		observability.LintRuns.WithLabelValues("invalid_report").Inc()
		return nil
	}
	observability.LintRuns.WithLabelValues("ok").Inc()

	diags := make([]protocol.Diagnostic, 0, len(findings))
	for _, f := range findings {
		diags = append(diags, toDiagnostic(f))
	}
	return diags
}

func (r *Runner) decode(out []byte, path string) ([]finding, bool) {
	var raw any
	if err := json.Unmarshal(out, &raw); err != nil {
		r.logger.Warn("linter produced non-JSON output", "path", path, "error", err)
		return nil, false
	}
	if err := reportSchema.VisitJSON(raw); err != nil {
		r.logger.Warn("linter report failed schema validation", "path", path, "error", err)
		return nil, false
	}
	var findings []finding
	if err := json.Unmarshal(out, &findings); err != nil {
		return nil, false
	}
	return findings, true
}

func toDiagnostic(f finding) protocol.Diagnostic {
	start := protocol.Position{Line: clampPos(f.Line), Character: clampPos(f.Column)}
	end := start
	if f.EndLine > 0 {
		end = protocol.Position{Line: clampPos(f.EndLine), Character: clampPos(f.EndColumn)}
	}
	severity := protocol.DiagnosticSeverityWarning
	if f.Severity >= 2 {
		severity = protocol.DiagnosticSeverityError
	}
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: start, End: end},
		Severity: severity,
		Code:     f.RuleID,
		Source:   "solnav",
		Message:  f.Message,
	}
}

// clampPos converts a 1-based report position to a 0-based protocol one.
func clampPos(v int) uint32 {
	if v <= 0 {
		return 0
	}
	return uint32(v - 1)
}

// Timeout exposes the configured per-file deadline for callers scheduling
// batch runs.
func (r *Runner) Timeout() time.Duration { return r.cfg.Timeout }
