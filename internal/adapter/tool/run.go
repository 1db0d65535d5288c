package tool

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"bazel-mcp/internal/domain"
	"bazel-mcp/internal/infra/tracer"
	"bazel-mcp/internal/usecase/bazel"
)

// RunTool launches a single binary target via bazel run. Runtime args
// are passed through after the separator so bazel never parses them.
type RunTool struct {
	client *bazel.Client
	logger *slog.Logger
}

// NewRunTool creates the bazel_run tool.
func NewRunTool(client *bazel.Client, logger *slog.Logger) *RunTool {
	return &RunTool{client: client, logger: logger}
}

func (t *RunTool) Name() string { return "bazel_run" }
func (t *RunTool) Description() string {
	return "Build and run a single Bazel binary target, forwarding runtime arguments"
}

func (t *RunTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"required": ["target"],
			"properties": {
				"target": {"type": "string", "description": "The binary target to run (e.g. //main:app)"},
				"args": {"type": "array", "items": {"type": "string"}, "description": "Arguments passed to the launched binary"},
				"flags": {"type": "array", "items": {"type": "string"}, "description": "Additional Bazel run flags"}
			}
		}`),
	}
}

type runParams struct {
	Target string   `json:"target"`
	Args   []string `json:"args"`
	Flags  []string `json:"flags"`
}

func (t *RunTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.bazel_run", t.logger, params,
		func(ctx context.Context, span trace.Span, p runParams) (any, error) {
			if err := ValidateAll(
				ValidateTargetLabel(p.Target),
				ValidateFlags(p.Flags),
				ValidateRuntimeArgs(p.Args),
			); err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.StringAttr("bazel.target", p.Target))

			chunks, results := t.client.StreamRun(ctx, p.Target, p.Flags, p.Args)
			res := drainStream(t.logger, "bazel_run", chunks, results)
			return commandToolResult(reportFrom(res))
		},
	)
}
