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

// BuildTool builds one or more targets, streaming logs as they arrive.
type BuildTool struct {
	client *bazel.Client
	logger *slog.Logger
}

// NewBuildTool creates the bazel_build tool.
func NewBuildTool(client *bazel.Client, logger *slog.Logger) *BuildTool {
	return &BuildTool{client: client, logger: logger}
}

func (t *BuildTool) Name() string { return "bazel_build" }
func (t *BuildTool) Description() string {
	return "Build one or more Bazel targets (streams logs)"
}

func (t *BuildTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"required": ["targets"],
			"properties": {
				"targets": {"type": "array", "items": {"type": "string"}, "description": "Bazel target labels to build"},
				"flags": {"type": "array", "items": {"type": "string"}, "description": "Additional Bazel build flags"}
			}
		}`),
	}
}

type buildParams struct {
	Targets []string `json:"targets"`
	Flags   []string `json:"flags"`
}

func (t *BuildTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.bazel_build", t.logger, params,
		func(ctx context.Context, span trace.Span, p buildParams) (any, error) {
			if err := ValidateAll(
				ValidateTargets(p.Targets),
				ValidateFlags(p.Flags),
			); err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.IntAttr("bazel.targets", len(p.Targets)))

			chunks, results := t.client.StreamBuild(ctx, p.Targets, p.Flags)
			res := drainStream(t.logger, "bazel_build", chunks, results)
			return commandToolResult(reportFrom(res))
		},
	)
}
