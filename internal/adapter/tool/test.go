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

// TestTool runs bazel test, defaulting to every target in the
// workspace when none are given.
type TestTool struct {
	client   *bazel.Client
	universe string
	logger   *slog.Logger
}

// NewTestTool creates the bazel_test tool. universe is the wildcard
// pattern used when the caller names no targets.
func NewTestTool(client *bazel.Client, universe string, logger *slog.Logger) *TestTool {
	return &TestTool{client: client, universe: universe, logger: logger}
}

func (t *TestTool) Name() string { return "bazel_test" }
func (t *TestTool) Description() string {
	return "Run Bazel tests (all tests in the workspace when no targets are given)"
}

func (t *TestTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"targets": {"type": "array", "items": {"type": "string"}, "description": "Test targets to run; defaults to the whole workspace"},
				"flags": {"type": "array", "items": {"type": "string"}, "description": "Additional Bazel test flags"}
			}
		}`),
	}
}

type testParams struct {
	Targets []string `json:"targets"`
	Flags   []string `json:"flags"`
}

func (t *TestTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.bazel_test", t.logger, params,
		func(ctx context.Context, span trace.Span, p testParams) (any, error) {
			if err := ValidateFlags(p.Flags); err != nil {
				return nil, err
			}
			targets := p.Targets
			if len(targets) == 0 {
				targets = []string{t.universe}
			} else if err := ValidateTargets(targets); err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.IntAttr("bazel.targets", len(targets)))

			chunks, results := t.client.StreamTest(ctx, targets, p.Flags)
			res := drainStream(t.logger, "bazel_test", chunks, results)
			return commandToolResult(reportFrom(res))
		},
	)
}
