package tool

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"bazel-mcp/internal/domain"
	"bazel-mcp/internal/infra/tracer"
	"bazel-mcp/internal/usecase/bazel"
)

// QueryTool runs a bazel query expression. Results are never cached;
// query semantics can depend on graph state at call time.
type QueryTool struct {
	client *bazel.Client
	logger *slog.Logger
}

// NewQueryTool creates the bazel_query tool.
func NewQueryTool(client *bazel.Client, logger *slog.Logger) *QueryTool {
	return &QueryTool{client: client, logger: logger}
}

func (t *QueryTool) Name() string { return "bazel_query" }
func (t *QueryTool) Description() string {
	return "Run a Bazel query expression and return matching targets"
}

func (t *QueryTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"required": ["expr"],
			"properties": {
				"expr": {"type": "string", "description": "Bazel query expression (e.g. 'deps(//main:app)')"},
				"flags": {"type": "array", "items": {"type": "string"}, "description": "Additional Bazel flags"}
			}
		}`),
	}
}

type queryParams struct {
	Expr  string   `json:"expr"`
	Flags []string `json:"flags"`
}

func (t *QueryTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.bazel_query", t.logger, params,
		func(ctx context.Context, span trace.Span, p queryParams) (any, error) {
			if err := ValidateAll(
				ValidateQueryExpr(p.Expr),
				ValidateFlags(p.Flags),
			); err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.StringAttr("bazel.query", p.Expr))

			labels, err := t.client.QueryLabels(ctx, p.Expr, p.Flags)
			if err != nil {
				return nil, err
			}
			if len(labels) == 0 {
				return "(no matches)", nil
			}
			return strings.Join(labels, "\n"), nil
		},
	)
}
