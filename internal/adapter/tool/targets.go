package tool

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"bazel-mcp/internal/domain"
	"bazel-mcp/internal/usecase/inventory"
)

// TargetsTool lists discovered targets grouped by kind, served from the
// inventory cache.
type TargetsTool struct {
	cache  *inventory.Cache
	logger *slog.Logger
}

// NewTargetsTool creates the bazel_list_targets tool.
func NewTargetsTool(cache *inventory.Cache, logger *slog.Logger) *TargetsTool {
	return &TargetsTool{cache: cache, logger: logger}
}

func (t *TargetsTool) Name() string { return "bazel_list_targets" }
func (t *TargetsTool) Description() string {
	return "List discovered Bazel targets grouped by kind (cc_library, cc_binary, py_library, etc.)"
}

func (t *TargetsTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"refresh": {"type": "boolean", "description": "Force refresh of the target cache"}
			}
		}`),
	}
}

type targetsParams struct {
	Refresh bool `json:"refresh"`
}

type targetsResponse struct {
	Timestamp      time.Time                    `json:"timestamp"`
	RepoRoot       string                       `json:"repoRoot"`
	Kinds          map[domain.Kind][]string     `json:"kinds"`
	All            []string                     `json:"all"`
	Elapsed        string                       `json:"elapsed"`
	DiscoveryError string                       `json:"discovery_error,omitempty"`
}

func (t *TargetsTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.bazel_list_targets", t.logger, params,
		func(ctx context.Context, span trace.Span, p targetsParams) (any, error) {
			start := time.Now()
			inv, err := t.cache.Get(ctx, nil, p.Refresh)
			if inv == nil {
				return nil, err
			}

			resp := targetsResponse{
				Timestamp: inv.Timestamp,
				RepoRoot:  inv.RepoRoot,
				Kinds:     inv.Kinds,
				All:       inv.All,
				Elapsed:   time.Since(start).Round(time.Millisecond).String(),
			}
			if err != nil {
				// Partial discovery failure: the snapshot is still
				// usable, the failure rides along.
				resp.DiscoveryError = err.Error()
			}
			return resp, nil
		},
	)
}
