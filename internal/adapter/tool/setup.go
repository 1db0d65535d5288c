package tool

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"

	"bazel-mcp/internal/domain"
	"bazel-mcp/internal/usecase/bazel"
	"bazel-mcp/internal/usecase/inventory"
)

// Well-known setup script locations, relative to the repo root.
const (
	setupCacheScript = "tools/setup_cache.sh"
	installScript    = "install/install_all.sh"
)

// SetupTool runs the repository's setup scripts. Setup can create or
// remove targets, so the inventory cache is invalidated afterwards.
type SetupTool struct {
	root   string
	client *bazel.Client
	cache  *inventory.Cache
	logger *slog.Logger
}

// NewSetupTool creates the repo_setup tool.
func NewSetupTool(root string, client *bazel.Client, cache *inventory.Cache, logger *slog.Logger) *SetupTool {
	return &SetupTool{root: root, client: client, cache: cache, logger: logger}
}

func (t *SetupTool) Name() string { return "repo_setup" }
func (t *SetupTool) Description() string {
	return "Run the repository setup scripts (build cache setup, optional dependency install)"
}

func (t *SetupTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"skipInstall": {"type": "boolean", "description": "Skip the dependency install script"}
			}
		}`),
	}
}

type setupParams struct {
	SkipInstall bool `json:"skipInstall"`
}

type scriptReport struct {
	Script  string `json:"script"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
	commandReport
}

type setupResponse struct {
	Success bool           `json:"success"`
	Scripts []scriptReport `json:"scripts"`
}

func (t *SetupTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.repo_setup", t.logger, params,
		func(ctx context.Context, span trace.Span, p setupParams) (any, error) {
			scripts := []string{setupCacheScript}
			if !p.SkipInstall {
				scripts = append(scripts, installScript)
			}

			resp := setupResponse{Success: true}
			for _, rel := range scripts {
				rep := t.runScript(ctx, rel)
				resp.Scripts = append(resp.Scripts, rep)
				if !rep.Skipped && !rep.Success {
					resp.Success = false
					break
				}
			}

			// Setup may have changed the target graph.
			t.cache.Invalidate()

			result, err := JSONResult(resp)
			if err != nil {
				return nil, err
			}
			result.IsError = !resp.Success
			return result, nil
		},
	)
}

// runScript executes one setup script if it exists. A missing script is
// reported as skipped, not failed.
func (t *SetupTool) runScript(ctx context.Context, rel string) scriptReport {
	rep := scriptReport{Script: rel}
	path := filepath.Join(t.root, rel)
	if _, err := os.Stat(path); err != nil {
		t.logger.Info("setup script not found, skipping", "script", rel)
		rep.Skipped = true
		rep.Reason = "script not found"
		return rep
	}

	t.logger.Info("running setup script", "script", rel)
	chunks, results := t.client.StreamScript(ctx, path)
	res := drainStream(t.logger, "repo_setup", chunks, results)
	rep.commandReport = reportFrom(res)
	return rep
}
