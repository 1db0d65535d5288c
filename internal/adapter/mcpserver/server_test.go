package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazel-mcp/internal/adapter/tool"
	"bazel-mcp/internal/domain"
	"bazel-mcp/internal/usecase/inventory"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoTool reflects its parsed params back as the result.
type echoTool struct {
	fail bool
}

func (e *echoTool) Name() string        { return "echo" }
func (e *echoTool) Description() string { return "echoes params" }
func (e *echoTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        "echo",
		Description: "echoes params",
		Parameters:  json.RawMessage(`{"type": "object"}`),
	}
}
func (e *echoTool) Execute(_ context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	if e.fail {
		return &domain.ToolResult{Content: "echo failed", IsError: true}, nil
	}
	return &domain.ToolResult{Content: string(params)}, nil
}

type staticQuerier struct {
	labels []string
}

func (q *staticQuerier) QueryLabels(context.Context, string, []string) ([]string, error) {
	return q.labels, nil
}

func newTestServer(t *testing.T, tools ...domain.Tool) (*Server, *inventory.Cache) {
	t.Helper()
	registry := tool.NewRegistry(newTestLogger())
	registry.MustRegister(tools...)
	cache := inventory.New(&staticQuerier{labels: []string{"//lib:core"}},
		"/repo", []domain.Kind{"cc_library"}, "//...", newTestLogger())
	return New("test", registry, cache, newTestLogger()), cache
}

func callToolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return tc.Text
}

func TestToolHandlerPassesArguments(t *testing.T) {
	srv, _ := newTestServer(t, &echoTool{})

	handler := srv.toolHandler(&echoTool{})
	req := mcp.CallToolRequest{}
	req.Params.Name = "echo"
	req.Params.Arguments = map[string]any{"targets": []any{"//main:app"}}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"targets": ["//main:app"]}`, callToolText(t, result))
}

func TestToolHandlerErrorResult(t *testing.T) {
	srv, _ := newTestServer(t, &echoTool{})

	handler := srv.toolHandler(&echoTool{fail: true})
	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err, "tool failures are results, not protocol errors")
	assert.True(t, result.IsError)
	assert.Equal(t, "echo failed", callToolText(t, result))
}

func TestTargetsResourceBeforeDiscovery(t *testing.T) {
	srv, _ := newTestServer(t, &echoTool{})

	req := mcp.ReadResourceRequest{}
	req.Params.URI = TargetsResourceURI

	// The resource never triggers a refresh; an empty cache is an error.
	_, err := srv.handleTargetsResource(context.Background(), req)
	assert.Error(t, err)
}

func TestTargetsResourceServesSnapshot(t *testing.T) {
	srv, cache := newTestServer(t, &echoTool{})

	_, err := cache.Get(context.Background(), nil, false)
	require.NoError(t, err)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = TargetsResourceURI

	contents, err := srv.handleTargetsResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, TargetsResourceURI, text.URI)
	assert.Equal(t, "application/json", text.MIMEType)

	var inv domain.Inventory
	require.NoError(t, json.Unmarshal([]byte(text.Text), &inv))
	assert.Equal(t, []string{"//lib:core"}, inv.All)
}
