// Package mcpserver exposes the registered tools and the target
// inventory over the Model Context Protocol on stdio.
//
// This is a wiring layer: tool semantics live in adapter/tool, bazel
// semantics in usecase. Nothing here runs a subprocess.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"bazel-mcp/internal/adapter/tool"
	"bazel-mcp/internal/domain"
	"bazel-mcp/internal/usecase/inventory"
)

// ServerName is the name advertised during the MCP handshake.
const ServerName = "bazel-mcp"

// TargetsResourceURI serves the current inventory snapshot as a
// readable resource, so clients can pull it without a tool call.
const TargetsResourceURI = "bazel://targets"

// Server bridges the tool registry and inventory cache onto an MCP
// stdio server.
type Server struct {
	mcp    *server.MCPServer
	cache  *inventory.Cache
	logger *slog.Logger
}

// New creates the MCP server and registers every tool in the registry
// plus the inventory resource.
func New(version string, registry *tool.Registry, cache *inventory.Cache, logger *slog.Logger) *Server {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
	)

	srv := &Server{mcp: s, cache: cache, logger: logger}

	for _, t := range registry.List() {
		def := mcp.NewToolWithRawSchema(t.Name(), t.Description(), t.Schema().Parameters)
		s.AddTool(def, srv.toolHandler(t))
		logger.Debug("mcp tool exposed", "tool", t.Name())
	}

	s.AddResource(
		mcp.NewResource(TargetsResourceURI, "Bazel targets",
			mcp.WithResourceDescription("Current Bazel target inventory, grouped by kind"),
			mcp.WithMIMEType("application/json"),
		),
		srv.handleTargetsResource,
	)

	return srv
}

// Serve runs the stdio transport until ctx is cancelled or stdin
// closes.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio", "server", ServerName)
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// toolHandler adapts a registered tool to the mcp-go handler shape.
// A tool failure becomes an error tool result, never a protocol error.
func (s *Server) toolHandler(t domain.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		result, err := t.Execute(ctx, params)
		if err != nil {
			s.logger.Error("tool execution error", "tool", t.Name(), "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		if result.IsError {
			return mcp.NewToolResultError(result.Content), nil
		}
		return mcp.NewToolResultText(result.Content), nil
	}
}

func (s *Server) handleTargetsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	inv := s.cache.Current()
	if inv == nil {
		return nil, fmt.Errorf("target inventory not yet discovered; call bazel_list_targets first")
	}

	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal inventory: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TargetsResourceURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
