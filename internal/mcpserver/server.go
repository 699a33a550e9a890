// Package mcpserver exposes dashboard reads as MCP (Model Context Protocol)
// tools over stdio, so local agents and editors can query gateway state
// without going through the HTTP API.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ayush-that/clawboard/internal/dashboard"
	"github.com/ayush-that/clawboard/internal/domain"
)

// Server wraps an MCP stdio server around the dashboard adapters. All tools
// are read only; every tool inherits the adapters' fail-soft behavior and
// reports an empty result rather than an error when the gateway is down.
type Server struct {
	mcp      *server.MCPServer
	dash     *dashboard.Service
	settings domain.GatewaySettings
	logger   *slog.Logger
}

// New creates the MCP server and registers its tools. settings is the
// process-default gateway; MCP clients have no per-request override channel.
func New(dash *dashboard.Service, settings domain.GatewaySettings, version string, logger *slog.Logger) *Server {
	s := &Server{
		mcp:      server.NewMCPServer("clawboard", version, server.WithToolCapabilities(false)),
		dash:     dash,
		settings: settings,
		logger:   logger,
	}

	s.mcp.AddTool(
		mcp.NewTool("openclaw_sessions",
			mcp.WithDescription("List the OpenClaw gateway's conversation sessions with token counts."),
		),
		s.handleSessions,
	)
	s.mcp.AddTool(
		mcp.NewTool("openclaw_usage",
			mcp.WithDescription("Aggregated token usage and cost: totals, per model, per session, per day."),
		),
		s.handleUsage,
	)
	s.mcp.AddTool(
		mcp.NewTool("openclaw_cron_list",
			mcp.WithDescription("List jobs scheduled on the OpenClaw gateway."),
		),
		s.handleCronList,
	)
	s.mcp.AddTool(
		mcp.NewTool("openclaw_memory_search",
			mcp.WithDescription("Search the agent's long-term memory."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Free-text search query."),
			),
		),
		s.handleMemorySearch,
	)

	return s
}

// ServeStdio blocks serving MCP over stdin/stdout until the client
// disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server starting on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleSessions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.dash.Sessions(ctx, s.settings))
}

func (s *Server) handleUsage(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.dash.Usage(ctx, s.settings))
}

func (s *Server) handleCronList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.dash.CronJobs(ctx, s.settings))
}

func (s *Server) handleMemorySearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}
	return jsonResult(s.dash.SearchMemory(ctx, s.settings, query))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
