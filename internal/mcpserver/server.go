// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes smartlink tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/renshaw/smartlinks/internal/linkservice"
)

// Server wraps the MCP server with smartlink tools.
type Server struct {
	mcp *server.MCPServer
	svc *linkservice.Service
}

// New creates a new MCP server with all smartlink tools registered.
func New(svc *linkservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Smartlinks",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("render_text",
		mcp.WithDescription("Substitute every [[reference]] and {{attribute}} token in the text "+
			"with rendered HTML. Unresolvable tokens degrade to their plain display text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text containing smartlink tokens")),
	), s.renderText)

	s.mcp.AddTool(mcp.NewTool("resolve_reference",
		mcp.WithDescription("Resolve a single smartlink token (e.g. [[ movie->Mad Max ]]) "+
			"and return the matched entry, or the reason it did not resolve."),
		mcp.WithString("token", mcp.Required(), mcp.Description("A single smartlink token")),
	), s.resolveReference)

	s.mcp.AddTool(mcp.NewTool("list_prefixes",
		mcp.WithDescription("List every registered source prefix with its aliases and "+
			"embeddable attributes."),
	), s.listPrefixes)

	s.mcp.AddTool(mcp.NewTool("rebuild_index",
		mcp.WithDescription("Re-enumerate every registered source and atomically swap in "+
			"a fresh resolution index."),
	), s.rebuildIndex)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) renderText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.svc.Substitute(ctx, text)), nil
}

func (s *Server) resolveReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, ok := s.svc.Resolve(token)
	if !ok {
		return mcp.NewToolResultError("no smartlink token found in input"), nil
	}

	out := map[string]any{"resolved": res.Resolved}
	if res.Resolved {
		out["prefix"] = res.Prefix
		out["locator"] = res.Entry.Locator
		out["display"] = res.Entry.Display
		out["html"] = s.svc.Render(ctx, res)
	} else {
		out["reason"] = string(res.Reason)
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listPrefixes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, _ := json.MarshalIndent(s.svc.Prefixes(), "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) rebuildIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.svc.Rebuild(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("index rebuilt: %d entries", s.svc.IndexLen())), nil
}
