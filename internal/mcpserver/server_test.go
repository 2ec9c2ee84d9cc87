package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/renshaw/smartlinks/internal/catalog"
	"github.com/renshaw/smartlinks/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return New(testutil.Service(t, &catalog.File{
		Prefix: "movie",
		Entities: []catalog.Entity{
			{Name: "Mad Max", Locator: "mad-max",
				Title: "Mad Max: Beyond Thunderdome", URL: "/movies/mad_max/"},
		},
	}))
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "render_text":
		result, err = srv.renderText(ctx, req)
	case "resolve_reference":
		result, err = srv.resolveReference(ctx, req)
	case "list_prefixes":
		result, err = srv.listPrefixes(ctx, req)
	case "rebuild_index":
		result, err = srv.rebuildIndex(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestRenderText(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "render_text", map[string]interface{}{
		"text": "see [[ Mad Max ]]",
	})
	text := resultText(r)
	want := `see <a href="/movies/mad_max/" title="Mad Max: Beyond Thunderdome">Mad Max</a>`
	if text != want {
		t.Errorf("result = %q, want %q", text, want)
	}
}

func TestResolveReference(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "resolve_reference", map[string]interface{}{
		"token": "[[ movie->Mad Max ]]",
	})
	text := resultText(r)
	if !strings.Contains(text, `"resolved": true`) || !strings.Contains(text, `"locator": "mad-max"`) {
		t.Errorf("result = %q", text)
	}

	r = callTool(t, srv, "resolve_reference", map[string]interface{}{
		"token": "[[ Waterworld ]]",
	})
	text = resultText(r)
	if !strings.Contains(text, `"resolved": false`) || !strings.Contains(text, "not_indexed") {
		t.Errorf("result = %q", text)
	}

	r = callTool(t, srv, "resolve_reference", map[string]interface{}{
		"token": "no token here",
	})
	if !r.IsError {
		t.Error("expected error for token-free input")
	}
}

func TestListPrefixes(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "list_prefixes", map[string]interface{}{})
	if !strings.Contains(resultText(r), `"prefix": "movie"`) {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestRebuildIndex(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "rebuild_index", map[string]interface{}{})
	if got := resultText(r); got != "index rebuilt: 1 entries" {
		t.Errorf("result = %q", got)
	}
}
