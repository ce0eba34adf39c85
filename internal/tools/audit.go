package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sreloop/datadog-mcp/internal/audit"
)

// AuditTool handles the datadog_audit MCP tool. It exposes the
// dispatch journal for after-the-fact inspection.
type AuditTool struct {
	store *audit.Store
}

// NewAuditTool creates an AuditTool over the journal.
func NewAuditTool(store *audit.Store) *AuditTool {
	return &AuditTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *AuditTool) Definition() mcp.Tool {
	return mcp.NewTool("datadog_audit",
		mcp.WithDescription(
			"Inspect the dispatch journal: recent datadog_query invocations "+
				"with their action, outcome, record count, and latency. "+
				"Useful for reviewing what has been asked of Datadog.",
		),
		mcp.WithString("action",
			mcp.Description("Only show dispatches for this action (e.g. get_monitors)."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of dispatches to return (default: 20)."),
		),
	)
}

// Handle processes the datadog_audit tool call.
func (t *AuditTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := req.GetString("action", "")
	limit := intArg(req, "limit", 0)

	dispatches, err := t.store.Recent(action, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading audit journal: %v", err)), nil
	}
	if dispatches == nil {
		dispatches = []audit.Dispatch{}
	}

	out, err := json.MarshalIndent(dispatches, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding audit records: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// intArg extracts an integer argument from a tool request.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}
