// Package server wires the MCP components and creates the server
// instance.
//
// This is the composition root: it builds the Datadog client, the audit
// journal, the tools, and the resources, and injects them into each
// other. No query logic lives here, only wiring.
package server

import (
	"log"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sreloop/datadog-mcp/internal/audit"
	"github.com/sreloop/datadog-mcp/internal/config"
	"github.com/sreloop/datadog-mcp/internal/datadog"
	"github.com/sreloop/datadog-mcp/internal/resources"
	"github.com/sreloop/datadog-mcp/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with the Datadog tools and
// resources registered. cfg must come from config.FromEnv, which has
// already verified the credentials.
//
// The returned cleanup function closes the audit journal and must be
// called on shutdown (typically via defer). It is always non-nil and
// safe to call even when the journal never opened.
func New(cfg config.Config) (*server.MCPServer, func()) {
	// --- Create shared dependencies ---

	client := datadog.NewClient(datadog.Config{
		APIKey:  cfg.APIKey,
		AppKey:  cfg.AppKey,
		Site:    cfg.Site,
		Timeout: cfg.Timeout,
	})

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"datadog-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register the query tool ---

	queryTool := tools.NewDatadogTool(client, client)
	s.AddTool(queryTool.Definition(), queryTool.Handle)

	// --- Register the audit journal ---
	//
	// The journal is an independent subsystem: if it fails to open, the
	// query tool keeps working. We log a warning and skip journal
	// registration; the server still answers Datadog queries.

	cleanup := noop
	if cfg.AuditDisabled {
		return s, cleanup
	}

	journal, err := audit.New(cfg.AuditDir)
	if err != nil {
		log.Printf("WARNING: audit journal disabled: %v", err)
		return s, cleanup
	}
	cleanup = func() {
		if err := journal.Close(); err != nil {
			log.Printf("WARNING: audit journal close: %v", err)
		}
	}

	// Retention pruning happens once per process start. Zero retention
	// keeps everything.
	if cfg.AuditRetention > 0 {
		if purged, err := journal.Purge(cfg.AuditRetention); err != nil {
			log.Printf("WARNING: audit journal purge: %v", err)
		} else if purged > 0 {
			log.Printf("audit: purged %d dispatches older than %s", purged, cfg.AuditRetention)
		}
	}

	queryTool.SetBridge(tools.NewAuditBridge(journal))

	auditTool := tools.NewAuditTool(journal)
	s.AddTool(auditTool.Definition(), auditTool.Handle)

	resourceHandler := resources.NewHandler(journal)
	s.AddResource(resourceHandler.AuditStatusResource(), resourceHandler.HandleAuditStatus)

	return s, cleanup
}

// noop is the cleanup used when the journal is disabled or failed to
// open.
func noop() {}

// serverInstructions returns the usage notes handed to the MCP host.
func serverInstructions() string {
	return `You have access to datadog-mcp, a read-only Datadog query server.

## datadog_query

One tool answers every Datadog question. Pass a "query" argument that is
either a JSON object or a bare action name.

Actions:
- get_monitors: monitors currently in Alert or Warn state
- get_logs: log search (defaults to status:error over the last 30 minutes)
- get_metrics: not implemented yet; returns an explanatory message

Query fields:
- "action": one of the actions above (defaults to get_monitors)
- "tags": array of monitor tags; a monitor matches when it carries ANY of them
- "priority": monitor priority as "P1".."P5" or a bare number "1".."5"
- "query": Datadog log search syntax, e.g. "service:checkout status:error"
- "limit": maximum log entries to return (default 100)
- "time_range": {"from": RFC3339, "to": RFC3339} for log searches

Examples:
- {"action": "get_monitors", "tags": ["service:checkout"], "priority": "P1"}
- {"action": "get_logs", "query": "service:payments status:error", "limit": 50}
- "get_monitors"

Every response is a JSON envelope. Success:
  {"status": "success", "count": N, "data": [...]}
Failure:
  {"status": "error", "message": "..."}

The tool call itself never fails; ALWAYS inspect the "status" field.
A count of 0 with empty data means the query matched nothing, which is
a normal answer, not an error.

## datadog_audit

Returns recent dispatches from the local audit journal as JSON, newest
first. Optional arguments: "action" to filter by action name, "limit"
to cap the number of rows (default 20). Use it to answer "what did you
ask Datadog?" questions.

## Resources

datadog://audit/status: aggregate counters for the journal (total
dispatches, successes, errors, per-action breakdown, last dispatch
time).

## Guidance

- Prefer one focused query over several broad ones; results are not
  cached, so each call hits the Datadog API.
- When a query returns {"status": "error", ...}, report the message to
  the user instead of retrying blindly. Rate-limit errors ("rate
  limited") are worth retrying after a pause.
- Monitor results are already narrowed to Alert/Warn states; there is
  no action for listing healthy monitors.`
}
