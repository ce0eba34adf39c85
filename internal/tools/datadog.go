// Package tools implements the MCP tool handlers.
//
// Each tool is a struct that receives its dependencies via the
// constructor (DIP) and exposes Definition/Handle for registration
// with mcp-go. The dispatcher contract is total: every query maps to
// exactly one result envelope, and neither an error nor a panic
// crosses the MCP boundary.
package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sreloop/datadog-mcp/internal/datadog"
	"github.com/sreloop/datadog-mcp/internal/schema"
)

// timeNow is a package-level var to allow test injection of the clock
// behind the default log time range.
var timeNow = time.Now

const (
	// defaultLogQuery selects error-status events when the caller
	// supplies no query of their own.
	defaultLogQuery = "status:error"

	// defaultLogLimit caps a log search when the caller sets none.
	defaultLogLimit = 100

	// defaultLogWindow is the lookback applied when the caller gives
	// no time range.
	defaultLogWindow = 30 * time.Minute
)

// supportedActions is what the fallback arm reports.
var supportedActions = []string{
	schema.ActionGetMonitors,
	schema.ActionGetLogs,
	schema.ActionGetMetrics,
}

// DatadogTool handles the datadog_query MCP tool. It parses one query
// (structured JSON or free text), routes it to the matching action
// handler, and wraps the outcome in a result envelope.
type DatadogTool struct {
	monitors datadog.MonitorsClient
	logs     datadog.LogsClient
	bridge   Observer
}

// NewDatadogTool creates a DatadogTool with the given API clients.
func NewDatadogTool(monitors datadog.MonitorsClient, logs datadog.LogsClient) *DatadogTool {
	return &DatadogTool{monitors: monitors, logs: logs}
}

// SetBridge injects an optional Observer for audit journaling.
func (t *DatadogTool) SetBridge(obs Observer) { t.bridge = obs }

// Definition returns the MCP tool definition for registration.
func (t *DatadogTool) Definition() mcp.Tool {
	return mcp.NewTool("datadog_query",
		mcp.WithDescription(
			"Fetch alerts, monitors, and log data from the Datadog API. "+
				"Accepts a JSON object such as "+
				`{"action":"get_monitors","tags":["service:checkout"],"priority":"P1"} or `+
				`{"action":"get_logs","query":"status:error","limit":50}, `+
				"or a bare action name like 'get_monitors'. "+
				"Supported actions: get_monitors, get_logs, get_metrics. "+
				"Always returns a JSON envelope with status success or error.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The query to run: a JSON object with an 'action' field plus optional filters, or a bare action name."),
		),
	)
}

// Handle processes the datadog_query tool call. The envelope is always
// returned as JSON text content with a nil Go error; faults surface
// inside the envelope, never as MCP errors.
func (t *DatadogTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("query", "")

	started := time.Now()
	request := schema.ParseQuery(raw)
	env := t.Execute(ctx, request)
	notifyObserver(t.bridge, request.Action, env, time.Since(started))

	return mcp.NewToolResultText(env.JSON()), nil
}

// Run parses and executes one raw query.
func (t *DatadogTool) Run(ctx context.Context, raw string) schema.Envelope {
	return t.Execute(ctx, schema.ParseQuery(raw))
}

// Execute dispatches one parsed request. This is the single dispatch
// boundary: the recover guard keeps it total even against a panicking
// client implementation.
func (t *DatadogTool) Execute(ctx context.Context, req schema.ActionRequest) (env schema.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			env = schema.Errorf("Error executing Datadog query: %v", r)
		}
	}()

	if req.Malformed {
		return schema.Errorf("Error executing Datadog query: query is not valid JSON")
	}

	switch req.Action {
	case schema.ActionGetMonitors:
		return t.getMonitors(ctx, req)
	case schema.ActionGetLogs:
		return t.getLogs(ctx, req)
	case schema.ActionGetMetrics:
		return t.getMetrics()
	default:
		return schema.Info(fmt.Sprintf(
			"Unknown action: %s. Supported actions: %s",
			req.Action, strings.Join(supportedActions, ", "),
		))
	}
}

// getMonitors lists alerting monitors, then applies the optional tag
// and priority filters in that order, preserving API order.
func (t *DatadogTool) getMonitors(ctx context.Context, req schema.ActionRequest) schema.Envelope {
	monitors, err := t.monitors.ListMonitors(ctx)
	if err != nil {
		return schema.Errorf("Failed to fetch monitors: %s", err)
	}

	if len(req.Tags) > 0 {
		monitors = filterByTags(monitors, req.Tags)
	}
	if req.Priority != "" {
		want, ok := schema.ParsePriority(req.Priority)
		if !ok {
			return schema.Errorf("Invalid priority %q: use a label like P1 or a number", req.Priority)
		}
		monitors = filterByPriority(monitors, want)
	}

	records := make([]schema.AlertRecord, 0, len(monitors))
	for _, m := range monitors {
		records = append(records, schema.NewAlertRecord(m))
	}
	return schema.Success(len(records), records)
}

// getLogs searches log events, filling the documented defaults for
// every parameter the caller omitted.
func (t *DatadogTool) getLogs(ctx context.Context, req schema.ActionRequest) schema.Envelope {
	q := datadog.LogQuery{
		Query: req.Query,
		From:  req.From,
		To:    req.To,
		Limit: req.Limit,
	}
	if q.Query == "" {
		q.Query = defaultLogQuery
	}
	if q.Limit <= 0 {
		q.Limit = defaultLogLimit
	}
	now := timeNow().UTC()
	if q.From == "" {
		q.From = now.Add(-defaultLogWindow).Format(time.RFC3339)
	}
	if q.To == "" {
		q.To = now.Format(time.RFC3339)
	}

	entries, err := t.logs.SearchLogs(ctx, q)
	if err != nil {
		return schema.Errorf("Failed to fetch logs: %s", err)
	}
	if entries == nil {
		entries = []schema.LogEntry{}
	}
	return schema.Success(len(entries), entries)
}

// getMetrics is a stub arm; the metrics API is not wired yet.
func (t *DatadogTool) getMetrics() schema.Envelope {
	return schema.Info("Metrics API integration not implemented yet")
}

// filterByTags keeps monitors carrying at least one of the wanted
// tags. A fresh slice is returned; client results are never mutated.
func filterByTags(monitors []schema.Monitor, want []string) []schema.Monitor {
	wanted := make(map[string]struct{}, len(want))
	for _, tag := range want {
		wanted[tag] = struct{}{}
	}

	var kept []schema.Monitor
	for _, m := range monitors {
		for _, tag := range m.Tags {
			if _, ok := wanted[tag]; ok {
				kept = append(kept, m)
				break
			}
		}
	}
	return kept
}

// filterByPriority keeps monitors with the given numeric priority.
func filterByPriority(monitors []schema.Monitor, want int) []schema.Monitor {
	var kept []schema.Monitor
	for _, m := range monitors {
		if m.Priority == want {
			kept = append(kept, m)
		}
	}
	return kept
}
