package schema

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Action names routed by the dispatcher.
const (
	ActionGetMonitors = "get_monitors"
	ActionGetLogs     = "get_logs"
	ActionGetMetrics  = "get_metrics"
	ActionSearch      = "search"
)

// TimeRange is the nested time-window form accepted in structured
// queries: {"time_range": {"from": ..., "to": ...}}.
type TimeRange struct {
	From string `json:"from" mapstructure:"from"`
	To   string `json:"to" mapstructure:"to"`
}

// ActionRequest is the normalized form of a query: either decoded from
// a structured JSON object or synthesized from free text. Both the
// flat from/to keys and the nested time_range form populate From/To.
type ActionRequest struct {
	Action    string     `json:"action" mapstructure:"action"`
	Tags      []string   `json:"tags,omitempty" mapstructure:"tags"`
	Priority  string     `json:"priority,omitempty" mapstructure:"priority"`
	Query     string     `json:"query,omitempty" mapstructure:"query"`
	Limit     int        `json:"limit,omitempty" mapstructure:"limit"`
	From      string     `json:"from,omitempty" mapstructure:"from"`
	To        string     `json:"to,omitempty" mapstructure:"to"`
	TimeRange *TimeRange `json:"time_range,omitempty" mapstructure:"time_range"`

	// Malformed marks input that looked like a JSON object but could
	// not be decoded. The dispatcher reports it; nothing is raised.
	Malformed bool `json:"-" mapstructure:"-"`
}

// ParseQuery normalizes a raw query into an ActionRequest. It is total:
// every input maps onto a request, never an error.
//
// Input starting with "{" is decoded as a JSON object (weakly typed, so
// a numeric priority or a string limit both decode). A bare string that
// names a known action selects it; any other string becomes a "search"
// request carrying the original text. A structured query without an
// action defaults to get_monitors.
func ParseQuery(raw string) ActionRequest {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "{") {
		return parseStructured(raw, trimmed)
	}

	if action, ok := knownAction(trimmed); ok {
		return ActionRequest{Action: action}
	}

	return ActionRequest{Action: ActionSearch, Query: raw}
}

// parseStructured decodes a JSON object into an ActionRequest. Decode
// failures never escape: they produce a search request flagged as
// malformed, which the dispatcher turns into an error envelope.
func parseStructured(raw, trimmed string) ActionRequest {
	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return ActionRequest{Action: ActionSearch, Query: raw, Malformed: true}
	}

	var req ActionRequest
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &req,
	})
	if err == nil {
		err = dec.Decode(fields)
	}
	if err != nil {
		return ActionRequest{Action: ActionSearch, Query: raw, Malformed: true}
	}

	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	if req.Action == "" {
		req.Action = ActionGetMonitors
	}
	if req.TimeRange != nil {
		if req.From == "" {
			req.From = req.TimeRange.From
		}
		if req.To == "" {
			req.To = req.TimeRange.To
		}
	}
	return req
}

// knownAction matches a bare string against the routable action names,
// so tool.Run("get_monitors") behaves like {"action":"get_monitors"}.
func knownAction(s string) (string, bool) {
	switch strings.ToLower(s) {
	case ActionGetMonitors:
		return ActionGetMonitors, true
	case ActionGetLogs:
		return ActionGetLogs, true
	case ActionGetMetrics:
		return ActionGetMetrics, true
	}
	return "", false
}
