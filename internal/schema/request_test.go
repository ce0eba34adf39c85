package schema

import (
	"reflect"
	"testing"
)

func TestParseQueryStructured(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ActionRequest
	}{
		{
			name: "full monitors request",
			raw:  `{"action":"get_monitors","tags":["service:checkout"],"priority":"P1"}`,
			want: ActionRequest{Action: ActionGetMonitors, Tags: []string{"service:checkout"}, Priority: "P1"},
		},
		{
			name: "logs request with flat time keys",
			raw:  `{"action":"get_logs","query":"status:warn","limit":50,"from":"2024-01-01T00:00:00Z","to":"2024-01-01T01:00:00Z"}`,
			want: ActionRequest{Action: ActionGetLogs, Query: "status:warn", Limit: 50, From: "2024-01-01T00:00:00Z", To: "2024-01-01T01:00:00Z"},
		},
		{
			name: "missing action defaults to get_monitors",
			raw:  `{"tags":["env:prod"]}`,
			want: ActionRequest{Action: ActionGetMonitors, Tags: []string{"env:prod"}},
		},
		{
			name: "action is case-insensitive",
			raw:  `{"action":"GET_LOGS"}`,
			want: ActionRequest{Action: ActionGetLogs},
		},
		{
			name: "unknown action passes through for the fallback arm",
			raw:  `{"action":"frobnicate"}`,
			want: ActionRequest{Action: "frobnicate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuery(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseQuery(%q) =\n  %+v\nwant:\n  %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseQueryWeakTyping(t *testing.T) {
	// Numeric priorities and string limits both appear in the wild;
	// the decoder accepts either representation.
	got := ParseQuery(`{"action":"get_monitors","priority":1}`)
	if got.Priority != "1" {
		t.Errorf("numeric priority decoded as %q, want \"1\"", got.Priority)
	}

	got = ParseQuery(`{"action":"get_logs","limit":"25"}`)
	if got.Limit != 25 {
		t.Errorf("string limit decoded as %d, want 25", got.Limit)
	}

	got = ParseQuery(`{"action":"get_logs","limit":100}`)
	if got.Limit != 100 {
		t.Errorf("numeric limit decoded as %d, want 100", got.Limit)
	}
}

func TestParseQueryNestedTimeRange(t *testing.T) {
	got := ParseQuery(`{"action":"get_logs","time_range":{"from":"now-1h","to":"now"}}`)

	if got.From != "now-1h" || got.To != "now" {
		t.Errorf("time_range not folded into From/To: %+v", got)
	}

	// Flat keys win over the nested form.
	got = ParseQuery(`{"action":"get_logs","from":"flat","time_range":{"from":"nested","to":"now"}}`)
	if got.From != "flat" {
		t.Errorf("flat from should win, got %q", got.From)
	}
	if got.To != "now" {
		t.Errorf("nested to should fill the gap, got %q", got.To)
	}
}

func TestParseQueryFreeText(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantAction string
		wantQuery  string
	}{
		{"plain text becomes search", "show me the errors", ActionSearch, "show me the errors"},
		{"bare known action dispatches", "get_monitors", ActionGetMonitors, ""},
		{"bare action tolerates case", "Get_Logs", ActionGetLogs, ""},
		{"bare metrics action", "get_metrics", ActionGetMetrics, ""},
		{"empty string becomes search", "", ActionSearch, ""},
		{"whitespace becomes search", "   ", ActionSearch, "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuery(tt.raw)
			if got.Action != tt.wantAction {
				t.Errorf("action = %q, want %q", got.Action, tt.wantAction)
			}
			if got.Query != tt.wantQuery {
				t.Errorf("query = %q, want %q", got.Query, tt.wantQuery)
			}
			if got.Malformed {
				t.Error("free text must not be flagged malformed")
			}
		})
	}
}

func TestParseQueryMalformedJSON(t *testing.T) {
	tests := []string{
		`{"action": "get_monitors"`, // unterminated object
		`{action: get_monitors}`,    // unquoted keys
		`{"action": }`,              // missing value
		`{{}}`,
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			got := ParseQuery(raw)
			if !got.Malformed {
				t.Errorf("ParseQuery(%q) should be flagged malformed", raw)
			}
			if got.Action != ActionSearch {
				t.Errorf("malformed input must fall back to search, got %q", got.Action)
			}
			if got.Query != raw {
				t.Errorf("original input must be preserved, got %q", got.Query)
			}
		})
	}
}

func TestParseQueryIsTotal(t *testing.T) {
	// None of these may panic, and all must yield a routable request.
	inputs := []string{
		"", " ", "{", "}", "{}", "[1,2,3]", "\x00\x01", "null",
		`{"action":null}`, `{"tags":"not-a-list"}`, `{"limit":"NaN"}`,
		"🚨 alerts please", `{"action":["get_monitors"]}`,
	}

	for _, raw := range inputs {
		got := ParseQuery(raw)
		if got.Action == "" {
			t.Errorf("ParseQuery(%q) produced an empty action", raw)
		}
	}
}
