// Package datadog provides the clients the dispatcher calls: the
// monitors/logs interfaces, the v1 HTTP implementation, the typed
// error taxonomy, and programmable test doubles.
package datadog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sreloop/datadog-mcp/internal/schema"
)

// DefaultSite is the Datadog site queried when none is configured.
const DefaultSite = "datadoghq.com"

// DefaultTimeout bounds each API call. The dispatcher imposes no
// timeout of its own, so this is the only deadline in the path.
const DefaultTimeout = 30 * time.Second

const (
	// monitorsPath lists monitors in alerting states. group_states
	// narrows the listing to monitors that currently need attention.
	monitorsPath = "/api/v1/monitor?group_states=Alert,Warn"

	// logsPath is the v1 log search endpoint.
	logsPath = "/api/v1/logs-queries/list"
)

// MonitorsClient lists the monitors currently alerting or warning.
type MonitorsClient interface {
	ListMonitors(ctx context.Context) ([]schema.Monitor, error)
}

// LogsClient searches log events.
type LogsClient interface {
	SearchLogs(ctx context.Context, q LogQuery) ([]schema.LogEntry, error)
}

// LogQuery is one log search request.
type LogQuery struct {
	Query string
	From  string
	To    string
	Limit int
}

// Config holds the HTTP client settings.
type Config struct {
	APIKey string
	AppKey string
	// Site selects the Datadog region, e.g. "datadoghq.com" or
	// "datadoghq.eu". Empty means DefaultSite.
	Site string
	// BaseURL overrides the Site-derived endpoint when set (tests).
	BaseURL string
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Client talks to the Datadog v1 API. It implements MonitorsClient and
// LogsClient and is safe for concurrent use.
type Client struct {
	apiKey  string
	appKey  string
	baseURL string
	http    *http.Client
}

// NewClient builds a v1 API client from cfg.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		site := cfg.Site
		if site == "" {
			site = DefaultSite
		}
		base = "https://api." + site
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		apiKey:  cfg.APIKey,
		appKey:  cfg.AppKey,
		baseURL: strings.TrimSuffix(base, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ListMonitors fetches monitors in Alert or Warn state.
func (c *Client) ListMonitors(ctx context.Context) ([]schema.Monitor, error) {
	body, err := c.do(ctx, http.MethodGet, monitorsPath, nil)
	if err != nil {
		return nil, err
	}

	var monitors []schema.Monitor
	if err := json.Unmarshal(body, &monitors); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return monitors, nil
}

// logsRequest is the wire body of a v1 log search.
type logsRequest struct {
	Query string        `json:"query"`
	Time  logsTimeRange `json:"time"`
	Limit int           `json:"limit"`
}

type logsTimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SearchLogs runs one log search and normalizes the response shape.
func (c *Client) SearchLogs(ctx context.Context, q LogQuery) ([]schema.LogEntry, error) {
	payload, err := json.Marshal(logsRequest{
		Query: q.Query,
		Time:  logsTimeRange{From: q.From, To: q.To},
		Limit: q.Limit,
	})
	if err != nil {
		return nil, &RequestError{Detail: "encode log query: " + err.Error()}
	}

	body, err := c.do(ctx, http.MethodPost, logsPath, payload)
	if err != nil {
		return nil, err
	}

	var list schema.LogList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return list.Entries, nil
}

// do performs one authenticated request and returns the 200 body.
// Non-200 statuses and transport failures come back classified.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &RequestError{Detail: err.Error()}
	}
	req.Header.Set("DD-API-KEY", c.apiKey)
	req.Header.Set("DD-APPLICATION-KEY", c.appKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyStatus(resp.StatusCode, resp.Header, body)
	}
	return body, nil
}
