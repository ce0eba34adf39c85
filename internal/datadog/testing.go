package datadog

import (
	"context"
	"fmt"
	"sync"

	"github.com/sreloop/datadog-mcp/internal/schema"
)

// MonitorsMock is a programmable MonitorsClient for tests. Program it
// with canned monitors or a fault; it counts calls so suites can assert
// idempotence and concurrency behavior. A programmed error wins over
// canned records. Safe for concurrent use.
type MonitorsMock struct {
	mu       sync.Mutex
	monitors []schema.Monitor
	err      error
	calls    int
}

// Return programs the monitors the next calls will yield and clears
// any programmed fault.
func (m *MonitorsMock) Return(monitors ...schema.Monitor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.monitors = monitors
	m.err = nil
}

// ReturnList programs a prebuilt slice, keeping it intact.
func (m *MonitorsMock) ReturnList(monitors []schema.Monitor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.monitors = monitors
	m.err = nil
}

// Fail programs the fault the next calls will yield.
func (m *MonitorsMock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many times ListMonitors has been invoked.
func (m *MonitorsMock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ListMonitors yields the programmed monitors or fault.
func (m *MonitorsMock) ListMonitors(ctx context.Context) ([]schema.Monitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.monitors, nil
}

// LogsMock is a programmable LogsClient for tests. It records the last
// query so suites can assert defaults and overrides. Safe for
// concurrent use.
type LogsMock struct {
	mu      sync.Mutex
	entries []schema.LogEntry
	err     error
	calls   int
	last    LogQuery
}

// Return programs the entries the next calls will yield and clears any
// programmed fault.
func (l *LogsMock) Return(entries ...schema.LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	l.err = nil
}

// ReturnList programs a prebuilt slice, keeping it intact.
func (l *LogsMock) ReturnList(entries []schema.LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	l.err = nil
}

// Fail programs the fault the next calls will yield.
func (l *LogsMock) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

// Calls reports how many times SearchLogs has been invoked.
func (l *LogsMock) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// LastQuery returns the most recent search request.
func (l *LogsMock) LastQuery() LogQuery {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// SearchLogs yields the programmed entries or fault.
func (l *LogsMock) SearchLogs(ctx context.Context, q LogQuery) ([]schema.LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.last = q
	if l.err != nil {
		return nil, l.err
	}
	return l.entries, nil
}

// GenerateMonitors builds n distinct monitors for load and performance
// suites. Priorities cycle P1..P5 and tags alternate across a few
// services so filter assertions have material to work with.
func GenerateMonitors(n int) []schema.Monitor {
	services := []string{"checkout", "payments", "search", "inventory"}

	monitors := make([]schema.Monitor, n)
	for i := range monitors {
		monitors[i] = schema.Monitor{
			ID:           int64(i + 1),
			Name:         fmt.Sprintf("monitor-%d", i+1),
			Message:      fmt.Sprintf("threshold breached on replica %d", i%7),
			Priority:     i%5 + 1,
			OverallState: "Alert",
			Tags:         []string{"service:" + services[i%len(services)], "env:prod"},
			Created:      "2024-03-01T10:00:00Z",
			Query:        "avg(last_5m):avg:system.load.1{*} > 4",
		}
	}
	return monitors
}

// GenerateLogEntries builds n distinct log entries for load suites.
func GenerateLogEntries(n int) []schema.LogEntry {
	entries := make([]schema.LogEntry, n)
	for i := range entries {
		entries[i] = schema.LogEntry{
			ID:        fmt.Sprintf("AAAAA-%06d", i),
			Timestamp: "2024-03-01T10:00:00Z",
			Message:   fmt.Sprintf("request failed with code %d", 500+i%4),
			Status:    "error",
			Service:   "checkout",
			Host:      fmt.Sprintf("web-%d", i%12),
		}
	}
	return entries
}
