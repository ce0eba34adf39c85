package schema

import (
	"bytes"
	"encoding/json"
)

// LogEntry is the envelope data shape for one log event.
type LogEntry struct {
	ID        string `json:"id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
	Status    string `json:"status,omitempty"`
	Service   string `json:"service,omitempty"`
	Host      string `json:"host,omitempty"`
}

// logContent is the nested payload of the Datadog v1 log shape:
// {"id": ..., "content": {"timestamp": ..., "message": ...}}.
type logContent struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	Service   string `json:"service"`
	Host      string `json:"host"`
}

// UnmarshalJSON accepts both the flat entry shape and the nested v1
// "content" shape. Flat fields win when both are present.
func (e *LogEntry) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID        string      `json:"id"`
		Timestamp string      `json:"timestamp"`
		Message   string      `json:"message"`
		Status    string      `json:"status"`
		Service   string      `json:"service"`
		Host      string      `json:"host"`
		Content   *logContent `json:"content"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	e.ID = wire.ID
	e.Timestamp = wire.Timestamp
	e.Message = wire.Message
	e.Status = wire.Status
	e.Service = wire.Service
	e.Host = wire.Host

	if c := wire.Content; c != nil {
		if e.Timestamp == "" {
			e.Timestamp = c.Timestamp
		}
		if e.Message == "" {
			e.Message = c.Message
		}
		if e.Status == "" {
			e.Status = c.Status
		}
		if e.Service == "" {
			e.Service = c.Service
		}
		if e.Host == "" {
			e.Host = c.Host
		}
	}
	return nil
}

// LogList normalizes the shapes the logs endpoint may answer with:
// a bare array, {"logs": [...]}, or {"data": [...]}. Entries is never
// nil after a successful decode, so an empty response stays [].
type LogList struct {
	Entries []LogEntry
}

// UnmarshalJSON decodes any of the accepted list shapes, preserving
// record order.
func (l *LogList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &l.Entries); err != nil {
			return err
		}
	} else {
		var wrapper struct {
			Logs []LogEntry `json:"logs"`
			Data []LogEntry `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return err
		}
		if wrapper.Logs != nil {
			l.Entries = wrapper.Logs
		} else {
			l.Entries = wrapper.Data
		}
	}

	if l.Entries == nil {
		l.Entries = []LogEntry{}
	}
	return nil
}
