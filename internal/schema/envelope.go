// Package schema defines the data model shared by the dispatcher and
// the Datadog clients: the result envelope, the normalized alert and
// log records, and the total query parser.
package schema

import (
	"encoding/json"
	"fmt"
)

// Envelope statuses. Every dispatch produces exactly one envelope and
// its status is always one of these two values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the single result shape the dispatcher returns.
//
// Count is a pointer so that record-bearing success envelopes always
// serialize it, including count 0, while message-only envelopes omit
// it entirely. Data holds an ordered record slice and is never nil on
// record-bearing envelopes, so an empty result serializes as [].
type Envelope struct {
	Status  string `json:"status"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Success returns a record-bearing success envelope.
func Success(count int, data any) Envelope {
	return Envelope{Status: StatusSuccess, Count: &count, Data: data}
}

// Info returns a success envelope that carries a message instead of
// records (unrecognized actions, unimplemented actions).
func Info(message string) Envelope {
	return Envelope{Status: StatusSuccess, Message: message}
}

// Errorf returns an error envelope with a formatted message.
func Errorf(format string, args ...any) Envelope {
	return Envelope{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// IsError reports whether the envelope carries an error status.
func (e Envelope) IsError() bool {
	return e.Status == StatusError
}

// JSON renders the envelope for transport. Record slices are plain
// structs, so encoding cannot fail; if it ever does, a static error
// frame is returned instead of panicking.
func (e Envelope) JSON() string {
	b, err := json.Marshal(e)
	if err != nil {
		return `{"status":"error","message":"result envelope could not be encoded"}`
	}
	return string(b)
}
