package tools

import (
	"log"
	"time"

	"github.com/sreloop/datadog-mcp/internal/audit"
	"github.com/sreloop/datadog-mcp/internal/schema"
)

// Observer is notified after each dispatch completes. It is optional:
// the tool works fine with a nil observer.
type Observer interface {
	// OnDispatch is called once per dispatch with the routed action,
	// the envelope that was returned to the caller, and the handler
	// latency.
	OnDispatch(action string, env schema.Envelope, elapsed time.Duration)
}

// AuditBridge mirrors dispatch outcomes to the audit journal so
// operators can review what the agent asked Datadog and what came
// back, without ever touching the query path.
type AuditBridge struct {
	store *audit.Store
}

// NewAuditBridge creates a bridge over the journal. Returns nil when
// store is nil; check for nil before assigning the result to an
// Observer variable.
func NewAuditBridge(store *audit.Store) *AuditBridge {
	if store == nil {
		return nil
	}
	return &AuditBridge{store: store}
}

// OnDispatch journals one dispatch outcome.
//
// This method is best-effort: journal failures are logged but don't
// propagate, because answering the query is the primary concern.
func (b *AuditBridge) OnDispatch(action string, env schema.Envelope, elapsed time.Duration) {
	count := 0
	if env.Count != nil {
		count = *env.Count
	}

	_, err := b.store.Record(audit.Entry{
		Action:   action,
		Status:   env.Status,
		Count:    count,
		Message:  env.Message,
		Duration: elapsed,
	})
	if err != nil {
		log.Printf("WARNING: audit bridge: record %s dispatch: %v", action, err)
	}
}

// notifyObserver is a nil-safe helper called from Handle methods.
// If observer is nil, this is a no-op.
func notifyObserver(obs Observer, action string, env schema.Envelope, elapsed time.Duration) {
	if obs == nil {
		return
	}
	obs.OnDispatch(action, env, elapsed)
}
