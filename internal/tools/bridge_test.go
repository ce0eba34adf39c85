package tools

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sreloop/datadog-mcp/internal/audit"
	"github.com/sreloop/datadog-mcp/internal/datadog"
	"github.com/sreloop/datadog-mcp/internal/schema"
)

// newTestJournal opens an audit store in a temp dir.
func newTestJournal(t *testing.T) *audit.Store {
	t.Helper()
	store, err := audit.New(t.TempDir())
	if err != nil {
		t.Fatalf("open audit store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// recordingObserver captures dispatch notifications for assertions.
type recordingObserver struct {
	mu      sync.Mutex
	actions []string
	envs    []schema.Envelope
	elapsed []time.Duration
}

func (r *recordingObserver) OnDispatch(action string, env schema.Envelope, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
	r.envs = append(r.envs, env)
	r.elapsed = append(r.elapsed, elapsed)
}

func TestAuditBridge_RecordsSuccess(t *testing.T) {
	store := newTestJournal(t)
	bridge := NewAuditBridge(store)

	bridge.OnDispatch("get_monitors", schema.Success(3, []schema.AlertRecord{}), 25*time.Millisecond)

	rows, err := store.Recent("", 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Action != "get_monitors" {
		t.Errorf("action = %q, want get_monitors", rows[0].Action)
	}
	if rows[0].Status != "success" {
		t.Errorf("status = %q, want success", rows[0].Status)
	}
	if rows[0].Count != 3 {
		t.Errorf("count = %d, want 3", rows[0].Count)
	}
	if rows[0].DurationMS != 25 {
		t.Errorf("duration = %dms, want 25", rows[0].DurationMS)
	}
}

func TestAuditBridge_RecordsErrorMessage(t *testing.T) {
	store := newTestJournal(t)
	bridge := NewAuditBridge(store)

	bridge.OnDispatch("get_logs", schema.Errorf("Failed to fetch logs: rate limited"), time.Millisecond)

	rows, err := store.Recent("", 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Status != "error" {
		t.Errorf("status = %q, want error", rows[0].Status)
	}
	if rows[0].Count != 0 {
		t.Errorf("count = %d, want 0 for a message-only envelope", rows[0].Count)
	}
	if !strings.Contains(rows[0].Message, "rate limited") {
		t.Errorf("message should be preserved: %q", rows[0].Message)
	}
}

func TestAuditBridge_NilStore(t *testing.T) {
	if bridge := NewAuditBridge(nil); bridge != nil {
		t.Error("nil store should yield a nil bridge")
	}
}

func TestAuditBridge_ClosedStoreDoesNotPropagate(t *testing.T) {
	store := newTestJournal(t)
	bridge := NewAuditBridge(store)
	_ = store.Close()

	// Must log a warning and swallow the failure, never panic.
	bridge.OnDispatch("get_monitors", schema.Success(1, []schema.AlertRecord{}), time.Millisecond)
}

func TestNotifyObserver_NilObserver(t *testing.T) {
	notifyObserver(nil, "get_monitors", schema.Success(0, []schema.AlertRecord{}), 0)
}

func TestDatadogTool_Handle_NotifiesBridge(t *testing.T) {
	tool, monitors, _ := newQueryTool()
	monitors.ReturnList(monitorPair())

	obs := &recordingObserver{}
	tool.SetBridge(obs)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"query": `{"action":"get_monitors"}`,
	}

	if _, err := tool.Handle(context.Background(), req); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if len(obs.actions) != 1 {
		t.Fatalf("observer saw %d dispatches, want 1", len(obs.actions))
	}
	if obs.actions[0] != "get_monitors" {
		t.Errorf("observed action = %q, want get_monitors", obs.actions[0])
	}
	if obs.envs[0].IsError() {
		t.Errorf("observed envelope should be the success result: %s", obs.envs[0].JSON())
	}
	if obs.elapsed[0] < 0 {
		t.Errorf("elapsed must be non-negative, got %v", obs.elapsed[0])
	}
}

func TestDatadogTool_Handle_NotifiesBridgeOnFault(t *testing.T) {
	tool, monitors, _ := newQueryTool()
	monitors.Fail(&datadog.AvailabilityError{Status: 503})

	obs := &recordingObserver{}
	tool.SetBridge(obs)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"query": `{"action":"get_monitors"}`,
	}

	if _, err := tool.Handle(context.Background(), req); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if len(obs.envs) != 1 || !obs.envs[0].IsError() {
		t.Fatal("observer should see the error envelope")
	}
}

func TestDatadogTool_Handle_JournalEndToEnd(t *testing.T) {
	store := newTestJournal(t)

	tool, monitors, _ := newQueryTool()
	monitors.ReturnList(monitorPair())
	tool.SetBridge(NewAuditBridge(store))

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"query": `{"action":"get_monitors","priority":"P1"}`,
	}

	if _, err := tool.Handle(context.Background(), req); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	rows, err := store.Recent("get_monitors", 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d journal rows, want 1", len(rows))
	}
	if rows[0].Count != 1 {
		t.Errorf("journaled count = %d, want 1", rows[0].Count)
	}
	if rows[0].Status != "success" {
		t.Errorf("journaled status = %q, want success", rows[0].Status)
	}
}
