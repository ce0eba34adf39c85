// Package resources implements MCP resource handlers for the Datadog
// adapter.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (datadog://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sreloop/datadog-mcp/internal/audit"
)

// AuditStatusURI addresses the aggregate dispatch counters.
const AuditStatusURI = "datadog://audit/status"

// Handler manages the adapter's resource endpoints.
type Handler struct {
	journal *audit.Store
}

// NewHandler creates a resource Handler over the audit journal.
func NewHandler(journal *audit.Store) *Handler {
	return &Handler{journal: journal}
}

// AuditStatusResource returns the MCP resource definition for the
// dispatch audit counters.
func (h *Handler) AuditStatusResource() mcp.Resource {
	return mcp.NewResource(
		AuditStatusURI,
		"Datadog Dispatch Audit",
		mcp.WithResourceDescription("Aggregate counters for dispatched Datadog queries"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleAuditStatus returns the journal's aggregate counters as JSON.
func (h *Handler) HandleAuditStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.journal.Stats()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling audit status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
