package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Monitor is the wire shape of a Datadog v1 monitor as returned by
// GET /api/v1/monitor. Priority comes back as a number or null; null
// decodes to zero, which renders as an empty label.
type Monitor struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Message      string   `json:"message"`
	Priority     int      `json:"priority"`
	OverallState string   `json:"overall_state"`
	Tags         []string `json:"tags"`
	Created      string   `json:"created"`
	Query        string   `json:"query"`
	Type         string   `json:"type"`
}

// AlertRecord is the envelope data shape for one monitor: normalized
// fields, a "P<n>" priority label, and a never-nil tag slice.
type AlertRecord struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Message  string   `json:"message"`
	Priority string   `json:"priority"`
	State    string   `json:"state"`
	Tags     []string `json:"tags"`
	Created  string   `json:"created"`
	Query    string   `json:"query"`
}

// NewAlertRecord converts a wire monitor into its envelope form.
func NewAlertRecord(m Monitor) AlertRecord {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return AlertRecord{
		ID:       m.ID,
		Name:     m.Name,
		Message:  m.Message,
		Priority: PriorityLabel(m.Priority),
		State:    m.OverallState,
		Tags:     tags,
		Created:  m.Created,
		Query:    m.Query,
	}
}

// PriorityLabel renders a numeric monitor priority as "P<n>".
// Zero or negative (unset) renders as the empty string.
func PriorityLabel(p int) string {
	if p <= 0 {
		return ""
	}
	return fmt.Sprintf("P%d", p)
}

// ParsePriority extracts the numeric priority from a label such as
// "P1", "p2" or "3". ok is false when the label carries no number.
func ParsePriority(label string) (int, bool) {
	s := strings.TrimSpace(label)
	s = strings.TrimPrefix(strings.ToUpper(s), "P")
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
