// Package ticket defines the service-desk ticket record and its enumerations.
//
// A Ticket is created by ingestion with computed fields at zero values and
// enriched in place by the analysis pipeline. Enrichment fields are written
// exactly once per pass and overwritten wholesale on reprocessing.
package ticket

import (
	"strings"
	"time"
)

// Priority is the ticket urgency level.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityModerate Priority = "Moderate"
	PriorityLow      Priority = "Low"
)

// State is the ticket lifecycle state.
type State string

const (
	StateOpen       State = "Open"
	StateInProgress State = "In Progress"
	StateResolved   State = "Resolved"
	StateClosed     State = "Closed"
)

// ComplianceStatus is the verdict of the compliance check.
type ComplianceStatus string

const (
	Compliant    ComplianceStatus = "Compliant"
	NonCompliant ComplianceStatus = "Non-Compliant"
)

// Unassigned is the sentinel assignee name. Tickets carrying it are excluded
// from all agent load calculations.
const Unassigned = "Unassigned"

// Entities holds deduplicated strings extracted from ticket text.
type Entities struct {
	ErrorCodes  []string `json:"error_codes"`
	SystemNames []string `json:"system_names"`
	UserIDs     []string `json:"user_ids"`
}

// SentimentEvaluation is the detailed sentiment result for a ticket.
type SentimentEvaluation struct {
	Score      float64 `json:"score"` // -1..1
	Label      string  `json:"label"` // Positive, Negative, Neutral
	Confidence float64 `json:"confidence"`
}

// Ticket is one service-desk record plus its analytical overlay.
type Ticket struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	AssignedTo     string `json:"assigned_to"`
	AssignedToName string `json:"assigned_to_name"`

	Priority Priority `json:"priority"`
	State    State    `json:"state"`

	CreatedDate   time.Time  `json:"created_date"`
	ClosedDate    *time.Time `json:"closed_date,omitempty"`
	DurationHours float64    `json:"duration_hours"`

	// Category is the current label (pipeline-assigned or user-corrected).
	// OriginalCategory is the immutable snapshot from the source data.
	Category         string `json:"category"`
	OriginalCategory string `json:"original_category"`
	SubCategory      string `json:"sub_category"`

	// Computed GRC fields, written by the enrichment pipeline.
	RiskScore        float64          `json:"risk_score"`
	ComplianceStatus ComplianceStatus `json:"compliance_status"`
	ComplianceReason string           `json:"compliance_reason,omitempty"`

	SentimentScore      float64             `json:"sentiment_score"`
	SentimentEvaluation SentimentEvaluation `json:"sentiment_evaluation"`
	ExtractedEntities   Entities            `json:"extracted_entities"`
	IsAnomaly           bool                `json:"is_anomaly"`

	RiskVelocity    float64 `json:"risk_velocity"`
	PredictedBreach bool    `json:"predicted_breach"`
	HoursToBreach   float64 `json:"hours_to_breach"`
}

// Active reports whether the ticket still contributes to agent load.
func (t *Ticket) Active() bool {
	return t.State != StateClosed && t.State != StateResolved
}

// IsUnassigned reports whether the ticket carries the Unassigned sentinel.
func (t *Ticket) IsUnassigned() bool {
	return strings.EqualFold(t.AssignedToName, Unassigned)
}

// ParsePriority maps a free-form priority string from source data to a
// Priority. Unrecognised values default to Low.
func ParsePriority(raw string) Priority {
	p := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(p, "crit") || strings.HasPrefix(p, "1"):
		return PriorityCritical
	case strings.Contains(p, "high") || strings.HasPrefix(p, "2"):
		return PriorityHigh
	case strings.Contains(p, "mod") || strings.Contains(p, "med") || strings.HasPrefix(p, "3"):
		return PriorityModerate
	default:
		return PriorityLow
	}
}

// ParseState maps a free-form state string from source data to a State.
// Unrecognised values default to Open.
func ParseState(raw string) State {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, "clo") || strings.Contains(s, "complete"):
		return StateClosed
	case strings.Contains(s, "res"):
		return StateResolved
	case strings.Contains(s, "prog") || strings.Contains(s, "working") || strings.Contains(s, "pend"):
		return StateInProgress
	default:
		return StateOpen
	}
}
