// Package insight produces natural-language analytics over enriched
// tickets through an LLM collaborator.
//
// Three operations are exposed: translating a free-text query into a
// structured ticket filter, a one-sentence executive summary, and a
// grounded narrative answer over the riskiest tickets in view. The
// collaborator is injectable; Null() serves deterministic placeholders
// so the rest of the system never depends on a live model.
package insight

import (
	"context"
	"errors"

	"github.com/hazyhaar/grcdesk/ticket"
)

// ErrUnavailable is returned when no LLM backend is configured or a
// call fails. Callers surface a placeholder message instead of blocking
// core scoring.
var ErrUnavailable = errors.New("insight: backend unavailable")

// Placeholder messages shown when the backend is unavailable.
const (
	SummaryUnavailable   = "AI summary unavailable."
	NarrativeUnavailable = "Unable to generate AI insights at this time."
)

// Stats feed the executive summary prompt.
type Stats struct {
	HighRiskCount     int
	NonCompliantCount int
	TopRiskCategory   string
}

// Analyst answers natural-language questions about the ticket corpus.
type Analyst interface {
	// AskData translates a free-text query into a ticket filter.
	AskData(ctx context.Context, query string) (*ticket.FilterCriteria, error)

	// ExecutiveSummary writes a one-sentence dashboard summary.
	ExecutiveSummary(ctx context.Context, stats Stats) (string, error)

	// Narrative answers a question grounded in the given tickets,
	// citing ticket IDs.
	Narrative(ctx context.Context, query string, tickets []*ticket.Ticket) (string, error)
}

// Null returns an Analyst that fails every call with ErrUnavailable.
func Null() Analyst {
	return nullAnalyst{}
}

type nullAnalyst struct{}

func (nullAnalyst) AskData(context.Context, string) (*ticket.FilterCriteria, error) {
	return nil, ErrUnavailable
}

func (nullAnalyst) ExecutiveSummary(context.Context, Stats) (string, error) {
	return "", ErrUnavailable
}

func (nullAnalyst) Narrative(context.Context, string, []*ticket.Ticket) (string, error) {
	return "", ErrUnavailable
}
