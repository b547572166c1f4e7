package score

import (
	"math"

	"github.com/hazyhaar/grcdesk/ticket"
)

// SLA budgets in hours by priority.
const (
	slaCritical = 48
	slaHigh     = 96
	slaDefault  = 168
)

// baselineEffortHours is the assumed remaining handling time for a ticket.
const baselineEffortHours = 12

// BreachProjection is the SLA breach forecast for one ticket.
type BreachProjection struct {
	RiskVelocity    float64 // rate of risk accumulation, 2 decimals
	PredictedBreach bool
	HoursToBreach   float64 // remaining SLA budget, clamped ≥0, 1 decimal
}

// PredictBreach projects whether the ticket will exceed its SLA budget.
// RiskScore must already be computed on the ticket.
func PredictBreach(t *ticket.Ticket) BreachProjection {
	velocity := 1.0
	if t.Priority == ticket.PriorityCritical {
		velocity *= 2.0
	}
	if t.Priority == ticket.PriorityHigh {
		velocity *= 1.5
	}
	if t.RiskScore > 7 {
		velocity *= 1.3
	}

	budget := float64(slaDefault)
	switch t.Priority {
	case ticket.PriorityCritical:
		budget = slaCritical
	case ticket.PriorityHigh:
		budget = slaHigh
	}

	remaining := budget - t.DurationHours

	// Complex tickets (risk > 5) are assumed to need 1.5x the baseline effort.
	estNeeded := float64(baselineEffortHours)
	if t.RiskScore > 5 {
		estNeeded *= 1.5
	}

	return BreachProjection{
		RiskVelocity:    math.Round(velocity*100) / 100,
		PredictedBreach: remaining < estNeeded,
		HoursToBreach:   math.Max(0, math.Round(remaining*10)/10),
	}
}
