package score

import (
	"math"
	"testing"

	"github.com/hazyhaar/grcdesk/ticket"
)

func TestRiskBounds(t *testing.T) {
	// Worst case: Critical, >48h, every content signal present.
	worst := &ticket.Ticket{
		Priority:      ticket.PriorityCritical,
		DurationHours: 100,
		Description:   "l12345 financial integrity revenue restricted confidential access authorization",
	}
	if risk := Risk(worst); risk < 0 || risk > 10 {
		t.Fatalf("risk = %v, out of [0,10]", risk)
	}

	best := &ticket.Ticket{Priority: ticket.PriorityLow, Description: "all fine"}
	// 0.4*1 + 0.3*1 + 0.3*1 = 1.0
	if risk := Risk(best); risk != 1.0 {
		t.Fatalf("risk = %v, want 1.0", risk)
	}
}

func TestRiskWeights(t *testing.T) {
	tk := &ticket.Ticket{
		Priority:      ticket.PriorityHigh,
		DurationHours: 30,
		Description:   "quarterly review",
	}
	// 0.4*7 + 0.3*7 + 0.3*1 = 2.8 + 2.1 + 0.3 = 5.2
	if risk := Risk(tk); risk != 5.2 {
		t.Fatalf("risk = %v, want 5.2", risk)
	}
}

func TestRiskContentSignals(t *testing.T) {
	tk := &ticket.Ticket{
		Priority:      ticket.PriorityLow,
		DurationHours: 1,
		Description:   "control L12345 impacts financial integrity of restricted access data",
	}
	// C = 1 + 4 + 3 + 2 + 2 = 12; risk = 0.4 + 0.3 + 3.6 = 4.3
	if risk := Risk(tk); risk != 4.3 {
		t.Fatalf("risk = %v, want 4.3", risk)
	}
}

func TestRiskDeterministic(t *testing.T) {
	tk := &ticket.Ticket{
		Priority:      ticket.PriorityModerate,
		DurationHours: 12.5,
		Description:   "sso login loop",
	}
	first := Risk(tk)
	for range 10 {
		if got := Risk(tk); got != first {
			t.Fatalf("risk not deterministic: %v vs %v", got, first)
		}
	}
}

func TestComplianceCascadeOrder(t *testing.T) {
	// A ticket triggering rules 1 and 2 must report rule 1 only.
	tk := &ticket.Ticket{
		Title:          "SOD conflict on payments",
		Description:    "segregation of duties violated",
		Priority:       ticket.PriorityCritical,
		DurationHours:  72,
		AssignedToName: "Dana Fox",
	}
	status, reason := Compliance(tk)
	if status != ticket.NonCompliant || reason != ReasonSLABreach {
		t.Fatalf("got (%v, %q), want SLA breach first", status, reason)
	}
}

func TestComplianceEachRule(t *testing.T) {
	cases := []struct {
		name   string
		tk     ticket.Ticket
		reason string
	}{
		{
			name: "sod conflict",
			tk: ticket.Ticket{
				Title:       "review",
				Description: "possible segregation concern",
			},
			reason: ReasonSODConflict,
		},
		{
			name: "self assignment",
			tk: ticket.Ticket{
				Title:          "payment run",
				Description:    "please let dana fox approve her own change",
				AssignedToName: "Dana Fox",
			},
			reason: ReasonSelfAssignment,
		},
		{
			name: "missing access approval",
			tk: ticket.Ticket{
				Title:       "Access to WEBI folder",
				Description: "need it asap",
			},
			reason: ReasonMissingApproval,
		},
		{
			name: "missing role confirmation",
			tk: ticket.Ticket{
				Title:       "Control owner transfer",
				Description: "previous owner left the firm",
			},
			reason: ReasonMissingRoleConf,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, reason := Compliance(&tc.tk)
			if status != ticket.NonCompliant || reason != tc.reason {
				t.Fatalf("got (%v, %q), want %q", status, reason, tc.reason)
			}
		})
	}
}

func TestComplianceUsesCurrentCategory(t *testing.T) {
	// Category (not title) carries "access": the evidence check still fires.
	tk := &ticket.Ticket{
		Title:       "New starter setup",
		Category:    "SOX Control - Access Issue",
		Description: "grant folder rights",
	}
	status, reason := Compliance(tk)
	if status != ticket.NonCompliant || reason != ReasonMissingApproval {
		t.Fatalf("got (%v, %q)", status, reason)
	}

	// With approval evidence the same ticket is compliant.
	tk.Description = "grant folder rights, manager approval attached"
	if status, _ := Compliance(tk); status != ticket.Compliant {
		t.Fatalf("status = %v, want compliant", status)
	}
}

func TestComplianceCompliantDefault(t *testing.T) {
	tk := &ticket.Ticket{
		Title:          "Monitor flickers",
		Description:    "screen flickers on dock",
		AssignedToName: ticket.Unassigned,
	}
	status, reason := Compliance(tk)
	if status != ticket.Compliant || reason != "" {
		t.Fatalf("got (%v, %q), want compliant", status, reason)
	}
}

func TestPredictBreachVelocity(t *testing.T) {
	tk := &ticket.Ticket{Priority: ticket.PriorityCritical, RiskScore: 8}
	p := PredictBreach(tk)
	// 1.0 * 2.0 (critical) * 1.3 (risk>7) = 2.6
	if p.RiskVelocity != 2.6 {
		t.Fatalf("velocity = %v, want 2.6", p.RiskVelocity)
	}

	tk = &ticket.Ticket{Priority: ticket.PriorityHigh, RiskScore: 3}
	if p := PredictBreach(tk); p.RiskVelocity != 1.5 {
		t.Fatalf("velocity = %v, want 1.5", p.RiskVelocity)
	}
}

func TestPredictBreachBudget(t *testing.T) {
	// Critical, 40h old: remaining 8 < 12 baseline → breach predicted.
	tk := &ticket.Ticket{Priority: ticket.PriorityCritical, DurationHours: 40, RiskScore: 4}
	p := PredictBreach(tk)
	if !p.PredictedBreach {
		t.Fatal("expected breach prediction")
	}
	if p.HoursToBreach != 8 {
		t.Fatalf("hours to breach = %v, want 8", p.HoursToBreach)
	}

	// Low priority, fresh: 168h budget, no breach.
	tk = &ticket.Ticket{Priority: ticket.PriorityLow, DurationHours: 2, RiskScore: 1}
	p = PredictBreach(tk)
	if p.PredictedBreach {
		t.Fatal("unexpected breach prediction")
	}
	if p.HoursToBreach != 166 {
		t.Fatalf("hours to breach = %v, want 166", p.HoursToBreach)
	}
}

func TestPredictBreachHighRiskNeedsMoreTime(t *testing.T) {
	// High priority, 80h old: remaining 16. Risk 6 → estimated need 18 > 16.
	tk := &ticket.Ticket{Priority: ticket.PriorityHigh, DurationHours: 80, RiskScore: 6}
	if p := PredictBreach(tk); !p.PredictedBreach {
		t.Fatal("expected breach with 1.5x effort factor")
	}
	// Risk 4 → estimated need 12 < 16: no breach.
	tk.RiskScore = 4
	if p := PredictBreach(tk); p.PredictedBreach {
		t.Fatal("unexpected breach with baseline effort")
	}
}

func TestPredictBreachClampsNegativeRemaining(t *testing.T) {
	tk := &ticket.Ticket{Priority: ticket.PriorityCritical, DurationHours: 100, RiskScore: 9}
	p := PredictBreach(tk)
	if p.HoursToBreach != 0 {
		t.Fatalf("hours to breach = %v, want 0", p.HoursToBreach)
	}
	if math.Signbit(p.HoursToBreach) {
		t.Fatal("hours to breach must not be negative zero")
	}
}
