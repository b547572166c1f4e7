package workload

import (
	"testing"

	"github.com/hazyhaar/grcdesk/ticket"
)

func open(name string, p ticket.Priority, risk float64) *ticket.Ticket {
	return &ticket.Ticket{
		ID:             "T-" + name,
		Title:          "work for " + name,
		AssignedToName: name,
		Priority:       p,
		State:          ticket.StateOpen,
		RiskScore:      risk,
	}
}

func TestAnalyzeLoadScore(t *testing.T) {
	tickets := []*ticket.Ticket{
		open("Alice", ticket.PriorityCritical, 8), // 1 + 2 + 0.8 = 3.8
		open("Alice", ticket.PriorityHigh, 5),     // 1 + 1 + 0.5 = 2.5
		open("Alice", ticket.PriorityLow, 2),      // 1 + 0 + 0.2 = 1.2
	}
	agents := Analyze(tickets)
	if len(agents) != 1 {
		t.Fatalf("agents = %d, want 1", len(agents))
	}
	a := agents[0]
	if a.LoadScore != 7.5 {
		t.Errorf("LoadScore = %v, want 7.5", a.LoadScore)
	}
	if a.ActiveTickets != 3 {
		t.Errorf("ActiveTickets = %d, want 3", a.ActiveTickets)
	}
	if a.RiskLoad != 15 {
		t.Errorf("RiskLoad = %v, want 15", a.RiskLoad)
	}
}

func TestAnalyzeExcludesUnassigned(t *testing.T) {
	tickets := []*ticket.Ticket{
		open("Alice", ticket.PriorityLow, 1),
		open(ticket.Unassigned, ticket.PriorityCritical, 9),
		open("unassigned", ticket.PriorityCritical, 9),
	}
	agents := Analyze(tickets)
	if len(agents) != 1 || agents[0].Name != "Alice" {
		t.Fatalf("agents = %+v, want only Alice", agents)
	}
}

func TestAnalyzeEfficiencyRecurrence(t *testing.T) {
	closed := func(hours float64) *ticket.Ticket {
		tk := open("Bob", ticket.PriorityLow, 1)
		tk.State = ticket.StateClosed
		tk.DurationHours = hours
		return tk
	}
	agents := Analyze([]*ticket.Ticket{closed(10), closed(20)})
	// (0+10)/2 = 5, then (5+20)/2 = 12.5 — smoothing, not a mean.
	if agents[0].Efficiency != 12.5 {
		t.Fatalf("Efficiency = %v, want 12.5", agents[0].Efficiency)
	}
	if agents[0].ActiveTickets != 0 {
		t.Fatalf("closed tickets must not count as active")
	}
}

func TestAnalyzeStatusClassification(t *testing.T) {
	var tickets []*ticket.Ticket
	// Heavy: five critical high-risk tickets. Light: one low ticket.
	for i := 0; i < 5; i++ {
		tickets = append(tickets, open("Heavy", ticket.PriorityCritical, 9))
	}
	tickets = append(tickets, open("Light", ticket.PriorityLow, 1))
	tickets = append(tickets, open("Mid", ticket.PriorityHigh, 5), open("Mid", ticket.PriorityHigh, 5))

	byName := map[string]Status{}
	for _, a := range Analyze(tickets) {
		byName[a.Name] = a.Status
	}
	if byName["Heavy"] != StatusOverloaded {
		t.Errorf("Heavy = %s, want Overloaded", byName["Heavy"])
	}
	if byName["Light"] != StatusUnderutilized {
		t.Errorf("Light = %s, want Underutilized", byName["Light"])
	}
	if byName["Mid"] != StatusBalanced {
		t.Errorf("Mid = %s, want Balanced", byName["Mid"])
	}
}

func TestAnalyzeSingleAgentBalanced(t *testing.T) {
	// With one agent, variance is zero; the stddev guard keeps the agent
	// inside the balanced band.
	agents := Analyze([]*ticket.Ticket{open("Solo", ticket.PriorityHigh, 5)})
	if agents[0].Status != StatusBalanced {
		t.Fatalf("Status = %s, want Balanced", agents[0].Status)
	}
}

func TestBurnoutScore(t *testing.T) {
	var tickets []*ticket.Ticket
	for i := 0; i < 15; i++ {
		tickets = append(tickets, open("Max", ticket.PriorityCritical, 10))
	}
	tickets = append(tickets, open("Calm", ticket.PriorityLow, 0))

	for _, a := range Analyze(tickets) {
		switch a.Name {
		case "Max":
			// Both factors saturate: 0.4 + 0.6 = 100.
			if a.BurnoutScore != 100 {
				t.Errorf("Max burnout = %d, want 100", a.BurnoutScore)
			}
		case "Calm":
			// vol 1/15, risk 0: round(100 * 0.4/15) = 3.
			if a.BurnoutScore != 3 {
				t.Errorf("Calm burnout = %d, want 3", a.BurnoutScore)
			}
		}
	}
}

func TestSuggestRebalancing(t *testing.T) {
	var tickets []*ticket.Ticket
	for i := 0; i < 4; i++ {
		tickets = append(tickets, open("Heavy", ticket.PriorityCritical, 9))
	}
	lowA := open("Heavy", ticket.PriorityLow, 2)
	lowA.ID = "T-low-a"
	lowB := open("Heavy", ticket.PriorityModerate, 4)
	lowB.ID = "T-low-b"
	lowC := open("Heavy", ticket.PriorityLow, 5)
	lowC.ID = "T-low-c"
	tickets = append(tickets, lowB, lowA, lowC)
	tickets = append(tickets, open("Light", ticket.PriorityLow, 1))

	agents := Analyze(tickets)
	moves := SuggestRebalancing(tickets, agents)

	if len(moves) != 2 {
		t.Fatalf("moves = %d, want 2: %+v", len(moves), moves)
	}
	// Ascending risk: the 2-risk ticket moves first, then the 4-risk one.
	if moves[0].TicketID != "T-low-a" || moves[1].TicketID != "T-low-b" {
		t.Errorf("move order = %s, %s", moves[0].TicketID, moves[1].TicketID)
	}
	for _, m := range moves {
		if m.CurrentAgent != "Heavy" || m.SuggestedAgent != "Light" {
			t.Errorf("move %+v, want Heavy -> Light", m)
		}
	}
}

func TestSuggestRebalancingNoOverloaded(t *testing.T) {
	tickets := []*ticket.Ticket{
		open("A", ticket.PriorityLow, 2),
		open("B", ticket.PriorityLow, 2),
	}
	agents := Analyze(tickets)
	if moves := SuggestRebalancing(tickets, agents); moves != nil {
		t.Fatalf("moves = %+v, want none", moves)
	}
}

func TestSuggestRebalancingRoundRobinTargets(t *testing.T) {
	var tickets []*ticket.Ticket
	for i := 0; i < 6; i++ {
		tickets = append(tickets, open("Heavy", ticket.PriorityCritical, 9))
	}
	m1 := open("Heavy", ticket.PriorityLow, 1)
	m1.ID = "T-m1"
	m2 := open("Heavy", ticket.PriorityLow, 2)
	m2.ID = "T-m2"
	tickets = append(tickets, m1, m2)
	tickets = append(tickets, open("LightA", ticket.PriorityLow, 1))
	tickets = append(tickets, open("LightB", ticket.PriorityLow, 1))

	agents := Analyze(tickets)
	moves := SuggestRebalancing(tickets, agents)
	if len(moves) != 2 {
		t.Fatalf("moves = %d, want 2", len(moves))
	}
	if moves[0].SuggestedAgent == moves[1].SuggestedAgent {
		t.Errorf("targets should alternate, both went to %s", moves[0].SuggestedAgent)
	}
}

func TestApplyMoveRoundTrip(t *testing.T) {
	var tickets []*ticket.Ticket
	for i := 0; i < 5; i++ {
		tickets = append(tickets, open("Heavy", ticket.PriorityCritical, 9))
	}
	mv := open("Heavy", ticket.PriorityLow, 2)
	mv.ID = "T-move"
	tickets = append(tickets, mv)
	tickets = append(tickets, open("Light", ticket.PriorityLow, 1))

	agents := Analyze(tickets)
	moves := SuggestRebalancing(tickets, agents)
	if len(moves) == 0 {
		t.Fatal("expected at least one move")
	}
	if !ApplyMove(tickets, moves[0]) {
		t.Fatal("ApplyMove did not find the ticket")
	}

	before := agentByName(t, agents, "Light").ActiveTickets
	after := agentByName(t, Analyze(tickets), "Light").ActiveTickets
	if after != before+1 {
		t.Errorf("Light active = %d after move, want %d", after, before+1)
	}
}

func agentByName(t *testing.T, agents []*Agent, name string) *Agent {
	t.Helper()
	for _, a := range agents {
		if a.Name == name {
			return a
		}
	}
	t.Fatalf("agent %s not found", name)
	return nil
}
