package workload

import (
	"fmt"
	"sort"

	"github.com/hazyhaar/grcdesk/ticket"
)

// movesPerAgent caps how many tickets one overloaded agent sheds in a
// single proposal.
const movesPerAgent = 2

// Move is one proposed reassignment. Proposals are advisory; applying
// one is a separate explicit step.
type Move struct {
	TicketID       string `json:"ticketId"`
	TicketTitle    string `json:"ticketTitle"`
	CurrentAgent   string `json:"currentAgent"`
	SuggestedAgent string `json:"suggestedAgent"`
	Reason         string `json:"reason"`
}

// SuggestRebalancing proposes moving low-risk open tickets from
// overloaded agents to underutilized ones, falling back to the
// lightest-loaded balanced agents when nobody is underutilized. Targets
// cycle round-robin across the whole proposal.
func SuggestRebalancing(tickets []*ticket.Ticket, agents []*Agent) []Move {
	var overloaded, targets []*Agent
	for _, a := range agents {
		switch a.Status {
		case StatusOverloaded:
			overloaded = append(overloaded, a)
		case StatusUnderutilized:
			targets = append(targets, a)
		}
	}
	if len(targets) == 0 {
		for _, a := range agents {
			if a.Status == StatusBalanced {
				targets = append(targets, a)
			}
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].LoadScore < targets[j].LoadScore })

	if len(overloaded) == 0 || len(targets) == 0 {
		return nil
	}

	var moves []Move
	targetIndex := 0

	for _, src := range overloaded {
		var movable []*ticket.Ticket
		for _, t := range tickets {
			if t.AssignedToName == src.Name && t.Active() &&
				t.Priority != ticket.PriorityCritical && t.RiskScore < 7 {
				movable = append(movable, t)
			}
		}
		sort.Slice(movable, func(i, j int) bool { return movable[i].RiskScore < movable[j].RiskScore })

		if len(movable) > movesPerAgent {
			movable = movable[:movesPerAgent]
		}

		for _, t := range movable {
			dst := targets[targetIndex]
			moves = append(moves, Move{
				TicketID:       t.ID,
				TicketTitle:    t.Title,
				CurrentAgent:   src.Name,
				SuggestedAgent: dst.Name,
				Reason:         fmt.Sprintf("Rebalance: move low-risk (%.1f) item from overloaded agent.", t.RiskScore),
			})
			targetIndex = (targetIndex + 1) % len(targets)
		}
	}

	return moves
}

// ApplyMove mutates the ticket's assignment in place. Callers are
// expected to re-run Analyze afterwards so load classifications reflect
// the new assignment.
func ApplyMove(tickets []*ticket.Ticket, m Move) bool {
	for _, t := range tickets {
		if t.ID == m.TicketID {
			t.AssignedToName = m.SuggestedAgent
			return true
		}
	}
	return false
}
