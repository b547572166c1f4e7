// Package workload aggregates per-agent load from a fully-enriched
// ticket snapshot and classifies agents statistically.
//
// Agents are derived wholesale on every analysis and never persisted on
// their own. Load classification compares each agent's load score to the
// population mean at half a standard deviation; the burnout index blends
// ticket volume and accumulated risk into a 0..100 composite.
package workload

import (
	"math"
	"sort"
	"strings"

	"github.com/hazyhaar/grcdesk/ticket"
)

// Status classifies an agent's load relative to the team.
type Status string

const (
	StatusUnderutilized Status = "Underutilized"
	StatusBalanced      Status = "Balanced"
	StatusOverloaded    Status = "Overloaded"
)

// Reference ceilings for the burnout composite. A full plate is around
// fifteen active tickets; a cumulative risk load of eighty is saturation.
const (
	burnoutMaxActive   = 15.0
	burnoutMaxRiskLoad = 80.0
)

// Agent is the aggregated view of one assignee.
type Agent struct {
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	ActiveTickets int     `json:"activeTickets"`
	LoadScore     float64 `json:"loadScore"`
	RiskLoad      float64 `json:"riskLoad"`
	Efficiency    float64 `json:"efficiency"`
	BurnoutScore  int     `json:"burnoutScore"`
	Status        Status  `json:"status"`
}

// Analyze aggregates the ticket set into per-agent workload records,
// sorted by name for stable output. The "Unassigned" sentinel carries no
// load and produces no agent.
func Analyze(tickets []*ticket.Ticket) []*Agent {
	byName := make(map[string]*Agent)

	get := func(name string) *Agent {
		a, ok := byName[name]
		if !ok {
			a = &Agent{Name: name, Role: "Support Engineer", Status: StatusBalanced}
			byName[name] = a
		}
		return a
	}

	for _, t := range tickets {
		name := t.AssignedToName
		if strings.EqualFold(name, ticket.Unassigned) || name == "" {
			continue
		}
		a := get(name)

		if !t.Active() {
			// Closed work feeds the resolution-speed rolling average.
			a.Efficiency = (a.Efficiency + t.DurationHours) / 2
			continue
		}

		a.ActiveTickets++
		a.RiskLoad += t.RiskScore

		var priorityAddon float64
		switch t.Priority {
		case ticket.PriorityCritical:
			priorityAddon = 2
		case ticket.PriorityHigh:
			priorityAddon = 1
		}
		a.LoadScore += 1.0 + priorityAddon + t.RiskScore/10
	}

	agents := make([]*Agent, 0, len(byName))
	for _, a := range byName {
		agents = append(agents, a)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })

	mean, stddev := loadStats(agents)

	for _, a := range agents {
		switch {
		case a.LoadScore > mean+0.5*stddev:
			a.Status = StatusOverloaded
		case a.LoadScore < mean-0.5*stddev:
			a.Status = StatusUnderutilized
		default:
			a.Status = StatusBalanced
		}

		a.LoadScore = math.Round(a.LoadScore*100) / 100

		volFactor := math.Min(float64(a.ActiveTickets)/burnoutMaxActive, 1)
		riskFactor := math.Min(a.RiskLoad/burnoutMaxRiskLoad, 1)
		a.BurnoutScore = int(math.Round((volFactor*0.4 + riskFactor*0.6) * 100))
	}

	return agents
}

func loadStats(agents []*Agent) (mean, stddev float64) {
	if len(agents) == 0 {
		return 0, 1
	}
	var total float64
	for _, a := range agents {
		total += a.LoadScore
	}
	mean = total / float64(len(agents))

	var variance float64
	for _, a := range agents {
		variance += (a.LoadScore - mean) * (a.LoadScore - mean)
	}
	variance /= float64(len(agents))

	stddev = math.Sqrt(variance)
	if stddev == 0 {
		stddev = 1
	}
	return mean, stddev
}
