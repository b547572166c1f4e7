package ticket

import "strings"

// FilterCriteria narrows a ticket list. Zero values mean "no
// constraint"; slice fields match any listed value.
type FilterCriteria struct {
	MinRisk          float64          `json:"minRisk,omitempty"`
	Priority         []Priority       `json:"priority,omitempty"`
	State            []State          `json:"state,omitempty"`
	Compliance       ComplianceStatus `json:"compliance,omitempty"`
	Category         string           `json:"category,omitempty"`
	OriginalCategory string           `json:"originalCategory,omitempty"`
	SearchQuery      string           `json:"searchQuery,omitempty"`
}

// Matches reports whether the ticket satisfies every set criterion.
func (f *FilterCriteria) Matches(t *Ticket) bool {
	if t.RiskScore < f.MinRisk {
		return false
	}
	if len(f.Priority) > 0 && !containsPriority(f.Priority, t.Priority) {
		return false
	}
	if len(f.State) > 0 && !containsState(f.State, t.State) {
		return false
	}
	if f.Compliance != "" && t.ComplianceStatus != f.Compliance {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if f.OriginalCategory != "" && !strings.EqualFold(t.OriginalCategory, f.OriginalCategory) {
		return false
	}
	if f.SearchQuery != "" {
		q := strings.ToLower(f.SearchQuery)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

// Filter returns the tickets matching the criteria, preserving order.
func (f *FilterCriteria) Filter(tickets []*Ticket) []*Ticket {
	var out []*Ticket
	for _, t := range tickets {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

func containsPriority(list []Priority, p Priority) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

func containsState(list []State, s State) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
