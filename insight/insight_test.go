package insight

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/grcdesk/ticket"
)

func TestNullAnalyst(t *testing.T) {
	a := Null()
	if _, err := a.AskData(context.Background(), "critical tickets"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("AskData err = %v, want ErrUnavailable", err)
	}
	if _, err := a.ExecutiveSummary(context.Background(), Stats{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ExecutiveSummary err = %v, want ErrUnavailable", err)
	}
	if _, err := a.Narrative(context.Background(), "why", nil); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Narrative err = %v, want ErrUnavailable", err)
	}
}

func TestNewWithoutKeyReturnsNull(t *testing.T) {
	a := New(Config{})
	if _, err := a.ExecutiveSummary(context.Background(), Stats{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"minRisk": 8}`, `{"minRisk": 8}`},
		{"```json\n{\"minRisk\": 8}\n```", `{"minRisk": 8}`},
		{"```\n{\"state\": [\"Open\"]}\n```", `{"state": ["Open"]}`},
		{"  {\"searchQuery\": \"outage\"}\n", `{"searchQuery": "outage"}`},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNarrativeContextTopByRisk(t *testing.T) {
	var tickets []*ticket.Ticket
	for i := 0; i < 30; i++ {
		tickets = append(tickets, &ticket.Ticket{
			ID:        ticketID(i),
			RiskScore: float64(i % 10),
		})
	}
	ctx := narrativeContext(tickets)
	if len(ctx) != narrativeContextSize {
		t.Fatalf("context size = %d, want %d", len(ctx), narrativeContextSize)
	}
	for i := 1; i < len(ctx); i++ {
		if ctx[i].Risk > ctx[i-1].Risk {
			t.Fatalf("context not sorted by risk descending at %d", i)
		}
	}
}

func ticketID(i int) string {
	return string(rune('A'+i%26)) + "-t"
}
