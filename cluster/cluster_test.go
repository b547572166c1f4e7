package cluster

import (
	"testing"

	"github.com/hazyhaar/grcdesk/ticket"
)

func openTicket(id, title string) *ticket.Ticket {
	return &ticket.Ticket{ID: id, Title: title, State: ticket.StateOpen}
}

func TestDetectBasicCluster(t *testing.T) {
	tickets := []*ticket.Ticket{
		openTicket("T-1", "VPN connection dropped"),
		openTicket("T-2", "VPN not working"),
		openTicket("T-3", "Cannot connect to VPN"),
		openTicket("T-4", "Printer jam on floor 3"),
	}
	alerts := Detect(tickets)
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	a := alerts[0]
	if a.Topic != "vpn" || a.Count != 3 {
		t.Errorf("alert = %s/%d, want vpn/3", a.Topic, a.Count)
	}
	if a.Severity != SeverityMedium {
		t.Errorf("severity = %s, want Medium", a.Severity)
	}
	if len(a.ExampleTickets) != 3 {
		t.Errorf("examples = %d, want 3", len(a.ExampleTickets))
	}
}

func TestDetectSeverityTiers(t *testing.T) {
	mk := func(topic string, n int) []*ticket.Ticket {
		var out []*ticket.Ticket
		for i := 0; i < n; i++ {
			out = append(out, openTicket("T", topic+" is down"))
		}
		return out
	}

	var tickets []*ticket.Ticket
	tickets = append(tickets, mk("email", 10)...)
	tickets = append(tickets, mk("sharepoint", 5)...)
	tickets = append(tickets, mk("printer", 3)...)

	alerts := Detect(tickets)
	if len(alerts) != 3 {
		t.Fatalf("alerts = %d, want 3", len(alerts))
	}
	want := []struct {
		topic    string
		severity Severity
	}{
		{"down", SeverityCritical}, // shared by all 18
		{"email", SeverityCritical},
		{"sharepoint", SeverityHigh},
	}
	for i, w := range want {
		if alerts[i].Topic != w.topic || alerts[i].Severity != w.severity {
			t.Errorf("alert %d = %s/%s, want %s/%s",
				i, alerts[i].Topic, alerts[i].Severity, w.topic, w.severity)
		}
	}
}

func TestDetectIgnoresClosedAndNoise(t *testing.T) {
	closed := openTicket("T-c", "VPN outage")
	closed.State = ticket.StateClosed

	tickets := []*ticket.Ticket{
		closed,
		openTicket("T-1", "VPN outage"),
		openTicket("T-2", "VPN outage"),
		// "issue", "user" and short tokens never cluster.
		openTicket("T-3", "user issue: db up"),
		openTicket("T-4", "user issue: db up"),
		openTicket("T-5", "user issue: db up"),
	}
	if alerts := Detect(tickets); len(alerts) != 0 {
		t.Fatalf("alerts = %+v, want none", alerts)
	}
}

func TestDetectDedupesTokenPerTitle(t *testing.T) {
	// A repeated word inside one title counts that ticket once.
	tickets := []*ticket.Ticket{
		openTicket("T-1", "database database database slow"),
		openTicket("T-2", "database timeout"),
	}
	if alerts := Detect(tickets); len(alerts) != 0 {
		t.Fatalf("alerts = %+v, want none (only two distinct tickets)", alerts)
	}
}

func TestDetectTopThree(t *testing.T) {
	mk := func(topic string, n int) []*ticket.Ticket {
		var out []*ticket.Ticket
		for i := 0; i < n; i++ {
			out = append(out, openTicket("T", topic+" broken"))
		}
		return out
	}
	var tickets []*ticket.Ticket
	tickets = append(tickets, mk("alpha", 6)...)
	tickets = append(tickets, mk("beta", 5)...)
	tickets = append(tickets, mk("gamma", 4)...)
	tickets = append(tickets, mk("delta", 3)...)

	alerts := Detect(tickets)
	if len(alerts) != 3 {
		t.Fatalf("alerts = %d, want top 3", len(alerts))
	}
	// "broken" spans all 18 tickets and leads; alpha and beta follow.
	if alerts[0].Topic != "broken" || alerts[1].Topic != "alpha" || alerts[2].Topic != "beta" {
		t.Errorf("order = %s, %s, %s", alerts[0].Topic, alerts[1].Topic, alerts[2].Topic)
	}
}
