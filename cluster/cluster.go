// Package cluster surfaces emerging outage clusters from open-ticket
// titles.
//
// Titles are tokenized, noise words dropped, and any token shared by
// three or more open tickets becomes a cluster alert. The three densest
// clusters are reported with severity tiers and a few example tickets.
package cluster

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hazyhaar/grcdesk/ticket"
)

// Severity tiers by cluster density.
type Severity string

const (
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

const (
	minClusterSize = 3
	maxAlerts      = 3
	maxExamples    = 3
	minTokenLength = 4
)

// ignoredWords are service-desk filler that would cluster everything
// together.
var ignoredWords = map[string]bool{
	"issue": true, "ticket": true, "problem": true, "request": true,
	"please": true, "help": true, "check": true, "need": true,
	"access": true, "user": true, "system": true,
}

// Alert is one detected cluster.
type Alert struct {
	ID             string           `json:"id"`
	Topic          string           `json:"topic"`
	Count          int              `json:"count"`
	Severity       Severity         `json:"severity"`
	ExampleTickets []*ticket.Ticket `json:"exampleTickets"`
	Timestamp      time.Time        `json:"timestamp"`
}

// Detect groups open tickets by shared title tokens and returns the top
// clusters, densest first.
func Detect(tickets []*ticket.Ticket) []Alert {
	byToken := make(map[string][]*ticket.Ticket)

	for _, t := range tickets {
		if !t.Active() {
			continue
		}
		for _, tok := range tokenize(t.Title) {
			byToken[tok] = append(byToken[tok], t)
		}
	}

	now := time.Now()
	var alerts []Alert
	for token, group := range byToken {
		if len(group) < minClusterSize {
			continue
		}
		severity := SeverityMedium
		switch {
		case len(group) >= 10:
			severity = SeverityCritical
		case len(group) >= 5:
			severity = SeverityHigh
		}

		examples := group
		if len(examples) > maxExamples {
			examples = examples[:maxExamples]
		}
		alerts = append(alerts, Alert{
			ID:             fmt.Sprintf("cluster-%s-%d", token, now.UnixMilli()),
			Topic:          token,
			Count:          len(group),
			Severity:       severity,
			ExampleTickets: examples,
			Timestamp:      now,
		})
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].Count != alerts[j].Count {
			return alerts[i].Count > alerts[j].Count
		}
		return alerts[i].Topic < alerts[j].Topic
	})
	if len(alerts) > maxAlerts {
		alerts = alerts[:maxAlerts]
	}
	return alerts
}

// tokenize lowercases a title, strips everything but letters, digits and
// spaces, and keeps each significant token once.
func tokenize(title string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}

	seen := make(map[string]bool)
	var tokens []string
	for _, w := range strings.Fields(b.String()) {
		if len(w) < minTokenLength || ignoredWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}
