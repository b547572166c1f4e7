// Package score computes the per-ticket GRC overlay: the weighted risk
// score, the compliance verdict, and the SLA breach projection.
//
// Every function is a pure, deterministic transformation of the ticket
// record; the pipeline owns ordering and field assignment.
package score

import (
	"math"
	"regexp"
	"strings"

	"github.com/hazyhaar/grcdesk/ticket"
)

// Content pattern signals. A control ID in the description implies direct
// compliance impact and carries the heaviest boost.
var (
	controlIDPattern  = regexp.MustCompile(`l\d{5}|1\d{4}`)
	financialPattern  = regexp.MustCompile(`financial|integrity|revenue`)
	restrictedPattern = regexp.MustCompile(`restricted|confidential`)
	accessPattern     = regexp.MustCompile(`access|authorization`)
)

func priorityWeight(p ticket.Priority) float64 {
	switch p {
	case ticket.PriorityCritical:
		return 10
	case ticket.PriorityHigh:
		return 7
	case ticket.PriorityModerate:
		return 4
	default:
		return 1
	}
}

func timeWeight(durationHours float64) float64 {
	switch {
	case durationHours > 48:
		return 10
	case durationHours > 24:
		return 7
	case durationHours > 8:
		return 4
	default:
		return 1
	}
}

func contentWeight(description string) float64 {
	lower := strings.ToLower(description)
	w := 1.0
	if controlIDPattern.MatchString(lower) {
		w += 4
	}
	if financialPattern.MatchString(lower) {
		w += 3
	}
	if restrictedPattern.MatchString(lower) {
		w += 2
	}
	if accessPattern.MatchString(lower) {
		w += 2
	}
	return w
}

// Risk computes the 0-10 risk score:
//
//	risk = 0.4·priority + 0.3·time + 0.3·content
//
// rounded to one decimal and capped at 10.
func Risk(t *ticket.Ticket) float64 {
	risk := 0.4*priorityWeight(t.Priority) +
		0.3*timeWeight(t.DurationHours) +
		0.3*contentWeight(t.Description)

	risk = math.Round(risk*10) / 10
	return math.Min(risk, 10)
}
