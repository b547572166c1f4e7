package ticket

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RawRecord is one flat row from the ingestion collaborator (spreadsheet
// export, ITSM API dump). All fields are optional: Normalize fills safe
// defaults so a malformed row never aborts a batch.
type RawRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	State       string `json:"state"`
	AssignedTo  string `json:"assigned_to"`
	CreatedDate string `json:"created_date"`
	ClosedDate  string `json:"closed_date"`
}

// dateLayouts are tried in order when parsing source dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

func parseDate(raw string, now time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, true
		}
	}
	return now, false
}

// Normalize converts a raw row into a Ticket with computed fields at zero
// values. index disambiguates generated IDs and placeholder titles within
// a batch; now anchors duration for open tickets.
func Normalize(raw RawRecord, index int, now time.Time) Ticket {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = fmt.Sprintf("Imported Ticket #%d", index+1)
	}
	description := strings.TrimSpace(raw.Description)
	if description == "" {
		description = title
	}

	originalCategory := strings.TrimSpace(raw.Category)
	if originalCategory == "" {
		originalCategory = "Uncategorized"
	}

	state := ParseState(raw.State)

	created, _ := parseDate(raw.CreatedDate, now)

	// Closed date only applies to terminal states; an open ticket with a
	// stray closed column is source noise.
	var closed *time.Time
	if state == StateClosed || state == StateResolved {
		if d, ok := parseDate(raw.ClosedDate, now); ok {
			closed = &d
		}
	}

	assignee := strings.TrimSpace(raw.AssignedTo)
	if assignee == "" {
		assignee = Unassigned
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = fmt.Sprintf("T-%d", 10000+index)
	}

	return Ticket{
		ID:               id,
		Title:            title,
		Description:      description,
		AssignedTo:       strings.ReplaceAll(strings.ToLower(assignee), " ", "."),
		AssignedToName:   assignee,
		Priority:         ParsePriority(raw.Priority),
		State:            state,
		CreatedDate:      created,
		ClosedDate:       closed,
		DurationHours:    Duration(created, closed, now),
		Category:         originalCategory,
		OriginalCategory: originalCategory,
		SubCategory:      "General",
		ComplianceStatus: Compliant,
	}
}

// Duration computes ticket age in hours at one-decimal precision: closed
// (or now) minus created, clamped to zero when the source data is inverted.
func Duration(created time.Time, closed *time.Time, now time.Time) float64 {
	end := now
	if closed != nil {
		end = *closed
	}
	h := end.Sub(created).Hours()
	if h < 0 {
		h = 0
	}
	return math.Round(h*10) / 10
}
