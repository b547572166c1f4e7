package score

import (
	"strings"

	"github.com/hazyhaar/grcdesk/ticket"
)

// Compliance reasons, one per cascade rule.
const (
	ReasonSLABreach       = "SLA Critical Breach (>48h)"
	ReasonSODConflict     = "Potential SOD Conflict"
	ReasonSelfAssignment  = "Self-Assignment Detected"
	ReasonMissingApproval = "Missing Access Approval Evidence"
	ReasonMissingRoleConf = "Missing Role Change Confirmation"
)

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// Compliance evaluates the rule cascade against the ticket's *current*
// category and returns the verdict plus the first failing reason. The rules
// are ordered; exactly one outcome applies.
func Compliance(t *ticket.Ticket) (ticket.ComplianceStatus, string) {
	desc := strings.ToLower(t.Description)
	title := strings.ToLower(t.Title)
	category := strings.ToLower(t.Category)
	assignee := strings.ToLower(t.AssignedToName)

	// 1. Critical ticket aged past its SLA window.
	if t.Priority == ticket.PriorityCritical && t.DurationHours > 48 {
		return ticket.NonCompliant, ReasonSLABreach
	}

	// 2. Segregation-of-duties language anywhere in the record.
	if containsAny(desc, "sod", "segregation") || containsAny(title, "sod", "segregation") {
		return ticket.NonCompliant, ReasonSODConflict
	}

	// 3. Assignee resolving a ticket that names themselves.
	if assignee != "" && assignee != "unassigned" && strings.Contains(desc, assignee) {
		return ticket.NonCompliant, ReasonSelfAssignment
	}

	// 4. Access request without approval evidence in the description.
	if strings.Contains(title, "access") || strings.Contains(category, "access") {
		if !containsAny(desc, "approval", "approved", "manager", "attached") {
			return ticket.NonCompliant, ReasonMissingApproval
		}
	}

	// 5. Ownership/performer change without confirmation evidence.
	if containsAny(title, "owner", "performer") || containsAny(category, "owner", "performer") {
		if !containsAny(desc, "approval", "agree", "confirm", "email attached") {
			return ticket.NonCompliant, ReasonMissingRoleConf
		}
	}

	return ticket.Compliant, ""
}
