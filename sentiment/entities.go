package sentiment

import (
	"regexp"
	"strings"

	"github.com/hazyhaar/grcdesk/ticket"
)

var (
	errorCodePattern = regexp.MustCompile(`[A-Z]{3}-\d{4,5}|ORA-\d+|SAP-\d+`)
	userIDPattern    = regexp.MustCompile(`\b[uU]\d{6,7}\b|[a-zA-Z]+\.[a-zA-Z]+@[a-zA-Z0-9-]+\.[a-zA-Z]{2,}`)
)

// knownSystems are platform names recognized by literal match.
var knownSystems = []string{
	"SAP", "Oracle", "ServiceNow", "Salesforce", "Azure", "AWS", "Workday", "Jira",
}

// Extract scans text for error codes, user identifiers, and known system
// names, deduplicated in first-seen order.
func Extract(text string) ticket.Entities {
	var systems []string
	for _, sys := range knownSystems {
		if strings.Contains(text, sys) {
			systems = append(systems, sys)
		}
	}

	return ticket.Entities{
		ErrorCodes:  dedupe(errorCodePattern.FindAllString(text, -1)),
		UserIDs:     dedupe(userIDPattern.FindAllString(text, -1)),
		SystemNames: systems,
	}
}

func dedupe(matches []string) []string {
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := matches[:0]
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
