package taxonomy

// Official returns the seeded SOX GRC taxonomy. Returned rules are fresh
// copies; callers may mutate them freely.
func Official() []Rule {
	return []Rule{
		{
			ID:         "SOX Change Champion",
			Keywords:   []string{"champion", "change champion"},
			BoostTerms: []string{"change", "update", "new", "replace"},
			Weight:     2.5,
		},
		{
			ID:         "SOX Change Control Significance",
			Keywords:   []string{"significance", "key", "standard", "retire", "classification", "non-key"},
			BoostTerms: []string{"change", "update", "modify", "control"},
			Weight:     2.2,
		},
		{
			ID:         "SOX Change EPR ID",
			Keywords:   []string{"epr id", "epr"},
			BoostTerms: []string{"change", "update", "wrong", "incorrect", "finance id"},
			Weight:     3.0,
		},
		{
			ID:         "SOX Control - Access Issue",
			Keywords:   []string{"access", "authorization", "permission", "login", "401", "error", "denied", "webi", "folder", "sso", "pingid", "unable to login", "locked", "cant access"},
			BoostTerms: []string{"unable", "cant", "grant", "approve", "auditor", "evidence"},
			Weight:     2.2,
		},
		{
			ID:         "SOX Control Change Frequency",
			Keywords:   []string{"frequency"},
			BoostTerms: []string{"change", "update", "quarterly", "monthly", "annual", "semi-annual", "weekly"},
			Weight:     2.5,
		},
		{
			ID:         "SOX Control Change Mega or Major",
			Keywords:   []string{"mega", "major"},
			BoostTerms: []string{"change", "update", "move", "process change", "impact"},
			Weight:     2.5,
		},
		{
			ID:         "SOX Control Owner Update",
			Keywords:   []string{"owner", "performer", "ownership", "transfer", "assign", "role", "spoc", "l2", "responsible", "assignee"},
			BoostTerms: []string{"change", "update", "replace", "new", "transition", "leaving", "left firm"},
			Weight:     2.0,
		},
		{
			ID:         "SOX Control Title Update",
			Keywords:   []string{"control title", "control description", "control name", "wording"},
			BoostTerms: []string{"change", "update", "typo", "rename", "text", "correction", "match rcm"},
			Weight:     2.0,
		},
		{
			ID:         "SOX Control Workflow Retrigger",
			Keywords:   []string{"retrigger", "workflow", "triggered", "stuck", "flow", "rerun", "activate", "submission", "submit", "approve", "reject"},
			BoostTerms: []string{"audit", "request", "fail", "issue", "process", "task", "pending"},
			Weight:     2.2,
		},
	}
}
