package taxonomy

import (
	"context"
	"math"
	"regexp"
	"strings"
)

// learnStopWords are generic ticket words never worth learning as boost terms.
var learnStopWords = map[string]bool{
	"issue": true, "ticket": true, "problem": true,
	"request": true, "please": true, "help": true,
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// newRuleWeight is the starting weight for a rule created by a correction.
const newRuleWeight = 2.0

// LearnFromCorrection reinforces the taxonomy from a user's category
// correction. The rule for newCategory is located or created, distinctive
// title words (length > 4, not in the stop list, not already known to the
// rule) are appended as boost terms, and the rule weight is increased by
// 0.1 rounded to one decimal.
//
// Learned rules may start without keywords; validation applies only to the
// manual editing surface. The caller is responsible for scheduling a vector
// cache rebuild afterwards.
func (s *Store) LearnFromCorrection(ctx context.Context, ticketTitle, newCategory string) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.rules {
		if s.rules[i].ID == newCategory {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.rules = append(s.rules, Rule{ID: newCategory, Weight: newRuleWeight})
		idx = len(s.rules) - 1
	}
	rule := &s.rules[idx]

	known := make(map[string]bool, len(rule.Keywords)+len(rule.BoostTerms))
	for _, k := range rule.Keywords {
		known[k] = true
	}
	for _, b := range rule.BoostTerms {
		known[b] = true
	}

	for _, w := range titleWords(ticketTitle) {
		if !known[w] {
			rule.BoostTerms = append(rule.BoostTerms, w)
			known[w] = true
		}
	}

	rule.Weight = math.Round((rule.Weight+0.1)*10) / 10

	if err := s.persistOne(ctx, *rule); err != nil {
		return Rule{}, err
	}
	return rule.clone(), nil
}

// titleWords extracts candidate boost terms from a ticket title.
func titleWords(title string) []string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(title), "")
	var out []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) > 4 && !learnStopWords[w] {
			out = append(out, w)
		}
	}
	return out
}
