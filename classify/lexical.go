package classify

import (
	"strings"

	"github.com/hazyhaar/grcdesk/taxonomy"
)

// Lexical scores the lower-cased ticket text against every rule: each keyword
// present as a substring contributes 1.0, each boost term 0.5, the sum
// multiplied by the rule weight. It returns the best rule id and its score,
// or (ManualTriage, 0) when nothing matches.
func Lexical(text string, rules []taxonomy.Rule) (string, float64) {
	lower := strings.ToLower(text)

	best := ManualTriage
	var bestScore float64

	for _, rule := range rules {
		var score float64
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				score += 1.0
			}
		}
		for _, bt := range rule.BoostTerms {
			if strings.Contains(lower, bt) {
				score += 0.5
			}
		}
		score *= rule.Weight

		if score > bestScore {
			bestScore = score
			best = rule.ID
		}
	}
	return best, bestScore
}
