package classify

import (
	"github.com/hazyhaar/grcdesk/taxonomy"
	"github.com/hazyhaar/grcdesk/textembed"
)

// Semantic ranks a ticket embedding against the taxonomy vector set by
// cosine similarity and returns the best rule id with its similarity.
// An empty vector set or zero ticket vector yields ("", 0).
func Semantic(ticketVec []float32, vectors []taxonomy.RuleVector) (string, float64) {
	var best string
	var bestScore float64

	for _, rv := range vectors {
		if sim := textembed.CosineSimilarity(ticketVec, rv.Vector); sim > bestScore {
			bestScore = sim
			best = rv.ID
		}
	}
	return best, bestScore
}
