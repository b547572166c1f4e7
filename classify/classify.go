// Package classify assigns a category label to a ticket by combining lexical
// keyword scoring with semantic embedding similarity in a fixed decision
// cascade.
//
// The cascade is pure: given a ticket, a rule set, and a taxonomy vector set,
// it produces one label with no side effects. The semantic leg degrades to
// zero similarity whenever the embedding backend is unavailable, leaving the
// lexical and fallback legs in charge.
package classify

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hazyhaar/grcdesk/taxonomy"
	"github.com/hazyhaar/grcdesk/textembed"
	"github.com/hazyhaar/grcdesk/ticket"
)

// ManualTriage is the category assigned when no signal is strong enough.
const ManualTriage = "Manual Triage"

// Cascade thresholds, in priority order.
const (
	lexicalCertain   = 3.0  // lexical score above this wins outright
	semanticStrong   = 0.45 // high-confidence cosine similarity
	lexicalModerate  = 1.5  // moderate lexical confidence
	semanticUsable   = 0.35 // weak but better than manual triage
	titleMinLen      = 10   // exclusive bounds for trusting the raw title
	titleMaxLen      = 50
)

// genericWords matches labels too vague to trust as categories.
var genericWords = regexp.MustCompile(`(?i)other|general|support|request|issue|ticket|help`)

// Engine runs the hybrid classification cascade.
type Engine struct {
	embedder textembed.Embedder
	vectors  *taxonomy.VectorCache
	logger   *slog.Logger
}

// NewEngine creates an Engine. The vector cache may be empty; semantic
// scoring then contributes nothing.
func NewEngine(embedder textembed.Embedder, vectors *taxonomy.VectorCache, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{embedder: embedder, vectors: vectors, logger: logger}
}

// Categorize returns the category label for a ticket under the given rules.
func (e *Engine) Categorize(ctx context.Context, t *ticket.Ticket, rules []taxonomy.Rule) string {
	lexCategory, lexScore := Lexical(t.Description, rules)
	semCategory, semScore := e.semantic(ctx, t)

	// 1. Strong lexical match: absolute certainty.
	if lexScore > lexicalCertain {
		return lexCategory
	}
	// 2. Strong semantic match.
	if semScore > semanticStrong {
		return semCategory
	}
	// 3. Moderate lexical match.
	if lexScore > lexicalModerate {
		return lexCategory
	}

	// 4-5. No model signal worth acting on: decide whether the source data
	// already carries a usable label.
	title := strings.TrimSpace(t.Title)
	generic := genericWords.MatchString(title) ||
		genericWords.MatchString(t.OriginalCategory) ||
		t.OriginalCategory == "Uncategorized"

	if !generic && t.OriginalCategory != "Uncategorized" {
		return t.OriginalCategory
	}
	if !generic && len(title) > titleMinLen && len(title) < titleMaxLen {
		return title
	}

	// 6. Weak semantic signal still beats manual triage.
	if semScore > semanticUsable {
		return semCategory
	}
	return ManualTriage
}

// semantic embeds the ticket text and scores it against the taxonomy
// vectors, failing safe to ("", 0) when the backend errors.
func (e *Engine) semantic(ctx context.Context, t *ticket.Ticket) (string, float64) {
	vectors := e.vectors.Vectors()
	if len(vectors) == 0 {
		return "", 0
	}

	vec, err := e.embedder.Embed(ctx, t.Title+". "+t.Description)
	if err != nil {
		e.logger.Warn("semantic scoring unavailable, lexical only",
			"ticket", t.ID, "error", err)
		return "", 0
	}
	return Semantic(vec, vectors)
}
