// Package sentiment analyzes ticket tone and flags anomalies.
//
// A remote sentiment classifier scores the description when available;
// otherwise a fixed lexicon stands in. Entity extraction and anomaly
// heuristics are always local and deterministic.
package sentiment

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/hazyhaar/grcdesk/ticket"
)

// Label values for the sentiment evaluation.
const (
	LabelPositive = "Positive"
	LabelNegative = "Negative"
	LabelNeutral  = "Neutral"
)

// classifierInputLimit truncates descriptions before classification; the
// leading text carries the tone and the model's token window is finite.
const classifierInputLimit = 500

var executivePattern = regexp.MustCompile(`ceo|cio|vp|board|director|cfo`)

// Analysis is the combined sentiment and anomaly result for one ticket.
type Analysis struct {
	Score      float64
	Evaluation ticket.SentimentEvaluation
	Entities   ticket.Entities
	IsAnomaly  bool
}

// Analyzer runs sentiment scoring plus anomaly detection.
type Analyzer struct {
	classifier Classifier
	logger     *slog.Logger
}

// NewAnalyzer creates an Analyzer. A nil classifier selects the lexicon
// fallback for every ticket.
func NewAnalyzer(classifier Classifier, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{classifier: classifier, logger: logger}
}

// Analyze scores one ticket. Classifier failures degrade to the lexicon
// for that ticket only.
func (a *Analyzer) Analyze(ctx context.Context, t *ticket.Ticket) Analysis {
	entities := Extract(t.Description + " " + t.Title)

	score, label, confidence := a.classifyOrFallback(ctx, t)

	anomaly := false
	// Tone/priority mismatch: strongly negative text filed as a low tier.
	if score < -0.4 && (t.Priority == ticket.PriorityLow || t.Priority == ticket.PriorityModerate) {
		anomaly = true
	}
	// Executive attention raises stakes regardless of tone.
	if executivePattern.MatchString(strings.ToLower(t.Description)) {
		anomaly = true
	}
	// A burst of distinct error codes suggests a systemic failure.
	if len(entities.ErrorCodes) > 2 {
		anomaly = true
	}

	return Analysis{
		Score: score,
		Evaluation: ticket.SentimentEvaluation{
			Score:      score,
			Label:      label,
			Confidence: confidence,
		},
		Entities:  entities,
		IsAnomaly: anomaly,
	}
}

func (a *Analyzer) classifyOrFallback(ctx context.Context, t *ticket.Ticket) (score float64, label string, confidence float64) {
	if a.classifier != nil {
		text := t.Description
		if len(text) > classifierInputLimit {
			text = text[:classifierInputLimit]
		}
		res, err := a.classifier.Classify(ctx, text)
		if err == nil {
			if res.Label == "POSITIVE" {
				return res.Score, LabelPositive, res.Score
			}
			return -res.Score, LabelNegative, res.Score
		}
		a.logger.Warn("sentiment classifier unavailable, using lexicon",
			"ticket", t.ID, "error", err)
	}
	return lexiconScore(t.Description)
}

// lexiconScore is the deterministic fallback: fixed contributions summed
// and clamped to [-1, 1], labelled at the ±0.2 thresholds.
func lexiconScore(description string) (float64, string, float64) {
	lower := strings.ToLower(description)

	var score float64
	if strings.Contains(lower, "outage") {
		score -= 0.9
	}
	if strings.Contains(lower, "fail") || strings.Contains(lower, "error") {
		score -= 0.5
	}
	if strings.Contains(lower, "urgent") {
		score -= 0.3
	}
	if strings.Contains(lower, "thank") || strings.Contains(lower, "great") {
		score += 0.5
	}

	score = math.Max(-1, math.Min(1, score))

	label := LabelNeutral
	switch {
	case score > 0.2:
		label = LabelPositive
	case score < -0.2:
		label = LabelNegative
	}
	return score, label, math.Abs(score)
}
