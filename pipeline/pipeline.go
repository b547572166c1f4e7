// Package pipeline runs batch ticket enrichment.
//
// Each ticket is enriched independently: categorize, then risk,
// compliance, sentiment, and SLA projection, in that order (compliance
// reads the assigned category). Tickets fan out across a bounded worker
// pool and the batch joins before any aggregate stage runs. Per-ticket
// backend failures degrade inside the classifiers and never drop the
// batch.
package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hazyhaar/grcdesk/classify"
	"github.com/hazyhaar/grcdesk/score"
	"github.com/hazyhaar/grcdesk/sentiment"
	"github.com/hazyhaar/grcdesk/taxonomy"
	"github.com/hazyhaar/grcdesk/ticket"
)

// Config assembles a Pipeline from its collaborators.
type Config struct {
	// Engine performs hybrid categorization.
	Engine *classify.Engine

	// Rules supplies the taxonomy snapshot used for the pass.
	Rules *taxonomy.Store

	// Sentiment analyzes tone and anomalies.
	Sentiment *sentiment.Analyzer

	// Workers bounds concurrent per-ticket enrichment. Default: 8.
	Workers int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Pipeline enriches ticket batches in place.
type Pipeline struct {
	engine    *classify.Engine
	rules     *taxonomy.Store
	sentiment *sentiment.Analyzer
	workers   int
	logger    *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		engine:    cfg.Engine,
		rules:     cfg.Rules,
		sentiment: cfg.Sentiment,
		workers:   cfg.Workers,
		logger:    cfg.Logger,
	}
}

// Enrich processes the batch and returns once every ticket is fully
// enriched. The rule set is snapshotted once so a concurrent rule edit
// cannot split the batch across taxonomies.
func (p *Pipeline) Enrich(ctx context.Context, tickets []*ticket.Ticket) {
	rules := p.rules.Rules()

	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for _, t := range tickets {
		wg.Add(1)
		sem <- struct{}{}
		go func(t *ticket.Ticket) {
			defer wg.Done()
			defer func() { <-sem }()
			p.enrichOne(ctx, t, rules)
		}(t)
	}
	wg.Wait()

	p.logger.Debug("batch enriched", "tickets", len(tickets))
}

func (p *Pipeline) enrichOne(ctx context.Context, t *ticket.Ticket, rules []taxonomy.Rule) {
	t.Category = p.engine.Categorize(ctx, t, rules)

	t.RiskScore = score.Risk(t)
	t.ComplianceStatus, t.ComplianceReason = score.Compliance(t)

	analysis := p.sentiment.Analyze(ctx, t)
	t.SentimentScore = analysis.Score
	t.SentimentEvaluation = analysis.Evaluation
	t.ExtractedEntities = analysis.Entities
	t.IsAnomaly = analysis.IsAnomaly

	sla := score.PredictBreach(t)
	t.RiskVelocity = sla.RiskVelocity
	t.PredictedBreach = sla.PredictedBreach
	t.HoursToBreach = sla.HoursToBreach
}
