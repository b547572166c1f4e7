// Package triage is the service orchestrator for the ticket
// intelligence pipeline.
//
// It owns the taxonomy store, the enrichment pipeline, the ticket
// repository, and the derived analytics (workload, forecast, clusters),
// and exposes them over HTTP (chi) and MCP. Mutating operations are
// audited.
package triage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/grcdesk/audit"
	"github.com/hazyhaar/grcdesk/classify"
	"github.com/hazyhaar/grcdesk/cluster"
	"github.com/hazyhaar/grcdesk/forecast"
	"github.com/hazyhaar/grcdesk/insight"
	"github.com/hazyhaar/grcdesk/pipeline"
	"github.com/hazyhaar/grcdesk/sentiment"
	"github.com/hazyhaar/grcdesk/store"
	"github.com/hazyhaar/grcdesk/taxonomy"
	"github.com/hazyhaar/grcdesk/textembed"
	"github.com/hazyhaar/grcdesk/ticket"
	"github.com/hazyhaar/grcdesk/workload"
)

// Service is the main triage orchestrator.
type Service struct {
	config   Config
	logger   *slog.Logger
	tickets  *store.Store
	rules    *taxonomy.Store
	vectors  *taxonomy.VectorCache
	pipe     *pipeline.Pipeline
	analyst  insight.Analyst
	auditLog *audit.Logger // optional
}

// New creates a triage Service on the given database. The same database
// holds tickets, taxonomy rules, and the audit log.
func New(ctx context.Context, db *sql.DB, cfg Config) (*Service, error) {
	cfg.defaults()

	tickets, err := store.New(ctx, db)
	if err != nil {
		return nil, err
	}
	rules, err := taxonomy.NewStore(ctx, db, cfg.Logger)
	if err != nil {
		return nil, err
	}

	embedder := textembed.New(cfg.Embed)
	vectors := taxonomy.NewVectorCache(embedder, cfg.Logger)
	vectors.RebuildAsync(context.WithoutCancel(ctx), rules.Rules())

	auditLog := audit.NewLogger(db, audit.WithLogger(cfg.Logger))
	if err := auditLog.Init(); err != nil {
		return nil, fmt.Errorf("triage: init audit log: %w", err)
	}

	svc := &Service{
		config:  cfg,
		logger:  cfg.Logger,
		tickets: tickets,
		rules:   rules,
		vectors: vectors,
		pipe: pipeline.New(pipeline.Config{
			Engine:    classify.NewEngine(embedder, vectors, cfg.Logger),
			Rules:     rules,
			Sentiment: sentiment.NewAnalyzer(sentiment.NewClient(cfg.Sentiment), cfg.Logger),
			Workers:   cfg.Workers,
			Logger:    cfg.Logger,
		}),
		analyst:  insight.New(cfg.Insight),
		auditLog: auditLog,
	}
	return svc, nil
}

// Close flushes the audit log.
func (svc *Service) Close() error {
	return svc.auditLog.Close()
}

// Ingest normalizes raw records, enriches them, and persists the batch.
// Malformed records get safe defaults; an empty batch is an error.
func (svc *Service) Ingest(ctx context.Context, raws []ticket.RawRecord) ([]*ticket.Ticket, error) {
	if len(raws) == 0 {
		return nil, ErrEmptyBatch
	}

	now := time.Now()
	batch := make([]*ticket.Ticket, len(raws))
	for i, raw := range raws {
		t := ticket.Normalize(raw, i, now)
		batch[i] = &t
	}

	svc.pipe.Enrich(ctx, batch)

	if err := svc.tickets.SaveBatch(ctx, batch); err != nil {
		return nil, err
	}
	svc.logger.Info("batch ingested", "tickets", len(batch))
	return batch, nil
}

// Reprocess re-runs enrichment over every stored ticket with the
// current taxonomy. Triggered after rule edits or on a schedule.
func (svc *Service) Reprocess(ctx context.Context) (int, error) {
	all, err := svc.tickets.List(ctx, nil)
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, nil
	}

	svc.pipe.Enrich(ctx, all)
	if err := svc.tickets.SaveBatch(ctx, all); err != nil {
		return 0, err
	}
	svc.logger.Info("reprocessed", "tickets", len(all))
	return len(all), nil
}

// Tickets returns stored tickets matching the filter.
func (svc *Service) Tickets(ctx context.Context, f *ticket.FilterCriteria) ([]*ticket.Ticket, error) {
	return svc.tickets.List(ctx, f)
}

// Ticket returns one ticket by id.
func (svc *Service) Ticket(ctx context.Context, id string) (*ticket.Ticket, error) {
	t, err := svc.tickets.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// Agents computes the current per-agent workload view.
func (svc *Service) Agents(ctx context.Context) ([]*workload.Agent, error) {
	all, err := svc.tickets.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return workload.Analyze(all), nil
}

// Forecast computes the volume forecast over stored history.
func (svc *Service) Forecast(ctx context.Context) ([]forecast.Point, error) {
	all, err := svc.tickets.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return forecast.Generate(all), nil
}

// Clusters detects emerging outage clusters among open tickets.
func (svc *Service) Clusters(ctx context.Context) ([]cluster.Alert, error) {
	all, err := svc.tickets.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return cluster.Detect(all), nil
}

// SuggestRebalance proposes ticket moves away from overloaded agents.
func (svc *Service) SuggestRebalance(ctx context.Context) ([]workload.Move, error) {
	all, err := svc.tickets.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return workload.SuggestRebalancing(all, workload.Analyze(all)), nil
}

// ApplyRebalance reassigns the named tickets. Workload figures reflect
// the moves on the next Agents call.
func (svc *Service) ApplyRebalance(ctx context.Context, moves []workload.Move) error {
	for _, m := range moves {
		if err := svc.tickets.SetAssignee(ctx, m.TicketID, m.SuggestedAgent); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				err = ErrTicketNotFound
			}
			svc.recordAudit("rebalance_apply", m.TicketID, m, err)
			return fmt.Errorf("move %s: %w", m.TicketID, err)
		}
		svc.recordAudit("rebalance_apply", m.TicketID, m, nil)
	}
	return nil
}

// Correct applies an operator category correction: the ticket is
// relabelled, and the taxonomy learns new boost terms from its title.
// Vectors rebuild in the background; the next pass uses the updated
// rules.
func (svc *Service) Correct(ctx context.Context, ticketID, category string) (taxonomy.Rule, error) {
	if ticketID == "" || category == "" {
		return taxonomy.Rule{}, ErrInvalidCorrection
	}

	t, err := svc.Ticket(ctx, ticketID)
	if err != nil {
		return taxonomy.Rule{}, err
	}
	if err := svc.tickets.SetCategory(ctx, ticketID, category); err != nil {
		return taxonomy.Rule{}, err
	}

	rule, err := svc.rules.LearnFromCorrection(ctx, t.Title, category)
	svc.recordAudit("learn_correction", ticketID,
		map[string]string{"category": category}, err)
	if err != nil {
		return taxonomy.Rule{}, err
	}

	svc.vectors.RebuildAsync(context.WithoutCancel(ctx), svc.rules.Rules())
	return rule, nil
}

// Rules returns the current taxonomy snapshot.
func (svc *Service) Rules() []taxonomy.Rule {
	return svc.rules.Rules()
}

// AddRule validates and persists a new rule.
func (svc *Service) AddRule(ctx context.Context, r taxonomy.Rule) error {
	err := svc.rules.Add(ctx, r)
	svc.recordAudit("rule_add", r.ID, r, err)
	if err != nil {
		return err
	}
	svc.vectors.RebuildAsync(context.WithoutCancel(ctx), svc.rules.Rules())
	return nil
}

// UpdateRule replaces an existing rule.
func (svc *Service) UpdateRule(ctx context.Context, r taxonomy.Rule) error {
	err := svc.rules.Update(ctx, r)
	svc.recordAudit("rule_update", r.ID, r, err)
	if err != nil {
		return err
	}
	svc.vectors.RebuildAsync(context.WithoutCancel(ctx), svc.rules.Rules())
	return nil
}

// DeleteRule removes a rule.
func (svc *Service) DeleteRule(ctx context.Context, id string) error {
	err := svc.rules.Delete(ctx, id)
	svc.recordAudit("rule_delete", id, nil, err)
	if err != nil {
		return err
	}
	svc.vectors.RebuildAsync(context.WithoutCancel(ctx), svc.rules.Rules())
	return nil
}

// ResetRules restores the seeded taxonomy, discarding learned terms.
func (svc *Service) ResetRules(ctx context.Context) error {
	err := svc.rules.Reset(ctx)
	svc.recordAudit("rules_reset", "", nil, err)
	if err != nil {
		return err
	}
	svc.vectors.RebuildAsync(context.WithoutCancel(ctx), svc.rules.Rules())
	return nil
}

// Summary produces the one-sentence executive summary, or a placeholder
// when the analyst is unavailable.
func (svc *Service) Summary(ctx context.Context) (string, error) {
	all, err := svc.tickets.List(ctx, nil)
	if err != nil {
		return "", err
	}

	text, err := svc.analyst.ExecutiveSummary(ctx, summaryStats(all))
	if errors.Is(err, insight.ErrUnavailable) {
		return insight.SummaryUnavailable, nil
	}
	return text, err
}

// AskData translates a natural-language query into a filter and runs it.
func (svc *Service) AskData(ctx context.Context, query string) ([]*ticket.Ticket, *ticket.FilterCriteria, error) {
	criteria, err := svc.analyst.AskData(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	out, err := svc.tickets.List(ctx, criteria)
	return out, criteria, err
}

// Narrative answers a question grounded in the current (optionally
// filtered) ticket view.
func (svc *Service) Narrative(ctx context.Context, query string, f *ticket.FilterCriteria) (string, error) {
	view, err := svc.tickets.List(ctx, f)
	if err != nil {
		return "", err
	}

	text, err := svc.analyst.Narrative(ctx, query, view)
	if errors.Is(err, insight.ErrUnavailable) {
		return insight.NarrativeUnavailable, nil
	}
	return text, err
}

func summaryStats(all []*ticket.Ticket) insight.Stats {
	var stats insight.Stats
	riskByCategory := make(map[string]float64)
	for _, t := range all {
		if t.RiskScore >= 7 {
			stats.HighRiskCount++
		}
		if t.ComplianceStatus == ticket.NonCompliant {
			stats.NonCompliantCount++
		}
		riskByCategory[t.Category] += t.RiskScore
	}
	var top float64
	for category, total := range riskByCategory {
		if total > top {
			top = total
			stats.TopRiskCategory = category
		}
	}
	return stats
}

func (svc *Service) recordAudit(action, subject string, params any, opErr error) {
	e := &audit.Entry{Action: action, Subject: subject}
	if params != nil {
		if data, err := json.Marshal(params); err == nil {
			e.Parameters = string(data)
		}
	}
	if opErr != nil {
		e.Error = opErr.Error()
	}
	svc.auditLog.LogAsync(e)
}
