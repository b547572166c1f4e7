package triage

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/grcdesk/insight"
	"github.com/hazyhaar/grcdesk/taxonomy"
	"github.com/hazyhaar/grcdesk/ticket"
	"github.com/hazyhaar/grcdesk/workload"
)

// RegisterHTTP mounts the triage API on a chi router.
func (svc *Service) RegisterHTTP(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tickets/ingest", svc.handleIngest)
		r.Post("/tickets/reprocess", svc.handleReprocess)
		r.Get("/tickets", svc.handleListTickets)
		r.Get("/tickets/{id}", svc.handleGetTicket)
		r.Post("/tickets/{id}/category", svc.handleCorrect)

		r.Get("/agents", svc.handleAgents)
		r.Get("/forecast", svc.handleForecast)
		r.Get("/clusters", svc.handleClusters)
		r.Get("/rebalance", svc.handleSuggestRebalance)
		r.Post("/rebalance", svc.handleApplyRebalance)

		r.Get("/rules", svc.handleListRules)
		r.Post("/rules", svc.handleAddRule)
		r.Put("/rules/{id}", svc.handleUpdateRule)
		r.Delete("/rules/{id}", svc.handleDeleteRule)
		r.Post("/rules/reset", svc.handleResetRules)

		r.Get("/summary", svc.handleSummary)
		r.Post("/ask", svc.handleAskData)
		r.Post("/narrative", svc.handleNarrative)
	})
}

func (svc *Service) handleIngest(w http.ResponseWriter, r *http.Request) {
	var raws []ticket.RawRecord
	if err := json.NewDecoder(r.Body).Decode(&raws); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	batch, err := svc.Ingest(r.Context(), raws)
	if err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"ingested": len(batch),
		"tickets":  batch,
	})
}

func (svc *Service) handleReprocess(w http.ResponseWriter, r *http.Request) {
	n, err := svc.Reprocess(r.Context())
	if err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"reprocessed": n})
}

func (svc *Service) handleListTickets(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)
	tickets, err := svc.Tickets(r.Context(), f)
	if err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (svc *Service) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := svc.Ticket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (svc *Service) handleCorrect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rule, err := svc.Correct(r.Context(), chi.URLParam(r, "id"), req.Category)
	if err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (svc *Service) handleAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := svc.Agents(r.Context())
	if err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (svc *Service) handleForecast(w http.ResponseWriter, r *http.Request) {
	points, err := svc.Forecast(r.Context())
	if err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (svc *Service) handleClusters(w http.ResponseWriter, r *http.Request) {
	alerts, err := svc.Clusters(r.Context())
	if err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (svc *Service) handleSuggestRebalance(w http.ResponseWriter, r *http.Request) {
	moves, err := svc.SuggestRebalance(r.Context())
	if err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, moves)
}

func (svc *Service) handleApplyRebalance(w http.ResponseWriter, r *http.Request) {
	var moves []workload.Move
	if err := json.NewDecoder(r.Body).Decode(&moves); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := svc.ApplyRebalance(r.Context(), moves); err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"applied": len(moves)})
}

func (svc *Service) handleListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, svc.Rules())
}

func (svc *Service) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var rule taxonomy.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := svc.AddRule(r.Context(), rule); err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (svc *Service) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var rule taxonomy.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	rule.ID = chi.URLParam(r, "id")
	if err := svc.UpdateRule(r.Context(), rule); err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (svc *Service) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := svc.DeleteRule(r.Context(), chi.URLParam(r, "id")); err != nil {
		svc.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (svc *Service) handleResetRules(w http.ResponseWriter, r *http.Request) {
	if err := svc.ResetRules(r.Context()); err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc.Rules())
}

func (svc *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	text, err := svc.Summary(r.Context())
	if err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": text})
}

func (svc *Service) handleAskData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		http.Error(w, "query required", http.StatusBadRequest)
		return
	}

	tickets, criteria, err := svc.AskData(r.Context(), req.Query)
	if err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"filter":  criteria,
		"tickets": tickets,
	})
}

func (svc *Service) handleNarrative(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query  string                 `json:"query"`
		Filter *ticket.FilterCriteria `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		http.Error(w, "query required", http.StatusBadRequest)
		return
	}

	text, err := svc.Narrative(r.Context(), req.Query, req.Filter)
	if err != nil {
		svc.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"narrative": text})
}

// filterFromQuery maps the common list query parameters onto a filter.
func filterFromQuery(r *http.Request) *ticket.FilterCriteria {
	q := r.URL.Query()
	if len(q) == 0 {
		return nil
	}
	f := &ticket.FilterCriteria{
		Compliance:  ticket.ComplianceStatus(q.Get("compliance")),
		Category:    q.Get("category"),
		SearchQuery: q.Get("search"),
	}
	if v := q.Get("min_risk"); v != "" {
		if risk, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinRisk = risk
		}
	}
	for _, p := range q["priority"] {
		f.Priority = append(f.Priority, ticket.Priority(p))
	}
	for _, s := range q["state"] {
		f.State = append(f.State, ticket.State(s))
	}
	return f
}

func (svc *Service) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrTicketNotFound), errors.Is(err, taxonomy.ErrRuleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidCorrection), errors.Is(err, ErrEmptyBatch),
		errors.Is(err, taxonomy.ErrInvalidRule), errors.Is(err, taxonomy.ErrDuplicateRule):
		status = http.StatusBadRequest
	case errors.Is(err, insight.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		svc.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
