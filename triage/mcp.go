package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/grcdesk/ticket"
)

// RegisterMCP registers all triage tools on an MCP server.
func (svc *Service) RegisterMCP(srv *mcp.Server) {
	svc.registerListTickets(srv)
	svc.registerCorrectCategory(srv)
	svc.registerAgents(srv)
	svc.registerForecast(srv)
	svc.registerClusters(srv)
	svc.registerRebalance(srv)
	svc.registerAsk(srv)
	svc.registerSummary(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool wires a typed endpoint into the MCP server, reporting failures
// as tool errors rather than protocol errors.
func addTool[Req any](srv *mcp.Server, tool *mcp.Tool, endpoint func(context.Context, *Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p Req
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}

		resp, err := endpoint(ctx, &p)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func (svc *Service) registerListTickets(srv *mcp.Server) {
	type req struct {
		MinRisk    float64 `json:"min_risk"`
		State      string  `json:"state"`
		Compliance string  `json:"compliance"`
		Search     string  `json:"search"`
	}

	tool := &mcp.Tool{
		Name:        "grc_list_tickets",
		Description: "List enriched service-desk tickets, optionally filtered",
		InputSchema: inputSchema(map[string]any{
			"min_risk":   map[string]any{"type": "number", "description": "Minimum risk score (0-10)"},
			"state":      map[string]any{"type": "string", "description": "Ticket state: Open, In Progress, Resolved, Closed"},
			"compliance": map[string]any{"type": "string", "description": "Compliant or Non-Compliant"},
			"search":     map[string]any{"type": "string", "description": "Keywords for title/description search"},
		}, nil),
	}

	addTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		f := &ticket.FilterCriteria{
			MinRisk:     p.MinRisk,
			Compliance:  ticket.ComplianceStatus(p.Compliance),
			SearchQuery: p.Search,
		}
		if p.State != "" {
			f.State = []ticket.State{ticket.State(p.State)}
		}
		return svc.Tickets(ctx, f)
	})
}

func (svc *Service) registerCorrectCategory(srv *mcp.Server) {
	type req struct {
		TicketID string `json:"ticket_id"`
		Category string `json:"category"`
	}

	tool := &mcp.Tool{
		Name:        "grc_correct_category",
		Description: "Correct a ticket's category; the taxonomy learns from the correction",
		InputSchema: inputSchema(map[string]any{
			"ticket_id": map[string]any{"type": "string", "description": "Ticket ID"},
			"category":  map[string]any{"type": "string", "description": "Corrected category label"},
		}, []string{"ticket_id", "category"}),
	}

	addTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		return svc.Correct(ctx, p.TicketID, p.Category)
	})
}

func (svc *Service) registerAgents(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "grc_agents",
		Description: "Per-agent workload, burnout, and load classification",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, _ *struct{}) (any, error) {
		return svc.Agents(ctx)
	})
}

func (svc *Service) registerForecast(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "grc_forecast",
		Description: "Daily ticket volume forecast with confidence bands",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, _ *struct{}) (any, error) {
		return svc.Forecast(ctx)
	})
}

func (svc *Service) registerClusters(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "grc_clusters",
		Description: "Emerging outage clusters among open tickets",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, _ *struct{}) (any, error) {
		return svc.Clusters(ctx)
	})
}

func (svc *Service) registerRebalance(srv *mcp.Server) {
	type req struct {
		Apply bool `json:"apply"`
	}

	tool := &mcp.Tool{
		Name:        "grc_rebalance",
		Description: "Propose workload rebalancing moves; set apply=true to execute them",
		InputSchema: inputSchema(map[string]any{
			"apply": map[string]any{"type": "boolean", "description": "Apply the proposed moves"},
		}, nil),
	}

	addTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		moves, err := svc.SuggestRebalance(ctx)
		if err != nil {
			return nil, err
		}
		if p.Apply {
			if err := svc.ApplyRebalance(ctx, moves); err != nil {
				return nil, err
			}
		}
		return moves, nil
	})
}

func (svc *Service) registerAsk(srv *mcp.Server) {
	type req struct {
		Query string `json:"query"`
	}

	tool := &mcp.Tool{
		Name:        "grc_ask",
		Description: "Translate a natural-language query into a ticket filter and run it",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "Natural language query"},
		}, []string{"query"}),
	}

	addTool(srv, tool, func(ctx context.Context, p *req) (any, error) {
		tickets, criteria, err := svc.AskData(ctx, p.Query)
		if err != nil {
			return nil, err
		}
		return map[string]any{"filter": criteria, "tickets": tickets}, nil
	})
}

func (svc *Service) registerSummary(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "grc_summary",
		Description: "One-sentence executive summary of the current risk posture",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, _ *struct{}) (any, error) {
		text, err := svc.Summary(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"summary": text}, nil
	})
}
