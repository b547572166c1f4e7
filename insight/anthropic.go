package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hazyhaar/grcdesk/ticket"
)

const defaultModel = "claude-sonnet-4-5-20250929"

// narrativeContextSize caps how many tickets feed the narrative prompt;
// the riskiest ones go first.
const narrativeContextSize = 25

// Config configures the Anthropic-backed Analyst.
type Config struct {
	// APIKey for the Anthropic API. If empty, New returns the Null
	// analyst.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Model name. Default: claude-sonnet-4-5-20250929.
	Model string `json:"model" yaml:"model"`

	// Logger defaults to slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// New creates an Analyst backed by the Anthropic messages API, or the
// Null analyst when no API key is configured.
func New(cfg Config) Analyst {
	if cfg.APIKey == "" {
		return Null()
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &anthropicAnalyst{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  anthropic.Model(cfg.Model),
		logger: cfg.Logger,
	}
}

type anthropicAnalyst struct {
	client anthropic.Client
	model  anthropic.Model
	logger *slog.Logger
}

const askDataSystem = `You are an AI assistant for a GRC (Governance, Risk, Compliance) service desk.
Convert the user's natural language query into a structured JSON filter object.

The JSON schema is:
{
  "minRisk": number (omit if unused),
  "priority": ["Critical" | "High" | "Moderate" | "Low"] (omit if unused),
  "state": ["Open" | "In Progress" | "Resolved" | "Closed"] (omit if unused),
  "compliance": "Compliant" | "Non-Compliant" (omit if unused),
  "searchQuery": string, keywords for title/description search (omit if unused)
}

Examples:
- "Show me critical risk tickets" -> {"minRisk": 8, "priority": ["Critical"]}
- "Show open non-compliant items" -> {"state": ["Open"], "compliance": "Non-Compliant"}
- "Find issues about outages" -> {"searchQuery": "outage"}
- "Summarize the SAP access issues" -> {"searchQuery": "SAP access"}

Return ONLY the valid JSON object, no markdown.`

func (a *anthropicAnalyst) AskData(ctx context.Context, query string) (*ticket.FilterCriteria, error) {
	text, err := a.complete(ctx, askDataSystem, fmt.Sprintf("User Query: %q", query))
	if err != nil {
		return nil, err
	}

	var criteria ticket.FilterCriteria
	if err := json.Unmarshal([]byte(stripFences(text)), &criteria); err != nil {
		return nil, fmt.Errorf("insight: parse filter response: %w", err)
	}
	return &criteria, nil
}

func (a *anthropicAnalyst) ExecutiveSummary(ctx context.Context, stats Stats) (string, error) {
	prompt := fmt.Sprintf(
		"Generate a 1-sentence executive summary for a GRC dashboard with: %d high risk tickets, %d non-compliant items, and primary concern area being %s. Keep it professional and urgent if needed.",
		stats.HighRiskCount, stats.NonCompliantCount, stats.TopRiskCategory)
	return a.complete(ctx, "", prompt)
}

const narrativeSystem = `You are a Senior GRC (Governance, Risk, Compliance) Analyst.

Instructions:
1. Answer the user's question directly based *only* on the provided ticket data.
2. Identify patterns, root causes, or specific risk clusters if asked.
3. Cite specific ticket IDs (e.g., T-10203) to support your evidence.
4. Keep the tone professional, analytical, and concise.
5. If the data provided doesn't answer the question, state that clearly.

Format with paragraphs or bullet points where appropriate.`

func (a *anthropicAnalyst) Narrative(ctx context.Context, query string, tickets []*ticket.Ticket) (string, error) {
	contextJSON, err := json.MarshalIndent(narrativeContext(tickets), "", "  ")
	if err != nil {
		return "", fmt.Errorf("insight: marshal context: %w", err)
	}

	prompt := fmt.Sprintf("User Question: %q\n\nContext Data (top %d relevant tickets from current view):\n%s",
		query, len(tickets), contextJSON)
	return a.complete(ctx, narrativeSystem, prompt)
}

func (a *anthropicAnalyst) complete(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		a.logger.Warn("insight call failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: no text content in response", ErrUnavailable)
}

// contextTicket is the compact per-ticket projection sent to the model.
type contextTicket struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Desc     string  `json:"desc"`
	Risk     float64 `json:"risk"`
	Priority string  `json:"priority"`
	Status   string  `json:"status"`
	Category string  `json:"category"`
	Duration string  `json:"duration"`
	Assignee string  `json:"assignee"`
}

// narrativeContext selects the riskiest tickets and projects them down
// to the fields the model needs.
func narrativeContext(tickets []*ticket.Ticket) []contextTicket {
	sorted := make([]*ticket.Ticket, len(tickets))
	copy(sorted, tickets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RiskScore > sorted[j].RiskScore })
	if len(sorted) > narrativeContextSize {
		sorted = sorted[:narrativeContextSize]
	}

	out := make([]contextTicket, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, contextTicket{
			ID:       t.ID,
			Title:    t.Title,
			Desc:     t.Description,
			Risk:     t.RiskScore,
			Priority: string(t.Priority),
			Status:   string(t.State),
			Category: t.Category,
			Duration: fmt.Sprintf("%gh", t.DurationHours),
			Assignee: t.AssignedToName,
		})
	}
	return out
}

// stripFences removes a markdown code fence the model sometimes wraps
// around JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
