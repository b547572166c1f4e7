package triage

import (
	"log/slog"

	"github.com/hazyhaar/grcdesk/insight"
	"github.com/hazyhaar/grcdesk/sentiment"
	"github.com/hazyhaar/grcdesk/textembed"
)

// Config configures the triage service.
type Config struct {
	// Embed configures the embedding backend. An empty endpoint selects
	// the noop embedder (lexical-only classification).
	Embed textembed.Config `json:"embed" yaml:"embed"`

	// Sentiment configures the external polarity classifier. An empty
	// endpoint selects the lexicon fallback.
	Sentiment sentiment.ClientConfig `json:"sentiment" yaml:"sentiment"`

	// Insight configures the LLM analyst. An empty API key selects the
	// null analyst.
	Insight insight.Config `json:"insight" yaml:"insight"`

	// Workers bounds concurrent per-ticket enrichment. Default: 8.
	Workers int `json:"workers" yaml:"workers"`

	// Logger defaults to slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
