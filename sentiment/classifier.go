package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Result is a classifier verdict: label POSITIVE or NEGATIVE with a 0..1
// confidence.
type Result struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier scores text polarity. Implementations wrap an out-of-process
// model server; errors select the lexicon fallback per ticket.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// ClientConfig configures the HTTP classifier client.
type ClientConfig struct {
	// Endpoint is the base URL of the classification server. If empty,
	// NewClient returns nil and callers fall back to the lexicon.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Model is the model name sent in each request.
	Model string `json:"model" yaml:"model"`

	// Timeout per HTTP request. Default: 15s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Logger defaults to slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// NewClient creates an HTTP Classifier, or nil when no endpoint is set.
func NewClient(cfg ClientConfig) Classifier {
	if cfg.Endpoint == "" {
		return nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// client talks to a text-classification server speaking the common
// {"model": ..., "input": ...} → {"label": ..., "score": ...} shape.
type client struct {
	endpoint string
	model    string
	http     *http.Client
}

type classifyRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

func (c *client) Classify(ctx context.Context, text string) (Result, error) {
	body, err := json.Marshal(classifyRequest{Model: c.model, Input: text})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	url := c.endpoint + "/v1/classify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	if res.Label != "POSITIVE" && res.Label != "NEGATIVE" {
		return Result{}, fmt.Errorf("unexpected label %q", res.Label)
	}
	return res, nil
}
