// Package textembed converts text to float32 vectors via any OpenAI-compatible
// embedding server (vLLM, Ollama, ONNX Runtime Server, OpenAI itself).
//
// The classifier only needs cosine rankings, so an unavailable backend is not
// an error condition at this layer's call sites: callers treat a failed Embed
// as "no semantic signal" and fall back to lexical classification.
//
// Usage:
//
//	emb := textembed.New(textembed.Config{
//	    Endpoint: "http://localhost:8003",
//	    Model:    "all-MiniLM-L6-v2",
//	})
//	vec, err := emb.Embed(ctx, "VPN connection timeout error")
package textembed

import (
	"context"
	"log/slog"
	"time"
)

// Embedder converts text to vectors.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns embeddings for multiple texts in one HTTP call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector dimension, or 0 before the first call.
	Dimension() int
}

// Config configures the embedding client.
type Config struct {
	// Endpoint is the base URL of the embedding server. If empty, New
	// returns a NoopEmbedder producing zero vectors.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Model is the model name sent in each request.
	Model string `json:"model" yaml:"model"`

	// APIKey, when set, is sent as a Bearer token.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Dimension is the expected vector dimension. 0 means auto-detect.
	Dimension int `json:"dimension" yaml:"dimension"`

	// BatchSize is the maximum number of texts per HTTP request. Default: 32.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Timeout per HTTP request. Default: 30s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Logger for debug/error messages. Defaults to slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New creates an Embedder from config. If Endpoint is empty, a NoopEmbedder
// is returned so the semantic path degrades to zero similarity everywhere.
func New(cfg Config) Embedder {
	cfg.defaults()
	if cfg.Endpoint == "" {
		dim := cfg.Dimension
		if dim <= 0 {
			dim = 384
		}
		return &NoopEmbedder{Dim: dim}
	}
	return newClient(cfg)
}

// NoopEmbedder returns zero vectors. Zero vectors have zero norm, so every
// cosine similarity computed against them is 0.
type NoopEmbedder struct {
	Dim int
}

func (n *NoopEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, n.Dim), nil
}

func (n *NoopEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, n.Dim)
	}
	return out, nil
}

func (n *NoopEmbedder) Dimension() int { return n.Dim }
