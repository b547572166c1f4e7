package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hazyhaar/grcdesk/textembed"
)

// RuleVector pairs a rule id with its embedding.
type RuleVector struct {
	ID     string
	Vector []float32
}

// VectorCache is the shared taxonomy embedding cache. Rebuilds replace the
// whole vector set atomically: a concurrent reader sees either the previous
// set or the new one, never a partial mix. Tests inject fixed vectors via
// SetForTest.
type VectorCache struct {
	embedder textembed.Embedder
	logger   *slog.Logger

	vectors atomic.Pointer[[]RuleVector]

	rebuildMu sync.Mutex // serializes rebuilds; readers are never blocked
}

// NewVectorCache creates an empty cache bound to an embedder.
func NewVectorCache(embedder textembed.Embedder, logger *slog.Logger) *VectorCache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &VectorCache{embedder: embedder, logger: logger}
	empty := []RuleVector{}
	c.vectors.Store(&empty)
	return c
}

// Vectors returns the current vector set. The returned slice must not be
// mutated.
func (c *VectorCache) Vectors() []RuleVector {
	return *c.vectors.Load()
}

// Rebuild embeds every rule and swaps in the new vector set. One embedding
// batch call covers all rules. A backend failure leaves the previous set in
// place so classification continues with stale but usable vectors.
func (c *VectorCache) Rebuild(ctx context.Context, rules []Rule) error {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	texts := make([]string, len(rules))
	for i := range rules {
		texts[i] = rules[i].EmbeddingText()
	}

	vecs, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("taxonomy: embed rules: %w", err)
	}

	next := make([]RuleVector, len(rules))
	for i := range rules {
		next[i] = RuleVector{ID: rules[i].ID, Vector: vecs[i]}
	}
	c.vectors.Store(&next)
	c.logger.Debug("taxonomy vectors rebuilt", "rules", len(next))
	return nil
}

// RebuildAsync runs Rebuild on a fresh goroutine. Classification proceeds
// with the stale set until the swap lands; failures are logged and dropped
// because the semantic path is best-effort.
func (c *VectorCache) RebuildAsync(ctx context.Context, rules []Rule) {
	go func() {
		if err := c.Rebuild(ctx, rules); err != nil {
			c.logger.Warn("taxonomy vector rebuild failed, keeping stale vectors", "error", err)
		}
	}()
}

// SetForTest installs a fixed vector set, bypassing the embedder.
func (c *VectorCache) SetForTest(vectors []RuleVector) {
	c.vectors.Store(&vectors)
}
