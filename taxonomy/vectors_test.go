package taxonomy

import (
	"context"
	"sync"
	"testing"

	"github.com/hazyhaar/grcdesk/textembed"
)

// unitEmbedder maps each text to a distinct axis-aligned unit vector.
type unitEmbedder struct {
	mu   sync.Mutex
	next int
	dim  int
}

func (e *unitEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *unitEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, e.dim)
		v[e.next%e.dim] = 1
		e.next++
		out[i] = v
	}
	return out, nil
}

func (e *unitEmbedder) Dimension() int { return e.dim }

func TestVectorCacheRebuild(t *testing.T) {
	cache := NewVectorCache(&unitEmbedder{dim: 16}, nil)
	rules := Official()

	if len(cache.Vectors()) != 0 {
		t.Fatal("new cache should be empty")
	}
	if err := cache.Rebuild(context.Background(), rules); err != nil {
		t.Fatal(err)
	}

	vecs := cache.Vectors()
	if len(vecs) != len(rules) {
		t.Fatalf("got %d vectors, want %d", len(vecs), len(rules))
	}
	for i, v := range vecs {
		if v.ID != rules[i].ID {
			t.Errorf("vector %d id = %q, want %q", i, v.ID, rules[i].ID)
		}
	}
}

func TestVectorCacheKeepsStaleSetOnFailure(t *testing.T) {
	good := &unitEmbedder{dim: 8}
	cache := NewVectorCache(good, nil)
	rules := Official()

	if err := cache.Rebuild(context.Background(), rules); err != nil {
		t.Fatal(err)
	}
	old := cache.Vectors()

	// A dead backend must leave the previous vector set readable.
	dead := textembed.New(textembed.Config{Endpoint: "http://127.0.0.1:1", Model: "x"})
	failing := NewVectorCache(dead, nil)
	failing.SetForTest(old)
	if err := failing.Rebuild(context.Background(), rules); err == nil {
		t.Fatal("expected rebuild error from dead backend")
	}
	if got := failing.Vectors(); len(got) != len(old) {
		t.Fatalf("stale set lost: %d vectors, want %d", len(got), len(old))
	}
}

func TestVectorCacheAtomicSwap(t *testing.T) {
	cache := NewVectorCache(&unitEmbedder{dim: 4}, nil)
	rules := Official()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 50 {
			_ = cache.Rebuild(context.Background(), rules)
		}
	}()

	// Readers must always observe a complete set: empty (initial) or full.
	for range 1000 {
		n := len(cache.Vectors())
		if n != 0 && n != len(rules) {
			t.Fatalf("observed partial vector set of %d entries", n)
		}
	}
	<-done
}
