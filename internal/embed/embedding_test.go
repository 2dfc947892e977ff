package embed

import (
	"context"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Embedding
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        Embedding{1, 2, 3},
			b:        Embedding{1, 2, 3},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        Embedding{1, 0},
			b:        Embedding{0, 1},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        Embedding{1, 0},
			b:        Embedding{-1, 0},
			expected: -1.0,
		},
		{
			name:     "dimension mismatch",
			a:        Embedding{1, 2},
			b:        Embedding{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "empty vectors",
			a:        Embedding{},
			b:        Embedding{},
			expected: 0.0,
		},
		{
			name:     "zero vector does not divide by zero",
			a:        Embedding{0, 0},
			b:        Embedding{1, 1},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.a.CosineSimilarity(tt.b)
			if math.Abs(result-tt.expected) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	v := Embedding{3, 4}
	n := v.Normalize()

	var norm float64
	for _, x := range n {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1.0) > 1e-6 {
		t.Errorf("expected unit length, got norm^2 = %v", norm)
	}

	zero := Embedding{0, 0}
	if got := zero.Normalize(); got[0] != 0 || got[1] != 0 {
		t.Errorf("zero vector should normalize to itself, got %v", got)
	}
}

func TestEmbeddingCache(t *testing.T) {
	t.Run("get returns what put stored", func(t *testing.T) {
		cache := newEmbeddingCache(4)
		cache.put("hello", Embedding{1, 2})

		got := cache.get("hello")
		if got == nil || got[0] != 1 {
			t.Errorf("expected cached embedding, got %v", got)
		}
	})

	t.Run("keys are case and whitespace insensitive", func(t *testing.T) {
		cache := newEmbeddingCache(4)
		cache.put("  Hello World ", Embedding{1})

		if cache.get("hello world") == nil {
			t.Error("expected normalized key hit")
		}
	})

	t.Run("evicts the oldest entry at capacity", func(t *testing.T) {
		cache := newEmbeddingCache(2)
		cache.put("a", Embedding{1})
		cache.put("b", Embedding{2})
		cache.put("c", Embedding{3})

		if cache.get("a") != nil {
			t.Error("expected oldest entry to be evicted")
		}
		if cache.get("b") == nil || cache.get("c") == nil {
			t.Error("expected newer entries to survive")
		}
	})

	t.Run("get refreshes recency", func(t *testing.T) {
		cache := newEmbeddingCache(2)
		cache.put("a", Embedding{1})
		cache.put("b", Embedding{2})
		cache.get("a")
		cache.put("c", Embedding{3})

		if cache.get("a") == nil {
			t.Error("recently used entry should survive eviction")
		}
		if cache.get("b") != nil {
			t.Error("least recently used entry should be evicted")
		}
	})
}

func TestStaticEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("registered vectors win", func(t *testing.T) {
		e := NewStaticEmbedder(4)
		e.Set("query", Embedding{1, 0, 0, 0})

		got, err := e.Embed(ctx, "query")
		if err != nil {
			t.Fatalf("Embed failed: %v", err)
		}
		if got[0] != 1 {
			t.Errorf("expected registered vector, got %v", got)
		}
	})

	t.Run("unregistered text is deterministic", func(t *testing.T) {
		e := NewStaticEmbedder(8)
		a, _ := e.Embed(ctx, "some text")
		b, _ := e.Embed(ctx, "some text")

		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("embedding not deterministic at %d: %v vs %v", i, a[i], b[i])
			}
		}
	})

	t.Run("always available", func(t *testing.T) {
		e := NewStaticEmbedder(4)
		if !e.Available() {
			t.Error("static embedder should always be available")
		}
		if e.Dimension() != 4 {
			t.Errorf("expected dimension 4, got %d", e.Dimension())
		}
	})
}
