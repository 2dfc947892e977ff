package embed

import (
	"context"
	"crypto/md5"
	"encoding/binary"
)

// StaticEmbedder is a deterministic in-process embedder used in tests and
// as an offline fallback. It hashes the input text into a fixed-dimension
// vector, so identical texts always produce identical embeddings.
type StaticEmbedder struct {
	dim     int
	vectors map[string]Embedding
}

// NewStaticEmbedder creates a deterministic embedder with the given
// dimension. Explicit per-text vectors can be registered with Set.
func NewStaticEmbedder(dim int) *StaticEmbedder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &StaticEmbedder{
		dim:     dim,
		vectors: make(map[string]Embedding),
	}
}

// Set registers a fixed vector to return for an exact text.
func (e *StaticEmbedder) Set(text string, v Embedding) {
	e.vectors[text] = v
}

// Embed returns the registered vector for text, or a hash-derived one.
func (e *StaticEmbedder) Embed(_ context.Context, text string) (Embedding, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}

	sum := md5.Sum([]byte(text))
	out := make(Embedding, e.dim)
	for i := range out {
		// Stretch the 16 digest bytes across the vector
		word := binary.LittleEndian.Uint32(sum[(i*4)%12:])
		out[i] = float32(word%1000)/1000.0 - 0.5
	}
	return out, nil
}

// Dimension returns the embedding dimension.
func (e *StaticEmbedder) Dimension() int { return e.dim }

// ModelName returns "static".
func (e *StaticEmbedder) ModelName() string { return "static" }

// Available always returns true.
func (e *StaticEmbedder) Available() bool { return true }
