// Package embed provides the optional text-embedding capability used by
// similarity search. The backend is an Ollama server reached over HTTP;
// its absence is a normal, detectable condition rather than an error.
package embed

import "math"

// Embedding represents a vector embedding (float32 slice).
type Embedding []float32

// DefaultDim is the dimension for the nomic-embed-text model.
const DefaultDim = 768

// similarityEpsilon guards the cosine denominator against degenerate
// zero-norm vectors.
const similarityEpsilon = 1e-8

// CosineSimilarity computes the cosine similarity between two embeddings:
// dot(a,b) / (|a|*|b| + 1e-8). Returns 0 for mismatched dimensions.
func (e Embedding) CosineSimilarity(other Embedding) float64 {
	if len(e) != len(other) || len(e) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range e {
		a, b := float64(e[i]), float64(other[i])
		dot += a * b
		normA += a * a
		normB += b * b
	}

	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + similarityEpsilon)
}

// Normalize returns a unit-length version of the embedding.
func (e Embedding) Normalize() Embedding {
	if len(e) == 0 {
		return e
	}

	var norm float64
	for _, v := range e {
		norm += float64(v) * float64(v)
	}

	if norm == 0 {
		return e
	}

	norm = math.Sqrt(norm)
	result := make(Embedding, len(e))
	for i, v := range e {
		result[i] = float32(float64(v) / norm)
	}
	return result
}
