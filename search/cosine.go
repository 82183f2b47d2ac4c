package search

import "math"

// Cosine computes the cosine similarity between two vectors, in [-1, 1].
// If either vector has zero norm (or the dimensions disagree) the result is
// 0 rather than NaN, so callers never have to guard the division themselves.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
