package search

import (
	"fmt"
	"math"
)

// CosineSimilarity returns dot(a, b) / (|a| * |b|), computed in float64.
//
// Vectors come from a model and may be malformed, so every bad input maps to
// a score of exactly 0 instead of an error: nil or empty vectors, mismatched
// lengths, non-finite elements, zero magnitude, and a non-finite result.
// A malformed candidate therefore sorts to the bottom of a ranking.
func CosineSimilarity(a, b []float32) float64 {
	score, err := CosineSimilarityStrict(a, b)
	if err != nil {
		return 0
	}
	return score
}

// CosineSimilarityStrict is CosineSimilarity that reports which precondition
// failed. Errors wrap ErrInvalidVector.
func CosineSimilarityStrict(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrInvalidVector)
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: length mismatch %d != %d", ErrInvalidVector, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			return 0, fmt.Errorf("%w: non-finite element at %d", ErrInvalidVector, i)
		}
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("%w: zero magnitude", ErrInvalidVector)
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("%w: non-finite score", ErrInvalidVector)
	}
	// Rounding can push a perfect match just past the unit interval
	return math.Max(-1, math.Min(1, score)), nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
